/**
 * @description
 * This file contains the credit-policy engine for asset accounts (loans and
 * credit cards). It decides whether an asset account may be created, derives
 * the credit limit from the client's existing holdings, and validates every
 * debt mutation against policy.
 *
 * @notes
 * - The credit limit is a snapshot of the client's net passive-minus-asset
 *   position at creation time, not a live invariant.
 * - The limit check applies to every debt-increasing operation, loan
 *   draw-downs included.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
	"github.com/andeanbank/account-management-service/internal/store"
)

// codeGenerationAttempts bounds the regenerate-and-retry loop on account
// code collisions.
const codeGenerationAttempts = 3

// EventPublisher publishes domain events to the message broker. Publishing
// is fire-and-forget: failures are logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// accountEventsExchange is the topic exchange shared with the
// client-management service.
const accountEventsExchange = "account_events"

// AssetAccountService applies creation and debt-lifecycle policy to loan and
// credit card accounts.
type AssetAccountService struct {
	repo   store.AccountRepository
	events EventPublisher
}

// NewAssetAccountService creates a new AssetAccountService.
func NewAssetAccountService(repo store.AccountRepository, events EventPublisher) *AssetAccountService {
	return &AssetAccountService{repo: repo, events: events}
}

// CreateAssetAccountInput is the payload for opening a loan or credit card
// account.
type CreateAssetAccountInput struct {
	ClientID        uuid.UUID
	AssetType       domain.AssetAccountType
	InitialBalance  decimal.Decimal
	LastPaymentDate time.Time
}

// CreateAssetAccount opens a new loan or credit card account. Creation is
// blocked while the client carries an obligation more than 30 days overdue.
// The credit limit is the client's passive balance total minus their asset
// balance total, floored at zero.
func (s *AssetAccountService) CreateAssetAccount(ctx context.Context, input CreateAssetAccountInput) (*domain.AssetAccount, error) {
	now := time.Now()
	if domain.IsPastDue(input.LastPaymentDate, now) {
		return nil, domain.ErrDebtPastDue
	}

	assetAccounts, err := s.repo.ListAssetAccountsByClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list asset accounts for client %s: %w", input.ClientID, err)
	}
	passiveAccounts, err := s.repo.ListPassiveAccountsByClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list passive accounts for client %s: %w", input.ClientID, err)
	}

	creditLimit := sumPassiveBalances(passiveAccounts).Sub(sumAssetBalances(assetAccounts))
	if creditLimit.Sign() <= 0 {
		creditLimit = decimal.Zero
	}

	account := &domain.AssetAccount{
		AccountBase: domain.AccountBase{
			ClientID:  input.ClientID,
			Balance:   input.InitialBalance,
			CreatedAt: now,
		},
		AssetType:       input.AssetType,
		CreditLimit:     creditLimit,
		LastPaymentDate: now,
	}

	created, err := createWithFreshCode(ctx, s.repo, account, func() string {
		return domain.GenerateAssetAccountCode(input.AssetType)
	})
	if err != nil {
		return nil, err
	}

	asset := created.(*domain.AssetAccount)
	publishAccountCreated(ctx, s.events, asset.Base(), domain.KindAsset, string(asset.AssetType))
	return asset, nil
}

// IncreaseLoanDebtForBankClient disburses a loan for a client who banks with
// us: the loan balance grows and the funds land in the client's destination
// account.
func (s *AssetAccountService) IncreaseLoanDebtForBankClient(ctx context.Context, loanAccountID, destinationAccountID uuid.UUID, amount decimal.Decimal) error {
	account, err := s.repo.GetAccountByID(ctx, loanAccountID)
	if err != nil {
		return err
	}

	switch loan := account.(type) {
	case *domain.AssetAccount:
		if withinCreditLimit := loan.CreditLimit.GreaterThan(loan.Balance.Add(amount)); !withinCreditLimit {
			return domain.ErrCreditCardLimitReached
		}
		if err := s.repo.AddToBalance(ctx, loanAccountID, amount); err != nil {
			return err
		}
		// Not transactional with the loan update: this is a policy layer,
		// not a ledger.
		return s.repo.AddToBalance(ctx, destinationAccountID, amount)
	case *domain.PassiveAccount:
		return domain.ErrIncompatibleAccountType
	default:
		return domain.ErrIncompatibleAccountType
	}
}

// IncreaseLoanDebtForNonBankClient disburses a loan for a client who holds
// no passive account with us; the funds leave the bank, so no destination
// account is credited.
func (s *AssetAccountService) IncreaseLoanDebtForNonBankClient(ctx context.Context, loanAccountID uuid.UUID, amount decimal.Decimal) error {
	account, err := s.repo.GetAccountByID(ctx, loanAccountID)
	if err != nil {
		return err
	}

	passiveAccounts, err := s.repo.ListPassiveAccountsByClient(ctx, account.Base().ClientID)
	if err != nil {
		return fmt.Errorf("list passive accounts for client %s: %w", account.Base().ClientID, err)
	}
	if len(passiveAccounts) != 0 {
		// Bank clients must route disbursements into one of their own
		// accounts.
		return domain.ErrIncompatibleAccountType
	}

	switch loan := account.(type) {
	case *domain.AssetAccount:
		if withinCreditLimit := loan.CreditLimit.GreaterThan(loan.Balance.Add(amount)); !withinCreditLimit {
			return domain.ErrCreditCardLimitReached
		}
		return s.repo.AddToBalance(ctx, loanAccountID, amount)
	case *domain.PassiveAccount:
		return domain.ErrIncompatibleAccountType
	default:
		return domain.ErrIncompatibleAccountType
	}
}

// IncreaseCreditCardDebt charges a credit card account, failing once the
// charge would make the balance reach the credit limit.
func (s *AssetAccountService) IncreaseCreditCardDebt(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	switch card := account.(type) {
	case *domain.AssetAccount:
		if withinCreditLimit := card.CreditLimit.GreaterThan(card.Balance.Add(amount)); !withinCreditLimit {
			return domain.ErrCreditCardLimitReached
		}
		return s.repo.AddToBalance(ctx, accountID, amount)
	case *domain.PassiveAccount:
		return domain.ErrIncompatibleAccountType
	default:
		return domain.ErrIncompatibleAccountType
	}
}

// PayLoanOrCreditCard applies a repayment to an asset account and refreshes
// its last payment date. Paying more than the outstanding debt is rejected.
func (s *AssetAccountService) PayLoanOrCreditCard(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	switch account.(type) {
	case *domain.AssetAccount:
		if account.Base().Balance.LessThan(amount) {
			return domain.ErrOverpaidAssetAccount
		}
	case *domain.PassiveAccount:
		return domain.ErrAccountDoesNotExist
	default:
		return domain.ErrAccountDoesNotExist
	}

	if err := s.repo.SubtractFromBalance(ctx, accountID, amount); err != nil {
		return err
	}

	paidAt := time.Now()
	if err := s.repo.SetLastPaymentDate(ctx, accountID, paidAt); err != nil {
		return err
	}

	if s.events != nil {
		event := domain.AccountPaymentEvent{AccountID: accountID, Amount: amount, PaidAt: paidAt}
		if err := s.events.Publish(ctx, accountEventsExchange, "account.payment", event); err != nil {
			log.Printf("Failed to publish account.payment event for %s: %v", accountID, err)
		}
	}
	return nil
}

// GetAccountBalance returns the balance for any account code.
func (s *AssetAccountService) GetAccountBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	return s.repo.GetAccountBalance(ctx, accountCode)
}

// GetAssetAccountsForClient lists the client's asset accounts.
func (s *AssetAccountService) GetAssetAccountsForClient(ctx context.Context, clientID uuid.UUID) ([]domain.AssetAccount, error) {
	return s.repo.ListAssetAccountsByClient(ctx, clientID)
}

// GetAssetAccountByAccountCode resolves an account code within the asset
// namespace. Passive accounts are reported as not found so the caller can
// fall back to the passive namespace.
func (s *AssetAccountService) GetAssetAccountByAccountCode(ctx context.Context, accountCode string) (*domain.AssetAccount, error) {
	account, err := s.repo.GetAccountByCode(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	asset, ok := account.(*domain.AssetAccount)
	if !ok {
		return nil, domain.ErrAccountDoesNotExist
	}
	return asset, nil
}

func sumAssetBalances(accounts []domain.AssetAccount) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	return total
}

func sumPassiveBalances(accounts []domain.PassiveAccount) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	return total
}

// createWithFreshCode persists the account, regenerating the account code a
// bounded number of times if it collides with an existing one.
func createWithFreshCode(ctx context.Context, repo store.AccountRepository, account domain.Account, nextCode func() string) (domain.Account, error) {
	var lastErr error
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		account.Base().AccountCode = nextCode()
		created, err := repo.CreateAccount(ctx, account)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateAccountCode) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("exhausted account code generation attempts: %w", lastErr)
}

func publishAccountCreated(ctx context.Context, events EventPublisher, base *domain.AccountBase, kind domain.AccountKind, subtype string) {
	if events == nil {
		return
	}
	event := domain.AccountCreatedEvent{
		AccountID:   base.ID,
		ClientID:    base.ClientID,
		AccountCode: base.AccountCode,
		Kind:        kind,
		Subtype:     subtype,
		Balance:     base.Balance,
	}
	if err := events.Publish(ctx, accountEventsExchange, "account.created", event); err != nil {
		log.Printf("Failed to publish account.created event for %s: %v", base.AccountCode, err)
	}
}
