/**
 * @description
 * This file contains the policy engine for passive accounts (savings,
 * checking, fixed-term savings). Creation eligibility depends on the
 * client's classification, which is resolved through the client-management
 * service: regular clients hold at most one account per passive subtype,
 * corporate clients hold checking accounts only.
 *
 * @notes
 * - Classification is a required dependency. A resolution failure propagates
 *   to the caller; the engine never assumes a default client type.
 * - The validate-then-write sequence for duplicate-subtype checking runs
 *   inside a per-client critical section so two concurrent create calls for
 *   the same client cannot both pass validation.
 */
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
	"github.com/andeanbank/account-management-service/internal/store"
)

// ClientDirectory resolves a client id to its classification.
type ClientDirectory interface {
	GetClientType(ctx context.Context, clientID uuid.UUID) (domain.ClientType, error)
}

// PassiveAccountService applies creation and balance policy to passive
// accounts.
type PassiveAccountService struct {
	repo    store.AccountRepository
	clients ClientDirectory
	events  EventPublisher
	locks   clientLocks
}

// NewPassiveAccountService creates a new PassiveAccountService.
func NewPassiveAccountService(repo store.AccountRepository, clients ClientDirectory, events EventPublisher) *PassiveAccountService {
	return &PassiveAccountService{repo: repo, clients: clients, events: events}
}

// CreatePassiveAccountInput is the payload for opening a savings, checking,
// or fixed-term savings account.
type CreatePassiveAccountInput struct {
	ClientID       uuid.UUID
	PassiveType    domain.PassiveAccountType
	InitialBalance decimal.Decimal
}

// CreatePassiveAccount opens a new passive account after resolving the
// client's classification and checking that no asset obligation is past due.
func (s *PassiveAccountService) CreatePassiveAccount(ctx context.Context, input CreatePassiveAccountInput) (*domain.PassiveAccount, error) {
	clientType, err := s.clients.GetClientType(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client type for %s: %w", input.ClientID, err)
	}

	unlock := s.locks.lock(input.ClientID)
	defer unlock()

	assetAccounts, err := s.repo.ListAssetAccountsByClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list asset accounts for client %s: %w", input.ClientID, err)
	}
	now := time.Now()
	for _, account := range assetAccounts {
		if domain.IsPastDue(account.LastPaymentDate, now) {
			return nil, domain.ErrDebtPastDue
		}
	}

	existing, err := s.repo.ListPassiveAccountsByClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list passive accounts for client %s: %w", input.ClientID, err)
	}
	if err := validatePassiveCreation(input.PassiveType, clientType, existing); err != nil {
		return nil, err
	}

	account := &domain.PassiveAccount{
		AccountBase: domain.AccountBase{
			ClientID:  input.ClientID,
			Balance:   input.InitialBalance,
			CreatedAt: now,
		},
		PassiveType: input.PassiveType,
	}

	created, err := createWithFreshCode(ctx, s.repo, account, func() string {
		return domain.GeneratePassiveAccountCode(input.PassiveType)
	})
	if err != nil {
		return nil, err
	}

	passive := created.(*domain.PassiveAccount)
	publishAccountCreated(ctx, s.events, passive.Base(), domain.KindPassive, string(passive.PassiveType))
	return passive, nil
}

// IncreaseAccountBalance applies a deposit to a passive account.
func (s *PassiveAccountService) IncreaseAccountBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return s.repo.AddToBalance(ctx, accountID, amount)
}

// DecreaseAccountBalance applies a withdrawal to a passive account. No
// overdraft bound is enforced for passive accounts.
func (s *PassiveAccountService) DecreaseAccountBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return s.repo.SubtractFromBalance(ctx, accountID, amount)
}

// GetAccountBalance returns the balance for any account code.
func (s *PassiveAccountService) GetAccountBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	return s.repo.GetAccountBalance(ctx, accountCode)
}

// GetAllPassiveAccountsForClient lists the client's passive accounts.
func (s *PassiveAccountService) GetAllPassiveAccountsForClient(ctx context.Context, clientID uuid.UUID) ([]domain.PassiveAccount, error) {
	return s.repo.ListPassiveAccountsByClient(ctx, clientID)
}

// GetPassiveAccountByAccountCode resolves an account code within the passive
// namespace. Asset accounts are reported as not found.
func (s *PassiveAccountService) GetPassiveAccountByAccountCode(ctx context.Context, accountCode string) (*domain.PassiveAccount, error) {
	account, err := s.repo.GetAccountByCode(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	passive, ok := account.(*domain.PassiveAccount)
	if !ok {
		return nil, domain.ErrAccountDoesNotExist
	}
	return passive, nil
}

// validatePassiveCreation applies the classification-dependent creation
// rules. Unknown client types are rejected outright.
func validatePassiveCreation(requested domain.PassiveAccountType, clientType domain.ClientType, existing []domain.PassiveAccount) error {
	switch clientType {
	case domain.RegularClient:
		for _, account := range existing {
			if account.PassiveType == requested {
				return domain.ErrIncompatibleAccountType
			}
		}
		return nil
	case domain.CorporateClient:
		if requested != domain.CheckingAccount {
			return domain.ErrIncompatibleAccountType
		}
		return nil
	default:
		return domain.ErrIncompatibleAccountType
	}
}

// clientLocks hands out one mutex per client id. Entries are never reaped;
// the map is bounded by the number of distinct clients served by this
// process.
type clientLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (c *clientLocks) lock(clientID uuid.UUID) (unlock func()) {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := c.locks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[clientID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
