/**
 * @description
 * This file defines the core domain model for accounts managed by the
 * account-management-service. Accounts come in exactly two variants: asset
 * accounts (loans and credit cards, where the balance is debt owed to the
 * bank) and passive accounts (savings, checking, fixed-term, where the
 * balance is client funds).
 *
 * @notes
 * - Account is a closed variant: only AssetAccount and PassiveAccount satisfy
 *   it, and policy code discriminates with an exhaustive type switch instead
 *   of casting from a shared base.
 * - Balances and limits use decimal arithmetic; never float the money.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the two account categories.
type AccountKind string

const (
	KindAsset   AccountKind = "ASSET"
	KindPassive AccountKind = "PASSIVE"
)

// AssetAccountType enumerates the asset account subtypes.
type AssetAccountType string

const (
	CreditCardAccount AssetAccountType = "CREDIT_CARD_ACCOUNT"
	LoanAccount       AssetAccountType = "LOAN_ACCOUNT"
)

// PassiveAccountType enumerates the passive account subtypes.
type PassiveAccountType string

const (
	SavingsAccount          PassiveAccountType = "SAVINGS_ACCOUNT"
	CheckingAccount         PassiveAccountType = "CHECKING_ACCOUNT"
	FixedTermSavingsAccount PassiveAccountType = "FIXED_TERM_SAVINGS_ACCOUNT"
)

// ClientType is the classification resolved by the client-management service.
// It is never stored on the account.
type ClientType string

const (
	RegularClient   ClientType = "REGULAR_CLIENT"
	CorporateClient ClientType = "CORPORATE_CLIENT"
)

// AccountBase holds the fields shared by both account variants. The account
// code is assigned exactly once, at creation, and is never blank afterwards.
type AccountBase struct {
	ID          uuid.UUID       `json:"id"`
	ClientID    uuid.UUID       `json:"client_id"`
	AccountCode string          `json:"account_code"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AssetAccount represents money owed to the bank by the client.
type AssetAccount struct {
	AccountBase
	AssetType AssetAccountType `json:"asset_account_type"`
	// CreditLimit is the ceiling on the balance, derived at creation time
	// from the client's net passive-minus-asset position. Never negative.
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	LastPaymentDate time.Time       `json:"last_payment_date"`
}

// PassiveAccount represents money the bank holds on behalf of the client.
type PassiveAccount struct {
	AccountBase
	PassiveType PassiveAccountType `json:"passive_account_type"`
}

// Account is the closed set of account variants. Only *AssetAccount and
// *PassiveAccount implement it.
type Account interface {
	Kind() AccountKind
	Base() *AccountBase
	isAccount()
}

// Kind reports the account category for an asset account.
func (a *AssetAccount) Kind() AccountKind { return KindAsset }

// Base exposes the shared account fields.
func (a *AssetAccount) Base() *AccountBase { return &a.AccountBase }

func (a *AssetAccount) isAccount() {}

// Kind reports the account category for a passive account.
func (p *PassiveAccount) Kind() AccountKind { return KindPassive }

// Base exposes the shared account fields.
func (p *PassiveAccount) Base() *AccountBase { return &p.AccountBase }

func (p *PassiveAccount) isAccount() {}

// pastDueWindow is how long an asset account may go without a payment before
// it blocks new account creation for its owner.
const pastDueWindow = 30 * 24 * time.Hour

// IsPastDue reports whether an obligation whose most recent payment happened
// at lastPaymentDate is past due as of now.
func IsPastDue(lastPaymentDate, now time.Time) bool {
	return lastPaymentDate.Before(now.Add(-pastDueWindow))
}

// ClientAccountList is the combined answer to "give me everything for this
// client". FetchErrors carries a notice per sub-fetch that failed; the lists
// still hold whatever was gathered successfully.
type ClientAccountList struct {
	AssetAccounts   []AssetAccount   `json:"asset_accounts"`
	PassiveAccounts []PassiveAccount `json:"passive_accounts"`
	FetchErrors     []string         `json:"fetch_errors,omitempty"`
}
