/**
 * @description
 * This file defines the interface for the data access layer. The policy
 * engines depend on this interface, not on the concrete PostgreSQL
 * implementation, which keeps the engines testable with in-memory fakes.
 *
 * @notes
 * - Reads that find nothing return domain.ErrAccountDoesNotExist so callers
 *   can discriminate a missing record from an infrastructure failure.
 * - The store is the single point of truth; nothing above it caches account
 *   data across calls.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
)

// AccountRepository is the persistence port for accounts of both kinds.
type AccountRepository interface {
	GetAccountBalance(ctx context.Context, accountCode string) (decimal.Decimal, error)
	GetAccountByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	GetAccountByCode(ctx context.Context, accountCode string) (domain.Account, error)
	ListAssetAccountsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.AssetAccount, error)
	ListPassiveAccountsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.PassiveAccount, error)
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	AddToBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error
	SubtractFromBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error
	SetLastPaymentDate(ctx context.Context, accountID uuid.UUID, paidAt time.Time) error
	UpdateAccount(ctx context.Context, account domain.Account) error
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteAccountsByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
}
