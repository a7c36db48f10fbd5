/**
 * @description
 * This file implements the data access layer for accounts on PostgreSQL.
 * Both account variants live in a single `accounts` table discriminated by
 * the account_kind column; asset-only fields are nullable.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - github.com/shopspring/decimal: Balances are transported as numeric text.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
)

// PostgresAccountRepository is the PostgreSQL implementation of AccountRepository.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, client_id, account_code, account_kind, subtype,
	balance::text, COALESCE(credit_limit, 0)::text, last_payment_date, created_at`

// GetAccountBalance returns the balance of the account with the given code.
func (r *PostgresAccountRepository) GetAccountBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	query := `SELECT balance::text FROM accounts WHERE account_code = $1`

	var raw string
	if err := r.db.QueryRow(ctx, query, accountCode).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountDoesNotExist
		}
		return decimal.Zero, fmt.Errorf("get account balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse account balance: %w", err)
	}
	return balance, nil
}

// GetAccountByID fetches an account of either kind by its id.
func (r *PostgresAccountRepository) GetAccountByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRow(ctx, query, accountID))
}

// GetAccountByCode fetches an account of either kind by its account code.
func (r *PostgresAccountRepository) GetAccountByCode(ctx context.Context, accountCode string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_code = $1`
	return r.scanAccount(r.db.QueryRow(ctx, query, accountCode))
}

// ListAssetAccountsByClient returns every asset account owned by the client.
func (r *PostgresAccountRepository) ListAssetAccountsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.AssetAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE client_id = $1 AND account_kind = 'ASSET' ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list asset accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.AssetAccount{}
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		asset, ok := account.(*domain.AssetAccount)
		if !ok {
			return nil, fmt.Errorf("list asset accounts: unexpected kind for account %s", account.Base().ID)
		}
		accounts = append(accounts, *asset)
	}
	return accounts, rows.Err()
}

// ListPassiveAccountsByClient returns every passive account owned by the client.
func (r *PostgresAccountRepository) ListPassiveAccountsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.PassiveAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE client_id = $1 AND account_kind = 'PASSIVE' ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list passive accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.PassiveAccount{}
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		passive, ok := account.(*domain.PassiveAccount)
		if !ok {
			return nil, fmt.Errorf("list passive accounts: unexpected kind for account %s", account.Base().ID)
		}
		accounts = append(accounts, *passive)
	}
	return accounts, rows.Err()
}

// CreateAccount inserts a new account record. A collision on the generated
// account code surfaces as domain.ErrDuplicateAccountCode so the caller can
// regenerate and retry.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	query := `
        INSERT INTO accounts (client_id, account_code, account_kind, subtype, balance, credit_limit, last_payment_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `

	base := account.Base()
	var creditLimit *decimal.Decimal
	var lastPayment *time.Time
	var subtype string

	switch a := account.(type) {
	case *domain.AssetAccount:
		creditLimit = &a.CreditLimit
		lastPayment = &a.LastPaymentDate
		subtype = string(a.AssetType)
	case *domain.PassiveAccount:
		subtype = string(a.PassiveType)
	}

	err := r.db.QueryRow(ctx, query,
		base.ClientID,
		base.AccountCode,
		account.Kind(),
		subtype,
		base.Balance,
		creditLimit,
		lastPayment,
	).Scan(&base.ID, &base.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			log.Printf("Account code collision on %q (constraint %s)", base.AccountCode, pgErr.ConstraintName)
			return nil, domain.ErrDuplicateAccountCode
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

// AddToBalance applies a positive delta to the account's balance.
func (r *PostgresAccountRepository) AddToBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return r.applyBalanceDelta(ctx, accountID, amount)
}

// SubtractFromBalance applies a negative delta to the account's balance.
func (r *PostgresAccountRepository) SubtractFromBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return r.applyBalanceDelta(ctx, accountID, amount.Neg())
}

func (r *PostgresAccountRepository) applyBalanceDelta(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, accountID, delta)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountDoesNotExist
	}
	return nil
}

// SetLastPaymentDate records the timestamp of the most recent payment on an
// asset account.
func (r *PostgresAccountRepository) SetLastPaymentDate(ctx context.Context, accountID uuid.UUID, paidAt time.Time) error {
	query := `UPDATE accounts SET last_payment_date = $2, updated_at = now()
		WHERE id = $1 AND account_kind = 'ASSET'`

	tag, err := r.db.Exec(ctx, query, accountID, paidAt)
	if err != nil {
		return fmt.Errorf("set last payment date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountDoesNotExist
	}
	return nil
}

// UpdateAccount rewrites the mutable fields of an existing account.
func (r *PostgresAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `UPDATE accounts SET balance = $2, credit_limit = $3, last_payment_date = $4, updated_at = now()
		WHERE id = $1`

	base := account.Base()
	var creditLimit *decimal.Decimal
	var lastPayment *time.Time
	if asset, ok := account.(*domain.AssetAccount); ok {
		creditLimit = &asset.CreditLimit
		lastPayment = &asset.LastPaymentDate
	}

	tag, err := r.db.Exec(ctx, query, base.ID, base.Balance, creditLimit, lastPayment)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountDoesNotExist
	}
	return nil
}

// DeleteAccount removes an account by id.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountDoesNotExist
	}
	return nil
}

// DeleteAccountsByClient removes every account owned by the client and
// reports how many were deleted.
func (r *PostgresAccountRepository) DeleteAccountsByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("delete accounts by client: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanAccount builds the appropriate account variant from a row holding
// accountColumns.
func (r *PostgresAccountRepository) scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		base        domain.AccountBase
		kind        domain.AccountKind
		subtype     string
		balanceRaw  string
		limitRaw    string
		lastPayment *time.Time
	)

	err := row.Scan(&base.ID, &base.ClientID, &base.AccountCode, &kind, &subtype,
		&balanceRaw, &limitRaw, &lastPayment, &base.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountDoesNotExist
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if base.Balance, err = decimal.NewFromString(balanceRaw); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	switch kind {
	case domain.KindAsset:
		limit, err := decimal.NewFromString(limitRaw)
		if err != nil {
			return nil, fmt.Errorf("parse credit limit: %w", err)
		}
		asset := &domain.AssetAccount{
			AccountBase: base,
			AssetType:   domain.AssetAccountType(subtype),
			CreditLimit: limit,
		}
		if lastPayment != nil {
			asset.LastPaymentDate = *lastPayment
		}
		return asset, nil
	case domain.KindPassive:
		return &domain.PassiveAccount{
			AccountBase: base,
			PassiveType: domain.PassiveAccountType(subtype),
		}, nil
	default:
		return nil, fmt.Errorf("unknown account kind %q for account %s", kind, base.ID)
	}
}
