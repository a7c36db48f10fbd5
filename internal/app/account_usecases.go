/**
 * @description
 * This file composes the two policy engines into the query façade the HTTP
 * layer talks to: creation forwards, code resolution across the two account
 * namespaces, and the combined per-client holdings query.
 *
 * @notes
 * - Asset and passive codes are disjoint by construction (tag digits), so
 *   code resolution tries the asset namespace first and falls back to the
 *   passive one on a miss.
 * - The combined holdings query isolates failures per sub-fetch: a failed
 *   asset fetch must not discard passive results already gathered, and vice
 *   versa.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
	"github.com/andeanbank/account-management-service/internal/store"
)

// AccountUseCases is the façade exposed to the API layer.
type AccountUseCases struct {
	assets   *AssetAccountService
	passives *PassiveAccountService
	repo     store.AccountRepository
}

// NewAccountUseCases creates a new AccountUseCases façade.
func NewAccountUseCases(assets *AssetAccountService, passives *PassiveAccountService, repo store.AccountRepository) *AccountUseCases {
	return &AccountUseCases{assets: assets, passives: passives, repo: repo}
}

// CreateAssetAccount forwards to the asset policy engine.
func (u *AccountUseCases) CreateAssetAccount(ctx context.Context, input CreateAssetAccountInput) (*domain.AssetAccount, error) {
	return u.assets.CreateAssetAccount(ctx, input)
}

// CreatePassiveAccount forwards to the passive policy engine.
func (u *AccountUseCases) CreatePassiveAccount(ctx context.Context, input CreatePassiveAccountInput) (*domain.PassiveAccount, error) {
	return u.passives.CreatePassiveAccount(ctx, input)
}

// GetAccountByAccountCode resolves a code to an account of either kind.
func (u *AccountUseCases) GetAccountByAccountCode(ctx context.Context, accountCode string) (domain.Account, error) {
	asset, err := u.assets.GetAssetAccountByAccountCode(ctx, accountCode)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, domain.ErrAccountDoesNotExist) {
		return nil, err
	}
	return u.passives.GetPassiveAccountByAccountCode(ctx, accountCode)
}

// GetAccountBalance returns the balance for any account code.
func (u *AccountUseCases) GetAccountBalance(ctx context.Context, accountCode string) (decimal.Decimal, error) {
	return u.repo.GetAccountBalance(ctx, accountCode)
}

// GetAllAccountsForClient gathers the client's asset and passive accounts
// concurrently. A failure in one sub-fetch is reported in FetchErrors while
// the other sub-fetch's results are still returned.
func (u *AccountUseCases) GetAllAccountsForClient(ctx context.Context, clientID uuid.UUID) (*domain.ClientAccountList, error) {
	list := &domain.ClientAccountList{
		AssetAccounts:   []domain.AssetAccount{},
		PassiveAccounts: []domain.PassiveAccount{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		accounts, err := u.assets.GetAssetAccountsForClient(ctx, clientID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("Failed to fetch asset accounts for client %s: %v", clientID, err)
			list.FetchErrors = append(list.FetchErrors, fmt.Sprintf("asset accounts unavailable: %v", err))
			return
		}
		list.AssetAccounts = accounts
	}()
	go func() {
		defer wg.Done()
		accounts, err := u.passives.GetAllPassiveAccountsForClient(ctx, clientID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("Failed to fetch passive accounts for client %s: %v", clientID, err)
			list.FetchErrors = append(list.FetchErrors, fmt.Sprintf("passive accounts unavailable: %v", err))
			return
		}
		list.PassiveAccounts = accounts
	}()
	wg.Wait()

	return list, nil
}

// DeleteAccount removes an account by id.
func (u *AccountUseCases) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	return u.repo.DeleteAccount(ctx, accountID)
}
