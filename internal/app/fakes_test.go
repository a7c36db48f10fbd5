package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
)

// fakeAccountRepository is an in-memory stand-in for the Postgres store.
type fakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]domain.Account

	failAssetList   error
	failPassiveList error

	// createCollisions makes the next N CreateAccount calls fail as if the
	// generated code already existed.
	createCollisions int
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{accounts: make(map[uuid.UUID]domain.Account)}
}

func (f *fakeAccountRepository) GetAccountBalance(_ context.Context, accountCode string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Base().AccountCode == accountCode {
			return account.Base().Balance, nil
		}
	}
	return decimal.Zero, domain.ErrAccountDoesNotExist
}

func (f *fakeAccountRepository) GetAccountByID(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountDoesNotExist
	}
	return account, nil
}

func (f *fakeAccountRepository) GetAccountByCode(_ context.Context, accountCode string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Base().AccountCode == accountCode {
			return account, nil
		}
	}
	return nil, domain.ErrAccountDoesNotExist
}

func (f *fakeAccountRepository) ListAssetAccountsByClient(_ context.Context, clientID uuid.UUID) ([]domain.AssetAccount, error) {
	if f.failAssetList != nil {
		return nil, f.failAssetList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	accounts := []domain.AssetAccount{}
	for _, account := range f.accounts {
		if asset, ok := account.(*domain.AssetAccount); ok && asset.ClientID == clientID {
			accounts = append(accounts, *asset)
		}
	}
	return accounts, nil
}

func (f *fakeAccountRepository) ListPassiveAccountsByClient(_ context.Context, clientID uuid.UUID) ([]domain.PassiveAccount, error) {
	if f.failPassiveList != nil {
		return nil, f.failPassiveList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	accounts := []domain.PassiveAccount{}
	for _, account := range f.accounts {
		if passive, ok := account.(*domain.PassiveAccount); ok && passive.ClientID == clientID {
			accounts = append(accounts, *passive)
		}
	}
	return accounts, nil
}

func (f *fakeAccountRepository) CreateAccount(_ context.Context, account domain.Account) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCollisions > 0 {
		f.createCollisions--
		return nil, domain.ErrDuplicateAccountCode
	}
	for _, existing := range f.accounts {
		if existing.Base().AccountCode == account.Base().AccountCode {
			return nil, domain.ErrDuplicateAccountCode
		}
	}
	base := account.Base()
	base.ID = uuid.New()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now()
	}
	f.accounts[base.ID] = account
	return account, nil
}

func (f *fakeAccountRepository) AddToBalance(_ context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return f.applyDelta(accountID, amount)
}

func (f *fakeAccountRepository) SubtractFromBalance(_ context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return f.applyDelta(accountID, amount.Neg())
}

func (f *fakeAccountRepository) applyDelta(accountID uuid.UUID, delta decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return domain.ErrAccountDoesNotExist
	}
	account.Base().Balance = account.Base().Balance.Add(delta)
	return nil
}

func (f *fakeAccountRepository) SetLastPaymentDate(_ context.Context, accountID uuid.UUID, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	asset, ok := f.accounts[accountID].(*domain.AssetAccount)
	if !ok {
		return domain.ErrAccountDoesNotExist
	}
	asset.LastPaymentDate = paidAt
	return nil
}

func (f *fakeAccountRepository) UpdateAccount(_ context.Context, account domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[account.Base().ID]; !ok {
		return domain.ErrAccountDoesNotExist
	}
	f.accounts[account.Base().ID] = account
	return nil
}

func (f *fakeAccountRepository) DeleteAccount(_ context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[accountID]; !ok {
		return domain.ErrAccountDoesNotExist
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeAccountRepository) DeleteAccountsByClient(_ context.Context, clientID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, account := range f.accounts {
		if account.Base().ClientID == clientID {
			delete(f.accounts, id)
			deleted++
		}
	}
	return deleted, nil
}

// seedAsset stores an asset account directly, bypassing policy.
func (f *fakeAccountRepository) seedAsset(clientID uuid.UUID, assetType domain.AssetAccountType, balance, limit decimal.Decimal, lastPayment time.Time) *domain.AssetAccount {
	account := &domain.AssetAccount{
		AccountBase: domain.AccountBase{
			ID:          uuid.New(),
			ClientID:    clientID,
			AccountCode: domain.GenerateAssetAccountCode(assetType),
			Balance:     balance,
			CreatedAt:   time.Now(),
		},
		AssetType:       assetType,
		CreditLimit:     limit,
		LastPaymentDate: lastPayment,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	return account
}

// seedPassive stores a passive account directly, bypassing policy.
func (f *fakeAccountRepository) seedPassive(clientID uuid.UUID, passiveType domain.PassiveAccountType, balance decimal.Decimal) *domain.PassiveAccount {
	account := &domain.PassiveAccount{
		AccountBase: domain.AccountBase{
			ID:          uuid.New(),
			ClientID:    clientID,
			AccountCode: domain.GeneratePassiveAccountCode(passiveType),
			Balance:     balance,
			CreatedAt:   time.Now(),
		},
		PassiveType: passiveType,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	return account
}

// fakeClientDirectory resolves every client to a fixed classification.
type fakeClientDirectory struct {
	clientType domain.ClientType
	err        error
}

func (f *fakeClientDirectory) GetClientType(context.Context, uuid.UUID) (domain.ClientType, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.clientType, nil
}

// fakeEventPublisher records published routing keys.
type fakeEventPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeEventPublisher) Publish(_ context.Context, _ string, routingKey string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, routingKey)
	return nil
}

func (f *fakeEventPublisher) published(routingKey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, key := range f.keys {
		if key == routingKey {
			count++
		}
	}
	return count
}
