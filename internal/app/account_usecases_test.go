package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
)

func newUseCases(repo *fakeAccountRepository) *AccountUseCases {
	assets := NewAssetAccountService(repo, nil)
	passives := NewPassiveAccountService(repo, &fakeClientDirectory{clientType: domain.RegularClient}, nil)
	return NewAccountUseCases(assets, passives, repo)
}

func TestGetAccountByAccountCodeResolvesBothNamespaces(t *testing.T) {
	repo := newFakeAccountRepository()
	loan := repo.seedAsset(uuid.New(), domain.LoanAccount, decimal.NewFromInt(100), decimal.NewFromInt(1000), time.Now())
	savings := repo.seedPassive(uuid.New(), domain.SavingsAccount, decimal.NewFromInt(200))
	usecases := newUseCases(repo)

	account, err := usecases.GetAccountByAccountCode(context.Background(), loan.AccountCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Kind() != domain.KindAsset {
		t.Fatalf("expected asset account, got %s", account.Kind())
	}

	account, err = usecases.GetAccountByAccountCode(context.Background(), savings.AccountCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Kind() != domain.KindPassive {
		t.Fatalf("expected passive account, got %s", account.Kind())
	}

	if _, err := usecases.GetAccountByAccountCode(context.Background(), "19110100000000"); !errors.Is(err, domain.ErrAccountDoesNotExist) {
		t.Fatalf("expected ErrAccountDoesNotExist, got %v", err)
	}
}

func TestGetAllAccountsForClient(t *testing.T) {
	repo := newFakeAccountRepository()
	clientID := uuid.New()
	repo.seedAsset(clientID, domain.LoanAccount, decimal.NewFromInt(100), decimal.NewFromInt(1000), time.Now())
	repo.seedPassive(clientID, domain.SavingsAccount, decimal.NewFromInt(200))
	repo.seedPassive(clientID, domain.CheckingAccount, decimal.NewFromInt(50))
	usecases := newUseCases(repo)

	list, err := usecases.GetAllAccountsForClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.AssetAccounts) != 1 {
		t.Fatalf("expected 1 asset account, got %d", len(list.AssetAccounts))
	}
	if len(list.PassiveAccounts) != 2 {
		t.Fatalf("expected 2 passive accounts, got %d", len(list.PassiveAccounts))
	}
	if len(list.FetchErrors) != 0 {
		t.Fatalf("expected no fetch errors, got %v", list.FetchErrors)
	}
}

func TestGetAllAccountsForClientIsolatesSubFetchFailures(t *testing.T) {
	repo := newFakeAccountRepository()
	clientID := uuid.New()
	repo.seedPassive(clientID, domain.SavingsAccount, decimal.NewFromInt(200))
	repo.failAssetList = fmt.Errorf("connection refused")
	usecases := newUseCases(repo)

	list, err := usecases.GetAllAccountsForClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("partial failure must not fail the whole query: %v", err)
	}
	if len(list.PassiveAccounts) != 1 {
		t.Fatalf("expected passive results to survive, got %d", len(list.PassiveAccounts))
	}
	if len(list.AssetAccounts) != 0 {
		t.Fatalf("expected no asset results, got %d", len(list.AssetAccounts))
	}
	if len(list.FetchErrors) != 1 {
		t.Fatalf("expected one fetch error notice, got %v", list.FetchErrors)
	}
}

func TestDeleteAccount(t *testing.T) {
	repo := newFakeAccountRepository()
	savings := repo.seedPassive(uuid.New(), domain.SavingsAccount, decimal.NewFromInt(10))
	usecases := newUseCases(repo)

	if err := usecases.DeleteAccount(context.Background(), savings.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := usecases.DeleteAccount(context.Background(), savings.ID); !errors.Is(err, domain.ErrAccountDoesNotExist) {
		t.Fatalf("expected ErrAccountDoesNotExist on second delete, got %v", err)
	}
}

func TestHandleClientDeletedEvent(t *testing.T) {
	repo := newFakeAccountRepository()
	clientID := uuid.New()
	repo.seedPassive(clientID, domain.SavingsAccount, decimal.NewFromInt(10))
	repo.seedAsset(clientID, domain.LoanAccount, decimal.NewFromInt(5), decimal.NewFromInt(100), time.Now())
	handler := NewAccountEventHandler(repo)

	body := []byte(fmt.Sprintf(`{"client_id":%q}`, clientID))
	if !handler.HandleClientDeletedEvent(body) {
		t.Fatal("expected event to be acknowledged")
	}
	remaining, err := repo.ListPassiveAccountsByClient(context.Background(), clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all client accounts removed, %d passive left", len(remaining))
	}

	if !handler.HandleClientDeletedEvent([]byte("not json")) {
		t.Fatal("malformed payloads must be acknowledged, not requeued")
	}
}
