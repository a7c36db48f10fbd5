package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/domain"
)

func newPassiveService(repo *fakeAccountRepository, clientType domain.ClientType) *PassiveAccountService {
	return NewPassiveAccountService(repo, &fakeClientDirectory{clientType: clientType}, nil)
}

func TestCreatePassiveAccountRegularClientOnePerSubtype(t *testing.T) {
	repo := newFakeAccountRepository()
	svc := newPassiveService(repo, domain.RegularClient)
	clientID := uuid.New()

	first, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       clientID,
		PassiveType:    domain.SavingsAccount,
		InitialBalance: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("first savings account should be created: %v", err)
	}
	if len(first.AccountCode) != 14 || !strings.HasPrefix(first.AccountCode, "191101") {
		t.Fatalf("expected 14-digit code with prefix 191101, got %q", first.AccountCode)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("expected created at to be set")
	}

	_, err = svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       clientID,
		PassiveType:    domain.SavingsAccount,
		InitialBalance: decimal.NewFromInt(50),
	})
	if !errors.Is(err, domain.ErrIncompatibleAccountType) {
		t.Fatalf("second savings account must be rejected, got %v", err)
	}

	// A different subtype is still allowed.
	if _, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       clientID,
		PassiveType:    domain.CheckingAccount,
		InitialBalance: decimal.Zero,
	}); err != nil {
		t.Fatalf("checking account for the same client should be created: %v", err)
	}
}

func TestCreatePassiveAccountCorporateClient(t *testing.T) {
	tests := []struct {
		name        string
		passiveType domain.PassiveAccountType
		wantErr     error
	}{
		{
			name:        "checking account is allowed",
			passiveType: domain.CheckingAccount,
		},
		{
			name:        "savings account is rejected",
			passiveType: domain.SavingsAccount,
			wantErr:     domain.ErrIncompatibleAccountType,
		},
		{
			name:        "fixed-term savings account is rejected",
			passiveType: domain.FixedTermSavingsAccount,
			wantErr:     domain.ErrIncompatibleAccountType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeAccountRepository()
			svc := newPassiveService(repo, domain.CorporateClient)

			_, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
				ClientID:       uuid.New(),
				PassiveType:    tt.passiveType,
				InitialBalance: decimal.Zero,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreatePassiveAccountCorporateClientMayHoldSeveralChecking(t *testing.T) {
	repo := newFakeAccountRepository()
	svc := newPassiveService(repo, domain.CorporateClient)
	clientID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
			ClientID:       clientID,
			PassiveType:    domain.CheckingAccount,
			InitialBalance: decimal.Zero,
		}); err != nil {
			t.Fatalf("checking account %d should be created: %v", i+1, err)
		}
	}
}

func TestCreatePassiveAccountBlockedByPastDueAsset(t *testing.T) {
	repo := newFakeAccountRepository()
	clientID := uuid.New()
	repo.seedAsset(clientID, domain.LoanAccount, decimal.NewFromInt(100), decimal.NewFromInt(1000),
		time.Now().Add(-40*24*time.Hour))
	svc := newPassiveService(repo, domain.RegularClient)

	_, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       clientID,
		PassiveType:    domain.SavingsAccount,
		InitialBalance: decimal.Zero,
	})
	if !errors.Is(err, domain.ErrDebtPastDue) {
		t.Fatalf("expected ErrDebtPastDue, got %v", err)
	}
}

func TestCreatePassiveAccountClassificationFailurePropagates(t *testing.T) {
	repo := newFakeAccountRepository()
	directoryErr := fmt.Errorf("client-management service returned status 503")
	svc := NewPassiveAccountService(repo, &fakeClientDirectory{err: directoryErr}, nil)

	_, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       uuid.New(),
		PassiveType:    domain.SavingsAccount,
		InitialBalance: decimal.Zero,
	})
	if !errors.Is(err, directoryErr) {
		t.Fatalf("expected wrapped directory error, got %v", err)
	}
	// An infrastructure failure must never surface as a domain failure.
	if errors.Is(err, domain.ErrIncompatibleAccountType) || errors.Is(err, domain.ErrDebtPastDue) {
		t.Fatalf("classification failure leaked as a domain error: %v", err)
	}
}

func TestCreatePassiveAccountUnknownClientType(t *testing.T) {
	repo := newFakeAccountRepository()
	svc := newPassiveService(repo, domain.ClientType("PREMIUM_CLIENT"))

	_, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
		ClientID:       uuid.New(),
		PassiveType:    domain.CheckingAccount,
		InitialBalance: decimal.Zero,
	})
	if !errors.Is(err, domain.ErrIncompatibleAccountType) {
		t.Fatalf("expected ErrIncompatibleAccountType, got %v", err)
	}
}

func TestPassiveBalanceMutations(t *testing.T) {
	repo := newFakeAccountRepository()
	savings := repo.seedPassive(uuid.New(), domain.SavingsAccount, decimal.NewFromInt(100))
	svc := newPassiveService(repo, domain.RegularClient)

	if err := svc.IncreaseAccountBalance(context.Background(), savings.ID, decimal.NewFromInt(40)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DecreaseAccountBalance(context.Background(), savings.ID, decimal.NewFromInt(15)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := savings.Balance.String(); got != "125" {
		t.Fatalf("expected balance 125, got %s", got)
	}

	if err := svc.IncreaseAccountBalance(context.Background(), uuid.New(), decimal.NewFromInt(1)); !errors.Is(err, domain.ErrAccountDoesNotExist) {
		t.Fatalf("expected ErrAccountDoesNotExist for unknown account, got %v", err)
	}
}

func TestConcurrentDuplicateSubtypeCreation(t *testing.T) {
	repo := newFakeAccountRepository()
	svc := newPassiveService(repo, domain.RegularClient)
	clientID := uuid.New()

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := svc.CreatePassiveAccount(context.Background(), CreatePassiveAccountInput{
				ClientID:       clientID,
				PassiveType:    domain.SavingsAccount,
				InitialBalance: decimal.Zero,
			})
			results <- err
		}()
	}

	created := 0
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			created++
		} else if !errors.Is(err, domain.ErrIncompatibleAccountType) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one savings account to be created, got %d", created)
	}
}
