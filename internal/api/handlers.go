/**
 * @description
 * This file defines the HTTP handlers for the account-management-service.
 * Handlers parse requests, call the façade, and translate each domain
 * failure to its distinct status code.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - The service's internal packages for app logic.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andeanbank/account-management-service/internal/app"
	"github.com/andeanbank/account-management-service/internal/domain"
)

// AccountHandler serves the façade endpoints: creation, lookup, and the
// combined per-client holdings query.
type AccountHandler struct {
	usecases *app.AccountUseCases
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(usecases *app.AccountUseCases) *AccountHandler {
	return &AccountHandler{usecases: usecases}
}

// AssetAccountHandler serves the debt-lifecycle endpoints.
type AssetAccountHandler struct {
	service *app.AssetAccountService
}

// NewAssetAccountHandler creates a new AssetAccountHandler.
func NewAssetAccountHandler(service *app.AssetAccountService) *AssetAccountHandler {
	return &AssetAccountHandler{service: service}
}

// PassiveAccountHandler serves the passive balance endpoints.
type PassiveAccountHandler struct {
	service *app.PassiveAccountService
}

// NewPassiveAccountHandler creates a new PassiveAccountHandler.
func NewPassiveAccountHandler(service *app.PassiveAccountService) *PassiveAccountHandler {
	return &PassiveAccountHandler{service: service}
}

// CreateAssetAccountRequest is the JSON body for opening a loan or credit
// card account.
type CreateAssetAccountRequest struct {
	ClientID        uuid.UUID       `json:"client_id"`
	AssetType       string          `json:"asset_account_type"`
	InitialBalance  decimal.Decimal `json:"balance"`
	LastPaymentDate string          `json:"last_payment_date"`
}

// CreatePassiveAccountRequest is the JSON body for opening a savings,
// checking, or fixed-term savings account.
type CreatePassiveAccountRequest struct {
	ClientID       uuid.UUID       `json:"client_id"`
	PassiveType    string          `json:"passive_account_type"`
	InitialBalance decimal.Decimal `json:"balance"`
}

// AmountRequest is the JSON body for every balance mutation endpoint.
type AmountRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
}

// CreateAssetAccount handles POST /accounts/asset.
func (h *AccountHandler) CreateAssetAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assetType := domain.AssetAccountType(req.AssetType)
	if assetType != domain.LoanAccount && assetType != domain.CreditCardAccount {
		http.Error(w, "asset_account_type must be LOAN_ACCOUNT or CREDIT_CARD_ACCOUNT", http.StatusBadRequest)
		return
	}

	lastPayment, err := parseTimestamp(req.LastPaymentDate)
	if err != nil {
		http.Error(w, "last_payment_date must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	account, err := h.usecases.CreateAssetAccount(r.Context(), app.CreateAssetAccountInput{
		ClientID:        req.ClientID,
		AssetType:       assetType,
		InitialBalance:  req.InitialBalance,
		LastPaymentDate: lastPayment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// CreatePassiveAccount handles POST /accounts/passive.
func (h *AccountHandler) CreatePassiveAccount(w http.ResponseWriter, r *http.Request) {
	var req CreatePassiveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	passiveType := domain.PassiveAccountType(req.PassiveType)
	switch passiveType {
	case domain.SavingsAccount, domain.CheckingAccount, domain.FixedTermSavingsAccount:
	default:
		http.Error(w, "passive_account_type must be SAVINGS_ACCOUNT, CHECKING_ACCOUNT or FIXED_TERM_SAVINGS_ACCOUNT", http.StatusBadRequest)
		return
	}

	account, err := h.usecases.CreatePassiveAccount(r.Context(), app.CreatePassiveAccountInput{
		ClientID:       req.ClientID,
		PassiveType:    passiveType,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// GetAccountByCode handles GET /accounts/{accountCode}.
func (h *AccountHandler) GetAccountByCode(w http.ResponseWriter, r *http.Request) {
	account, err := h.usecases.GetAccountByAccountCode(r.Context(), chi.URLParam(r, "accountCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetAccountBalance handles GET /accounts/{accountCode}/balance.
func (h *AccountHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountCode := chi.URLParam(r, "accountCode")
	balance, err := h.usecases.GetAccountBalance(r.Context(), accountCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_code": accountCode,
		"balance":      balance,
	})
}

// GetAccountsForClient handles GET /clients/{clientID}/accounts.
func (h *AccountHandler) GetAccountsForClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}

	list, err := h.usecases.GetAllAccountsForClient(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Drawdown handles POST /accounts/asset/{accountID}/drawdowns. A request
// carrying destination_account_id uses the bank-client disbursement path;
// without it the non-bank-client path applies.
func (h *AssetAccountHandler) Drawdown(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := mutationRequest(w, r)
	if !ok {
		return
	}

	var err error
	if req.DestinationAccountID != nil {
		err = h.service.IncreaseLoanDebtForBankClient(r.Context(), accountID, *req.DestinationAccountID, req.Amount)
	} else {
		err = h.service.IncreaseLoanDebtForNonBankClient(r.Context(), accountID, req.Amount)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Charge handles POST /accounts/asset/{accountID}/charges.
func (h *AssetAccountHandler) Charge(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := mutationRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.IncreaseCreditCardDebt(r.Context(), accountID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pay handles POST /accounts/asset/{accountID}/payments.
func (h *AssetAccountHandler) Pay(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := mutationRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.PayLoanOrCreditCard(r.Context(), accountID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /accounts/passive/{accountID}/deposits.
func (h *PassiveAccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := mutationRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.IncreaseAccountBalance(r.Context(), accountID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Withdraw handles POST /accounts/passive/{accountID}/withdrawals.
func (h *PassiveAccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, req, ok := mutationRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.DecreaseAccountBalance(r.Context(), accountID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /accounts/{accountID}.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.usecases.DeleteAccount(r.Context(), accountID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutationRequest parses the account id path parameter and the amount body
// shared by every balance mutation endpoint.
func mutationRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, AmountRequest, bool) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return uuid.Nil, AmountRequest{}, false
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return uuid.Nil, AmountRequest{}, false
	}
	if req.Amount.Sign() <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return uuid.Nil, AmountRequest{}, false
	}
	return accountID, req, true
}

// parseTimestamp reads an RFC 3339 timestamp. An absent value means the
// client carries no prior obligation, so it resolves to now.
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// writeError maps a failure to its status code. The five domain failures
// each get a distinct code; everything else is an infrastructure failure.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDebtPastDue):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIncompatibleAccountType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCreditCardLimitReached):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrOverpaidAssetAccount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The status line is already committed, so just log it.
		log.Printf("Failed to encode response: %v", err)
	}
}
