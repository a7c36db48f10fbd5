/**
 * @description
 * This file defines the domain models for events the account-management-service
 * exchanges with the message broker (RabbitMQ). These structs are the contract
 * for messages published to, and consumed from, the client-management exchange.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountCreatedEvent is published after a policy engine persists a new
// account.
type AccountCreatedEvent struct {
	AccountID   uuid.UUID       `json:"account_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	AccountCode string          `json:"account_code"`
	Kind        AccountKind     `json:"account_kind"`
	Subtype     string          `json:"subtype"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountPaymentEvent is published after a loan or credit card repayment is
// applied.
type AccountPaymentEvent struct {
	AccountID uuid.UUID       `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

// ClientDeletedEvent is the payload received from the client-management
// service when a client record is removed and their accounts must be closed.
type ClientDeletedEvent struct {
	ClientID uuid.UUID `json:"client_id"`
}
