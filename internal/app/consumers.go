/**
 * @description
 * This file contains the handler for events consumed from the message broker.
 * The client-management service publishes client.deleted when a client record
 * is removed; this service then closes every account the client held.
 *
 * @notes
 * - The handler returns true to ack and false to nack-and-requeue, matching
 *   the consumer's MessageHandler contract.
 */
package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/andeanbank/account-management-service/internal/domain"
	"github.com/andeanbank/account-management-service/internal/store"
)

// AccountEventHandler processes broker events that mutate account state.
type AccountEventHandler struct {
	repo store.AccountRepository
}

// NewAccountEventHandler creates a new AccountEventHandler.
func NewAccountEventHandler(repo store.AccountRepository) *AccountEventHandler {
	return &AccountEventHandler{repo: repo}
}

// HandleClientDeletedEvent removes every account owned by the deleted client.
func (h *AccountEventHandler) HandleClientDeletedEvent(body []byte) bool {
	var event domain.ClientDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Failed to parse client.deleted event, discarding: %v", err)
		return true // Malformed payloads will never succeed; do not requeue.
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := h.repo.DeleteAccountsByClient(ctx, event.ClientID)
	if err != nil {
		log.Printf("Failed to delete accounts for client %s: %v", event.ClientID, err)
		return false
	}

	log.Printf("Deleted %d account(s) for removed client %s", deleted, event.ClientID)
	return true
}
