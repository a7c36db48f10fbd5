/**
 * @description
 * This file provides a client for communicating with the client-management
 * service to resolve a client's classification (regular vs corporate).
 */
package clientdirectory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/andeanbank/account-management-service/internal/domain"
)

// classificationResponse is the JSON body returned by the client-management
// service.
type classificationResponse struct {
	ClientID   string `json:"client_id"`
	ClientType string `json:"client_type"`
}

// Client provides methods to interact with the client-management service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client-management service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetClientType resolves the classification for the given client. Any
// resolution failure is returned to the caller; there is no default
// classification.
func (c *Client) GetClientType(ctx context.Context, clientID uuid.UUID) (domain.ClientType, error) {
	url := fmt.Sprintf("%s/clients/%s/classification", c.baseURL, clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling client-management service: %v", err)
		return "", fmt.Errorf("failed to call client-management service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Client-management service returned status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("client-management service returned status %d", resp.StatusCode)
	}

	var parsed classificationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	switch clientType := domain.ClientType(parsed.ClientType); clientType {
	case domain.RegularClient, domain.CorporateClient:
		return clientType, nil
	default:
		return "", fmt.Errorf("unknown client type %q for client %s", parsed.ClientType, clientID)
	}
}
