// Package paystack talks to the Paystack API: it initializes hosted
// checkout transactions and decodes/authenticates webhook events.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/netx"
)

// Channels offered on the hosted checkout page.
var DefaultChannels = []string{"card", "bank", "ussd", "qr", "mobile_money", "bank_transfer"}

// InitializeRequest describes a charge to start. Amount is in minor units.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Channels    []string       `json:"channels,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Authorization is where the customer is redirected to pay.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type initializeResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    Authorization `json:"data"`
}

// Client calls the Paystack REST API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient builds a client. A nil httpClient gets a 15 second timeout.
func NewClient(baseURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), secretKey: secretKey, http: httpClient}
}

// InitializeTransaction starts a hosted checkout. Failures are reported as
// common.ErrProviderUnavailable with the provider message attached.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	status, raw, err := netx.PostJSON(ctx, c.http, c.baseURL+"/transaction/initialize", c.secretKey, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	var out initializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: status %d: undecodable response", common.ErrProviderUnavailable, status)
	}
	if status != http.StatusOK || !out.Status || out.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrProviderUnavailable, status, out.Message)
	}

	return &out.Data, nil
}
