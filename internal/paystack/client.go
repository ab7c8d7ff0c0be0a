// Package paystack is a minimal client for the two Paystack endpoints the
// portal uses (transaction initialize / verify) plus webhook signature
// validation. Transport failures and processor rejections are distinct error
// kinds so callers can tell "retry later" from "payment refused".
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the live Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// ErrUnavailable wraps transport-level failures (timeouts, DNS, refused
// connections). These are retryable; the transaction stays pending.
var ErrUnavailable = errors.New("paystack unreachable")

// APIError is a response Paystack itself rejected (status=false or a
// non-2xx code). Not retryable by blind repetition.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "paystack: " + e.Message
	}
	return fmt.Sprintf("paystack: request failed with status %d", e.Code)
}

// Client issues requests against the Paystack API with a bounded timeout.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

// New builds a client with the standard 30s request timeout.
func New(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"` // kobo
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize starts a transaction and returns the authorization URL the
// payer's browser should be redirected to. amountMinor is in kobo.
func (c *Client) Initialize(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (string, error) {
	body := initializeRequest{
		Email:       email,
		Amount:      amountMinor,
		Reference:   reference,
		CallbackURL: callbackURL,
		Metadata: map[string]any{
			"custom_fields": []map[string]string{{
				"display_name":  "Application Fee",
				"variable_name": "application_fee",
				"value":         "Job Application Form Access",
			}},
		},
	}
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return "", err
	}
	if data.AuthorizationURL == "" {
		return "", &APIError{Message: "initialize response missing authorization_url"}
	}
	return data.AuthorizationURL, nil
}

// VerifyResult is the outcome of a verification call. Success is true only
// when the processor reports the exact "success" status; anything else
// (failed, abandoned, pending) is not an access-granting outcome.
type VerifyResult struct {
	Status  string
	Amount  int64 // kobo
	Success bool
}

// Verify fetches the authoritative transaction status by reference.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var data struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Status: data.Status, Amount: data.Amount, Success: data.Status == "success"}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return &APIError{Code: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
