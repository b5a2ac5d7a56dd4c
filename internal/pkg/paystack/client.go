package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/greenbasket/greenbasket/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.paystack.co"

// ErrGatewayUnavailable wraps transport-level failures talking to the
// gateway. Callers must treat it as "status unknown", never as "payment
// failed": a transaction the gateway reports as failed comes back as a
// regular TransactionData with a failed status, not as this error.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// InitializeRequest starts a hosted checkout for the given amount in kobo.
type InitializeRequest struct {
	Email     string   `json:"email"`
	Amount    int64    `json:"amount"`
	Reference string   `json:"reference,omitempty"`
	Metadata  Metadata `json:"metadata,omitempty"`
}

// InitializeResponse carries the redirect data for a freshly created charge.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("PAYSTACK_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// VerifyTransaction asks the gateway for the authoritative state of a
// reference. The returned data may still describe a failed charge; an error
// return means the gateway could not be consulted at all.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, errors.New("transaction reference is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PAYSTACK_SECRET_KEY is not configured")
	}

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/transaction/verify/" + url.PathEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: verify %s: %v", ErrGatewayUnavailable, ref, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: verify %s: status=%d body=%s", ErrGatewayUnavailable, ref, resp.StatusCode, string(body))
	}

	var out struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    TransactionData `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: verify %s: invalid response: %v", ErrGatewayUnavailable, ref, err)
	}
	if !out.Status {
		return nil, fmt.Errorf("%w: verify %s: %s", ErrGatewayUnavailable, ref, out.Message)
	}
	if strings.TrimSpace(out.Data.Reference) == "" {
		out.Data.Reference = ref
	}
	return &out.Data, nil
}

// InitializeTransaction creates a new hosted charge and returns the
// authorization URL the client is redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, in InitializeRequest) (*InitializeResponse, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PAYSTACK_SECRET_KEY is not configured")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, errors.New("customer email is required")
	}
	if in.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/transaction/initialize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: initialize: status=%d body=%s", ErrGatewayUnavailable, resp.StatusCode, string(body))
	}

	var out struct {
		Status  bool               `json:"status"`
		Message string             `json:"message"`
		Data    InitializeResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: initialize: invalid response: %v", ErrGatewayUnavailable, err)
	}
	if !out.Status {
		return nil, fmt.Errorf("%w: initialize: %s", ErrGatewayUnavailable, out.Message)
	}
	if strings.TrimSpace(out.Data.AuthorizationURL) == "" {
		return nil, errors.New("paystack initialize returned empty authorization_url")
	}
	return &out.Data, nil
}
