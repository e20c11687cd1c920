package portone

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
	"sync"
	"time"

	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.iamport.kr"
	errorBodyReadLimit   int64 = 1024
	tokenExpirySkewSecs  int64 = 30
)

var (
	errCredentialsRequired = errors.New("portone api key and secret are required")
)

// Client wraps the PortOne (Iamport) REST API used for payment verification.
// Access tokens are minted on demand and cached until shortly before expiry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string

	mu          sync.Mutex
	token       string
	tokenExpiry int64
	now         func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the PortOne client given the server-side credential pair.
func NewClient(apiKey, apiSecret string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	secret := strings.TrimSpace(apiSecret)
	if key == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		apiKey:     key,
		apiSecret:  secret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Payment is the normalized verification payload returned by the gateway.
type Payment struct {
	ImpUID      string
	MerchantUID string
	PayMethod   string
	PGProvider  string
	PGTid       string
	Status      string
	Currency    string
	ReceiptURL  string
	Amount      float64
	PaidAt      *time.Time
}

type envelope struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Now         int64  `json:"now"`
	ExpiredAt   int64  `json:"expired_at"`
}

type paymentResponse struct {
	ImpUID      string  `json:"imp_uid"`
	MerchantUID string  `json:"merchant_uid"`
	PayMethod   string  `json:"pay_method"`
	PGProvider  string  `json:"pg_provider"`
	PGTid       string  `json:"pg_tid"`
	Status      string  `json:"status"`
	Currency    string  `json:"currency"`
	ReceiptURL  string  `json:"receipt_url"`
	Amount      float64 `json:"amount"`
	PaidAt      int64   `json:"paid_at"`
}

// GetPayment fetches and normalizes the gateway record for the given imp_uid.
func (c *Client) GetPayment(ctx context.Context, impUID string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "portone client not configured")
	}
	trimmed := strings.TrimSpace(impUID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment imp_uid is required")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/payments/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build payment lookup request")
	}
	httpReq.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute payment lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	// The imp_uid came from the client payload, so an unknown transaction is
	// their bad reference, not a missing resource of ours.
	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment transaction not found at gateway")
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway rejected access token")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment lookup failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode payment lookup response")
	}
	if env.Code != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned an error").WithDetails(map[string]any{
			"provider_code":    env.Code,
			"provider_message": env.Message,
		})
	}

	var payment paymentResponse
	if err := json.Unmarshal(env.Response, &payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode payment payload")
	}

	normalized := &Payment{
		ImpUID:      payment.ImpUID,
		MerchantUID: payment.MerchantUID,
		PayMethod:   payment.PayMethod,
		PGProvider:  payment.PGProvider,
		PGTid:       payment.PGTid,
		Status:      payment.Status,
		Currency:    payment.Currency,
		ReceiptURL:  payment.ReceiptURL,
		Amount:      payment.Amount,
	}
	if payment.PaidAt > 0 {
		paidAt := time.Unix(payment.PaidAt, 0).UTC()
		normalized.PaidAt = &paidAt
	}

	return normalized, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Unix() < c.tokenExpiry-tokenExpirySkewSecs {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"imp_key":    c.apiKey,
		"imp_secret": c.apiSecret,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal token request")
	}

	endpoint := fmt.Sprintf("%s/users/getToken", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build token request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute token request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "token request failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode token response")
	}
	if env.Code != 0 {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway rejected credentials").WithDetails(map[string]any{
			"provider_code":    env.Code,
			"provider_message": env.Message,
		})
	}

	var token tokenResponse
	if err := json.Unmarshal(env.Response, &token); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode token payload")
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway returned an empty access token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = token.ExpiredAt

	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiry = 0
}
