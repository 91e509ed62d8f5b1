package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Client talks to the payment gateway's REST API. Requests are form-encoded
// and authenticated with the account's secret key.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	logger        *zap.Logger
	now           func() time.Time
}

// NewClient creates a gateway client.
func NewClient(baseURL, secretKey, webhookSecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        util.GetLogger(),
		now:           time.Now,
	}
}

type chargeResponse struct {
	ID         string `json:"id"`
	BalanceTxn string `json:"balance_transaction"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Charge submits a charge attempt. Exactly one of SourceToken or CustomerRef
// must be set; the order id rides in the request metadata as the correlation
// key for later webhook reconciliation.
func (c *Client) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	ctx, span := util.StartSpan(ctx, "gateway.Charge")
	defer span.End()

	if (req.SourceToken == "") == (req.CustomerRef == "") {
		return nil, &ChargeError{Message: "exactly one of source token or customer reference required"}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", req.Currency)
	form.Set("description", req.Description)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	if req.SourceToken != "" {
		form.Set("source", req.SourceToken)
	} else {
		form.Set("customer", req.CustomerRef)
	}

	start := time.Now()
	body, err := c.post(ctx, "/charges", form)
	util.GatewayChargeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	var resp chargeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.Error != nil {
		return nil, &ChargeError{Message: resp.Error.Message}
	}
	if resp.ID == "" || resp.BalanceTxn == "" {
		return nil, ErrInvalidResponse
	}

	c.logger.Info("Gateway charge succeeded",
		zap.String("charge_id", resp.ID),
		zap.Int64("amount_minor", req.AmountMinor))

	return &ChargeResult{
		ChargeID:      resp.ID,
		SettlementRef: resp.BalanceTxn,
		Raw:           json.RawMessage(body),
	}, nil
}

type customerResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateStoredMethod tokenizes a card on file for later charges and returns
// the gateway-side reference.
func (c *Client) CreateStoredMethod(ctx context.Context, token, ownerEmail string) (string, error) {
	ctx, span := util.StartSpan(ctx, "gateway.CreateStoredMethod")
	defer span.End()

	form := url.Values{}
	form.Set("source", token)
	form.Set("email", ownerEmail)

	body, err := c.post(ctx, "/customers", form)
	if err != nil {
		return "", err
	}

	var resp customerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.Error != nil {
		return "", &ChargeError{Message: resp.Error.Message}
	}
	if resp.ID == "" {
		return "", ErrInvalidResponse
	}
	return resp.ID, nil
}

// UpdateStoredMethod replaces the card behind an existing stored reference.
func (c *Client) UpdateStoredMethod(ctx context.Context, ref, token string) error {
	ctx, span := util.StartSpan(ctx, "gateway.UpdateStoredMethod")
	defer span.End()

	form := url.Values{}
	form.Set("source", token)

	body, err := c.post(ctx, "/customers/"+ref, form)
	if err != nil {
		return err
	}

	var resp customerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.Error != nil {
		return &ChargeError{Message: resp.Error.Message}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	// Gateway errors still come back as JSON bodies; callers inspect the
	// decoded error field rather than the status code alone.
	return body, nil
}
