package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client calls the provider's server-to-server API and builds signed
// redirect URLs for it.
type Client struct {
	baseURL    string
	returnURL  string
	signer     HMACSigner
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL, returnURL string, secret []byte, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		returnURL: returnURL,
		signer:    HMACSigner{Secret: secret},
		timeout:   timeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Signer() HMACSigner {
	return c.signer
}

func (c *Client) PaymentURL(orderCode string, amount int64) (string, error) {
	return c.signer.PaymentURL(c.baseURL+"/pay", c.returnURL, orderCode, amount)
}

type chargeResponse struct {
	ResponseCode  string `json:"response_code"`
	TransactionNo string `json:"transaction_no"`
}

// Charge confirms a payment synchronously. A timeout or transport failure
// returns ErrUnknownOutcome: the provider may or may not have charged.
func (c *Client) Charge(ctx context.Context, orderCode string, amount int64) (*ChargeResult, error) {
	var resp chargeResponse
	if err := c.post(ctx, "/charge", orderCode, amount, &resp); err != nil {
		return nil, err
	}
	return &ChargeResult{
		TransactionNo: resp.TransactionNo,
		Approved:      resp.ResponseCode == ResponseApproved,
	}, nil
}

func (c *Client) Refund(ctx context.Context, orderCode string, amount int64) error {
	var resp chargeResponse
	if err := c.post(ctx, "/refund", orderCode, amount, &resp); err != nil {
		return err
	}
	if resp.ResponseCode != ResponseApproved {
		return fmt.Errorf("refund declined: response code %s", resp.ResponseCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, orderCode string, amount int64, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set(ParamOrderCode, orderCode)
	q.Set(ParamAmount, fmt.Sprint(amount))
	q.Set(ParamSecureHash, c.signer.Sign(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(q.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrUnknownOutcome, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnknownOutcome, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway %s failed with status: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
