// Package paystack talks to the payment provider's bank endpoints: account
// resolution (used to verify payout details before they are stored) and the
// list of supported banks.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sellerhub/internal/domain"
)

type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func New(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type resolveData struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type bankData struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// VerifyAccount asks the provider to resolve accountNumber at bankCode.
// A negative answer comes back as Valid=false with a nil error; transport
// failures and provider errors come back as domain.ErrUpstream, or
// domain.ErrTimeout when ctx ran out first.
func (c *Client) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (domain.AccountVerification, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var env envelope[resolveData]
	status, err := c.get(ctx, "/bank/resolve?"+q.Encode(), &env)
	if err != nil {
		return domain.AccountVerification{}, err
	}
	switch {
	case status >= 200 && status < 300:
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		// the provider answers unresolvable accounts with a 4xx and status=false
		if env.Status {
			return domain.AccountVerification{}, fmt.Errorf("%w: resolve returned %d", domain.ErrUpstream, status)
		}
	default:
		return domain.AccountVerification{}, fmt.Errorf("%w: resolve returned %d", domain.ErrUpstream, status)
	}
	if !env.Status {
		return domain.AccountVerification{Valid: false}, nil
	}
	return domain.AccountVerification{
		Valid:         true,
		AccountName:   env.Data.AccountName,
		AccountNumber: env.Data.AccountNumber,
	}, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var env envelope[[]bankData]
	status, err := c.get(ctx, "/bank", &env)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || !env.Status {
		return nil, fmt.Errorf("%w: bank list returned %d: %s", domain.ErrUpstream, status, env.Message)
	}
	out := make([]domain.Bank, 0, len(env.Data))
	for _, b := range env.Data {
		out = append(out, domain.Bank{Code: b.Code, Name: b.Name})
	}
	return out, nil
}

// get performs the request and decodes the body into dst. Bodies that are
// not JSON are only an error for 2xx/4xx answers the caller would read.
func (c *Client) get(ctx context.Context, path string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
		}
		return 0, fmt.Errorf("%w: read body: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= 500 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %w", domain.ErrUpstream, path, err)
	}
	return resp.StatusCode, nil
}
