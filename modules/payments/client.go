// Package payments talks to the Coin card API.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"coinmod/common"
	"coinmod/modules/money"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrDeclined      = errors.New("payment declined")
	ErrNotConfigured = errors.New("coin api base url is not configured")
)

// DeclinedError carries the reason returned by the Coin API.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	if e.Reason == "" {
		return "Coin payment failed"
	}
	return e.Reason
}

func (e *DeclinedError) Is(target error) bool {
	return target == ErrDeclined
}

// Request moves Amount from one card to another. Amount is already truncated to
// eight decimals.
type Request struct {
	From   string
	To     string
	Amount money.Amount
	Memo   string
}

type payBody struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Amount    json.Number `json:"amount"`
	Reason    string      `json:"reason"`
	Reference string      `json:"reference"`
}

type payResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client whose retries only cover attempts the API cannot
// have processed: failed dials and 429/503 answers.
func NewClient(config *common.ConfigCoin, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.MaxRetries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{logger.Sugar()})
	retryClient.CheckRetry = RetryPolicy

	httpClient := retryClient.StandardClient()

	if config.ClientID != "" {
		creds := clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
		}
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: creds.TokenSource(context.Background()),
				Base:   httpClient.Transport,
			},
		}
	}

	return &Client{
		baseURL: strings.TrimRight(config.APIBase, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// RetryPolicy never retries once the API may have seen the request, since a
// repeated transfer is a double charge.
func RetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return true, nil
		}
		return false, nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true, nil
	}
	return false, nil
}

func (c *Client) Pay(ctx context.Context, req Request) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	ref := uuid.NewString()
	body, err := json.Marshal(payBody{
		From:      req.From,
		To:        req.To,
		Amount:    json.Number(req.Amount.String()),
		Reason:    req.Memo,
		Reference: ref,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/card/pay", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", ref)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("coin payment request failed", zap.String("ref", ref), zap.Error(err))
		return fmt.Errorf("coin api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("coin api: read response: %w", err)
	}

	var out payResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("coin api: unexpected response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !out.Success {
		c.logger.Info("coin payment declined",
			zap.String("ref", ref),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", out.Error),
		)
		return &DeclinedError{Reason: out.Error}
	}

	c.logger.Info("coin payment accepted",
		zap.String("ref", ref),
		zap.String("amount", req.Amount.String()),
		zap.String("to", req.To),
	)
	return nil
}

// leveledZap adapts zap to retryablehttp; request errors are logged as
// warnings because the caller reports them.
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}
