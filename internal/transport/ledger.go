package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/budgetkit/envelope-go/internal/types"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// LedgerTransport fetches JSON ledger exports over HTTP
type LedgerTransport struct {
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	token       string
	logger      types.Logger
	hooks       *types.Hooks
}

// Options for the ledger transport
type Options struct {
	HTTPClient  *http.Client
	Headers     map[string]string
	Token       string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
}

// NewLedgerTransport creates a new ledger transport
func NewLedgerTransport(opts *Options) *LedgerTransport {
	if opts == nil {
		opts = &Options{}
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	// Create retry client if configured
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		}
	}

	headers := map[string]string{
		"Accept":     contentType,
		"User-Agent": types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &LedgerTransport{
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		headers:     headers,
		token:       opts.Token,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// Fetch retrieves the resource at url and decodes the JSON body into result.
func (t *LedgerTransport) Fetch(ctx context.Context, url string, result interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	if t.token != "" {
		httpReq.Header.Set(authHeaderKey, fmt.Sprintf("Bearer %s", t.token))
	}

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil {
		t.logger.Debug("ledger request", "url", url)
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, err)
		}
		return err
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if t.logger != nil {
		t.logger.Debug("ledger response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return t.handleHTTPError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "failed to parse ledger export")
		}
	}

	return nil
}

// doRequest executes the HTTP request with retry if configured
func (t *LedgerTransport) doRequest(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// handleHTTPError handles HTTP errors
func (t *LedgerTransport) handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.ErrUnauthorized
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusTooManyRequests:
		return types.ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.ErrTimeout
	case http.StatusBadRequest:
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		return &types.Error{
			Code:       "BAD_REQUEST",
			Message:    msg,
			StatusCode: statusCode,
		}
	default:
		if statusCode >= 500 {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}

			baseMsg := fmt.Sprintf("server error: %d", statusCode)
			if desc := httpStatusDescription(statusCode); desc != "" {
				baseMsg = fmt.Sprintf("server error: %d (%s)", statusCode, desc)
			}
			if msg != "" {
				baseMsg = fmt.Sprintf("%s: %s", baseMsg, msg)
			}

			return &types.Error{
				Code:       "SERVER_ERROR",
				Message:    baseMsg,
				StatusCode: statusCode,
				Err:        types.ErrServerError,
			}
		}
		return &types.Error{
			Code:       "HTTP_ERROR",
			Message:    fmt.Sprintf("HTTP error: %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// httpStatusDescription returns a human-readable description for common HTTP status codes.
// This helps users understand errors like 525 (SSL Handshake Failed) which are Cloudflare-specific.
func httpStatusDescription(statusCode int) string {
	descriptions := map[int]string{
		500: "Internal Server Error",
		501: "Not Implemented",
		502: "Bad Gateway",
		503: "Service Unavailable",
		504: "Gateway Timeout",
		520: "Web Server Error",
		521: "Web Server Is Down",
		522: "Connection Timed Out",
		523: "Origin Is Unreachable",
		524: "A Timeout Occurred",
		525: "SSL Handshake Failed",
		526: "Invalid SSL Certificate",
		527: "Railgun Error",
		530: "Origin DNS Error",
	}
	return descriptions[statusCode]
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
