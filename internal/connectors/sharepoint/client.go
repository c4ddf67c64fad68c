package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the default number of retries for transport failures.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// maxRetryAfter caps a server-requested delay.
	maxRetryAfter = 2 * time.Minute

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// HeaderRequestID correlates a request with server-side logs.
	HeaderRequestID = "client-request-id"

	acceptJSON  = "application/json;odata=nometadata"
	contentJSON = "application/json;odata=nometadata"
	userAgent   = "ShareSentry"
)

// Client performs REST calls with retry on transport failures.
type Client struct {
	http       *http.Client
	metrics    driven.MetricsRecorder
	maxRetries int
	retryDelay time.Duration
}

// NewClient wraps an authenticated HTTP client.
func NewClient(httpClient *http.Client, metrics driven.MetricsRecorder, maxRetries int) *Client {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		http:       httpClient,
		metrics:    metrics,
		maxRetries: maxRetries,
		retryDelay: RetryDelay,
	}
}

// request describes one REST call.
type request struct {
	op          string
	method      string
	url         string
	body        []byte
	contentType string
	headers     map[string]string

	// creates marks a call that adds a document. It is retried only when the
	// platform throttled it, since any other failure may follow a completed write.
	creates bool
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(op, method, url string, payload any) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode %s request: %w", op, err)
	}
	return request{op: op, method: method, url: url, body: body, contentType: contentJSON}, nil
}

// do executes req, decoding a successful response into out when non-nil.
// Transport failures (network errors, 408, 429 and 5xx) are retried with
// exponential backoff, honouring Retry-After. Anything else fails at once.
// Document-creating calls are retried on 429 only.
func (c *Client) do(ctx context.Context, req request, out any) error {
	policy := &retryAfterBackOff{BackOff: c.newBackOff()}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.once(ctx, req, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || ctx.Err() != nil || (req.creates && !isThrottled(err)) {
			return backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			policy.wait = apiErr.RetryAfter
		}
		logger.Debug("%s attempt %d failed: %v", req.op, attempt, err)
		return err
	}, b)
}

func (c *Client) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryDelay
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	return exp
}

// once performs a single attempt.
func (c *Client) once(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", acceptJSON)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.op, 0, time.Since(start))
		return wrapTransportError(ctx, req, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(req.op, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrTransport, req.op, err)
	}
	return nil
}

// wrapTransportError classifies a failed round trip. Token endpoint
// rejections are credential problems and are not retried.
func wrapTransportError(ctx context.Context, req request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) && tokenErr.Response != nil && tokenErr.Response.StatusCode < 500 {
		return fmt.Errorf("%w: token request rejected: %w", domain.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, req.method, req.op, err)
}

// newAPIError reads the error body of a failed response.
func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(data, resp.Status),
		URL:        resp.Request.URL.Redacted(),
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now())
	}
	return apiErr
}

// errorMessage extracts the message from either OData error envelope.
func errorMessage(data []byte, fallback string) string {
	var envelope struct {
		Light struct {
			Code    string `json:"code"`
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"odata.error"`
		Verbose struct {
			Code    string `json:"code"`
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if msg := envelope.Light.Message.Value; msg != "" {
			return msg
		}
		if msg := envelope.Verbose.Message.Value; msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 512 {
		return text
	}
	return fallback
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var d time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
	}
	if d < 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

// retryAfterBackOff stretches the next delay to a server-requested wait.
type retryAfterBackOff struct {
	backoff.BackOff
	wait time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if b.wait > next {
		next = b.wait
	}
	b.wait = 0
	return next
}
