package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"registrar/internal/profile/models"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/sentinel"
)

// HTTPClient calls the profile service's internal endpoints:
//
//	POST {base}/internal/profiles
//	GET  {base}/internal/profiles/by-account/{accountID}
//
// A circuit breaker guards the service: after enough consecutive transport
// failures calls fail fast with sentinel.ErrUnavailable, with one probe call
// let through per probe interval to detect recovery.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	breaker    *circuit.Breaker
	probeEvery time.Duration
	mu         sync.Mutex
	nextProbe  time.Time
}

// HTTPOption customizes the client.
type HTTPOption func(*HTTPClient)

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(c *HTTPClient) { c.breaker = b }
}

func WithProbeInterval(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.probeEvery = d }
}

// NewHTTP constructs a profile client for the given base URL. Per-call
// deadlines come from the caller; the underlying http.Client carries no
// timeout of its own so context cancellation is the single cutoff mechanism.
func NewHTTP(baseURL string, logger *slog.Logger, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		http:       &http.Client{},
		logger:     logger,
		breaker:    circuit.New("profile-service", circuit.WithFailureThreshold(5)),
		probeEvery: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) CreateProfile(ctx context.Context, req models.CreationRequest, timeout time.Duration) (*models.Profile, error) {
	if !c.allow() {
		return nil, fmt.Errorf("profile circuit open: %w", sentinel.ErrUnavailable)
	}
	profile, err := c.doCreate(ctx, req, timeout)
	c.record(err)
	return profile, err
}

func (c *HTTPClient) doCreate(ctx context.Context, req models.CreationRequest, timeout time.Duration) (*models.Profile, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode profile request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/profiles", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, translateTransportErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return decodeProfile(resp.Body)
	case resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("profile already exists for account %s: %w", req.AccountID, sentinel.ErrConflict)
	default:
		c.logger.Warn("profile service returned unexpected status",
			"status", resp.StatusCode,
			"account_id", req.AccountID,
		)
		return nil, fmt.Errorf("profile service status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
}

func (c *HTTPClient) FindByAccountID(ctx context.Context, accountID string) (*models.Profile, error) {
	if !c.allow() {
		return nil, fmt.Errorf("profile circuit open: %w", sentinel.ErrUnavailable)
	}
	profile, err := c.doFind(ctx, accountID)
	c.record(err)
	return profile, err
}

func (c *HTTPClient) doFind(ctx context.Context, accountID string) (*models.Profile, error) {
	endpoint := c.baseURL + "/internal/profiles/by-account/" + url.PathEscape(accountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile lookup: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, translateTransportErr(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeProfile(resp.Body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("no profile for account %s: %w", accountID, sentinel.ErrNotFound)
	default:
		return nil, fmt.Errorf("profile service status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
}

func decodeProfile(r io.Reader) (*models.Profile, error) {
	var p models.Profile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", sentinel.ErrUnavailable)
	}
	return &p, nil
}

// allow reports whether a call may proceed. An open circuit lets one probe
// through per probe interval.
func (c *HTTPClient) allow() bool {
	if !c.breaker.IsOpen() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.nextProbe) {
		c.nextProbe = now.Add(c.probeEvery)
		return true
	}
	return false
}

// record feeds the call outcome to the breaker. Conflict and not-found mean
// the service answered, so they count as successes; caller cancellation says
// nothing about the service and is ignored.
func (c *HTTPClient) record(err error) {
	switch {
	case err == nil, errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.Info("profile circuit closed")
		}
	case errors.Is(err, context.Canceled):
	default:
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.mu.Lock()
			c.nextProbe = time.Now().Add(c.probeEvery)
			c.mu.Unlock()
			c.logger.Warn("profile circuit opened", "error", err)
		}
	}
}

// translateTransportErr maps low-level transport failures onto the sentinel
// vocabulary the orchestrator's retry policy understands.
func translateTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("profile call deadline expired: %w", sentinel.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("profile call timed out: %w", sentinel.ErrTimeout)
	}
	return fmt.Errorf("profile service unreachable: %v: %w", err, sentinel.ErrUnavailable)
}
