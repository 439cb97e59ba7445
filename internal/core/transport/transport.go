package transport

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/metrics"
)

// PayloadCache stores raw response bodies by request address.
type PayloadCache interface {
	GetCachedPayload(ctx context.Context, key string) ([]byte, error)
	SetCachedPayload(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Transport ties address validation, admission and dispatch together. Each
// sub-client owns one Transport; all of them share the governor through
// cloned handles.
type Transport struct {
	dispatcher *Dispatcher
	handle     *engine.Handle
	cache      PayloadCache
	cacheTTL   time.Duration
	logger     *logging.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithCache serves successful responses from cache for ttl.
func WithCache(cache PayloadCache, ttl time.Duration) Option {
	return func(t *Transport) {
		t.cache = cache
		t.cacheTTL = ttl
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New returns a Transport that takes ownership of handle.
func New(dispatcher *Dispatcher, handle *engine.Handle, opts ...Option) (*Transport, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if handle == nil {
		return nil, errors.New("rate limit handle is required")
	}

	t := &Transport{dispatcher: dispatcher, handle: handle}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Clone returns a Transport sharing the dispatcher, cache and governor.
func (t *Transport) Clone() (*Transport, error) {
	handle, err := t.handle.Clone()
	if err != nil {
		return nil, err
	}
	clone := *t
	clone.handle = handle
	return &clone, nil
}

// Release drops this Transport's governor handle.
func (t *Transport) Release() {
	if t != nil {
		t.handle.Release()
	}
}

// RateLimit returns the shared quota snapshot.
func (t *Transport) RateLimit() (engine.Snapshot, error) {
	return t.handle.Snapshot()
}

// Request validates rawURL, waits for (or is refused) admission and performs
// the request. Cache hits bypass admission.
func (t *Transport) Request(ctx context.Context, rawURL string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := ParseAddress(rawURL); err != nil {
		metrics.RecordAPIRequest(core.KindAddress.String(), 0)
		return nil, err
	}

	if payload, ok := t.cached(ctx, rawURL); ok {
		return payload, nil
	}

	if err := t.handle.PreAdmit(ctx); err != nil {
		return nil, t.admissionError(rawURL, err)
	}

	body, err := t.dispatcher.Get(ctx, rawURL)
	if err != nil {
		if reqErr, ok := core.AsRequestError(err); ok {
			metrics.RecordAPIRequest(reqErr.Kind.String(), reqErr.StatusCode)
		}
		if t.logger != nil {
			t.logger.Debug("API request failed", zap.String("url", rawURL), zap.Error(err))
		}
		return nil, err
	}
	metrics.RecordAPIRequest("success", 200)

	t.store(ctx, rawURL, body)
	return body, nil
}

func (t *Transport) admissionError(rawURL string, err error) error {
	if reqErr, ok := core.AsRequestError(err); ok {
		reqErr.URL = rawURL
		metrics.RecordAPIRequest(reqErr.Kind.String(), 0)
		return reqErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordAPIRequest(core.KindTransport.String(), 0)
		return core.NewTransportError(rawURL, err)
	}
	return err
}

func (t *Transport) cached(ctx context.Context, key string) ([]byte, bool) {
	if t.cache == nil || t.cacheTTL <= 0 {
		return nil, false
	}

	payload, err := t.cache.GetCachedPayload(ctx, key)
	if err != nil && t.logger != nil {
		t.logger.Warn("Payload cache lookup failed", zap.String("url", key), zap.Error(err))
	}
	hit := err == nil && payload != nil
	metrics.RecordCacheLookup(hit)
	return payload, hit
}

func (t *Transport) store(ctx context.Context, key string, payload []byte) {
	if t.cache == nil || t.cacheTTL <= 0 {
		return
	}
	if err := t.cache.SetCachedPayload(ctx, key, payload, t.cacheTTL); err != nil && t.logger != nil {
		t.logger.Warn("Payload cache write failed", zap.String("url", key), zap.Error(err))
	}
}
