// Package errors maps r6lens failures onto gofulmen error envelopes and writes
// them as JSON responses for the HTTP facade.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"strconv"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/client"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/metrics"
	"github.com/r6lens/r6lens/internal/observability"
	"github.com/r6lens/r6lens/internal/server/middleware"
)

// Envelope codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeDatabase           = "DATABASE_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeDataProcessing     = "DATA_PROCESSING_ERROR"
)

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeServiceUnavailable, message)
}

// Wrap builds an envelope for err with correlation and trace IDs taken from
// the request context.
func Wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	envelope = envelope.WithTraceID(extractCorrelationID(ctx))
	return withWrappedError(envelope, err)
}

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeInvalidInput, err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return Wrap(ctx, CodeDatabase, err, message)
}

// FromRequestError classifies a client failure. Local admission rejections map
// to RATE_LIMITED with the advertised wait; upstream statuses keep their
// meaning where one exists.
func FromRequestError(ctx context.Context, err error) *errors.ErrorEnvelope {
	reqErr, ok := core.AsRequestError(err)
	if !ok {
		switch {
		case stderrors.Is(err, client.ErrClosed), stderrors.Is(err, engine.ErrHandleReleased):
			return Wrap(ctx, CodeServiceUnavailable, err, "stats client is closed")
		case stderrors.Is(err, context.DeadlineExceeded):
			return Wrap(ctx, CodeTimeout, err, "request timed out")
		default:
			return Wrap(ctx, CodeDataProcessing, err, "unable to process upstream response")
		}
	}

	var envelope *errors.ErrorEnvelope
	switch reqErr.Kind {
	case core.KindAddress:
		envelope = Wrap(ctx, CodeInvalidInput, err, "invalid player or resource address")
	case core.KindTransport:
		if stderrors.Is(err, context.DeadlineExceeded) {
			envelope = Wrap(ctx, CodeTimeout, err, "stats API request timed out")
		} else {
			envelope = Wrap(ctx, CodeExternalService, err, "stats API unreachable")
		}
	case core.KindUnsuccessfulResponse:
		envelope = Wrap(ctx, codeForUpstreamStatus(reqErr.StatusCode), err, "stats API returned an unsuccessful response")
		envelope = envelope.WithDetails(map[string]any{"upstream_status": reqErr.StatusCode})
	case core.KindRateLimited:
		envelope = Wrap(ctx, CodeRateLimited, err, "request quota exhausted")
		envelope = envelope.WithDetails(map[string]any{"retry_after_ms": reqErr.RetryAfter.Milliseconds()})
	default:
		envelope = Wrap(ctx, CodeInternal, err, "request failed")
	}
	envelope, _ = envelope.WithSeverity(errors.SeverityMedium)
	return envelope
}

func codeForUpstreamStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeExternalService
	}
}

// extractCorrelationID returns the request ID carried by ctx, or a fresh UUID.
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	if _, ok := core.AsRequestError(err); ok {
		return FromRequestError(context.Background(), err)
	}
	if stderrors.Is(err, client.ErrClosed) || stderrors.Is(err, engine.ErrHandleReleased) {
		return FromRequestError(context.Background(), err)
	}

	env := errors.NewErrorEnvelope(CodeInternal, "unexpected error")
	env = withWrappedError(env, err)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil || envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput, "VALIDATION_FAILED":
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternalService, CodeDataProcessing:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]any{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

// ResponseDetails merges envelope details and context into the map returned
// to callers. Details win on key collisions.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]any {
	if envelope == nil {
		return nil
	}

	details := make(map[string]any)
	for key, value := range envelope.Details {
		details[key] = value
	}
	for key, value := range envelope.Context {
		if _, exists := details[key]; !exists {
			details[key] = value
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes err and writes a JSON response. A local
// admission rejection also sets Retry-After.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if w != nil {
		if wait, ok := core.IsRateLimited(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait.Seconds())))
		}
	}

	var envelope *errors.ErrorEnvelope
	if r != nil {
		if _, ok := core.AsRequestError(err); ok {
			envelope = FromRequestError(r.Context(), err)
		}
	}
	if envelope == nil {
		envelope = EnsureEnvelope(err)
	}
	RespondWithEnvelope(w, r, envelope)
}

func retryAfterSeconds(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   ResponseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(middleware.EndpointPattern(r), envelope.Code)
	}
}
