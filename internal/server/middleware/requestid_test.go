package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, inbound string) (header, seen string) {
	t.Helper()

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/ratelimit", nil)
	if inbound != "" {
		req.Header.Set(RequestIDHeader, inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec.Header().Get(RequestIDHeader), seen
}

func TestRequestID_ReusesWellFormedHeader(t *testing.T) {
	header, seen := serveWithRequestID(t, "lookup-42:retry.1")
	assert.Equal(t, "lookup-42:retry.1", header)
	assert.Equal(t, header, seen)
}

func TestRequestID_ReplacesMissingOrMalformedHeader(t *testing.T) {
	for name, inbound := range map[string]string{
		"missing":  "",
		"spaces":   "two words",
		"newline":  "id\nX-Injected: 1",
		"too long": strings.Repeat("a", maxRequestIDLength+1),
	} {
		t.Run(name, func(t *testing.T) {
			header, seen := serveWithRequestID(t, inbound)
			require.NotEqual(t, inbound, header)
			_, err := uuid.Parse(header)
			require.NoError(t, err)
			assert.Equal(t, header, seen)
		})
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}
