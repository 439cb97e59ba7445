package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/client"
	"github.com/r6lens/r6lens/internal/core/stats"
	apperrors "github.com/r6lens/r6lens/internal/errors"
	"github.com/r6lens/r6lens/internal/metrics"
)

// API serves the stats lookups. Every request goes through the same client, so
// all callers of the facade draw from one quota.
type API struct {
	client *client.Client
}

// NewAPI returns handlers backed by c. The caller keeps ownership of c.
func NewAPI(c *client.Client) *API {
	return &API{client: c}
}

// Stats handles GET /v1/stats/{platform}/{username}/{kind}.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	platform, err := core.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unsupported platform"))
		return
	}

	kind, err := stats.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unsupported stats kind"))
		return
	}

	username := chi.URLParam(r, "username")
	resource := "stats/" + kind.String()

	payload, err := a.client.Stats().Get(r.Context(), kind, username, platform)
	if err != nil {
		metrics.RecordLookup(resource, false)
		respondWithClientError(w, r, err)
		return
	}

	metrics.RecordLookup(resource, true)
	writeJSON(w, http.StatusOK, payload)
}

// Leaderboard handles GET /v1/leaderboard/{platform}?region=.
func (a *API) Leaderboard(w http.ResponseWriter, r *http.Request) {
	platform, err := core.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		apperrors.RespondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unsupported platform"))
		return
	}

	var region *core.Region
	if raw := strings.TrimSpace(r.URL.Query().Get("region")); raw != "" && raw != "all" {
		parsed, err := core.ParseRegion(raw)
		if err != nil {
			apperrors.RespondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unsupported region"))
			return
		}
		region = &parsed
	}

	board, err := a.client.Leaderboard().Get(r.Context(), platform, region)
	if err != nil {
		metrics.RecordLookup("leaderboard", false)
		respondWithClientError(w, r, err)
		return
	}

	metrics.RecordLookup("leaderboard", true)
	writeJSON(w, http.StatusOK, board)
}

// RateLimit handles GET /v1/ratelimit. It reports the shared quota without
// consuming from it.
func (a *API) RateLimit(w http.ResponseWriter, r *http.Request) {
	snap, err := a.client.RateLimit()
	if err != nil {
		respondWithClientError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// respondWithClientError maps a client failure to an envelope. Fail-fast
// rejections also advertise Retry-After in whole seconds.
func respondWithClientError(w http.ResponseWriter, r *http.Request, err error) {
	if wait, ok := core.IsRateLimited(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	}
	apperrors.RespondWithError(w, r, apperrors.FromRequestError(r.Context(), err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
