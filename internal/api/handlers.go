// Package api exposes HTTP handlers for the activity pipeline.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/asad-as1/EduAccess/internal/auth"
	"github.com/asad-as1/EduAccess/internal/domain"
	"github.com/asad-as1/EduAccess/internal/observability"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	authCfg auth.Config
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, authCfg auth.Config) *Handler {
	return &Handler{service: service, authCfg: authCfg}
}

// RegisterRoutes wires endpoints to the mux. The ingestion routes carry the
// user token in the body (the client beacon transport cannot set headers);
// the window route expects a bearer header and goes through the middleware.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/activity/newActivity", h.newActivity)
	mux.HandleFunc("/activity/page-visit", h.pageVisit)
	mux.HandleFunc("/activity/get", h.getActivity)
	mux.HandleFunc("/activity/window", h.window)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// newActivity ingests one active-time delta.
func (h *Handler) newActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req ActiveTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordEventRejected("malformed_body")
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	event := domain.ActiveTimeDelta{
		UserID:       req.UserID,
		Token:        req.Token,
		DeltaSeconds: req.ActiveTime,
		Timestamp:    req.Timestamp,
	}
	if err := h.ingest(event, func() error {
		return h.service.RecordActiveTime(r.Context(), event, time.Now())
	}); err != nil {
		h.writeIngestError(w, err)
		return
	}

	observability.RecordEventAccepted("active_time")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// pageVisit ingests one page-visit event.
func (h *Handler) pageVisit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req PageVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordEventRejected("malformed_body")
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	event := domain.PageVisitEvent{
		UserID:    req.UserID,
		Token:     req.Token,
		Page:      req.Page,
		Timestamp: req.Timestamp,
	}
	if err := h.ingest(event, func() error {
		return h.service.RecordPageVisit(r.Context(), event, time.Now())
	}); err != nil {
		h.writeIngestError(w, err)
		return
	}

	observability.RecordEventAccepted("page_visit")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ingest runs the shared validate-authenticate-merge sequence. Validation and
// auth failures reject the event before any merge is attempted.
func (h *Handler) ingest(event domain.Event, merge func() error) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if err := auth.VerifyUser(event.AuthToken(), event.User(), h.authCfg); err != nil {
		return err
	}

	return merge()
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent):
		observability.RecordEventRejected("validation")
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		observability.RecordEventRejected("auth")
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		observability.RecordEventRejected("storage")
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// getActivity returns the caller's full history, ascending by date. The token
// travels in the body to match the dashboard client.
func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	claims, err := auth.Parse(req.Token, h.authCfg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	records, err := h.service.History(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(records))
	for _, rec := range records {
		items = append(items, toActivityView(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

// window returns one fixed-size page of the caller's history for the
// dashboard chart. A negative or oversized offset is clamped, never an error.
func (h *Handler) window(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	size := domain.DefaultWindowSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			size = parsed
		}
	}

	records, err := h.service.History(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	offset := domain.InitialOffset(len(records), size)
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = domain.ClampOffset(parsed, len(records), size)
		}
	}

	windowed := domain.Window(records, offset, size)
	items := make([]ActivityView, 0, len(windowed))
	for _, rec := range windowed {
		items = append(items, toActivityView(rec))
	}

	writeJSON(w, http.StatusOK, WindowResponse{
		Items:  items,
		Offset: offset,
		Size:   size,
		Total:  len(records),
	})
}

// ActiveTimeRequest is the payload for POST /activity/newActivity.
type ActiveTimeRequest struct {
	UserID     string    `json:"userId"`
	Token      string    `json:"token"`
	ActiveTime float64   `json:"activeTime"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// PageVisitRequest is the payload for POST /activity/page-visit.
type PageVisitRequest struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	Page      string    `json:"page"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// HistoryRequest is the payload for POST /activity/get.
type HistoryRequest struct {
	Token string `json:"token"`
}

// ActivityView is the query-side projection of one daily record.
type ActivityView struct {
	Date            string         `json:"date"`
	TotalActiveTime float64        `json:"totalActiveTime"`
	PagesVisited    map[string]int `json:"pagesVisited"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// WindowResponse packages one dashboard page with its clamped offset.
type WindowResponse struct {
	Items  []ActivityView `json:"items"`
	Offset int            `json:"offset"`
	Size   int            `json:"size"`
	Total  int            `json:"total"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(rec domain.ActivityRecord) ActivityView {
	return ActivityView{
		Date:            string(rec.Date),
		TotalActiveTime: rec.TotalActiveTime,
		PagesVisited:    rec.Breakdown(),
		LastUpdated:     rec.LastUpdated,
	}
}
