// Package api exposes HTTP handlers for the template service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/template/internal/auth"
	"example.com/template/internal/domain"
	"example.com/template/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/templates", h.templates)
	mux.HandleFunc("/v1/templates/", h.templateByID)
	mux.HandleFunc("/v1/templates/summary", h.intensitySummary)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTemplate(w, r)
	case http.MethodGet:
		h.listTemplates(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) templateByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/templates/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing template id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTemplate(w, r, id)
	case http.MethodPut:
		h.renameTemplate(w, r, id)
	case http.MethodDelete:
		h.deleteTemplate(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:write required")
		return
	}

	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	aggregate, err := h.service.CreateTemplate(r.Context(), domain.CreateTemplateInput{
		TenantID:  claims.TenantID,
		UserID:    req.UserID,
		Name:      req.Name,
		Exercises: req.toExercises(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateView(*aggregate))
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesRead) && !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:read required")
		return
	}

	aggregate, err := h.service.GetTemplate(r.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toTemplateView(*aggregate))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesRead) && !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursorToken := r.URL.Query().Get("cursor")
	cursor, err := persistence.DecodeCursor(cursorToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	aggregates, next, err := h.service.ListTemplatesByUser(r.Context(), claims.TenantID, userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]TemplateView, 0, len(aggregates))
	for _, agg := range aggregates {
		items = append(items, toTemplateView(agg))
	}

	resp := ListTemplatesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) renameTemplate(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:write required")
		return
	}

	var req RenameTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}

	aggregate, err := h.service.RenameTemplate(r.Context(), claims.TenantID, id, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toTemplateView(*aggregate))
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:write required")
		return
	}

	if err := h.service.DeleteTemplate(r.Context(), claims.TenantID, id); err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) intensitySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeTemplatesRead) && !claims.HasScope(auth.ScopeTemplatesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope templates:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	summary, err := h.service.IntensitySummaryByUser(r.Context(), claims.TenantID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := IntensitySummaryResponse{
		Total:         summary.Total,
		Sanft:         summary.Sanft,
		Aktiv:         summary.Aktiv,
		Power:         summary.Power,
		LastUpdatedAt: summary.LastUpdatedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTemplateRequest is the payload for POST /v1/templates.
type CreateTemplateRequest struct {
	UserID    string                    `json:"user_id"`
	Name      string                    `json:"name"`
	Exercises []TemplateExerciseRequest `json:"exercises,omitempty"`
}

// TemplateExerciseRequest describes one exercise slot in a create payload.
type TemplateExerciseRequest struct {
	Name     string               `json:"name"`
	Position int                  `json:"position,omitempty"`
	Notes    string               `json:"notes,omitempty"`
	Sets     []ExerciseSetRequest `json:"sets,omitempty"`
}

// ExerciseSetRequest describes one planned set in a create payload.
type ExerciseSetRequest struct {
	Position    int     `json:"position,omitempty"`
	Reps        int     `json:"reps,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	DurationSec int     `json:"duration_sec,omitempty"`
	RestSec     int     `json:"rest_sec,omitempty"`
}

// Validate ensures request correctness.
func (r CreateTemplateRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	for _, ex := range r.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return errors.New("exercise name is required")
		}
	}
	return nil
}

func (r CreateTemplateRequest) toExercises() []domain.TemplateExercise {
	out := make([]domain.TemplateExercise, 0, len(r.Exercises))
	for _, ex := range r.Exercises {
		sets := make([]domain.ExerciseSet, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			sets = append(sets, domain.ExerciseSet{
				Position:    set.Position,
				Reps:        set.Reps,
				WeightKg:    set.WeightKg,
				DurationSec: set.DurationSec,
				RestSec:     set.RestSec,
			})
		}
		out = append(out, domain.TemplateExercise{
			Name:     ex.Name,
			Position: ex.Position,
			Notes:    ex.Notes,
			Sets:     sets,
		})
	}
	return out
}

// RenameTemplateRequest is the payload for PUT /v1/templates/{id}.
type RenameTemplateRequest struct {
	Name string `json:"name"`
}

// TemplateView exposes full details about a template.
type TemplateView struct {
	TemplateID string                 `json:"template_id"`
	TenantID   string                 `json:"tenant_id"`
	UserID     string                 `json:"user_id"`
	Name       string                 `json:"name"`
	Intensity  string                 `json:"intensity"`
	Version    string                 `json:"version"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Exercises  []TemplateExerciseView `json:"exercises"`
}

// TemplateExerciseView exposes an exercise slot with its sets.
type TemplateExerciseView struct {
	ExerciseID string            `json:"exercise_id"`
	Name       string            `json:"name"`
	Position   int               `json:"position"`
	Notes      string            `json:"notes,omitempty"`
	Sets       []ExerciseSetView `json:"sets"`
}

// ExerciseSetView exposes one planned set.
type ExerciseSetView struct {
	SetID       string  `json:"set_id"`
	Position    int     `json:"position"`
	Reps        int     `json:"reps,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	DurationSec int     `json:"duration_sec,omitempty"`
	RestSec     int     `json:"rest_sec,omitempty"`
}

// ListTemplatesResponse packages list results.
type ListTemplatesResponse struct {
	Items      []TemplateView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// IntensitySummaryResponse reports per-label counts for a user.
type IntensitySummaryResponse struct {
	Total         int        `json:"total"`
	Sanft         int        `json:"sanft"`
	Aktiv         int        `json:"aktiv"`
	Power         int        `json:"power"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
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

func toTemplateView(agg domain.TemplateAggregate) TemplateView {
	exercises := make([]TemplateExerciseView, 0, len(agg.Exercises))
	for _, ex := range agg.Exercises {
		sets := make([]ExerciseSetView, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			sets = append(sets, ExerciseSetView{
				SetID:       set.ID,
				Position:    set.Position,
				Reps:        set.Reps,
				WeightKg:    set.WeightKg,
				DurationSec: set.DurationSec,
				RestSec:     set.RestSec,
			})
		}
		exercises = append(exercises, TemplateExerciseView{
			ExerciseID: ex.ID,
			Name:       ex.Name,
			Position:   ex.Position,
			Notes:      ex.Notes,
			Sets:       sets,
		})
	}

	return TemplateView{
		TemplateID: agg.ID,
		TenantID:   agg.TenantID,
		UserID:     agg.UserID,
		Name:       agg.Name,
		Intensity:  string(agg.Intensity),
		Version:    agg.Version,
		CreatedAt:  agg.CreatedAt,
		UpdatedAt:  agg.UpdatedAt,
		Exercises:  exercises,
	}
}
