package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// TransactionService is what the handlers need from the service layer.
type TransactionService interface {
	Create(ctx context.Context, userID int64, req services.CreateRequest) (core.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	Stats(ctx context.Context, userID int64, period core.Period) (core.Stats, error)
	ExportCSV(ctx context.Context, userID int64, w io.Writer) error
}

// CreatedResponse is the data of a successful POST /api/index.
type CreatedResponse struct {
	Message  string               `json:"message"`
	ID       int64                `json:"id"`
	Category string               `json:"category"`
	Type     core.TransactionType `json:"type"`
	Amount   int64                `json:"amount"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleCreate parses a free-text entry: POST /api/index {text, type?, date?}.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	body, resp := ReadJSONObject(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	text, _, err := body.String("text")
	if err != nil {
		BadRequest("text must be a string").Write(w)
		return
	}
	kind, _, err := body.String("type")
	if err != nil {
		BadRequest("type must be a string").Write(w)
		return
	}
	date, _, err := body.String("date")
	if err != nil {
		BadRequest("date must be in YYYY-MM-DD format").Write(w)
		return
	}

	t, err := s.service.Create(ctx, userID, services.CreateRequest{Text: text, Type: kind, Date: date})
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err, "Failed to save transaction")
		return
	}

	OK(CreatedResponse{
		Message:  "Saved",
		ID:       t.ID,
		Category: t.Category,
		Type:     t.Type,
		Amount:   t.Amount,
	}).Write(w)
}

// handleDelete removes one of the caller's rows: POST /api/delete {id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	body, resp := ReadJSONObject(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	id, present, err := body.Int64("id")
	switch {
	case err != nil:
		BadRequest("id must be an integer").Write(w)
		return
	case !present:
		BadRequest("Missing id").Write(w)
		return
	}

	if err := s.service.Delete(ctx, userID, id); err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err, "Failed to delete transaction")
		return
	}
	OK(map[string]string{"message": "Deleted"}).Write(w)
}

// handleStats serves the dashboard summary: GET /api/stats?period=.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	period, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		BadRequest("Invalid period").Write(w)
		return
	}

	stats, err := s.service.Stats(ctx, userID, period)
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err, "Failed to load stats")
		return
	}
	OK(stats).Write(w)
}

// handleExport streams the CSV report: GET /api/export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	// Buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := s.service.ExportCSV(ctx, userID, &buf); err != nil {
		s.writeServiceError(w, r, applog.OpExport, err, "Failed to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="finance_report.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeServiceError maps service errors to responses. Only input errors
// reach the client verbatim.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, fallback string) {
	var inErr *services.InputError
	switch {
	case errors.As(err, &inErr):
		BadRequest(inErr.Msg).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFound("Record not found").Write(w)
	default:
		ctx := r.Context()
		applog.FromContext(ctx).WithComponent(applog.ComponentAPI).ErrorContext(ctx, "Request failed",
			applog.FieldOperation, op,
			applog.FieldError, err)
		InternalError(fallback).Write(w)
	}
}
