package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// SubscriptionService is what /api/subs needs.
type SubscriptionService interface {
	Add(ctx context.Context, userID int64, req services.AddSubscriptionRequest) (core.Subscription, error)
	List(ctx context.Context, userID int64) ([]core.Subscription, error)
	Delete(ctx context.Context, userID, id int64) error
}

// SettingsService is what /api/settings and /api/quick-buttons need.
type SettingsService interface {
	SetCurrency(ctx context.Context, userID int64, currency string) (string, error)
	QuickButtons(ctx context.Context, userID int64) ([]string, error)
	SaveQuickButtons(ctx context.Context, userID int64, buttons []string) ([]string, error)
}

const subsActionHelp = "Invalid action. Use: add | delete | list"

// handleSubscriptions multiplexes POST /api/subs on body.action:
//
//	{"action":"list"}
//	{"action":"add","name","amount","currency"?,"date"|"next_date","period"}
//	{"action":"delete","id"}
func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		Fail(http.StatusMethodNotAllowed, "Method not allowed. Use POST with action=list/add/delete.").
			Header("Allow", http.MethodPost).
			Write(w)
		return
	}
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	body, resp := ReadJSONObject(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	action, _, err := body.String("action")
	if err != nil {
		BadRequest(subsActionHelp).Write(w)
		return
	}

	switch action {
	case "list":
		subs, err := s.subscriptions.List(ctx, userID)
		if err != nil {
			s.writeServiceError(w, r, applog.OpList, err, "Failed to load subscriptions")
			return
		}
		OK(map[string]any{"subscriptions": subs}).Write(w)
	case "add":
		req, resp := parseAddSubscription(body)
		if resp != nil {
			resp.Write(w)
			return
		}
		sub, err := s.subscriptions.Add(ctx, userID, req)
		if err != nil {
			s.writeServiceError(w, r, applog.OpCreate, err, "Failed to add subscription")
			return
		}
		OK(map[string]any{"message": "Subscription added", "subscription": sub}).Write(w)
	case "delete":
		id, present, err := body.Int64("id")
		switch {
		case err != nil:
			BadRequest("id must be an integer").Write(w)
			return
		case !present:
			BadRequest("Missing id").Write(w)
			return
		}
		err = s.subscriptions.Delete(ctx, userID, id)
		if errors.Is(err, storage.ErrNotFound) {
			NotFound("Subscription not found").Write(w)
			return
		}
		if err != nil {
			s.writeServiceError(w, r, applog.OpDelete, err, "Failed to delete subscription")
			return
		}
		OK(map[string]string{"message": "Deleted"}).Write(w)
	default:
		BadRequest(subsActionHelp).Write(w)
	}
}

// parseAddSubscription checks field types; the service checks values.
func parseAddSubscription(body JSONBody) (services.AddSubscriptionRequest, *ResponseBuilder) {
	var req services.AddSubscriptionRequest
	var err error

	if req.Name, _, err = body.String("name"); err != nil {
		return req, BadRequest("name must be a non-empty string")
	}
	amount, present, err := body.Float64("amount")
	if err != nil || !present {
		return req, BadRequest("amount must be numeric")
	}
	req.Amount = amount
	if req.Currency, _, err = body.String("currency"); err != nil {
		return req, BadRequest("currency must be a string")
	}

	date, _, err := body.String("date")
	if err == nil && date == "" {
		date, _, err = body.String("next_date")
	}
	if err != nil {
		return req, BadRequest("date must be in YYYY-MM-DD format")
	}
	req.Date = date

	period, present, err := body.String("period")
	if err != nil || !present {
		return req, BadRequest("period must be a string")
	}
	req.Period = period
	return req, nil
}

// handleSettings changes the display currency: POST /api/settings {currency}.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
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
	currency, present, err := body.String("currency")
	if err != nil || !present {
		BadRequest("currency must be a string").Write(w)
		return
	}

	saved, err := s.settings.SetCurrency(ctx, userID, currency)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err, "Failed to save settings")
		return
	}
	OK(map[string]string{"currency": saved}).Write(w)
}

func (s *Server) handleGetQuickButtons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	buttons, err := s.settings.QuickButtons(ctx, userID)
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err, "Failed to load buttons")
		return
	}
	OK(map[string][]string{"buttons": buttons}).Write(w)
}

// handleSaveQuickButtons replaces the buttons: POST /api/quick-buttons {buttons}.
func (s *Server) handleSaveQuickButtons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	body, resp := ReadJSONObject(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	buttons, present, err := body.Strings("buttons")
	switch {
	case errors.Is(err, errWrongElement):
		BadRequest("Each button must be a string").Write(w)
		return
	case err != nil, !present:
		BadRequest("buttons must be an array").Write(w)
		return
	}

	saved, err := s.settings.SaveQuickButtons(ctx, userID, buttons)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err, "Failed to save buttons")
		return
	}
	OK(map[string]any{"message": "Buttons saved", "buttons": saved}).Write(w)
}

// byMethod routes one path to a handler per method and answers anything
// else with a JSON 405.
func byMethod(handlers map[string]http.Handler) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		if _, ok := handlers[m]; ok {
			allowed = append(allowed, m)
		}
	}
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method]
		if !ok {
			MethodNotAllowed(allow).Write(w)
			return
		}
		h.ServeHTTP(w, r)
	})
}
