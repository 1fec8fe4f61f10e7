package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestSubscriptionsFlow(t *testing.T) {
	s := newTestServer(t, 20)

	rr, env := s.do(t, http.MethodPost, "/api/subs", 7, `{"action":"list"}`)
	if rr.Code != http.StatusOK || string(env.Data) != `{"subscriptions":[]}` {
		t.Fatalf("empty list: %d %s", rr.Code, env.Data)
	}

	rr, env = s.do(t, http.MethodPost, "/api/subs", 7,
		`{"action":"add","name":"Netflix","amount":"799,00","next_date":"2025-04-10","period":"MONTHLY"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("add: %d %s", rr.Code, rr.Body.String())
	}
	var added struct {
		Message      string            `json:"message"`
		Subscription core.Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(env.Data, &added); err != nil {
		t.Fatal(err)
	}
	if added.Message != "Subscription added" || added.Subscription.Currency != "RUB" ||
		added.Subscription.Amount != 799 || added.Subscription.Period != core.Monthly {
		t.Fatalf("added = %+v", added)
	}
	s.do(t, http.MethodPost, "/api/subs", 7,
		`{"action":"add","name":"Spotify","amount":5.99,"currency":"usd","date":"2025-03-01","period":"monthly"}`)

	_, env = s.do(t, http.MethodPost, "/api/subs", 7, `{"action":"list"}`)
	var listed struct {
		Subscriptions []core.Subscription `json:"subscriptions"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Subscriptions) != 2 || listed.Subscriptions[0].Name != "Spotify" || listed.Subscriptions[0].Currency != "USD" {
		t.Fatalf("list = %+v", listed.Subscriptions)
	}

	id := strconv.FormatInt(added.Subscription.ID, 10)
	rr, env = s.do(t, http.MethodPost, "/api/subs", 8, `{"action":"delete","id":`+id+`}`)
	if rr.Code != http.StatusNotFound || env.Error != "Subscription not found" {
		t.Fatalf("foreign delete: %d %+v", rr.Code, env)
	}
	rr, _ = s.do(t, http.MethodPost, "/api/subs", 7, `{"action":"delete","id":`+id+`}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
}

func TestSubscriptionsRejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
		want   string
	}{
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed. Use POST with action=list/add/delete."},
		{"no action", http.MethodPost, `{}`, http.StatusBadRequest, "Invalid action. Use: add | delete | list"},
		{"unknown action", http.MethodPost, `{"action":"edit"}`, http.StatusBadRequest, "Invalid action. Use: add | delete | list"},
		{"action not string", http.MethodPost, `{"action":1}`, http.StatusBadRequest, "Invalid action. Use: add | delete | list"},
		{"delete no id", http.MethodPost, `{"action":"delete"}`, http.StatusBadRequest, "Missing id"},
		{"name", http.MethodPost, `{"action":"add","name":5,"amount":1,"date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "name must be a non-empty string"},
		{"blank name", http.MethodPost, `{"action":"add","name":"  ","amount":1,"date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "name must be a non-empty string"},
		{"amount missing", http.MethodPost, `{"action":"add","name":"a","date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "amount must be numeric"},
		{"amount bool", http.MethodPost, `{"action":"add","name":"a","amount":true,"date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "amount must be numeric"},
		{"amount negative", http.MethodPost, `{"action":"add","name":"a","amount":-5,"date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "amount must be >= 0"},
		{"currency type", http.MethodPost, `{"action":"add","name":"a","amount":1,"currency":1,"date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "currency must be a string"},
		{"currency value", http.MethodPost, `{"action":"add","name":"a","amount":1,"currency":"GBP","date":"2025-01-01","period":"daily"}`, http.StatusBadRequest, "Invalid currency. Allowed: EUR, RUB, USD"},
		{"date", http.MethodPost, `{"action":"add","name":"a","amount":1,"date":"01.01.2025","period":"daily"}`, http.StatusBadRequest, "date must be in YYYY-MM-DD format"},
		{"period type", http.MethodPost, `{"action":"add","name":"a","amount":1,"date":"2025-01-01"}`, http.StatusBadRequest, "period must be a string"},
		{"period value", http.MethodPost, `{"action":"add","name":"a","amount":1,"date":"2025-01-01","period":"hourly"}`, http.StatusBadRequest, "Invalid period. Allowed: daily, monthly, weekly, yearly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, 50)
			rr, env := s.do(t, tt.method, "/api/subs", 7, tt.body)
			if rr.Code != tt.status || env.Error != tt.want {
				t.Fatalf("got %d %q, want %d %q", rr.Code, env.Error, tt.status, tt.want)
			}
		})
	}
}

func TestSettingsCurrency(t *testing.T) {
	s := newTestServer(t, 20)
	s.do(t, http.MethodPost, "/api/index", 7, `{"text":"еда 300"}`)
	s.do(t, http.MethodGet, "/api/stats", 7, "")

	for body, want := range map[string]string{
		`{}`:                 "currency must be a string",
		`{"currency":5}`:     "currency must be a string",
		`{"currency":"GBP"}`: "Invalid currency. Allowed: EUR, RUB, USD",
	} {
		rr, env := s.do(t, http.MethodPost, "/api/settings", 7, body)
		if rr.Code != http.StatusBadRequest || env.Error != want {
			t.Errorf("%s: got %d %q, want %q", body, rr.Code, env.Error, want)
		}
	}

	rr, env := s.do(t, http.MethodPost, "/api/settings", 7, `{"currency":" eur "}`)
	if rr.Code != http.StatusOK || string(env.Data) != `{"currency":"EUR"}` {
		t.Fatalf("set: %d %s", rr.Code, env.Data)
	}

	_, env = s.do(t, http.MethodGet, "/api/stats", 7, "")
	var stats core.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Currency != "EUR" {
		t.Fatalf("stats served stale currency %s", stats.Currency)
	}

	rr, _ = s.do(t, http.MethodGet, "/api/settings", 7, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET settings: %d", rr.Code)
	}
}

func TestQuickButtons(t *testing.T) {
	s := newTestServer(t, 20)

	rr, env := s.do(t, http.MethodGet, "/api/quick-buttons", 7, "")
	if rr.Code != http.StatusOK || string(env.Data) != `{"buttons":[]}` {
		t.Fatalf("empty: %d %s", rr.Code, env.Data)
	}

	rr, env = s.do(t, http.MethodPost, "/api/quick-buttons", 7, `{"buttons":["кофе 250","такси 450"]}`)
	if rr.Code != http.StatusOK || string(env.Data) != `{"buttons":["кофе 250","такси 450"],"message":"Buttons saved"}` {
		t.Fatalf("save: %d %s", rr.Code, env.Data)
	}
	_, env = s.do(t, http.MethodGet, "/api/quick-buttons", 7, "")
	if string(env.Data) != `{"buttons":["кофе 250","такси 450"]}` {
		t.Fatalf("reload: %s", env.Data)
	}

	long := `"` + strings.Repeat("я", 51) + `"`
	for _, tt := range []struct{ body, want string }{
		{`{}`, "buttons must be an array"},
		{`{"buttons":"кофе"}`, "buttons must be an array"},
		{`{"buttons":["a",1]}`, "Each button must be a string"},
		{`{"buttons":["1","2","3","4","5","6","7"]}`, "Maximum 6 buttons allowed"},
		{`{"buttons":[` + long + `]}`, "Button text too long (max 50 chars)"},
	} {
		rr, env := s.do(t, http.MethodPost, "/api/quick-buttons", 7, tt.body)
		if rr.Code != http.StatusBadRequest || env.Error != tt.want {
			t.Errorf("%s: got %d %q, want %q", tt.body, rr.Code, env.Error, tt.want)
		}
	}

	rr, _ = s.do(t, http.MethodDelete, "/api/quick-buttons", 7, "")
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("DELETE: %d Allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}
