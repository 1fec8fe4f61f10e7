package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testToken = "123456:TEST-TOKEN"

func initDataFor(userID int64, authAt time.Time) string {
	return SignInitData(testToken, url.Values{
		"query_id":  {"AAE"},
		"user":      {`{"id":` + strconv.FormatInt(userID, 10) + `,"first_name":"Ann"}`},
		"auth_date": {strconv.FormatInt(authAt.Unix(), 10)},
	})
}

func TestInitDataVerifier_Verify(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	v := NewInitDataVerifier(testToken, 24*time.Hour)
	v.now = func() time.Time { return now }

	tampered, _ := url.ParseQuery(initDataFor(42, now))
	tampered.Set("user", `{"id":43}`)

	tests := []struct {
		name    string
		data    string
		want    int64
		wantErr error
	}{
		{name: "valid", data: initDataFor(42, now.Add(-time.Hour)), want: 42},
		{name: "small future skew", data: initDataFor(42, now.Add(30*time.Second)), want: 42},
		{name: "empty", data: "", wantErr: ErrMissingInitData},
		{name: "no hash", data: "user=%7B%22id%22%3A1%7D", wantErr: ErrMissingHash},
		{name: "tampered", data: tampered.Encode(), wantErr: ErrBadSignature},
		{name: "other token", data: SignInitData("999:OTHER", url.Values{"user": {`{"id":1}`}}), wantErr: ErrBadSignature},
		{name: "expired", data: initDataFor(42, now.Add(-25*time.Hour)), wantErr: ErrInitDataExpired},
		{name: "future", data: initDataFor(42, now.Add(2*time.Minute)), wantErr: ErrAuthFromFuture},
		{name: "no user", data: SignInitData(testToken, url.Values{"auth_date": {strconv.FormatInt(now.Unix(), 10)}}), wantErr: ErrNoUser},
		{name: "bad auth date", data: SignInitData(testToken, url.Values{"auth_date": {"soon"}, "user": {`{"id":1}`}}), wantErr: ErrInvalidAuthDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("Verify = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestInitDataVerifier_ZeroMaxAgeSkipsExpiry(t *testing.T) {
	v := NewInitDataVerifier(testToken, 0)
	if _, err := v.Verify(initDataFor(7, time.Now().Add(-90*24*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireUser(t *testing.T) {
	v := NewInitDataVerifier(testToken, time.Hour)
	var gotUser int64
	h := v.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set(HeaderInitData, "user=%7B%22id%22%3A1%7D&hash=deadbeef")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized || rr.Body.String() != `{"error":"Unauthorized","ok":false}` {
		t.Fatalf("bad signature: got %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set(HeaderInitData, initDataFor(99, time.Now()))
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || gotUser != 99 {
		t.Fatalf("valid: got %d, user %d", rr.Code, gotUser)
	}
}
