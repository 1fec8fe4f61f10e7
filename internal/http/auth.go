package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	applog "ledger/internal/log"
)

// HeaderInitData carries the Telegram WebApp initData string.
const HeaderInitData = "X-Tg-Init-Data"

// futureSkew tolerates clients whose clock runs slightly ahead.
const futureSkew = 60 * time.Second

var (
	ErrMissingInitData = errors.New("missing init data")
	ErrMissingHash     = errors.New("missing hash")
	ErrBadSignature    = errors.New("bad init data signature")
	ErrInvalidAuthDate = errors.New("invalid auth_date")
	ErrAuthFromFuture  = errors.New("auth_date is in the future")
	ErrInitDataExpired = errors.New("init data expired")
	ErrNoUser          = errors.New("no user in init data")
)

// InitDataVerifier checks Telegram WebApp initData signatures. The user ID
// is only ever taken from a verified payload.
type InitDataVerifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewInitDataVerifier derives the WebApp secret from the bot token. A
// maxAge of zero disables the freshness check.
func NewInitDataVerifier(botToken string, maxAge time.Duration) *InitDataVerifier {
	return &InitDataVerifier{
		secret: webAppSecret(botToken),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func webAppSecret(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// dataCheckString joins every field except hash as sorted key=value lines.
func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

func sign(secret []byte, values url.Values) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignInitData returns values encoded as initData signed for botToken, the
// way Telegram does it. Development tooling and tests use it to mint
// credentials.
func SignInitData(botToken string, values url.Values) string {
	signed := url.Values{}
	for k, v := range values {
		if k != "hash" {
			signed[k] = v
		}
	}
	signed.Set("hash", sign(webAppSecret(botToken), signed))
	return signed.Encode()
}

// Verify checks initData and returns the Telegram user ID it carries.
func (v *InitDataVerifier) Verify(initData string) (int64, error) {
	if strings.TrimSpace(initData) == "" {
		return 0, ErrMissingInitData
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, ErrBadSignature
	}
	received := values.Get("hash")
	if received == "" {
		return 0, ErrMissingHash
	}
	if !hmac.Equal([]byte(sign(v.secret, values)), []byte(strings.ToLower(received))) {
		return 0, ErrBadSignature
	}

	if raw := values.Get("auth_date"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, ErrInvalidAuthDate
		}
		authAt := time.Unix(ts, 0)
		now := v.now()
		if authAt.After(now.Add(futureSkew)) {
			return 0, ErrAuthFromFuture
		}
		if v.maxAge > 0 && now.Sub(authAt) > v.maxAge {
			return 0, ErrInitDataExpired
		}
	}

	var user struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return 0, ErrNoUser
	}
	id, err := user.ID.Int64()
	if err != nil || id <= 0 {
		return 0, ErrNoUser
	}
	return id, nil
}

type userIDKey struct{}

// UserIDFromContext returns the authenticated user set by RequireUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}

// RequireUser rejects requests without valid initData with 401 and puts
// the verified user ID in the context otherwise.
func (v *InitDataVerifier) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		initData := r.Header.Get(HeaderInitData)
		if initData == "" {
			Fail(http.StatusUnauthorized, "Missing "+HeaderInitData).Write(w)
			return
		}

		userID, err := v.Verify(initData)
		if err != nil {
			applog.FromContext(ctx).WithComponent(applog.ComponentAuth).
				WarnContext(ctx, "Init data rejected", applog.FieldError, err)
			// Details stay in the log.
			Fail(http.StatusUnauthorized, "Unauthorized").Write(w)
			return
		}

		ctx = context.WithValue(ctx, userIDKey{}, userID)
		ctx = applog.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
