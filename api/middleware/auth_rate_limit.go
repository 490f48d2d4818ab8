package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

// maxLoginBody bounds how much of a login body is buffered to find the phone.
const maxLoginBody = 16 << 10

// RateLimitStore runs a fixed-window counter per scope.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one credential endpoint by client IP and by
// the phone number being tried.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	phoneLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, phoneLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, phoneLimit: phoneLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.phoneLimit > 0)
}

// scope is namespaced further by the store, e.g. sr:rate_limit:login:ip:1.2.3.4.
func (p AuthRateLimitPolicy) scope(kind, value string) string {
	return p.name + ":" + kind + ":" + value
}

type throttleHit struct {
	kind  string
	value string
	count int64
	limit int
}

// AuthRateLimit rejects credential attempts over either limit with 429 and a
// Retry-After of one window. Store errors fail closed with 503.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					hit, err := check(ctx, store, policy, "ip", ip, policy.ipLimit)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if hit != nil {
						rejectThrottled(ctx, logg, w, policy, *hit)
						return
					}
				}
			}

			if policy.phoneLimit > 0 {
				body, err := readBody(r, maxLoginBody)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}

				if phone := users.NormalizePhone(extractPhone(body)); phone != "" {
					hit, err := check(ctx, store, policy, "phone", hashValue(phone), policy.phoneLimit)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if hit != nil {
						rejectThrottled(ctx, logg, w, policy, *hit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func check(ctx context.Context, store RateLimitStore, policy AuthRateLimitPolicy, kind, value string, limit int) (*throttleHit, error) {
	allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(kind, value), int64(limit), policy.window)
	if err != nil {
		return nil, err
	}
	if allowed {
		return nil, nil
	}
	return &throttleHit{kind: kind, value: value, count: count, limit: limit}, nil
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, hit throttleHit) {
	retryAfter := int(policy.window.Round(time.Second) / time.Second)
	if logg != nil {
		valueField := "ip"
		if hit.kind == "phone" {
			valueField = "phone_hash"
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          hit.kind,
			"policy":         policy.name,
			"attempts":       hit.count,
			"limit":          hit.limit,
			"window_seconds": retryAfter,
			valueField:       hit.value,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many login attempts. Try again later."))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractPhone(payload []byte) string {
	var body struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.PhoneNumber
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
