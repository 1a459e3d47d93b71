package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lockerhub/lockerhub-backend/api/responses"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth surface per client IP and per phone.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int64
	phoneLimit int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, phoneLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:       name,
		window:     window,
		ipLimit:    int64(ipLimit),
		phoneLimit: int64(phoneLimit),
	}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.phoneLimit > 0)
}

// counter is one fixed-window bucket a request is charged against.
type counter struct {
	dimension string
	subject   string
	limit     int64
}

func (p AuthRateLimitPolicy) scope(c counter) string {
	return p.name + ":" + c.dimension + ":" + c.subject
}

// AuthRateLimit charges each request to its IP bucket and, when the JSON
// body carries a phone, to that phone's bucket. Phones are hashed before
// they reach Redis or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters, err := policy.countersFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}

			for _, c := range counters {
				allowed, attempts, err := limiter.FixedWindowAllow(ctx, policy.scope(c), c.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, c, attempts)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p AuthRateLimitPolicy) countersFor(r *http.Request) ([]counter, error) {
	var counters []counter
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			counters = append(counters, counter{dimension: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.phoneLimit <= 0 || r.Body == nil {
		return counters, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if phone := normalizePhone(phoneFromBody(body)); phone != "" {
		counters = append(counters, counter{dimension: "phone", subject: hashPhone(phone), limit: p.phoneLimit})
	}
	return counters, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, c counter, attempts int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":    p.name,
			"dimension": c.dimension,
			"subject":   c.subject,
			"attempts":  attempts,
			"limit":     c.limit,
		}), "auth rate limit exceeded")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
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
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func phoneFromBody(body []byte) string {
	var payload struct {
		Phone string `json:"phone"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Phone
}

// normalizePhone keeps digits only so formatting variants share a bucket.
func normalizePhone(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

func hashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:8])
}
