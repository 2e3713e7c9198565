package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mmeshcher/petprogress-system/internal/ratelimit"
)

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit возвращает middleware, ограничивающий частоту запросов
// аутентифицированного пользователя. Подключается после AuthMiddleware:
// запросы без идентификатора пользователя ограничитель не проверяет.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, retryAfter := limiter.Admit(userID, time.Now())
			if !allowed {
				seconds := int(retryAfter / time.Second)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(rateLimitResponse{
					Error:      "rate limit exceeded",
					RetryAfter: seconds,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
