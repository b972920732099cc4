package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"cashbook/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WriteError отправляет ошибку в формате {"error": "..."}
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// routeTemplate возвращает шаблон маршрута mux, чтобы метки метрик не зависели от ID
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Logging логирует запрос и записывает метрики
func Logging(metrics *utils.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			// X-User-ID выставляет только AuthMiddleware после проверки токена
			r.Header.Del(userIDHeader)

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			route := routeTemplate(r)
			if metrics != nil {
				metrics.RecordRequest(r.Method, route, sr.statusCode, duration)
			}

			utils.Logger().Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", sr.statusCode),
				zap.Int("size", sr.size),
				zap.Duration("duration", duration),
				zap.String("user_id", r.Header.Get(userIDHeader)),
			)
		})
	}
}

// Recovery перехватывает панику обработчика и отвечает 500
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.Logger().Error("panic recovered",
					zap.Any("panic", err),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// clientIP возвращает адрес клиента без порта
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit ограничивает частоту запросов с одного адреса
func RateLimit(limiter *utils.RateLimiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			quota := limiter.Take(clientIP(r))

			// Добавляем заголовки с информацией о лимитах
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(quota.Reset.Unix(), 10))

			if !quota.Allowed {
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS разрешает запросы веб-клиента
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
