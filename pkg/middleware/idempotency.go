package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/numerology-appointments/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type IdempotencyState int

const (
	// IdempotencyNew means the caller now owns the key.
	IdempotencyNew IdempotencyState = iota
	IdempotencyInFlight
	IdempotencyDone
)

// IdempotencyStore reserves keys, then either stores the final body or releases them.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, lockTTL time.Duration) (IdempotencyState, []byte, error)
	Complete(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const (
	idempotencyLockTTL   = 2 * time.Minute
	idempotencyResultTTL = 24 * time.Hour
	inFlightMarker       = "\x00in-flight"
)

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, lockTTL time.Duration) (IdempotencyState, []byte, error) {
	ok, err := s.client.SetNX(ctx, key, inFlightMarker, lockTTL).Result()
	if err != nil {
		return IdempotencyNew, nil, err
	}
	if ok {
		return IdempotencyNew, nil, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return s.Reserve(ctx, key, lockTTL)
	}
	if err != nil {
		return IdempotencyNew, nil, err
	}
	if existing == inFlightMarker {
		return IdempotencyInFlight, nil, nil
	}
	return IdempotencyDone, []byte(existing), nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, body, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Idempotency replays the stored 2xx body for a repeated POST carrying the
// same Idempotency-Key. Non-2xx outcomes release the key so the client may retry.
// A nil store disables the middleware.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			hashedKey := fmt.Sprintf("idempotency:%x", sha256.Sum256([]byte(r.URL.Path+"\n"+key)))
			ctx := r.Context()

			state, cached, err := store.Reserve(ctx, hashedKey, idempotencyLockTTL)
			if err != nil {
				logger.WarnContext(ctx, "Idempotency store unavailable, continuing without it", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			switch state {
			case IdempotencyInFlight:
				writeError(w, http.StatusConflict, "Request already in progress")
				return
			case IdempotencyDone:
				logger.InfoContext(ctx, "Replaying idempotent response")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			// a panicking handler must release the key too, then keep unwinding
			defer func() {
				rec := recover()

				// the request context may already be canceled once the handler returned
				storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
				defer cancel()

				var err error
				if rec == nil && recorder.statusCode >= 200 && recorder.statusCode < 300 {
					err = store.Complete(storeCtx, hashedKey, recorder.body, idempotencyResultTTL)
				} else {
					err = store.Release(storeCtx, hashedKey)
				}
				if err != nil {
					logger.ErrorContext(ctx, "Failed to update idempotency record", "error", err, "status", recorder.statusCode)
				}

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
