package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"spiritus-backend/internal/domain"
)

// WindowStore counts hits per key inside fixed windows.
type WindowStore interface {
	// Incr records one hit for key and returns the count in the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type visitor struct {
	count int64
	start time.Time
}

// MemoryStore keeps windows in process. Counts are per replica.
type MemoryStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore starts a cleanup goroutine that runs until Close.
func NewMemoryStore(window time.Duration) *MemoryStore {
	s := &MemoryStore{
		visitors: make(map[string]*visitor),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	// Cleanup goroutine
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.evict(window)
			}
		}
	}()

	return s
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *MemoryStore) evict(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if s.now().Sub(v.start) > window {
			delete(s.visitors, key)
		}
	}
}

func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, exists := s.visitors[key]
	if !exists || now.Sub(v.start) >= window {
		s.visitors[key] = &visitor{count: 1, start: now}
		return 1, nil
	}
	v.count++
	return v.count, nil
}

// RedisStore shares windows between relay replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:chat:", now: time.Now}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := s.windowKey(key, window)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// windowKey buckets hits by the window the current time falls in.
func (s *RedisStore) windowKey(key string, window time.Duration) string {
	bucket := s.now().UnixNano() / int64(window)
	return s.prefix + key + ":" + strconv.FormatInt(bucket, 10)
}

// RateLimiter rejects clients exceeding limit requests per window. Clients
// are keyed by socket peer address, never by forwarding headers.
type RateLimiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewRateLimiter(store WindowStore, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ip := peerIP(r)
		count, err := rl.store.Incr(r.Context(), ip, rl.window)
		if err != nil {
			// The store being down must not take the relay with it.
			rl.logger.Warn("rate limit store unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(rl.limit) {
			rl.logger.Debug("chat request rejected", "client", ip, "count", count, "error", domain.ErrRateLimited)
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, r, domain.ErrRateLimited, "RATE_LIMITED", "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
