package utils

import (
	"sync"
	"time"
)

// RateLimiter ограничивает число запросов клиента в скользящем окне
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// Quota описывает состояние лимита клиента после проверки запроса
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// prune оставляет только запросы внутри окна. Вызывается под блокировкой.
func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.window)
	requests := rl.requests[key]

	i := 0
	for i < len(requests) && !requests[i].After(windowStart) {
		i++
	}
	requests = requests[i:]

	if len(requests) == 0 {
		delete(rl.requests, key)
		return nil
	}
	rl.requests[key] = requests
	return requests
}

// Take учитывает запрос клиента и возвращает состояние его лимита
func (rl *RateLimiter) Take(key string) Quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	requests := rl.prune(key, now)

	quota := Quota{Limit: rl.limit, Reset: now.Add(rl.window)}
	if len(requests) > 0 {
		quota.Reset = requests[0].Add(rl.window)
	}

	if len(requests) >= rl.limit {
		return quota
	}

	rl.requests[key] = append(requests, now)
	quota.Allowed = true
	quota.Remaining = rl.limit - len(requests) - 1
	return quota
}

// Sweep удаляет клиентов без запросов в текущем окне
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key := range rl.requests {
		rl.prune(key, now)
	}
}
