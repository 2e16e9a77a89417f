// Package ratelimit ограничивает частоту запросов от одного Telegram пользователя.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// Limiter - token bucket на каждого пользователя: maxRequests запросов подряд,
// дальше по одному каждые window/maxRequests
type Limiter struct {
	mu    sync.Mutex
	users map[int64]*userBucket

	limit rate.Limit
	burst int
	now   func() time.Time
}

type userBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New создаёт limiter на maxRequests запросов за window. 0 отключает ограничение.
func New(maxRequests int, window time.Duration) *Limiter {
	l := &Limiter{
		users: make(map[int64]*userBucket),
		limit: rate.Inf,
		now:   time.Now,
	}
	if maxRequests > 0 && window > 0 {
		l.limit = rate.Limit(float64(maxRequests) / window.Seconds())
		l.burst = maxRequests
	}
	return l
}

// Allow сообщает, можно ли обработать запрос пользователя в момент now
func (l *Limiter) Allow(userID int64, now time.Time) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		u = &userBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = u
	}
	u.lastSeen = now
	return u.lim.AllowN(now, 1)
}

// Cleanup забывает пользователей, молчавших дольше maxIdle.
// maxIdle не меньше окна, иначе забытый пользователь получит полный bucket раньше срока.
func (l *Limiter) Cleanup(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cut := l.now().Add(-maxIdle)
	removed := 0
	for id, u := range l.users {
		if u.lastSeen.Before(cut) {
			delete(l.users, id)
			removed++
		}
	}
	return removed
}

// Middleware пропускает update дальше, только если отправитель не превысил лимит.
// Иначе вызывается onLimited.
func Middleware(l *Limiter, onLimited bot.HandlerFunc) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if id := senderID(update); id != 0 && !l.Allow(id, l.now()) {
				onLimited(ctx, b, update)
				return
			}
			next(ctx, b, update)
		}
	}
}

func senderID(update *models.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}
