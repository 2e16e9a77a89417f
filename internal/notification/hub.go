package notification

import (
	"context"
	"sync"

	"github.com/Freeeeeet/slotswap_bot/internal/metrics"
	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"go.uber.org/zap"
)

const (
	transportWebsocket = "websocket"

	defaultSubscriberBuffer = 16
)

// Hub раздаёт события подписчикам пользователя (открытым websocket соединениям).
// Publish не блокируется: если очередь подписчика заполнена, событие теряется.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int64]map[*Subscription]struct{}
	buffer  int
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewHub(buffer int, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:    make(map[int64]map[*Subscription]struct{}),
		buffer:  buffer,
		metrics: m,
		logger:  logger,
	}
}

// Subscription очередь событий одного подписчика
type Subscription struct {
	hub    *Hub
	userID int64
	ch     chan model.SwapEvent
	once   sync.Once
}

// Subscribe регистрирует нового подписчика пользователя
func (h *Hub) Subscribe(userID int64) *Subscription {
	sub := &Subscription{
		hub:    h,
		userID: userID,
		ch:     make(chan model.SwapEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// Events канал событий; закрывается после Close
func (s *Subscription) Events() <-chan model.SwapEvent {
	return s.ch
}

// Close отписывает подписчика. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()

		if set, ok := h.subs[s.userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.userID)
			}
		}
		close(s.ch)
	})
}

func (h *Hub) Publish(_ context.Context, userID int64, event model.SwapEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[userID] {
		select {
		case sub.ch <- event:
		default:
			h.metrics.NotificationsDropped.WithLabelValues(transportWebsocket).Inc()
			h.logger.Warn("Subscriber queue full, event dropped",
				zap.Int64("user_id", userID),
				zap.String("kind", string(event.Kind)),
			)
		}
	}
}

// Subscribers количество активных подписчиков пользователя
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
