package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected           = "connected"
	EventShoppingListCreated = "shopping_list_created"
	EventShoppingItemToggled = "shopping_item_toggled"
	EventShoppingListDeleted = "shopping_list_deleted"
	EventMealPlanChanged     = "meal_plan_changed"
)

const bufferSize = 10

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Subscription - один открытый поток событий пользователя.
type Subscription struct {
	ID     uuid.UUID
	Events <-chan Event
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[uuid.UUID]chan Event
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[uuid.UUID]chan Event),
	}
}

// Subscribe подписывает пользователя на события и возвращает подписку и функцию отписки.
func (h *Hub) Subscribe(userID int64) (Subscription, func()) {
	id := uuid.New()
	ch := make(chan Event, bufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[uuid.UUID]chan Event)
		h.subscribers[userID] = userSubs
	}
	userSubs[id] = ch

	var once sync.Once
	return Subscription{ID: id, Events: ch}, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам пользователя. Переполненные каналы пропускаются.
func (h *Hub) Publish(userID int64, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscribers[userID]
	if !ok {
		return
	}

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число открытых потоков пользователя.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[userID])
}
