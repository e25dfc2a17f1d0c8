package controller

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"leadengine/services"
	"leadengine/utils"
)

const feedBuffer = 32

// FeedHub broadcasts score events to connected dashboard sockets. Slow
// listeners lose events rather than block publishers.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[chan services.ScoreEvent]struct{}
	log     *logrus.Entry
}

func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients: make(map[chan services.ScoreEvent]struct{}),
		log:     utils.ComponentLogger("prospect_feed"),
	}
}

func (h *FeedHub) Publish(ev services.ScoreEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			h.log.WithField("prospect_id", ev.ProspectID).Warn("Dropping feed event for slow client")
		}
	}
}

// Subscribe registers a listener. The returned func unregisters it.
func (h *FeedHub) Subscribe() (<-chan services.ScoreEvent, func()) {
	ch := make(chan services.ScoreEvent, feedBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *FeedHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// FeedUpgrade rejects plain HTTP requests to the feed route.
func FeedUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler streams events to one websocket until either side goes away.
func (h *FeedHub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer c.Close()

		events, unsubscribe := h.Subscribe()
		defer unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		h.log.WithField("clients", h.ClientCount()).Info("Feed client connected")
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := c.WriteJSON(ev); err != nil {
					h.log.WithError(err).Debug("Feed write failed")
					return
				}
			case <-closed:
				return
			}
		}
	})
}
