package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Типы событий
const (
	// EventConnected отправляется сразу после подключения
	EventConnected = "tournament:connected"

	// EventLeaderboardUpdated - таблица турнира изменилась после новой отправки
	EventLeaderboardUpdated = "tournament:leaderboard_updated"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub хранит соединения, сгруппированные по турнирам.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Client]struct{})}
}

// Register добавляет клиента в комнату его турнира
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.TournamentID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.TournamentID] = room
	}
	room[c] = struct{}{}
}

// Unregister удаляет клиента и закрывает его канал отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.TournamentID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	c.closeSend()
	if len(room) == 0 {
		delete(h.rooms, c.TournamentID)
	}
}

// RoomSize возвращает число подключений к турниру
func (h *Hub) RoomSize(tournamentID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tournamentID])
}

// SendEvent отправляет событие одному клиенту
func (h *Hub) SendEvent(c *Client, eventType string, data interface{}) error {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if !c.enqueue(payload) {
		return fmt.Errorf("client %s send buffer is full", c.ConnectionID)
	}
	return nil
}

// BroadcastToTournament рассылает событие всем зрителям турнира.
// Клиенты с переполненным буфером отключаются.
func (h *Hub) BroadcastToTournament(tournamentID uint, eventType string, data interface{}) error {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[tournamentID] {
		if !c.enqueue(payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			log.Printf("[WebSocket] dropping slow client user=%d conn=%s", c.UserID, c.ConnectionID)
			h.removeLocked(c)
		}
		h.mu.Unlock()
	}
	return nil
}

// CloseAll закрывает все соединения при остановке сервера
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			c.closeSend()
		}
		delete(h.rooms, id)
	}
}
