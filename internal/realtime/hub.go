// Package realtime tracks who is viewing each story and fans out engine
// events to co-viewers. The wire transport is the caller's concern; the hub
// only maintains rooms and delivers events on channels.
package realtime

import (
	"sync"
	"time"
)

// Event names published by the engine handlers
const (
	EventContributionAdded = "contribution-added"
	EventVoteAdded         = "vote-added"
	EventActiveUsers       = "active-users"
	EventUserTyping        = "user-typing"
	EventUserStopTyping    = "user-stop-typing"
)

// Event is a message delivered to subscribers of a story room
type Event struct {
	Type    string    `json:"type"`
	StoryID string    `json:"story_id"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Member is a user currently present in a story room
type Member struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

type room struct {
	members map[uint]Member
	subs    map[chan Event]struct{}
}

// Hub holds the story rooms. Safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

func (h *Hub) room(storyID string) *room {
	r, ok := h.rooms[storyID]
	if !ok {
		r = &room{
			members: make(map[uint]Member),
			subs:    make(map[chan Event]struct{}),
		}
		h.rooms[storyID] = r
	}
	return r
}

// Join adds a member to a story room. Rejoining updates the member entry,
// matching reconnect behavior.
func (h *Hub) Join(storyID string, member Member) {
	h.mu.Lock()
	r := h.room(storyID)
	r.members[member.UserID] = member
	h.mu.Unlock()

	h.Publish(Event{Type: EventActiveUsers, StoryID: storyID, Payload: h.ActiveUsers(storyID)})
}

// Leave removes a member from a story room
func (h *Hub) Leave(storyID string, userID uint) {
	h.mu.Lock()
	if r, ok := h.rooms[storyID]; ok {
		delete(r.members, userID)
		if len(r.members) == 0 && len(r.subs) == 0 {
			delete(h.rooms, storyID)
		}
	}
	h.mu.Unlock()

	h.Publish(Event{Type: EventActiveUsers, StoryID: storyID, Payload: h.ActiveUsers(storyID)})
}

// ActiveUsers returns the members currently present in a story room
func (h *Hub) ActiveUsers(storyID string) []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := []Member{}
	if r, ok := h.rooms[storyID]; ok {
		for _, m := range r.members {
			members = append(members, m)
		}
	}
	return members
}

// Subscribe registers a listener for a story room's events. The returned
// cancel func must be called to release the channel.
func (h *Hub) Subscribe(storyID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	r := h.room(storyID)
	r.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if r, ok := h.rooms[storyID]; ok {
			delete(r.subs, ch)
			if len(r.members) == 0 && len(r.subs) == 0 {
				delete(h.rooms, storyID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the event's story room.
// Delivery never blocks; a subscriber with a full buffer misses the event.
func (h *Hub) Publish(event Event) {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[event.StoryID]
	if !ok {
		return
	}
	for ch := range r.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
