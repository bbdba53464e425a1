// Package chatsync keeps a client-side mirror of chats, messages,
// typing indicators and notifications, patched incrementally from push
// events so the UI never has to re-fetch after the initial snapshot.
package chatsync

import (
	"sort"
	"sync"
	"time"

	"taskboard-chat/internal/events"
)

const defaultTypingTTL = 3 * time.Second

// ChatView is one row of the chat list as the UI renders it.
type ChatView struct {
	ID           string
	Kind         string
	Name         string
	Unread       int
	LastMessage  *events.Message
	LastActivity time.Time
}

// Config wires the store to its host application. All callbacks are
// optional and are invoked synchronously while the store lock is NOT
// held, so they may call back into the store.
type Config struct {
	// SelfID is the id of the signed-in user. Messages from this user
	// never bump unread counters.
	SelfID string

	// MarkRead is called with a chat id when an incoming message lands
	// in the currently active chat and should be acknowledged upstream.
	MarkRead func(chatID string)

	// Alert surfaces a transient notification popup. Chat-kind
	// notifications are never passed here; the unread badge on the
	// chat list already covers them.
	Alert func(n events.Notification)

	// MutedKinds suppresses alerts for the named notification kinds.
	// The notification is still stored and counted.
	MutedKinds []string

	// TypingTTL overrides how long a typing entry survives without a
	// refresh. Zero means the 3 second default.
	TypingTTL time.Duration

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

type typingEntry struct {
	userName string
	expires  time.Time
}

// Store holds the mirrored state. Safe for concurrent use.
type Store struct {
	mu sync.Mutex

	selfID     string
	markRead   func(string)
	alert      func(events.Notification)
	muted      map[string]bool
	typingTTL  time.Duration
	now        func() time.Time
	activeChat string

	chats    []*ChatView
	messages map[string][]events.Message
	seen     map[string]map[string]struct{}
	pending  map[string]string // client_ref -> placeholder message id
	typing   map[string]map[string]typingEntry

	notifications []events.Notification
	unreadNotifs  int
}

func New(cfg Config) *Store {
	s := &Store{
		selfID:    cfg.SelfID,
		markRead:  cfg.MarkRead,
		alert:     cfg.Alert,
		muted:     make(map[string]bool, len(cfg.MutedKinds)),
		typingTTL: cfg.TypingTTL,
		now:       cfg.Now,
		messages:  make(map[string][]events.Message),
		seen:      make(map[string]map[string]struct{}),
		pending:   make(map[string]string),
		typing:    make(map[string]map[string]typingEntry),
	}
	if s.typingTTL <= 0 {
		s.typingTTL = defaultTypingTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, kind := range cfg.MutedKinds {
		s.muted[kind] = true
	}
	return s
}

// LoadChats replaces the chat list with a REST snapshot. Message caches
// for chats that survived the reload are kept.
func (s *Store) LoadChats(snapshot []ChatView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = make([]*ChatView, 0, len(snapshot))
	for i := range snapshot {
		cv := snapshot[i]
		s.chats = append(s.chats, &cv)
	}
	s.sortChatsLocked()
}

// LoadHistory replaces a chat's message cache with a fetched page,
// oldest first.
func (s *Store) LoadHistory(chatID string, msgs []events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[chatID] = append([]events.Message(nil), msgs...)
	ids := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	s.seen[chatID] = ids
}

// PrependHistory inserts an older page in front of the cached messages.
// Duplicates of already-held messages are skipped so a racing fetch
// cannot double-render.
func (s *Store) PrependHistory(chatID string, older []events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.seen[chatID]
	if ids == nil {
		ids = make(map[string]struct{})
		s.seen[chatID] = ids
	}
	fresh := make([]events.Message, 0, len(older))
	for _, m := range older {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	s.messages[chatID] = append(fresh, s.messages[chatID]...)
}

// OldestMessageTime returns the cursor for a "load more" request, or
// false when no messages are cached for the chat.
func (s *Store) OldestMessageTime(chatID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[chatID]
	if len(msgs) == 0 {
		return time.Time{}, false
	}
	return msgs[0].CreatedAt, true
}

// SetActiveChat records which chat view is open. Incoming messages for
// the active chat are acknowledged instead of counted as unread, and
// the chat's current unread counter is cleared. Pass "" on close.
func (s *Store) SetActiveChat(chatID string) {
	s.mu.Lock()
	s.activeChat = chatID
	if chatID != "" {
		if cs := s.chatLocked(chatID); cs != nil {
			cs.Unread = 0
		}
	}
	s.mu.Unlock()
}

// AddPending inserts an optimistic placeholder for an outgoing message.
// The placeholder is replaced in place once the authoritative broadcast
// carrying the same client_ref arrives.
func (s *Store) AddPending(msg events.Message) {
	if msg.ClientRef == "" || msg.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[msg.ClientRef] = msg.ID
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	if s.seen[msg.ChatID] == nil {
		s.seen[msg.ChatID] = make(map[string]struct{})
	}
	s.seen[msg.ChatID][msg.ID] = struct{}{}
}

// RemovePending rolls back a placeholder after a failed send.
func (s *Store) RemovePending(chatID, clientRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholderID, ok := s.pending[clientRef]
	if !ok {
		return
	}
	delete(s.pending, clientRef)
	s.removeMessageLocked(chatID, placeholderID)
}

// Apply patches the store from one push event. Unknown event types are
// impossible by construction: the wire decoder only yields the closed
// variant set.
func (s *Store) Apply(ev events.Event) {
	switch e := ev.(type) {
	case events.MessageCreated:
		s.applyCreated(e.Message)
	case events.MessageEdited:
		s.applyEdited(e.Message)
	case events.MessageDeleted:
		s.applyDeleted(e.ChatID, e.MessageID)
	case events.NotificationNew:
		s.applyNotification(e.Notification)
	case events.Typing:
		s.applyTyping(e)
	}
}

func (s *Store) applyCreated(msg events.Message) {
	var ack func(string)
	var ackChat string

	s.mu.Lock()
	ids := s.seen[msg.ChatID]
	if ids == nil {
		ids = make(map[string]struct{})
		s.seen[msg.ChatID] = ids
	}

	if _, dup := ids[msg.ID]; !dup {
		// Reconcile an optimistic placeholder before appending so the
		// echo of our own send does not render twice.
		if msg.ClientRef != "" {
			if placeholderID, ok := s.pending[msg.ClientRef]; ok {
				delete(s.pending, msg.ClientRef)
				s.removeMessageLocked(msg.ChatID, placeholderID)
			}
		}
		ids[msg.ID] = struct{}{}
		s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)

		cs := s.chatLocked(msg.ChatID)
		if cs == nil {
			// A chat we have not loaded yet, e.g. a brand new direct
			// chat. Track a stub row so unread counting works; the next
			// LoadChats fills in the rest.
			cs = &ChatView{ID: msg.ChatID}
			s.chats = append(s.chats, cs)
		}
		cs.LastMessage = &msg
		cs.LastActivity = msg.CreatedAt

		if msg.SenderID != s.selfID {
			if msg.ChatID == s.activeChat {
				ack = s.markRead
				ackChat = msg.ChatID
			} else {
				cs.Unread++
			}
		}
		s.sortChatsLocked()
	}
	s.mu.Unlock()

	if ack != nil {
		ack(ackChat)
	}
}

func (s *Store) applyEdited(msg events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[msg.ChatID]
	for i := range msgs {
		if msgs[i].ID == msg.ID {
			msgs[i] = msg
			break
		}
	}
	if cs := s.chatLocked(msg.ChatID); cs != nil && cs.LastMessage != nil && cs.LastMessage.ID == msg.ID {
		cs.LastMessage = &msg
	}
}

func (s *Store) applyDeleted(chatID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeMessageLocked(chatID, messageID)
	if cs := s.chatLocked(chatID); cs != nil && cs.LastMessage != nil && cs.LastMessage.ID == messageID {
		msgs := s.messages[chatID]
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			cs.LastMessage = &last
		} else {
			cs.LastMessage = nil
		}
	}
}

func (s *Store) applyNotification(n events.Notification) {
	var alert func(events.Notification)

	s.mu.Lock()
	s.notifications = append([]events.Notification{n}, s.notifications...)
	if !n.Read {
		s.unreadNotifs++
	}
	if s.alert != nil && n.Kind != "chat" && !s.muted[n.Kind] {
		alert = s.alert
	}
	s.mu.Unlock()

	if alert != nil {
		alert(n)
	}
}

// Chats returns the chat list, most recently active first.
func (s *Store) Chats() []ChatView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatView, 0, len(s.chats))
	for _, cs := range s.chats {
		out = append(out, *cs)
	}
	return out
}

// Messages returns the cached messages for a chat, oldest first.
func (s *Store) Messages(chatID string) []events.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Message(nil), s.messages[chatID]...)
}

// Unread returns one chat's unread counter.
func (s *Store) Unread(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs := s.chatLocked(chatID); cs != nil {
		return cs.Unread
	}
	return 0
}

// TotalUnread sums unread counters across all chats.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, cs := range s.chats {
		total += cs.Unread
	}
	return total
}

// Notifications returns the local notification list, newest first, and
// the unread count.
func (s *Store) Notifications() ([]events.Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Notification(nil), s.notifications...), s.unreadNotifs
}

// MarkNotificationRead flips a local notification after the server
// acknowledged the change.
func (s *Store) MarkNotificationRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			s.unreadNotifs--
			break
		}
	}
}

func (s *Store) chatLocked(chatID string) *ChatView {
	for _, cs := range s.chats {
		if cs.ID == chatID {
			return cs
		}
	}
	return nil
}

func (s *Store) removeMessageLocked(chatID, messageID string) {
	msgs := s.messages[chatID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			s.messages[chatID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	if ids := s.seen[chatID]; ids != nil {
		delete(ids, messageID)
	}
}

func (s *Store) sortChatsLocked() {
	sort.SliceStable(s.chats, func(i, j int) bool {
		return s.chats[i].LastActivity.After(s.chats[j].LastActivity)
	})
}
