package chatsync

import (
	"sort"

	"taskboard-chat/internal/events"
)

func (s *Store) applyTyping(ev events.Typing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.UserID == s.selfID {
		return
	}

	users := s.typing[ev.ChatID]
	if !ev.IsTyping {
		delete(users, ev.UserID)
		return
	}
	if users == nil {
		users = make(map[string]typingEntry)
		s.typing[ev.ChatID] = users
	}
	users[ev.UserID] = typingEntry{
		userName: ev.UserName,
		expires:  s.now().Add(s.typingTTL),
	}
}

// TypingUsers returns the names of users currently typing in a chat.
// Entries past their TTL are dropped on read; an explicit stop signal
// may never arrive, so expiry is the only reliable cleanup.
func (s *Store) TypingUsers(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.typing[chatID]
	if len(users) == 0 {
		return nil
	}
	now := s.now()
	names := make([]string, 0, len(users))
	for id, entry := range users {
		if !entry.expires.After(now) {
			delete(users, id)
			continue
		}
		name := entry.userName
		if name == "" {
			name = id
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return names
}
