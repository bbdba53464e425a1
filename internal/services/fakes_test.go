package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/domain/message"
	"taskboard-chat/internal/domain/notification"
	"taskboard-chat/internal/events"
	"taskboard-chat/internal/repository"
	taskerrors "taskboard-chat/pkg/errors"

	"github.com/google/uuid"
)

// In-memory repository fakes. They mirror the postgres implementations
// closely enough to exercise the service contracts, including the
// unique-key race on chat creation.

type fakeChatRepo struct {
	mu      sync.Mutex
	chats   map[uuid.UUID]*chat.Chat
	members map[uuid.UUID][]chat.Member
	// hidePairLookups makes the next n pair-key lookups miss, simulating
	// the window where a concurrent create has not committed yet.
	hidePairLookups int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:   make(map[uuid.UUID]*chat.Chat),
		members: make(map[uuid.UUID][]chat.Member),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, c *chat.Chat, members []chat.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.chats {
		if c.PairKey.Valid && existing.PairKey.Valid && existing.PairKey.String == c.PairKey.String {
			return taskerrors.ErrAlreadyExists
		}
		if c.ProjectRef.Valid && existing.ProjectRef.Valid && existing.ProjectRef.UUID == c.ProjectRef.UUID {
			return taskerrors.ErrAlreadyExists
		}
	}
	cp := *c
	r.chats[c.ID] = &cp
	r.members[c.ID] = append([]chat.Member(nil), members...)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return chat.Chat{}, taskerrors.ErrNotFound
	}
	out := *c
	out.Members = append([]chat.Member(nil), r.members[id]...)
	return out, nil
}

func (r *fakeChatRepo) GetDirectByPairKey(ctx context.Context, pairKey string) (chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hidePairLookups > 0 {
		r.hidePairLookups--
		return chat.Chat{}, taskerrors.ErrNotFound
	}
	for id, c := range r.chats {
		if c.Kind == chat.KindDirect && c.PairKey.Valid && c.PairKey.String == pairKey {
			out := *c
			out.Members = append([]chat.Member(nil), r.members[id]...)
			return out, nil
		}
	}
	return chat.Chat{}, taskerrors.ErrNotFound
}

func (r *fakeChatRepo) GetByProjectRef(ctx context.Context, projectID uuid.UUID) (chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.chats {
		if c.Kind == chat.KindProject && c.ProjectRef.Valid && c.ProjectRef.UUID == projectID {
			out := *c
			out.Members = append([]chat.Member(nil), r.members[id]...)
			return out, nil
		}
	}
	return chat.Chat{}, taskerrors.ErrNotFound
}

func (r *fakeChatRepo) GetUserChats(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Chat
	for id, c := range r.chats {
		for _, m := range r.members[id] {
			if m.UserID == userID {
				cp := *c
				cp.Members = append([]chat.Member(nil), r.members[id]...)
				out = append(out, cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeChatRepo) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[chatID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChatRepo) GetMember(ctx context.Context, chatID, userID uuid.UUID) (chat.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[chatID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return chat.Member{}, taskerrors.ErrNotFound
}

func (r *fakeChatRepo) Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatID]; ok {
		c.UpdatedAt = at
	}
	return nil
}

func (r *fakeChatRepo) MarkRead(ctx context.Context, chatID, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[chatID]
	for i := range members {
		if members[i].UserID == userID {
			if !members[i].LastReadAt.Valid || members[i].LastReadAt.Time.Before(at) {
				members[i].LastReadAt.Time = at
				members[i].LastReadAt.Valid = true
			}
			return nil
		}
	}
	return taskerrors.ErrNotFound
}

type fakeMessageRepo struct {
	mu      sync.Mutex
	nextSeq int64
	msgs    []message.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	m.Seq = r.nextSeq
	r.msgs = append(r.msgs, *m)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return message.Message{}, taskerrors.ErrNotFound
}

func (r *fakeMessageRepo) GetPage(ctx context.Context, chatID uuid.UUID, before *time.Time, limit int) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []message.Message
	for _, m := range r.msgs {
		if m.ChatID != chatID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Seq > all[j].Seq
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, m message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.msgs {
		if r.msgs[i].ID == m.ID {
			r.msgs[i] = m
			return nil
		}
	}
	return taskerrors.ErrNotFound
}

func (r *fakeMessageRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.msgs {
		if r.msgs[i].ID == id {
			r.msgs = append(r.msgs[:i], r.msgs[i+1:]...)
			return nil
		}
	}
	return taskerrors.ErrNotFound
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, chatID, userID uuid.UUID, lastReadAt *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.msgs {
		if m.ChatID != chatID || m.SenderID == userID {
			continue
		}
		if lastReadAt != nil && !m.CreatedAt.After(*lastReadAt) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeMessageRepo) GetLatest(ctx context.Context, chatID uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *message.Message
	for i := range r.msgs {
		m := &r.msgs[i]
		if m.ChatID != chatID {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) || (m.CreatedAt.Equal(latest.CreatedAt) && m.Seq > latest.Seq) {
			latest = m
		}
	}
	if latest == nil {
		return message.Message{}, taskerrors.ErrNotFound
	}
	return *latest, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	rows    []notification.Notification
	failFor map[uuid.UUID]bool
	creates int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{failFor: make(map[uuid.UUID]bool)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failFor[n.UserID] {
		return taskerrors.ErrDeliveryFailure
	}
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Notification
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].Read = true
			return nil
		}
	}
	return taskerrors.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) HasRecent(ctx context.Context, userID uuid.UUID, kind, link string, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.UserID == userID && n.Kind == kind && n.Link.String == link && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeDirectory struct {
	rosters map[uuid.UUID][]uuid.UUID
	tasks   []repository.Task
}

func (d *fakeDirectory) ProjectTeamMembers(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	roster, ok := d.rosters[projectID]
	if !ok {
		return nil, taskerrors.ErrNotFound
	}
	return roster, nil
}

func (d *fakeDirectory) DueTasks(ctx context.Context, from, to time.Time) ([]repository.Task, error) {
	var out []repository.Task
	for _, t := range d.tasks {
		if !t.DueAt.Before(from) && t.DueAt.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

// recordingTransport captures broadcasts and emits for assertions.
type recordingTransport struct {
	mu         sync.Mutex
	broadcasts []recordedEvent
	emits      []recordedEvent
	inRoom     map[string]map[string]bool // room -> user -> present
}

type recordedEvent struct {
	Target string
	Event  events.Event
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{inRoom: make(map[string]map[string]bool)}
}

func (t *recordingTransport) Broadcast(ctx context.Context, room string, ev events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcasts = append(t.broadcasts, recordedEvent{Target: room, Event: ev})
}

func (t *recordingTransport) EmitToUser(ctx context.Context, userID string, ev events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emits = append(t.emits, recordedEvent{Target: userID, Event: ev})
}

func (t *recordingTransport) UserInRoom(userID, room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inRoom[room][userID]
}

func (t *recordingTransport) setInRoom(userID, room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inRoom[room] == nil {
		t.inRoom[room] = make(map[string]bool)
	}
	t.inRoom[room][userID] = true
}

// recordingNotifier satisfies the chat service's Notifier without the
// full dispatcher.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

type notifierCall struct {
	UserID uuid.UUID
	Kind   string
	Title  string
	Msg    string
	Link   string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, msg, link string) (notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{UserID: userID, Kind: kind, Title: title, Msg: msg, Link: link})
	if n.err != nil {
		return notification.Notification{}, n.err
	}
	return notification.Notification{ID: uuid.New(), UserID: userID, Kind: kind}, nil
}
