package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/domain/message"
	"taskboard-chat/internal/domain/notification"
	"taskboard-chat/internal/events"
	"taskboard-chat/internal/repository"
	taskerrors "taskboard-chat/pkg/errors"
	"taskboard-chat/pkg/logger"

	"github.com/google/uuid"
)

// Notifier creates a notification record and pushes it to the user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, msg, link string) (notification.Notification, error)
}

// ChatSummary is a chat annotated for the chat list: how many messages the
// member has not read yet, and the newest message for preview.
type ChatSummary struct {
	Chat        chat.Chat
	UnreadCount int64
	LastMessage *message.Message
}

// SendMessageInput carries one outgoing message. ClientRef is an opaque
// client-chosen key echoed back in the broadcast so the sender can replace
// its optimistic placeholder.
type SendMessageInput struct {
	ChatID        uuid.UUID
	SenderID      uuid.UUID
	Content       string
	AttachmentRef string
	ReplyToID     uuid.NullUUID
	ClientRef     string
}

type ChatService struct {
	chatRepo  repository.ChatRepository
	msgRepo   repository.MessageRepository
	directory repository.ProjectDirectory
	notifier  Notifier
	transport events.Transport
	presence  events.RoomPresence
	log       *logger.Logger

	pageSize     int
	previewRunes int
	now          func() time.Time
}

func NewChatService(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	directory repository.ProjectDirectory,
	notifier Notifier,
	transport events.Transport,
	presence events.RoomPresence,
	log *logger.Logger,
	pageSize int,
	previewRunes int,
) *ChatService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if previewRunes <= 0 {
		previewRunes = 100
	}
	return &ChatService{
		chatRepo:     chatRepo,
		msgRepo:      msgRepo,
		directory:    directory,
		notifier:     notifier,
		transport:    transport,
		presence:     presence,
		log:          log,
		pageSize:     pageSize,
		previewRunes: previewRunes,
		now:          time.Now,
	}
}

// ListChats returns every chat the user belongs to, newest activity first,
// each with the member's unread count and latest message. The unread count
// is derived from the member's last_read_at watermark; nothing is stored
// per message.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]ChatSummary, error) {
	chats, err := s.chatRepo.GetUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		var lastReadAt *time.Time
		for _, m := range c.Members {
			if m.UserID == userID && m.LastReadAt.Valid {
				t := m.LastReadAt.Time
				lastReadAt = &t
			}
		}

		unread, err := s.msgRepo.CountUnread(ctx, c.ID, userID, lastReadAt)
		if err != nil {
			return nil, err
		}

		summary := ChatSummary{Chat: c, UnreadCount: unread}
		latest, err := s.msgRepo.GetLatest(ctx, c.ID)
		if err == nil {
			summary.LastMessage = &latest
		} else if !errors.Is(err, taskerrors.ErrNotFound) {
			return nil, err
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// CreateOrGetDirectChat returns the unique direct chat between two users,
// creating it on first contact. Safe to call repeatedly: a concurrent
// create races into the pair-key unique index and resolves by re-lookup.
func (s *ChatService) CreateOrGetDirectChat(ctx context.Context, callerID, targetID uuid.UUID) (chat.Chat, error) {
	if targetID == uuid.Nil || targetID == callerID {
		return chat.Chat{}, taskerrors.ErrInvalidInput
	}

	pairKey := chat.DirectPairKey(callerID, targetID)
	existing, err := s.chatRepo.GetDirectByPairKey(ctx, pairKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, taskerrors.ErrNotFound) {
		return chat.Chat{}, err
	}

	now := s.now()
	c := chat.Chat{
		ID:        uuid.New(),
		Kind:      chat.KindDirect,
		PairKey:   sql.NullString{String: pairKey, Valid: true},
		CreatedBy: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []chat.Member{
		{ChatID: c.ID, UserID: callerID, Role: chat.RoleOwner, JoinedAt: now},
		{ChatID: c.ID, UserID: targetID, Role: chat.RoleMember, JoinedAt: now},
	}

	if err := s.chatRepo.Create(ctx, &c, members); err != nil {
		if errors.Is(err, taskerrors.ErrAlreadyExists) {
			return s.chatRepo.GetDirectByPairKey(ctx, pairKey)
		}
		return chat.Chat{}, err
	}
	c.Members = members
	return c, nil
}

// CreateOrGetProjectChat returns the project's single chat, creating it
// with the union of the project's team rosters plus the caller.
func (s *ChatService) CreateOrGetProjectChat(ctx context.Context, callerID, projectID uuid.UUID) (chat.Chat, error) {
	if projectID == uuid.Nil {
		return chat.Chat{}, taskerrors.ErrInvalidInput
	}

	existing, err := s.chatRepo.GetByProjectRef(ctx, projectID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, taskerrors.ErrNotFound) {
		return chat.Chat{}, err
	}

	roster, err := s.directory.ProjectTeamMembers(ctx, projectID)
	if err != nil {
		return chat.Chat{}, err
	}

	now := s.now()
	c := chat.Chat{
		ID:         uuid.New(),
		Kind:       chat.KindProject,
		ProjectRef: uuid.NullUUID{UUID: projectID, Valid: true},
		CreatedBy:  callerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	members := []chat.Member{
		{ChatID: c.ID, UserID: callerID, Role: chat.RoleOwner, JoinedAt: now},
	}
	for _, userID := range roster {
		if userID == callerID {
			continue
		}
		members = append(members, chat.Member{ChatID: c.ID, UserID: userID, Role: chat.RoleMember, JoinedAt: now})
	}

	if err := s.chatRepo.Create(ctx, &c, members); err != nil {
		if errors.Is(err, taskerrors.ErrAlreadyExists) {
			return s.chatRepo.GetByProjectRef(ctx, projectID)
		}
		return chat.Chat{}, err
	}
	c.Members = members
	return c, nil
}

// Messages returns one page of history, ascending chronologically. Pass the
// oldest held timestamp as before to page backward.
func (s *ChatService) Messages(ctx context.Context, chatID, callerID uuid.UUID, before *time.Time) ([]message.Message, error) {
	isMember, err := s.chatRepo.IsMember(ctx, chatID, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, taskerrors.ErrForbidden
	}

	msgs, err := s.msgRepo.GetPage(ctx, chatID, before, s.pageSize)
	if err != nil {
		return nil, err
	}

	// Query order is newest-first for the index; callers always get
	// ascending order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Send persists a message, bumps the chat's activity timestamp, broadcasts
// message:created to the room, and notifies every other member who is not
// watching the room live.
func (s *ChatService) Send(ctx context.Context, in SendMessageInput) (message.Message, error) {
	isMember, err := s.chatRepo.IsMember(ctx, in.ChatID, in.SenderID)
	if err != nil {
		return message.Message{}, err
	}
	if !isMember {
		return message.Message{}, taskerrors.ErrForbidden
	}

	if in.Content == "" && in.AttachmentRef == "" {
		return message.Message{}, taskerrors.ErrInvalidInput
	}

	if in.ReplyToID.Valid {
		parent, err := s.msgRepo.GetByID(ctx, in.ReplyToID.UUID)
		if err != nil {
			if errors.Is(err, taskerrors.ErrNotFound) {
				return message.Message{}, taskerrors.ErrInvalidInput
			}
			return message.Message{}, err
		}
		if parent.ChatID != in.ChatID {
			return message.Message{}, taskerrors.ErrInvalidInput
		}
	}

	kind := message.KindText
	if in.AttachmentRef != "" {
		kind = message.KindAttachment
	}

	now := s.now()
	m := message.Message{
		ID:        uuid.New(),
		ChatID:    in.ChatID,
		SenderID:  in.SenderID,
		Kind:      kind,
		Content:   nullString(in.Content),
		ReplyToID: in.ReplyToID,
		ClientRef: nullString(in.ClientRef),
		CreatedAt: now,
	}
	if in.AttachmentRef != "" {
		m.AttachmentRef = nullString(in.AttachmentRef)
	}

	if err := s.msgRepo.Create(ctx, &m); err != nil {
		return message.Message{}, err
	}

	if err := s.chatRepo.Touch(ctx, in.ChatID, now); err != nil && s.log != nil {
		s.log.Errorf("touch chat %s: %v", in.ChatID, err)
	}

	room := events.ChatRoom(in.ChatID.String())
	s.transport.Broadcast(ctx, room, events.MessageCreated{Message: toEventMessage(m)})

	s.notifyOfflineMembers(ctx, m, room)

	return m, nil
}

// notifyOfflineMembers fans a chat notification out to members who do not
// currently have the chat open. Failures are logged per member and never
// fail the send.
func (s *ChatService) notifyOfflineMembers(ctx context.Context, m message.Message, room string) {
	c, err := s.chatRepo.GetByID(ctx, m.ChatID)
	if err != nil {
		if s.log != nil {
			s.log.Errorf("load chat %s for notifications: %v", m.ChatID, err)
		}
		return
	}

	preview := m.Content.String
	if preview == "" {
		preview = "[attachment]"
	}
	preview = truncateRunes(preview, s.previewRunes)

	title := "New message"
	if c.Name.Valid && c.Name.String != "" {
		title = "New message in " + c.Name.String
	}

	for _, member := range c.Members {
		if member.UserID == m.SenderID {
			continue
		}
		if s.presence != nil && s.presence.UserInRoom(member.UserID.String(), room) {
			continue
		}
		if _, err := s.notifier.Notify(ctx, member.UserID, notification.KindChat, title, preview, m.ChatID.String()); err != nil && s.log != nil {
			s.log.Errorf("notify user %s for chat %s: %v", member.UserID, m.ChatID, err)
		}
	}
}

// Edit replaces a message's content. Author-only.
func (s *ChatService) Edit(ctx context.Context, messageID, callerID uuid.UUID, content string) (message.Message, error) {
	m, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if m.SenderID != callerID {
		return message.Message{}, taskerrors.ErrForbidden
	}
	if content == "" {
		return message.Message{}, taskerrors.ErrInvalidInput
	}

	m.Content = nullString(content)
	m.EditedAt = sql.NullTime{Time: s.now(), Valid: true}
	if err := s.msgRepo.Update(ctx, m); err != nil {
		return message.Message{}, err
	}

	s.transport.Broadcast(ctx, events.ChatRoom(m.ChatID.String()), events.MessageEdited{Message: toEventMessage(m)})
	return m, nil
}

// Delete removes a message permanently. Author-only. The broadcast carries
// both ids so clients prune their caches without a re-fetch.
func (s *ChatService) Delete(ctx context.Context, messageID, callerID uuid.UUID) error {
	m, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != callerID {
		return taskerrors.ErrForbidden
	}

	if err := s.msgRepo.HardDelete(ctx, messageID); err != nil {
		return err
	}

	s.transport.Broadcast(ctx, events.ChatRoom(m.ChatID.String()), events.MessageDeleted{
		MessageID: m.ID.String(),
		ChatID:    m.ChatID.String(),
	})
	return nil
}

// MarkRead raises the caller's read watermark to now. Read state is pulled
// over REST rather than pushed, so there is no broadcast.
func (s *ChatService) MarkRead(ctx context.Context, chatID, callerID uuid.UUID) error {
	isMember, err := s.chatRepo.IsMember(ctx, chatID, callerID)
	if err != nil {
		return err
	}
	if !isMember {
		return taskerrors.ErrForbidden
	}
	return s.chatRepo.MarkRead(ctx, chatID, callerID, s.now())
}

func toEventMessage(m message.Message) events.Message {
	ev := events.Message{
		ID:            m.ID.String(),
		ChatID:        m.ChatID.String(),
		SenderID:      m.SenderID.String(),
		Kind:          m.Kind,
		Content:       m.Content.String,
		AttachmentRef: m.AttachmentRef.String,
		ClientRef:     m.ClientRef.String,
		CreatedAt:     m.CreatedAt,
	}
	if m.ReplyToID.Valid {
		ev.ReplyToID = m.ReplyToID.UUID.String()
	}
	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		ev.EditedAt = &t
	}
	return ev
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
