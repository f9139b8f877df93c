package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultUserPageSize = 100
	DefaultChatPageSize = 50
)

type IChatService interface {
	ListUsers(query string, limit int) (domain.Page[domain.User], error)
	CreateUser(cmd domain.CreateUserCommand) (domain.User, error)
	UpdateProfile(userID string, patch domain.UserPatch) (domain.User, error)
	CreateChat(cmd domain.CreateChatCommand) (domain.Chat, error)
	ListChats(cursor *string, limit int) (domain.Page[domain.Chat], error)
	ListMessages(chatID string) ([]domain.ChatMessage, error)
	SendMessage(cmd domain.SendMessageCommand) (domain.ChatMessage, error)
	DeleteUser(id string) (domain.DeleteResult, error)
	DeleteUsers(ids []string) (domain.DeleteManyResult, error)
	DeleteChat(id string) (domain.DeleteResult, error)
	DeleteChats(ids []string) (domain.DeleteManyResult, error)
}

// ChatService is the stateless orchestration between the user directory and
// the chat board. Validation failures are returned as ErrBadRequest before any
// write happens.
type ChatService struct {
	users       repositories.IUserRepository
	chats       repositories.IChatRepository
	log         *slog.Logger
	maxPageSize int
	now         func() time.Time
	censor      Censor
}

// Censor masks forbidden words in message text and reports the matches.
type Censor interface {
	Censor(text string) (string, []string)
}

func NewChatService(users repositories.IUserRepository, chats repositories.IChatRepository, log *slog.Logger, maxPageSize int) *ChatService {
	return &ChatService{
		users:       users,
		chats:       chats,
		log:         log,
		maxPageSize: max(maxPageSize, 1),
		now:         time.Now,
	}
}

// WithCensor makes SendMessage mask text before it is appended.
func (s *ChatService) WithCensor(censor Censor) *ChatService {
	s.censor = censor
	return s
}

func (s *ChatService) ListUsers(query string, limit int) (domain.Page[domain.User], error) {
	if err := s.users.EnsureSeed(); err != nil {
		return domain.Page[domain.User]{}, err
	}
	return s.users.List(nil, s.clamp(limit, DefaultUserPageSize), strings.TrimSpace(query))
}

func (s *ChatService) CreateUser(cmd domain.CreateUserCommand) (domain.User, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name required", errors.ErrBadRequest)
	}
	return s.users.Create(domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		AvatarURL: domain.AvatarURL(uuid.NewString()),
	})
}

func (s *ChatService) UpdateProfile(userID string, patch domain.UserPatch) (domain.User, error) {
	if patch.IsEmpty() {
		return domain.User{}, fmt.Errorf("%w: no updateable fields provided", errors.ErrBadRequest)
	}
	return s.users.Patch(userID, patch)
}

// CreateChat merges the requester into the participants, then either returns
// the existing direct chat for that pair or creates a new chat.
func (s *ChatService) CreateChat(cmd domain.CreateChatCommand) (domain.Chat, error) {
	if len(cmd.ParticipantIDs) == 0 {
		return domain.Chat{}, fmt.Errorf("%w: participantIds are required", errors.ErrBadRequest)
	}
	ids := lo.Uniq(append([]string{cmd.RequesterID}, cmd.ParticipantIDs...))
	if len(ids) < 2 {
		return domain.Chat{}, fmt.Errorf("%w: at least two unique participants are required", errors.ErrBadRequest)
	}
	participants, err := s.users.GetMany(ids)
	if err != nil {
		return domain.Chat{}, err
	}
	if len(participants) != len(ids) {
		return domain.Chat{}, fmt.Errorf("%w: one or more participants not found", errors.ErrBadRequest)
	}
	isGroup := len(ids) > 2
	title := strings.TrimSpace(cmd.Title)
	if isGroup && title == "" {
		return domain.Chat{}, fmt.Errorf("%w: group chats require a title", errors.ErrBadRequest)
	}

	chat := domain.Chat{
		ID:                   domain.ResolveChatID(ids, isGroup),
		Type:                 domain.DIRECT,
		Participants:         participants,
		LastMessage:          domain.InitialLastMessage,
		LastMessageTimestamp: s.now().UnixMilli(),
	}
	if isGroup {
		chat.Type = domain.GROUP
		chat.Name = title
		chat.Title = title
		chat.AvatarURL = domain.AvatarURL(uuid.NewString())
	}
	stored, created, err := s.chats.Create(chat)
	if err != nil {
		return domain.Chat{}, err
	}
	if !created {
		s.log.Debug("Direct chat already exists", "id", stored.ID)
	}
	return stored, nil
}

func (s *ChatService) ListChats(cursor *string, limit int) (domain.Page[domain.Chat], error) {
	if err := s.chats.EnsureSeed(); err != nil {
		return domain.Page[domain.Chat]{}, err
	}
	return s.chats.List(cursor, s.clamp(limit, DefaultChatPageSize))
}

func (s *ChatService) ListMessages(chatID string) ([]domain.ChatMessage, error) {
	return s.chats.ListMessages(chatID)
}

func (s *ChatService) SendMessage(cmd domain.SendMessageCommand) (domain.ChatMessage, error) {
	text := strings.TrimSpace(cmd.Text)
	if cmd.UserID == "" || text == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: userId and text required", errors.ErrBadRequest)
	}
	if s.censor != nil {
		var words []string
		if text, words = s.censor.Censor(text); len(words) > 0 {
			s.log.Info("Message censored", "chat_id", cmd.ChatID, "user_id", cmd.UserID, "matches", len(words))
		}
	}
	return s.chats.SendMessage(cmd.ChatID, cmd.UserID, text)
}

// DeleteUser leaves chats untouched: participants are snapshots taken when
// the chat was created.
func (s *ChatService) DeleteUser(id string) (domain.DeleteResult, error) {
	deleted, err := s.users.Delete(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{ID: id, Deleted: deleted}, nil
}

func (s *ChatService) DeleteUsers(ids []string) (domain.DeleteManyResult, error) {
	return s.deleteMany(ids, s.users.DeleteMany)
}

func (s *ChatService) DeleteChat(id string) (domain.DeleteResult, error) {
	deleted, err := s.chats.Delete(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{ID: id, Deleted: deleted}, nil
}

func (s *ChatService) DeleteChats(ids []string) (domain.DeleteManyResult, error) {
	return s.deleteMany(ids, s.chats.DeleteMany)
}

func (s *ChatService) deleteMany(ids []string, del func([]string) (int, error)) (domain.DeleteManyResult, error) {
	list := lo.Compact(ids)
	if len(list) == 0 {
		return domain.DeleteManyResult{}, fmt.Errorf("%w: ids required", errors.ErrBadRequest)
	}
	count, err := del(list)
	if err != nil {
		return domain.DeleteManyResult{}, err
	}
	return domain.DeleteManyResult{DeletedCount: count, IDs: list}, nil
}

// clamp applies the default page size to a zero limit and bounds the rest.
func (s *ChatService) clamp(limit, fallback int) int {
	if limit == 0 {
		limit = fallback
	}
	return lo.Clamp(limit, 1, s.maxPageSize)
}
