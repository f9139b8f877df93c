package client

import (
	"context"
	"strings"
	"sync"

	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// fakeBackend is an in-memory Backend. Hooks replace the default behaviour
// of ListMessages and SendMessage when set.
type fakeBackend struct {
	mu           sync.Mutex
	user         domain.User
	users        []domain.User
	chats        []domain.Chat
	messages     map[string][]domain.ChatMessage
	listCalls    map[string]int
	loginErrs    []error
	chatsErr     error
	loggedOut    bool
	listMessages func(ctx context.Context, chatID string) ([]domain.ChatMessage, error)
	sendErr      error
}

func newFakeBackend() *fakeBackend {
	users := []domain.User{
		{ID: "u1", Name: "You"},
		{ID: "u2", Name: "Alice"},
		{ID: "u3", Name: "Alicia"},
	}
	return &fakeBackend{
		user:  users[0],
		users: users,
		chats: []domain.Chat{
			{ID: "u1-u2", Type: domain.DIRECT, Participants: users[:2]},
			{ID: "u1-u3", Type: domain.DIRECT, Participants: []domain.User{users[0], users[2]}},
		},
		messages: map[string][]domain.ChatMessage{
			"u1-u2": {{ID: "m1", ChatID: "u1-u2", UserID: "u2", Text: "Hi", TS: 1}},
			"u1-u3": {{ID: "m2", ChatID: "u1-u3", UserID: "u3", Text: "Yo", TS: 2}},
		},
		listCalls: make(map[string]int),
	}
}

func (f *fakeBackend) Register(_ context.Context, cmd domain.RegisterCommand) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := domain.User{ID: uuid.NewString(), Name: cmd.Name}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeBackend) Login(_ context.Context, _ domain.LoginCommand) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loginErrs) > 0 {
		err := f.loginErrs[0]
		f.loginErrs = f.loginErrs[1:]
		return domain.User{}, err
	}
	return f.user, nil
}

func (f *fakeBackend) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
}

func (f *fakeBackend) CheckAuth(_ context.Context) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

func (f *fakeBackend) ListUsers(_ context.Context, query string, _ int) (domain.Page[domain.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := lo.Filter(f.users, func(u domain.User, _ int) bool {
		return strings.Contains(strings.ToLower(u.Name), strings.ToLower(query))
	})
	return domain.Page[domain.User]{Items: items}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, patch domain.UserPatch) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = patch.Apply(f.user)
	return f.user, nil
}

func (f *fakeBackend) ListChats(_ context.Context, _ *string, _ int) (domain.Page[domain.Chat], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chatsErr != nil {
		return domain.Page[domain.Chat]{}, f.chatsErr
	}
	return domain.Page[domain.Chat]{Items: append([]domain.Chat(nil), f.chats...)}, nil
}

func (f *fakeBackend) CreateChat(_ context.Context, participantIDs []string, _ string) (domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(participantIDs) == 0 {
		return domain.Chat{}, errors.ErrBadRequest
	}
	chat := domain.Chat{ID: domain.ResolveChatID(append([]string{f.user.ID}, participantIDs...), false), Type: domain.DIRECT}
	f.chats = append(f.chats, chat)
	return chat, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	f.listCalls[chatID]++
	hook := f.listMessages
	messages := append([]domain.ChatMessage(nil), f.messages[chatID]...)
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx, chatID)
	}
	return messages, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, chatID, userID, text string) (domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return domain.ChatMessage{}, f.sendErr
	}
	message := domain.ChatMessage{ID: uuid.NewString(), ChatID: chatID, UserID: userID, Text: text, TS: 10}
	f.messages[chatID] = append(f.messages[chatID], message)
	return message, nil
}

func (f *fakeBackend) calls(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[chatID]
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}
