package client

import (
	"context"

	"chat-sync/domain"
)

// Backend is the server surface the synchronization loop depends on.
type Backend interface {
	Register(ctx context.Context, cmd domain.RegisterCommand) (domain.User, error)
	Login(ctx context.Context, cmd domain.LoginCommand) (domain.User, error)
	Logout()
	CheckAuth(ctx context.Context) (domain.User, error)
	ListUsers(ctx context.Context, query string, limit int) (domain.Page[domain.User], error)
	UpdateProfile(ctx context.Context, patch domain.UserPatch) (domain.User, error)
	ListChats(ctx context.Context, cursor *string, limit int) (domain.Page[domain.Chat], error)
	CreateChat(ctx context.Context, participantIDs []string, title string) (domain.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, userID, text string) (domain.ChatMessage, error)
}
