package client

import (
	"maps"
	"slices"

	"chat-sync/domain"
)

type Phase string

const (
	IDLE    Phase = "idle"
	LOADING Phase = "loading"
	POLLING Phase = "polling"
)

// State is the local view of the server. Mirrors are last-fetch-wins caches.
type State struct {
	User           *domain.User
	Users          []domain.User
	Chats          []domain.Chat
	MessagesByChat map[string][]domain.ChatMessage
	SearchResults  []domain.User
	SelectedChatID string
	Phase          Phase
	LastError      error
}

func newState() State {
	return State{MessagesByChat: make(map[string][]domain.ChatMessage), Phase: IDLE}
}

// clone returns a copy sharing nothing mutable with s.
func (s State) clone() State {
	out := s
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	out.Users = slices.Clone(s.Users)
	out.Chats = slices.Clone(s.Chats)
	out.SearchResults = slices.Clone(s.SearchResults)
	out.MessagesByChat = maps.Clone(s.MessagesByChat)
	for chatID, messages := range out.MessagesByChat {
		out.MessagesByChat[chatID] = slices.Clone(messages)
	}
	return out
}

// Messages returns the mirror of the selected chat.
func (s State) Messages() []domain.ChatMessage {
	return s.MessagesByChat[s.SelectedChatID]
}
