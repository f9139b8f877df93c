// Package domain contains core concepts of the chat system.
// This file defines Chat entities and the rules deciding their identity.
package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChatType string

const (
	DIRECT ChatType = "direct"
	GROUP  ChatType = "group"
)

// DirectChatIDSeparator joins the sorted participant ids of a direct chat.
const DirectChatIDSeparator = "-"

// InitialLastMessage is the projection shown before anybody wrote in a chat.
const InitialLastMessage = "Chat created"

// Chat is a conversation between two (direct) or more (group) users.
// Participants are snapshots taken at creation time and are never reconciled
// with later changes of the User records.
type Chat struct {
	ID                   string   `json:"id" validate:"required,excludes=:"`
	Type                 ChatType `json:"type" validate:"required,oneof=direct group"`
	Participants         []User   `json:"participants" validate:"min=2,unique=ID,dive"`
	Name                 string   `json:"name,omitempty" validate:"required_if=Type group"`
	Title                string   `json:"title,omitempty" validate:"required_if=Type group"`
	AvatarURL            string   `json:"avatarUrl,omitempty"`
	LastMessage          string   `json:"lastMessage"`
	LastMessageTimestamp int64    `json:"lastMessageTimestamp" validate:"gte=0"`
	UnreadCount          int      `json:"unreadCount" validate:"gte=0"`
}

func (c Chat) EntityID() string {
	return c.ID
}

func (c Chat) IsGroup() bool {
	return c.Type == GROUP
}

func (c Chat) ParticipantIDs() []string {
	return lo.Map(c.Participants, func(u User, _ int) string { return u.ID })
}

// ResolveChatID returns the identity of a chat between participantIDs.
// A direct chat id is deterministic so that two creations for the same pair
// converge to one record. A group always gets a fresh opaque id.
func ResolveChatID(participantIDs []string, isGroup bool) string {
	if isGroup {
		return uuid.NewString()
	}
	ids := lo.Uniq(participantIDs)
	sort.Strings(ids)
	return strings.Join(ids, DirectChatIDSeparator)
}
