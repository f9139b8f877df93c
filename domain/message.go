// Package domain contains core concepts of the chat system.
// This file defines ChatMessage entries.
// Messages are immutable once appended to their chat log.
package domain

// ChatMessage is one entry of a chat log. TS is a unix timestamp in milliseconds.
type ChatMessage struct {
	ID     string `json:"id" validate:"required,excludes=:"`
	ChatID string `json:"chatId" validate:"required,excludes=:"`
	UserID string `json:"userId" validate:"required"`
	Text   string `json:"text" validate:"required"`
	TS     int64  `json:"ts" validate:"gt=0"`
}

func (m ChatMessage) EntityID() string {
	return m.ID
}
