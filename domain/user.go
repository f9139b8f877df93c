// Package domain contains core concepts of the chat system.
// This file defines User entities and the profile patch applied to them.
// No runtime, network, or UI logic should be added here.
package domain

// User is a chat participant. Identity is ID.
type User struct {
	ID        string `json:"id" validate:"required,excludes=:"`
	Name      string `json:"name" validate:"required"`
	AvatarURL string `json:"avatarUrl"`
	Online    *bool  `json:"online,omitempty"`
}

func (u User) EntityID() string {
	return u.ID
}

// UserPatch carries the profile fields a user may change.
// A nil field is left untouched.
type UserPatch struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.AvatarURL == nil
}

// Apply merges the provided fields into u and returns the result.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	return u
}
