package domain

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

const avatarBaseURL = "https://i.pravatar.cc/150?u=%s"

// AvatarURL derives a placeholder avatar from any stable seed (id, email...).
func AvatarURL(seed string) string {
	return fmt.Sprintf(avatarBaseURL, seed)
}

// DefaultSessionUser is the identity every mocked session resolves to.
func DefaultSessionUser() User {
	return User{ID: "u1", Name: "You", AvatarURL: AvatarURL("u1"), Online: lo.ToPtr(true)}
}

func SeedUsers() []User {
	return []User{
		DefaultSessionUser(),
		{ID: "u2", Name: "Alice", AvatarURL: AvatarURL("u2"), Online: lo.ToPtr(true)},
		{ID: "u3", Name: "Bob", AvatarURL: AvatarURL("u3"), Online: lo.ToPtr(false)},
		{ID: "u4", Name: "Charlie", AvatarURL: AvatarURL("u4"), Online: lo.ToPtr(true)},
		{ID: "u5", Name: "Diana", AvatarURL: AvatarURL("u5"), Online: lo.ToPtr(false)},
		{ID: "u6", Name: "College Faculty", AvatarURL: AvatarURL("u6"), Online: lo.ToPtr(true)},
	}
}

// SeedChat is a default chat together with its initial log.
type SeedChat struct {
	Chat     Chat
	Messages []ChatMessage
}

// SeedChats builds the default conversations relative to now. Direct chats use
// their deterministic id and the projection is derived from the last message.
func SeedChats(now time.Time) []SeedChat {
	users := lo.KeyBy(SeedUsers(), func(u User) string { return u.ID })
	pick := func(ids ...string) []User {
		return lo.Map(ids, func(id string, _ int) User { return users[id] })
	}
	ago := func(d time.Duration) int64 {
		return now.Add(-d).UnixMilli()
	}
	direct := func(unread int, ids ...string) Chat {
		return Chat{
			ID:           ResolveChatID(ids, false),
			Type:         DIRECT,
			Participants: pick(ids...),
			UnreadCount:  unread,
		}
	}
	message := func(id, chatID, userID, text string, ts int64) ChatMessage {
		return ChatMessage{ID: id, ChatID: chatID, UserID: userID, Text: text, TS: ts}
	}

	alice := direct(2, "u1", "u2")
	bob := direct(0, "u1", "u3")
	faculty := direct(0, "u1", "u6")
	project := Chat{
		ID:           "c3",
		Type:         GROUP,
		Participants: pick("u1", "u4", "u5"),
		Name:         "Project Group",
		Title:        "Project Group",
		AvatarURL:    AvatarURL("g1"),
		UnreadCount:  5,
	}

	seeds := []SeedChat{
		{Chat: alice, Messages: []ChatMessage{
			message("m1", alice.ID, "u2", "Hey, how are you?", ago(6*time.Minute)),
			message("m2", alice.ID, "u2", "Did you see the assignment?", ago(5*time.Minute)),
		}},
		{Chat: bob, Messages: []ChatMessage{
			message("m3", bob.ID, "u1", "Hey Bob, are we on for tomorrow?", ago(3*time.Hour)),
			message("m4", bob.ID, "u3", "Yep, see you then!", ago(2*time.Hour)),
		}},
		{Chat: project, Messages: []ChatMessage{
			message("m5", project.ID, "u4", "Hey team, meeting at 4?", ago(26*time.Hour)),
			message("m6", project.ID, "u1", "Sounds good to me.", ago(25*time.Hour)),
			message("m7", project.ID, "u5", "I pushed the latest changes.", ago(24*time.Hour)),
		}},
		{Chat: faculty, Messages: []ChatMessage{
			message("m8", faculty.ID, "u1", "Thanks for the clarification!", ago(48*time.Hour)),
		}},
	}
	for i := range seeds {
		last := seeds[i].Messages[len(seeds[i].Messages)-1]
		seeds[i].Chat.LastMessage = last.Text
		seeds[i].Chat.LastMessageTimestamp = last.TS
	}
	return seeds
}
