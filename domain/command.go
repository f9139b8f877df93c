package domain

type RegisterCommand struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginCommand struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateChatCommand struct {
	RequesterID    string   `json:"-"`
	ParticipantIDs []string `json:"participantIds"`
	Title          string   `json:"title"`
}

type SendMessageCommand struct {
	ChatID string `json:"-"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
}
