package domain

import (
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator knowing the struct-level rules of the
// record types. Field-level rules live in the struct tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateChat, Chat{})
	return v
}

func validateChat(sl validator.StructLevel) {
	chat := sl.Current().Interface().(Chat)
	switch chat.Type {
	case DIRECT:
		if len(chat.Participants) != 2 {
			sl.ReportError(chat.Participants, "Participants", "participants", "direct_pair", "")
		}
	case GROUP:
		if chat.Name != chat.Title {
			sl.ReportError(chat.Title, "Title", "title", "eqfield", "Name")
		}
	}
}
