package auth

import (
	"fmt"

	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRegister checks the presence of every field. The email is an
// opaque handle, its format is not checked.
// Passwords are never verified by the mocked session layer.
func ValidateRegister(cmd domain.RegisterCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrBadRequest, err)
	}
	return nil
}

func ValidateLogin(cmd domain.LoginCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrBadRequest, err)
	}
	return nil
}
