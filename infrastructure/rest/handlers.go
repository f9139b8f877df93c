package rest

import (
	"fmt"
	"strconv"
	"time"

	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func (s *Server) register(c *fiber.Ctx) error {
	var cmd domain.RegisterCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	user, err := s.auth.Register(cmd)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (s *Server) login(c *fiber.Ctx) error {
	var cmd domain.LoginCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	session, err := s.auth.Login(cmd)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.SessionDuration),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ok(c, session.User)
}

func (s *Server) check(c *fiber.Ctx) error {
	user, err := s.auth.CheckSession(sessionUserID(c))
	if err != nil {
		return err
	}
	return ok(c, domain.CheckResult{User: user})
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	page, err := s.chats.ListUsers(c.Query("q"), limit)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (s *Server) createUser(c *fiber.Ctx) error {
	var cmd domain.CreateUserCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	user, err := s.chats.CreateUser(cmd)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var patch domain.UserPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	user, err := s.chats.UpdateProfile(sessionUserID(c), patch)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	res, err := s.chats.DeleteUser(c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) deleteUsers(c *fiber.Ctx) error {
	var cmd domain.IDsCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	res, err := s.chats.DeleteUsers(cmd.IDs)
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) listChats(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	var cursor *string
	if q := c.Query("cursor"); q != "" {
		cursor = lo.ToPtr(q)
	}
	page, err := s.chats.ListChats(cursor, limit)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (s *Server) createChat(c *fiber.Ctx) error {
	var cmd domain.CreateChatCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	cmd.RequesterID = sessionUserID(c)
	chat, err := s.chats.CreateChat(cmd)
	if err != nil {
		return err
	}
	return ok(c, chat)
}

func (s *Server) deleteChat(c *fiber.Ctx) error {
	res, err := s.chats.DeleteChat(c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) deleteChats(c *fiber.Ctx) error {
	var cmd domain.IDsCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	res, err := s.chats.DeleteChats(cmd.IDs)
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	messages, err := s.chats.ListMessages(c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, messages)
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var cmd domain.SendMessageCommand
	if err := parseBody(c, &cmd); err != nil {
		return err
	}
	cmd.ChatID = c.Params("id")
	message, err := s.chats.SendMessage(cmd)
	if err != nil {
		return err
	}
	return ok(c, message)
}

// parseBody decodes a JSON body whatever the Content-Type. An empty body
// leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", errors.ErrBadRequest, err)
	}
	return nil
}

// parseLimit returns 0 when no limit was given and at least 1 otherwise.
func parseLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not a number", errors.ErrBadRequest, raw)
	}
	return max(limit, 1), nil
}
