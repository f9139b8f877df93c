package rest

import (
	"log/slog"
	"time"

	"chat-sync/auth"
	"chat-sync/observability"
	"chat-sync/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Config struct {
	Prefix          string
	SessionDuration time.Duration
	// Monitor counts served requests when set.
	Monitor *observability.Monitor
}

// Server exposes the chat service over HTTP/JSON.
type Server struct {
	app      *fiber.App
	chats    services.IChatService
	auth     services.IAuthService
	sessions *auth.Sessions
	cfg      Config
	log      *slog.Logger
}

func NewServer(cfg Config, chats services.IChatService, authService services.IAuthService,
	sessions *auth.Sessions, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "chat-sync",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          errorHandler(log),
	})
	s := &Server{app: app, chats: chats, auth: authService, sessions: sessions, cfg: cfg, log: log}

	app.Use(recover.New())
	app.Use(accessLog(log, cfg.Monitor))

	api := app.Group(cfg.Prefix)
	// registered ahead of the session gate: a stale or foreign credential
	// must not prevent opening a new session
	api.Post("/auth/register", s.register)
	api.Post("/auth/login", s.login)

	api.Use(session(sessions))
	api.Get("/auth/check", s.check)

	api.Get("/users", s.listUsers)
	api.Post("/users", s.createUser)
	api.Patch("/users/me", s.updateProfile)
	api.Post("/users/deleteMany", s.deleteUsers)
	api.Delete("/users/:id", s.deleteUser)

	api.Get("/chats", s.listChats)
	api.Post("/chats", s.createChat)
	api.Post("/chats/deleteMany", s.deleteChats)
	api.Delete("/chats/:id", s.deleteChat)
	api.Get("/chats/:id/messages", s.listMessages)
	api.Post("/chats/:id/messages", s.sendMessage)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info("HTTP server listening", "addr", addr, "prefix", s.cfg.Prefix)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
