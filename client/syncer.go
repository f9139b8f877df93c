package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/samber/lo"
)

const DefaultPollInterval = 3000 * time.Millisecond

// Syncer keeps a State consistent with the server. Background fetches
// (polls, refreshes) record failures in State.LastError and retry on the
// next tick. User-initiated actions return their error and leave the state
// untouched when they fail.
type Syncer struct {
	backend    Backend
	supervisor contract.ISupervisor
	log        *slog.Logger
	interval   time.Duration
	updates    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	generation uint64
	cancelPoll context.CancelFunc
	closed     bool
}

func NewSyncer(ctx context.Context, backend Backend, supervisor contract.ISupervisor, log *slog.Logger, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Syncer{
		backend:    backend,
		supervisor: supervisor,
		log:        log,
		interval:   interval,
		updates:    make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		state:      newState(),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Syncer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Updates signals state changes. Signals coalesce: a reader gets at most one
// pending notification and should take a Snapshot.
func (s *Syncer) Updates() <-chan struct{} {
	return s.updates
}

// Close stops polling and waits for the poll worker to return.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopPollingLocked()
	s.mu.Unlock()
	s.cancel()
	s.supervisor.Wait()
}

// CheckAuth loads the session user, then the user directory and the chats.
// A failure clears the user.
func (s *Syncer) CheckAuth(ctx context.Context) error {
	user, err := s.backend.CheckAuth(ctx)
	if err != nil {
		s.update(func(st *State) {
			st.User = nil
			st.LastError = err
		})
		return err
	}
	s.update(func(st *State) {
		st.User = &user
		st.LastError = nil
	})
	s.FetchUsers(ctx)
	s.FetchChats(ctx)
	return nil
}

func (s *Syncer) Login(ctx context.Context, email, password string) error {
	if _, err := s.backend.Login(ctx, domain.LoginCommand{Email: email, Password: password}); err != nil {
		s.recordError(err)
		return err
	}
	return s.CheckAuth(ctx)
}

func (s *Syncer) Register(ctx context.Context, name, email, password string) error {
	cmd := domain.RegisterCommand{Name: name, Email: email, Password: password}
	if _, err := s.backend.Register(ctx, cmd); err != nil {
		s.recordError(err)
		return err
	}
	return s.CheckAuth(ctx)
}

// Logout stops polling and clears every mirror.
func (s *Syncer) Logout() {
	s.backend.Logout()
	s.mu.Lock()
	s.stopPollingLocked()
	s.state = newState()
	s.mu.Unlock()
	s.notify()
}

// FetchUsers refreshes the user directory mirror.
func (s *Syncer) FetchUsers(ctx context.Context) {
	page, err := s.backend.ListUsers(ctx, "", 0)
	if err != nil {
		s.log.Warn("Failed to fetch users", "error", err)
		s.recordError(err)
		return
	}
	s.update(func(st *State) { st.Users = page.Items })
}

// FetchChats refreshes the chat mirror and selects the first chat when
// nothing is selected yet.
func (s *Syncer) FetchChats(ctx context.Context) {
	page, err := s.backend.ListChats(ctx, nil, 0)
	if err != nil {
		s.log.Warn("Failed to fetch chats", "error", err)
		s.recordError(err)
		return
	}
	s.mu.Lock()
	s.state.Chats = page.Items
	if s.state.SelectedChatID == "" && len(page.Items) > 0 {
		s.selectLocked(page.Items[0].ID)
	}
	s.mu.Unlock()
	s.notify()
}

// Select makes chatID the active conversation. Any poll running for the
// previous selection is canceled and its late responses are discarded.
// An empty chatID clears the selection.
func (s *Syncer) Select(chatID string) {
	s.mu.Lock()
	s.selectLocked(chatID)
	s.mu.Unlock()
	s.notify()
}

func (s *Syncer) selectLocked(chatID string) {
	if s.closed {
		return
	}
	s.stopPollingLocked()
	s.state.SelectedChatID = chatID
	if chatID == "" {
		s.state.Phase = IDLE
		return
	}
	s.state.Phase = LOADING
	pollCtx, cancel := context.WithCancel(s.ctx)
	s.cancelPoll = cancel
	s.supervisor.Start(pollCtx, &chatPoller{
		syncer:     s,
		chatID:     chatID,
		generation: s.generation,
		interval:   s.interval,
	})
}

// stopPollingLocked cancels the current poll and invalidates its generation.
func (s *Syncer) stopPollingLocked() {
	s.generation++
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.state.Phase = IDLE
}

// fetchMessages is one poll tick. Its result only lands if the selection it
// was issued for is still the current one.
func (s *Syncer) fetchMessages(ctx context.Context, chatID string, generation uint64) {
	messages, err := s.backend.ListMessages(ctx, chatID)

	s.mu.Lock()
	if generation != s.generation || chatID != s.state.SelectedChatID || ctx.Err() != nil {
		s.mu.Unlock()
		s.log.Debug("Discarding stale poll response", "chat_id", chatID, "generation", generation)
		return
	}
	s.state.Phase = POLLING
	if err != nil {
		s.state.LastError = err
		s.mu.Unlock()
		s.log.Warn("Poll failed, retrying on next tick", "chat_id", chatID, "error", err)
		s.notify()
		return
	}
	s.state.MessagesByChat[chatID] = messages
	s.state.LastError = nil
	s.mu.Unlock()
	s.notify()
}

// SendMessage posts text to chatID as the session user and appends the
// stored message to the local mirror once the server accepted it.
// A poll issued before the send may land afterwards and overwrite the mirror
// without it; the next tick brings it back.
func (s *Syncer) SendMessage(ctx context.Context, chatID, text string) (domain.ChatMessage, error) {
	s.mu.Lock()
	user := s.state.User
	s.mu.Unlock()
	if user == nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: not logged in", errors.ErrUnauthenticated)
	}

	message, err := s.backend.SendMessage(ctx, chatID, user.ID, text)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	s.update(func(st *State) {
		mirror := st.MessagesByChat[chatID]
		if !slices.ContainsFunc(mirror, func(m domain.ChatMessage) bool { return m.ID == message.ID }) {
			st.MessagesByChat[chatID] = append(mirror, message)
		}
	})
	return message, nil
}

// SearchUsers looks up users by name, leaving out the session user.
func (s *Syncer) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.update(func(st *State) { st.SearchResults = nil })
		return nil, nil
	}
	page, err := s.backend.ListUsers(ctx, query, 0)
	if err != nil {
		s.update(func(st *State) { st.SearchResults = nil })
		return nil, err
	}
	s.mu.Lock()
	selfID := ""
	if s.state.User != nil {
		selfID = s.state.User.ID
	}
	results := lo.Filter(page.Items, func(u domain.User, _ int) bool { return u.ID != selfID })
	s.state.SearchResults = results
	s.mu.Unlock()
	s.notify()
	return slices.Clone(results), nil
}

// CreateChat creates (or finds) a chat and refreshes the chat mirror.
func (s *Syncer) CreateChat(ctx context.Context, participantIDs []string, title string) (domain.Chat, error) {
	chat, err := s.backend.CreateChat(ctx, participantIDs, title)
	if err != nil {
		return domain.Chat{}, err
	}
	s.FetchChats(ctx)
	return chat, nil
}

// UpdateProfile patches the session user and mirrors the result.
func (s *Syncer) UpdateProfile(ctx context.Context, patch domain.UserPatch) (domain.User, error) {
	user, err := s.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return domain.User{}, err
	}
	s.update(func(st *State) {
		st.User = &user
		st.Users = lo.Map(st.Users, func(u domain.User, _ int) domain.User {
			if u.ID == user.ID {
				return user
			}
			return u
		})
	})
	return user, nil
}

func (s *Syncer) recordError(err error) {
	s.update(func(st *State) { st.LastError = err })
}

func (s *Syncer) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

func (s *Syncer) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
