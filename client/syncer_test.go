package client

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/runtime/workers"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const (
	testInterval = 20 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

func setupSyncer(t *testing.T, backend Backend) *Syncer {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	syncer := NewSyncer(context.Background(), backend, workers.NewSupervisor(log), log, testInterval)
	t.Cleanup(syncer.Close)
	return syncer
}

func TestSyncer_CheckAuth_Loads_Mirrors_And_Polls_First_Chat(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	syncer := setupSyncer(t, backend)

	req.NoError(syncer.CheckAuth(context.Background()))

	state := syncer.Snapshot()
	req.Equal("u1", state.User.ID)
	req.Len(state.Users, 3)
	req.Len(state.Chats, 2)
	req.Equal("u1-u2", state.SelectedChatID)

	req.Eventually(func() bool {
		s := syncer.Snapshot()
		return s.Phase == POLLING && len(s.Messages()) == 1
	}, waitFor, tick)
	req.Eventually(func() bool { return backend.calls("u1-u2") >= 3 }, waitFor, tick)
}

func TestSyncer_Select_Discards_Stale_Responses(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	release := make(chan struct{})
	backend.set(func(f *fakeBackend) {
		f.listMessages = func(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
			if chatID == "u1-u2" {
				<-release
				return []domain.ChatMessage{{ID: "stale", ChatID: chatID, UserID: "u2", Text: "late", TS: 1}}, nil
			}
			return []domain.ChatMessage{{ID: "fresh", ChatID: chatID, UserID: "u3", Text: "now", TS: 2}}, nil
		}
	})
	syncer := setupSyncer(t, backend)

	syncer.Select("u1-u2")
	req.Eventually(func() bool { return backend.calls("u1-u2") == 1 }, waitFor, tick)
	req.Equal(LOADING, syncer.Snapshot().Phase)

	syncer.Select("u1-u3")
	close(release)

	req.Eventually(func() bool { return len(syncer.Snapshot().Messages()) == 1 }, waitFor, tick)
	time.Sleep(3 * testInterval)

	state := syncer.Snapshot()
	req.Equal("u1-u3", state.SelectedChatID)
	req.Equal("fresh", state.Messages()[0].ID)
	req.NotContains(state.MessagesByChat, "u1-u2")
	req.Equal(1, backend.calls("u1-u2"), "the canceled poll must not tick again")
}

func TestSyncer_Polling_Survives_Errors(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	failures := 2
	backend.set(func(f *fakeBackend) {
		f.listMessages = func(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if failures > 0 {
				failures--
				return nil, fmt.Errorf("%w: connection refused", errors.ErrTransport)
			}
			return f.messages[chatID], nil
		}
	})
	syncer := setupSyncer(t, backend)

	syncer.Select("u1-u2")

	req.Eventually(func() bool { return syncer.Snapshot().LastError != nil }, waitFor, tick)
	req.Eventually(func() bool {
		s := syncer.Snapshot()
		return s.LastError == nil && len(s.Messages()) == 1
	}, waitFor, tick)
	req.GreaterOrEqual(backend.calls("u1-u2"), 3)
}

func TestSyncer_SendMessage(t *testing.T) {
	t.Run("should append the stored message once", func(t *testing.T) {
		req := require.New(t)
		backend := newFakeBackend()
		syncer := setupSyncer(t, backend)
		req.NoError(syncer.CheckAuth(context.Background()))
		req.Eventually(func() bool { return len(syncer.Snapshot().Messages()) == 1 }, waitFor, tick)

		message, err := syncer.SendMessage(context.Background(), "u1-u2", "hello")
		req.NoError(err)
		req.Equal("u1", message.UserID)

		mirror := syncer.Snapshot().MessagesByChat["u1-u2"]
		req.Len(lo.Filter(mirror, func(m domain.ChatMessage, _ int) bool { return m.ID == message.ID }), 1)

		time.Sleep(3 * testInterval)
		mirror = syncer.Snapshot().MessagesByChat["u1-u2"]
		req.Len(mirror, 2)
		req.Equal(message.ID, mirror[1].ID)
	})

	t.Run("should leave the state untouched on failure", func(t *testing.T) {
		req := require.New(t)
		backend := newFakeBackend()
		syncer := setupSyncer(t, backend)
		req.NoError(syncer.CheckAuth(context.Background()))
		syncer.Select("")
		backend.set(func(f *fakeBackend) { f.sendErr = errors.ErrNotFound })
		before := syncer.Snapshot()

		_, err := syncer.SendMessage(context.Background(), "u1-u2", "hello")

		req.ErrorIs(err, errors.ErrNotFound)
		req.Equal(before, syncer.Snapshot())
	})

	t.Run("should get the message back after an older poll overwrote it", func(t *testing.T) {
		req := require.New(t)
		backend := newFakeBackend()
		gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
		backend.set(func(f *fakeBackend) {
			f.listMessages = func(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
				f.mu.Lock()
				messages := append([]domain.ChatMessage(nil), f.messages[chatID]...)
				var gate chan struct{}
				if len(gates) > 0 {
					gate, gates = gates[0], gates[1:]
				}
				f.mu.Unlock()
				if gate != nil {
					select {
					case <-gate:
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return messages, nil
			}
		})
		first, second := gates[0], gates[1]
		syncer := setupSyncer(t, backend)
		req.NoError(syncer.CheckAuth(context.Background()))
		req.Eventually(func() bool { return backend.calls("u1-u2") == 1 }, waitFor, tick)

		message, err := syncer.SendMessage(context.Background(), "u1-u2", "hello")
		req.NoError(err)
		req.Len(syncer.Snapshot().Messages(), 1)

		// the poll read the log before the send
		close(first)
		req.Eventually(func() bool {
			mirror := syncer.Snapshot().Messages()
			return len(mirror) == 1 && mirror[0].ID == "m1"
		}, waitFor, tick)

		close(second)
		req.Eventually(func() bool {
			mirror := syncer.Snapshot().Messages()
			return len(mirror) == 2 && mirror[1].ID == message.ID
		}, waitFor, tick)
	})

	t.Run("should require a session", func(t *testing.T) {
		syncer := setupSyncer(t, newFakeBackend())
		_, err := syncer.SendMessage(context.Background(), "u1-u2", "hello")
		require.ErrorIs(t, err, errors.ErrUnauthenticated)
	})
}

func TestSyncer_SearchUsers(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	syncer := setupSyncer(t, backend)
	req.NoError(syncer.CheckAuth(context.Background()))

	results, err := syncer.SearchUsers(context.Background(), "  ")
	req.NoError(err)
	req.Empty(results)

	results, err = syncer.SearchUsers(context.Background(), "i")
	req.NoError(err)
	req.Equal([]string{"u2", "u3"}, lo.Map(results, func(u domain.User, _ int) string { return u.ID }))

	results, err = syncer.SearchUsers(context.Background(), "o")
	req.NoError(err)
	req.Empty(results, "the session user is never a search result")
}

func TestSyncer_CreateChat_And_Profile(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	syncer := setupSyncer(t, backend)
	req.NoError(syncer.CheckAuth(context.Background()))

	chat, err := syncer.CreateChat(context.Background(), []string{"u4"}, "")
	req.NoError(err)
	req.Equal("u1-u4", chat.ID)
	req.Len(syncer.Snapshot().Chats, 3)

	_, err = syncer.CreateChat(context.Background(), nil, "")
	req.ErrorIs(err, errors.ErrBadRequest)

	user, err := syncer.UpdateProfile(context.Background(), domain.UserPatch{Name: lo.ToPtr("Renamed")})
	req.NoError(err)
	req.Equal("Renamed", user.Name)
	state := syncer.Snapshot()
	req.Equal("Renamed", state.User.Name)
	req.Equal("Renamed", state.Users[0].Name)
}

func TestSyncer_FetchChats_Failure_Keeps_Mirror(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	syncer := setupSyncer(t, backend)
	req.NoError(syncer.CheckAuth(context.Background()))

	backend.set(func(f *fakeBackend) { f.chatsErr = errors.ErrStorage })
	syncer.FetchChats(context.Background())

	state := syncer.Snapshot()
	req.Len(state.Chats, 2)
	req.ErrorIs(state.LastError, errors.ErrStorage)
}

func TestSyncer_Logout_Stops_Polling(t *testing.T) {
	req := require.New(t)
	backend := newFakeBackend()
	syncer := setupSyncer(t, backend)
	req.NoError(syncer.CheckAuth(context.Background()))
	req.Eventually(func() bool { return backend.calls("u1-u2") >= 2 }, waitFor, tick)

	syncer.Logout()
	time.Sleep(2 * testInterval)
	calls := backend.calls("u1-u2")
	time.Sleep(3 * testInterval)

	state := syncer.Snapshot()
	req.Nil(state.User)
	req.Empty(state.Chats)
	req.Empty(state.MessagesByChat)
	req.Equal(IDLE, state.Phase)
	req.Equal(calls, backend.calls("u1-u2"))
	req.True(backend.loggedOut)
}

func TestLoginWithRetry(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	t.Run("should retry transport failures", func(t *testing.T) {
		req := require.New(t)
		backend := newFakeBackend()
		backend.set(func(f *fakeBackend) {
			f.loginErrs = []error{errors.ErrTransport, errors.ErrTransport}
		})
		syncer := setupSyncer(t, backend)

		req.NoError(LoginWithRetry(context.Background(), syncer, "a@b.c", "pwd", 5*time.Second, log))
		req.Equal("u1", syncer.Snapshot().User.ID)
	})

	t.Run("should give up on validation failures", func(t *testing.T) {
		req := require.New(t)
		backend := newFakeBackend()
		backend.set(func(f *fakeBackend) {
			f.loginErrs = []error{errors.ErrBadRequest}
		})
		syncer := setupSyncer(t, backend)

		err := LoginWithRetry(context.Background(), syncer, "", "", 5*time.Second, log)
		req.ErrorIs(err, errors.ErrBadRequest)
	})
}
