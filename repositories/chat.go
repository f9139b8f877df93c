//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/storage"

	"github.com/google/uuid"
)

type IChatRepository interface {
	Create(chat domain.Chat) (domain.Chat, bool, error)
	Get(id string) (domain.Chat, error)
	List(cursor *string, limit int) (domain.Page[domain.Chat], error)
	SendMessage(chatID, userID, text string) (domain.ChatMessage, error)
	ListMessages(chatID string) ([]domain.ChatMessage, error)
	Delete(id string) (bool, error)
	DeleteMany(ids []string) (int, error)
	EnsureSeed() error
}

// ChatRepository is the chat board: chat records and the message log each of
// them owns exclusively.
type ChatRepository struct {
	store    *storage.Store
	chats    *storage.Collection[domain.Chat]
	messages *storage.Log[domain.ChatMessage]
	log      *slog.Logger
	now      func() time.Time
}

func NewChatRepository(store *storage.Store, log *slog.Logger) *ChatRepository {
	validate := domain.NewValidator()
	return &ChatRepository{
		store:    store,
		chats:    storage.NewCollection[domain.Chat](store, storage.KindChat, validate),
		messages: storage.NewLog[domain.ChatMessage](store, storage.KindMessage, validate),
		log:      log,
		now:      time.Now,
	}
}

// Create stores chat unless a chat with the same id exists, in which case the
// existing record is returned unchanged and created is false. Direct chats
// have deterministic ids, so concurrent creations for one pair converge here.
func (r *ChatRepository) Create(chat domain.Chat) (domain.Chat, bool, error) {
	stored, created, err := r.chats.CreateIfAbsent(chat)
	if err != nil {
		return domain.Chat{}, false, err
	}
	if created {
		r.log.Debug("Chat created", "id", stored.ID, "type", stored.Type)
	}
	return stored, created, nil
}

func (r *ChatRepository) Get(id string) (domain.Chat, error) {
	chat, found, err := r.chats.Get(id)
	if err != nil {
		return domain.Chat{}, err
	}
	if !found {
		return domain.Chat{}, fmt.Errorf("%w: chat %q", errors.ErrNotFound, id)
	}
	return chat, nil
}

func (r *ChatRepository) List(cursor *string, limit int) (domain.Page[domain.Chat], error) {
	return r.chats.List(cursor, limit)
}

// SendMessage appends a message to the chat log and refreshes the chat's
// last-message projection in the same transaction. The timestamp never goes
// below the current projection, so the log stays in send order even if the
// wall clock steps back.
func (r *ChatRepository) SendMessage(chatID, userID, text string) (message domain.ChatMessage, err error) {
	id := uuid.NewString()
	err = r.store.Update(func(txn *storage.Txn) error {
		chat, found, err := r.chats.GetTx(txn, chatID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: chat %q", errors.ErrNotFound, chatID)
		}
		ts := max(r.now().UnixMilli(), chat.LastMessageTimestamp)
		message = domain.ChatMessage{ID: id, ChatID: chatID, UserID: userID, Text: text, TS: ts}
		if err = r.messages.AppendTx(txn, chatID, ts, message); err != nil {
			return err
		}
		chat.LastMessage = text
		chat.LastMessageTimestamp = ts
		return r.chats.PutTx(txn, chat)
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return message, nil
}

// ListMessages returns the whole log of a chat, oldest first.
func (r *ChatRepository) ListMessages(chatID string) (messages []domain.ChatMessage, err error) {
	err = r.store.View(func(txn *storage.Txn) error {
		_, found, err := r.chats.GetTx(txn, chatID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: chat %q", errors.ErrNotFound, chatID)
		}
		messages, err = r.messages.ListTx(txn, chatID)
		return err
	})
	return messages, err
}

// Delete removes a chat together with its log.
func (r *ChatRepository) Delete(id string) (deleted bool, err error) {
	err = r.store.Update(func(txn *storage.Txn) error {
		deleted, err = r.deleteTx(txn, id)
		return err
	})
	return deleted, err
}

func (r *ChatRepository) DeleteMany(ids []string) (count int, err error) {
	err = r.store.Update(func(txn *storage.Txn) error {
		count = 0
		for _, id := range ids {
			deleted, err := r.deleteTx(txn, id)
			if err != nil {
				return err
			}
			if deleted {
				count++
			}
		}
		return nil
	})
	return count, err
}

// EnsureSeed writes the default chats and their logs once per store lifetime.
func (r *ChatRepository) EnsureSeed() error {
	seeds := domain.SeedChats(r.now())
	seeded := false
	err := r.store.Update(func(txn *storage.Txn) error {
		var err error
		seeded, err = txn.MarkSeeded(storage.KindChat)
		if err != nil || !seeded {
			return err
		}
		for _, seed := range seeds {
			if err = r.chats.PutTx(txn, seed.Chat); err != nil {
				return err
			}
			for _, m := range seed.Messages {
				if err = r.messages.AppendTx(txn, seed.Chat.ID, m.TS, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil && seeded {
		r.log.Info("Default chats seeded", "count", len(seeds))
	}
	return err
}

func (r *ChatRepository) deleteTx(txn *storage.Txn, id string) (bool, error) {
	deleted, err := r.chats.DeleteTx(txn, id)
	if err != nil || !deleted {
		return false, err
	}
	dropped, err := r.messages.DropTx(txn, id)
	if err != nil {
		return false, err
	}
	r.log.Debug("Chat deleted", "id", id, "messages", dropped)
	return true, nil
}
