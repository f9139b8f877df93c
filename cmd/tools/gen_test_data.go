package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"chat-sync/domain"
	"chat-sync/repositories"
	"chat-sync/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// gen_test_data fills a store with synthetic users, direct chats and
// messages, to try the inspector and the client on a busier board.
func main() {
	dbPath := flag.String("db", "./data/chat-sync", "Path to badger DB")
	users := flag.Int("users", 50, "Number of users to create")
	chats := flag.Int("chats", 100, "Number of direct chats to create")
	messages := flag.Int("messages", 20, "Messages per chat")
	flag.Parse()

	if err := generate(*dbPath, *users, *chats, *messages); err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}
}

func generate(path string, userCount, chatCount, messageCount int) error {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return err
	}
	defer db.Close()

	log := logs.GetLoggerFromLevel(slog.LevelInfo)
	store := storage.NewStore(db, log, 1000)
	defer func() { _ = store.Close() }()

	userRepository := repositories.NewUserRepository(store, log)
	chatRepository := repositories.NewChatRepository(store, log)
	if err = userRepository.EnsureSeed(); err != nil {
		return err
	}
	if err = chatRepository.EnsureSeed(); err != nil {
		return err
	}

	created := make([]domain.User, 0, userCount)
	for i := range userCount {
		user, err := userRepository.Create(domain.User{
			Name:      fmt.Sprintf("User %03d", i),
			AvatarURL: domain.AvatarURL(fmt.Sprintf("gen-%d", i)),
			Online:    lo.ToPtr(rand.IntN(2) == 0),
		})
		if err != nil {
			return err
		}
		created = append(created, user)
	}
	if len(created) < 2 {
		return fmt.Errorf("at least 2 users are needed, got %d", len(created))
	}

	chatsCreated := 0
	for range chatCount {
		pair := lo.Samples(created, 2)
		chat, isNew, err := chatRepository.Create(domain.Chat{
			ID:           domain.ResolveChatID(lo.Map(pair, func(u domain.User, _ int) string { return u.ID }), false),
			Type:         domain.DIRECT,
			Participants: pair,
			LastMessage:  domain.InitialLastMessage,
		})
		if err != nil {
			return err
		}
		if !isNew {
			continue
		}
		chatsCreated++
		for j := range messageCount {
			author := pair[j%2]
			if _, err = chatRepository.SendMessage(chat.ID, author.ID, fmt.Sprintf("message %d from %s", j, author.Name)); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Generated %d users and %d chats in %s\n", len(created), chatsCreated, path)
	return nil
}
