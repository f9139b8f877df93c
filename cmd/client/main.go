package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chat-sync/client"
	"chat-sync/domain"
	"chat-sync/runtime/workers"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, keeps the selected chat synchronized and turns stdin lines
// into commands until /quit, EOF or a termination signal.
func run() (int, error) {
	_ = godotenv.Load()
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.NewAPIClient(client.Config{
		BaseURL:        config.ServerURL,
		RequestTimeout: config.RequestTimeout,
		ConnectTimeout: config.ConnectTimeout,
	})
	if err != nil {
		return exitConfig, err
	}

	supervisor := workers.NewSupervisor(log)
	syncer := client.NewSyncer(ctx, api, supervisor, log, config.PollInterval)
	defer syncer.Close()

	out := &printer{out: os.Stdout, colours: config.Colours}
	if err = client.LoginWithRetry(ctx, syncer, config.Email, config.Password, config.LoginRetry, log); err != nil {
		return exitRuntime, fmt.Errorf("login against %s failed: %w", config.ServerURL, err)
	}
	state := syncer.Snapshot()
	out.info(fmt.Sprintf("Logged in as %s. Type /help for commands.", state.User.Name))
	out.chats(state)

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	supervisor.Start(feedCtx, newFeedPrinter(syncer, out))

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			quit, err := execute(ctx, syncer, out, line)
			if err != nil {
				out.fail(err)
			}
			if quit {
				return exitOK, nil
			}
		}
	}
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

// execute runs one command. It reports whether the client should exit.
func execute(ctx context.Context, syncer *client.Syncer, out *printer, line string) (bool, error) {
	cmd, err := parseCommand(line)
	if err != nil {
		return false, err
	}

	switch cmd.name {
	case cmdQuit:
		return true, nil
	case cmdHelp:
		out.info(usage)
	case cmdChats:
		syncer.FetchChats(ctx)
		out.chats(syncer.Snapshot())
	case cmdOpen:
		state := syncer.Snapshot()
		if !lo.ContainsBy(state.Chats, func(c domain.Chat) bool { return c.ID == cmd.args[0] }) {
			return false, fmt.Errorf("no chat %q, try /chats", cmd.args[0])
		}
		syncer.Select(cmd.args[0])
	case cmdNew:
		chat, err := syncer.CreateChat(ctx, cmd.args, cmd.title)
		if err != nil {
			return false, err
		}
		syncer.Select(chat.ID)
	case cmdUsers:
		if cmd.text == "" {
			syncer.FetchUsers(ctx)
			out.users(syncer.Snapshot().Users)
			return false, nil
		}
		users, err := syncer.SearchUsers(ctx, cmd.text)
		if err != nil {
			return false, err
		}
		out.users(users)
	case cmdName:
		user, err := syncer.UpdateProfile(ctx, domain.UserPatch{Name: lo.ToPtr(cmd.text)})
		if err != nil {
			return false, err
		}
		out.info("You are now " + user.Name)
	case cmdSend:
		if cmd.text == "" {
			return false, nil
		}
		chatID := syncer.Snapshot().SelectedChatID
		if chatID == "" {
			return false, fmt.Errorf("no open chat, try /open <chat id>")
		}
		if _, err := syncer.SendMessage(ctx, chatID, cmd.text); err != nil {
			return false, err
		}
	}
	return false, nil
}
