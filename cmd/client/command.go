package main

import (
	"fmt"
	"strings"
)

type commandName string

const (
	cmdSend  commandName = "send"
	cmdChats commandName = "chats"
	cmdOpen  commandName = "open"
	cmdNew   commandName = "new"
	cmdUsers commandName = "users"
	cmdName  commandName = "name"
	cmdQuit  commandName = "quit"
	cmdHelp  commandName = "help"
)

const usage = `Commands:
  /chats                     list chats
  /open <chat id>            open a chat
  /new <user ids...> [-- t]  start a chat, a title is required for groups
  /users [query]             list or search users
  /name <name>               change your display name
  /quit                      leave
Anything else is sent to the open chat.`

type command struct {
	name  commandName
	args  []string
	title string
	text  string
}

// parseCommand reads one input line. Lines not starting with '/' are messages.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{name: cmdSend, text: line}, nil
	}
	head, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)

	switch commandName(head) {
	case cmdChats, cmdQuit, cmdHelp:
		return command{name: commandName(head)}, nil
	case cmdOpen:
		if rest == "" || strings.Contains(rest, " ") {
			return command{}, fmt.Errorf("usage: /open <chat id>")
		}
		return command{name: cmdOpen, args: []string{rest}}, nil
	case cmdNew:
		ids, title, _ := strings.Cut(rest, "--")
		fields := strings.Fields(ids)
		if len(fields) == 0 {
			return command{}, fmt.Errorf("usage: /new <user ids...> [-- title]")
		}
		return command{name: cmdNew, args: fields, title: strings.TrimSpace(title)}, nil
	case cmdUsers:
		return command{name: cmdUsers, text: rest}, nil
	case cmdName:
		if rest == "" {
			return command{}, fmt.Errorf("usage: /name <name>")
		}
		return command{name: cmdName, text: rest}, nil
	default:
		return command{}, fmt.Errorf("unknown command /%s, try /help", head)
	}
}
