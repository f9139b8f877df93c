package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"chat-sync/client"
	"chat-sync/domain"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// printer renders the synchronized state on a terminal.
type printer struct {
	out     io.Writer
	colours bool
	mu      sync.Mutex
}

func (p *printer) style(s string, styles ...color.Color) string {
	if !p.colours {
		return s
	}
	return color.New(styles...).Render(s)
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *printer) info(msg string) {
	p.printf("%s\n", p.style(msg, color.FgCyan))
}

func (p *printer) fail(err error) {
	p.printf("%s\n", p.style("error: "+err.Error(), color.FgRed))
}

func (p *printer) message(m domain.ChatMessage, users map[string]domain.User, selfID string) {
	author := lo.ValueOr(users, m.UserID, domain.User{Name: m.UserID}).Name
	style := color.FgYellow
	if m.UserID == selfID {
		author = "you"
		style = color.FgGreen
	}
	at := time.UnixMilli(m.TS).Format("15:04")
	p.printf("%s %s %s\n", p.style(at, color.FgGray), p.style(author+":", style, color.OpBold), m.Text)
}

func (p *printer) chats(state client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"", "ID", "Chat", "Last message", "Unread"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	for _, chat := range state.Chats {
		marker := ""
		if chat.ID == state.SelectedChatID {
			marker = ">"
		}
		table.Append([]string{marker, chat.ID, chatLabel(chat, state.User), truncate(chat.LastMessage, 40), fmt.Sprint(chat.UnreadCount)})
	}
	table.Render()
}

func (p *printer) users(users []domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"ID", "Name", "Online"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, u := range users {
		online := "?"
		if u.Online != nil {
			online = fmt.Sprint(*u.Online)
		}
		table.Append([]string{u.ID, u.Name, online})
	}
	table.Render()
}

// chatLabel names a group by its title and a direct chat by the other side.
func chatLabel(chat domain.Chat, self *domain.User) string {
	if chat.IsGroup() {
		return chat.Title
	}
	names := lo.FilterMap(chat.Participants, func(u domain.User, _ int) (string, bool) {
		return u.Name, self == nil || u.ID != self.ID
	})
	return strings.Join(names, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// feedPrinter prints the messages of the selected chat as they show up in
// the synchronized state, and poll errors once per distinct failure.
type feedPrinter struct {
	syncer  *client.Syncer
	printer *printer
	printed map[string]bool
	lastErr string
	chatID  string
}

func newFeedPrinter(syncer *client.Syncer, p *printer) *feedPrinter {
	return &feedPrinter{syncer: syncer, printer: p, printed: make(map[string]bool)}
}

func (f *feedPrinter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.syncer.Updates():
			f.render(f.syncer.Snapshot())
		}
	}
}

func (f *feedPrinter) render(state client.State) {
	if state.SelectedChatID != f.chatID {
		f.chatID = state.SelectedChatID
		if chat, ok := lo.Find(state.Chats, func(c domain.Chat) bool { return c.ID == state.SelectedChatID }); ok {
			f.printer.info(fmt.Sprintf("── %s ──", chatLabel(chat, state.User)))
		}
	}

	users := lo.KeyBy(state.Users, func(u domain.User) string { return u.ID })
	selfID := ""
	if state.User != nil {
		selfID = state.User.ID
	}
	for _, m := range state.Messages() {
		if f.printed[m.ID] {
			continue
		}
		f.printed[m.ID] = true
		f.printer.message(m, users, selfID)
	}

	errText := ""
	if state.LastError != nil {
		errText = state.LastError.Error()
	}
	if errText != f.lastErr {
		f.lastErr = errText
		if errText != "" {
			f.printer.fail(state.LastError)
		}
	}
}
