package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{line: "hello there", want: command{name: cmdSend, text: "hello there"}},
		{line: "  /chats ", want: command{name: cmdChats}},
		{line: "/open u1-u2", want: command{name: cmdOpen, args: []string{"u1-u2"}}},
		{line: "/open", wantErr: true},
		{line: "/open a b", wantErr: true},
		{line: "/new u2", want: command{name: cmdNew, args: []string{"u2"}}},
		{line: "/new u2 u3 -- Weekend plans", want: command{name: cmdNew, args: []string{"u2", "u3"}, title: "Weekend plans"}},
		{line: "/new -- title only", wantErr: true},
		{line: "/users", want: command{name: cmdUsers}},
		{line: "/users ali", want: command{name: cmdUsers, text: "ali"}},
		{line: "/name Neo", want: command{name: cmdName, text: "Neo"}},
		{line: "/name", wantErr: true},
		{line: "/quit", want: command{name: cmdQuit}},
		{line: "/dance", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
