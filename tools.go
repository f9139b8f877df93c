//go:build tools
// +build tools

// Package chatsync pins the code generators run by go generate, so that
// mockgen resolves to the version recorded in go.mod.
package chatsync

import (
	_ "go.uber.org/mock/mockgen"
)
