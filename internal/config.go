package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	APIPrefix         string        `env:"API_PREFIX,default=/api"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/chat-sync"`
	BadgerInMemory    bool          `env:"BADGER_IN_MEMORY,default=false"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	SessionSecret     string        `env:"SESSION_SECRET,required=true"`
	SessionDuration   time.Duration `env:"SESSION_DURATION,default=24h"`
	CurrentUserID     string        `env:"CURRENT_USER_ID,default=u1"`
	SequenceBandwidth int           `env:"SEQUENCE_BANDWIDTH,default=100"`
	MaxPageSize       int           `env:"MAX_PAGE_SIZE,default=100"`
	DebugPort         *int          `env:"DEBUG_PORT"`
	MonitorInterval   time.Duration `env:"MONITOR_INTERVAL,default=5s"`
	// CENSORED_WORDS is a comma separated dictionary, empty disables moderation
	CensoredWords string `env:"CENSORED_WORDS"`
}

// Validate rejects values the environment parser cannot catch.
func (c Config) Validate() error {
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters, got %d", len(c.SessionSecret))
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", c.SessionDuration)
	}
	if c.SequenceBandwidth <= 0 {
		return fmt.Errorf("SEQUENCE_BANDWIDTH must be positive, got %d", c.SequenceBandwidth)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive, got %s", c.MonitorInterval)
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("MAX_PAGE_SIZE must be positive, got %d", c.MaxPageSize)
	}
	if !c.BadgerInMemory && c.BadgerFilepath == "" {
		return fmt.Errorf("BADGER_FILEPATH is required unless BADGER_IN_MEMORY is set")
	}
	return nil
}

// CensoredWordList splits CENSORED_WORDS, dropping blank entries.
func (c Config) CensoredWordList() []string {
	words := lo.Map(strings.Split(c.CensoredWords, ","), func(word string, _ int) string {
		return strings.TrimSpace(word)
	})
	return lo.Compact(words)
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
