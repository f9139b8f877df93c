package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-sync/client"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips the suite when no
// server is configured.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL is not set")
	}
}

// WithClient runs fn as a named step with a fresh API client.
func (s *BaseHTTPSuite) WithClient(name string, fn func(ctx context.Context, api *client.APIClient)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	api, err := client.NewAPIClient(client.Config{
		BaseURL:        s.Config.ServerURL,
		RequestTimeout: 10 * time.Second,
		ConnectTimeout: 2 * time.Second,
	})
	s.Require().NoError(err, "Failed to build a client for "+s.Config.ServerURL)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	fn(ctx, api)
}

// Dump logs v as indented JSON when E2E_DEBUG_JSON is enabled.
func (s *BaseHTTPSuite) Dump(label string, v any) {
	if !s.Config.DebugJSON {
		return
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.T().Logf("%s: %v", label, err)
		return
	}
	s.T().Logf("%s:\n%s", label, raw)
}
