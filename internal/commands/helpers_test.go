package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/diogo/chatpanel/internal/api"
	"github.com/diogo/chatpanel/internal/chat"
	"github.com/diogo/chatpanel/internal/config"
	"github.com/diogo/chatpanel/internal/tui"
)

// testEnv wires Dependencies to in-memory doubles
type testEnv struct {
	deps   *Dependencies
	mock   *api.MockClient
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	clientCfg *config.Config
	tuiCalls  int
	tuiCtrl   *chat.Controller
	tuiOpts   tui.Options
}

func newTestEnv(t *testing.T, results ...api.MockResult) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	env := &testEnv{
		mock:   &api.MockClient{Results: results, EndpointVal: "http://localhost:5001/chat"},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}

	env.deps = &Dependencies{
		LoadConfig: func() (config.Config, error) {
			return config.DefaultConfig(), nil
		},
		NewClient: func(cfg config.Config, _ zerolog.Logger) (api.ChatClient, error) {
			env.clientCfg = &cfg
			return env.mock, nil
		},
		RunTUI: func(_ context.Context, ctrl *chat.Controller, _ api.ChatClient, opts tui.Options) error {
			env.tuiCalls++
			env.tuiCtrl = ctrl
			env.tuiOpts = opts
			return nil
		},
		IsTerminal: func() bool { return false },
		Stdout:     env.stdout,
		Stderr:     env.stderr,
	}
	return env
}

// exec runs the command tree with args and returns the exit status
func (e *testEnv) exec(args ...string) int {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return run(context.Background(), cmd, e.stderr)
}

func (e *testEnv) withStdin(r io.Reader) *testEnv {
	e.deps.Stdin = r
	return e
}
