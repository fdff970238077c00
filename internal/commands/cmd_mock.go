package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/mockserver"
	"github.com/colonyops/mrview/internal/printer"
)

type MockServerCmd struct {
	flags    *Flags
	addr     string
	fixtures string
}

// NewMockServerCmd creates a new mock-server command
func NewMockServerCmd(flags *Flags) *MockServerCmd {
	return &MockServerCmd{flags: flags}
}

// Register adds the mock-server command to the application
func (cmd *MockServerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "mock-server",
		Usage:     "Run an in-memory merge request backend",
		UsageText: "mrview mock-server [--addr :8000] [--fixtures file.yaml]",
		Description: `Serves the merge request REST API from YAML fixtures for local
development. State lives in memory and resets on restart.

Point the client at it with MRVIEW_BASE_URL=http://localhost:8000 and one of
the fixture tokens in MRVIEW_TOKEN.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       ":8000",
				Sources:     cli.EnvVars("MRVIEW_MOCK_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "fixtures",
				Usage:       "YAML fixtures file (defaults to the built-in demo data)",
				Destination: &cmd.fixtures,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *MockServerCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cmd.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cmd.addr, err)
	}

	return cmd.serve(ctx, ln)
}

// serve runs the backend on ln until ctx is cancelled.
func (cmd *MockServerCmd) serve(ctx context.Context, ln net.Listener) error {
	p := printer.Ctx(ctx)
	log := logging.Component("mockserver")

	fx, err := mockserver.LoadFixtures(cmd.fixtures)
	if err != nil {
		_ = ln.Close()
		return err
	}

	backend := mockserver.New(mockserver.NewStore(fx.Records), mockserver.Options{
		Users:  fx.Users,
		Logger: log,
	})

	srv := &http.Server{
		Handler:      backend.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	p.Successf("Serving %d merge request(s) on http://%s", len(fx.Records), ln.Addr())
	for _, token := range slices.Sorted(maps.Keys(fx.Users)) {
		p.Infof("token %s authenticates as user %d", token, fx.Users[token])
	}
	log.Info().Str("addr", ln.Addr().String()).Int("records", len(fx.Records)).Msg("mock server started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("mock server stopped")
	return nil
}
