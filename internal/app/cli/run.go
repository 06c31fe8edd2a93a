package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	platformobservability "github.com/Apurer/storefront-client/internal/platform/observability"
)

const serviceName = "storefront-cli"

// Run executes one CLI invocation. Settings come from the environment, with
// a .env file in the working directory filling in anything unset.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogOutput(stderr))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()

	factory := func(ctx context.Context) (*App, func(), error) {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		return NewApp(ctx, cfg, instruments)
	}
	return Execute(ctx, factory, args, stdout, stderr)
}

// Execute runs the command tree over args with an explicit App factory.
func Execute(ctx context.Context, factory AppFactory, args []string, stdout, stderr io.Writer) error {
	root, closeApp := NewRootCommand(factory)
	defer closeApp()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
