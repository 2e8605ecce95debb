package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaycode/codeagent/internal/agentloop"
	"github.com/relaycode/codeagent/internal/config"
	"github.com/relaycode/codeagent/internal/introspect"
	"github.com/relaycode/codeagent/internal/logging"
	"github.com/relaycode/codeagent/internal/provider"
	"github.com/relaycode/codeagent/internal/storage"
	"github.com/relaycode/codeagent/internal/tool"
	"github.com/relaycode/codeagent/internal/vcs"
	"github.com/spf13/cobra"
)

var (
	serveDir  string
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only introspection endpoint",
	Long: `Serve starts the optional introspection HTTP endpoint (/healthz,
/status) alongside an idle Agent Loop, so operators can poll task-summary
retention and the current git branch out-of-process. It accepts no task:
use 'codeagent run' to actually drive the agent.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Workspace directory (defaults to the current directory)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", introspect.DefaultConfig().Addr, "Bind address for the introspection endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	providerReg, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	store := storage.New(paths.StoragePath())
	toolReg := tool.DefaultRegistry(workDir, store)
	loop := agentloop.New(appConfig, toolReg, providerReg)

	watcher, err := vcs.NewWatcher(workDir)
	if err != nil {
		logging.Warn().Err(err).Msg("vcs watcher unavailable; /status will omit branch state")
	}
	if watcher != nil {
		watcher.Start()
		defer watcher.Stop()
	}

	srv := introspect.New(&introspect.Config{Addr: serveAddr, EnableCORS: true}, loop, watcher)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(os.Stdout, "introspection endpoint listening on %s (/healthz, /status)\n", serveAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
