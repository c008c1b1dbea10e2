// Command mother starts the Mother agent host: it loads configuration
// from the environment, wires the sandbox, tool registry, scheduler, and
// chat transport together, and blocks until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EdibleTuber/mother/internal/agent"
	"github.com/EdibleTuber/mother/internal/channelstore"
	"github.com/EdibleTuber/mother/internal/config"
	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
	"github.com/EdibleTuber/mother/internal/llmbackend"
	"github.com/EdibleTuber/mother/internal/orchestrator"
	"github.com/EdibleTuber/mother/internal/queue"
	"github.com/EdibleTuber/mother/internal/scheduler"
	"github.com/EdibleTuber/mother/internal/telemetry"
	"github.com/EdibleTuber/mother/internal/tools"
	"github.com/EdibleTuber/mother/internal/transport"
	"github.com/EdibleTuber/mother/internal/transport/clitransport"
	"github.com/EdibleTuber/mother/internal/transport/discordtransport"
)

func main() {
	var sandbox string
	var useCLI bool

	root := &cobra.Command{
		Use:   "mother [workspace-dir]",
		Short: "Run the Mother agent host against a Discord or CLI transport",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := "."
			if len(args) == 1 {
				workspace = args[0]
			}
			return run(cmd.Context(), workspace, sandbox, useCLI)
		},
	}

	root.Flags().StringVar(&sandbox, "sandbox", "host", `"host" to run tools directly, or a running container name`)
	root.Flags().BoolVar(&useCLI, "cli", false, "use the stdin/stdout transport instead of Discord")

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("mother: fatal", "error", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a top-level failure to the process exit codes Mother
// documents: 1 for configuration problems, 2 for everything else.
func exitCodeFor(err error) int {
	if _, ok := err.(*configError); ok {
		return 1
	}
	return 2
}

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func run(ctx context.Context, workspace, sandbox string, useCLI bool) error {
	workspaceAbs, err := filepath.Abs(workspace)
	if err != nil {
		return &configError{fmt.Errorf("resolve workspace path: %w", err)}
	}
	if err := os.MkdirAll(workspaceAbs, 0o755); err != nil {
		return &configError{fmt.Errorf("create workspace: %w", err)}
	}

	cfg, err := config.Load()
	if err != nil {
		return &configError{err}
	}

	shutdownTelemetry := telemetry.Init()
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	var ex executor.Executor
	if sandbox == "" || sandbox == "host" {
		ex = executor.NewHostExecutor(workspaceAbs)
	} else {
		ex = executor.NewContainerExecutor(sandbox, workspaceAbs)
	}

	pathGuard := guard.NewPathGuard(workspaceAbs, cfg.AllowedPaths...)
	commandGuard := guard.NewCommandGuard()
	if cfg.AllowedCommands != "" {
		commandGuard.ApplyEnv(cfg.AllowedCommands)
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return &configError{err}
	}

	store := channelstore.New(workspaceAbs)
	downloads := channelstore.NewDownloadQueue(ctx, workspaceAbs, 64)

	var tr transport.ChatTransport
	if useCLI {
		tr = clitransport.New()
	} else {
		if cfg.BotToken == "" {
			return &configError{fmt.Errorf("BOT_TOKEN is required when not running with --cli")}
		}
		dt, err := discordtransport.New(cfg.BotToken, cfg.GuildID)
		if err != nil {
			return fmt.Errorf("build discord transport: %w", err)
		}
		tr = dt
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool(workspaceAbs, pathGuard, ex))
	registry.Register(tools.NewWriteFileTool(workspaceAbs, pathGuard, ex))
	registry.Register(tools.NewEditFileTool(workspaceAbs, pathGuard, ex))
	registry.Register(tools.NewBashTool(commandGuard, ex))
	registry.Register(tools.NewDelegateTool(cfg.DelegateBinary, workspaceAbs))
	registry.Register(tools.NewAttachTool(workspaceAbs, pathGuard, ex, tr))

	runner := agent.NewRunner(workspaceAbs, tr, backend, cfg.ModelID, registry, store, cfg.Models)

	q := queue.NewManager()
	orch := orchestrator.New(tr, store, downloads, q, runner)

	sched := scheduler.New(filepath.Join(workspaceAbs, "events"), orch)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- sched.Run(ctx) }()
	go func() { errCh <- orch.Run(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func buildBackend(cfg *config.Config) (llmbackend.Backend, error) {
	switch cfg.ModelProvider {
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API_KEY is required for MODEL_PROVIDER=anthropic")
		}
		return llmbackend.NewAnthropicBackend(cfg.APIKey, cfg.ModelID), nil
	case "openai":
		return llmbackend.NewOpenAICompatBackend(cfg.APIKey, cfg.LLMURL, cfg.ModelID), nil
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER %q", cfg.ModelProvider)
	}
}
