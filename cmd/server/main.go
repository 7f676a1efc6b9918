package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/health"
	"github.com/SkySingh04/DreamOps-sub000/pkg/k8s"
	"github.com/SkySingh04/DreamOps-sub000/pkg/notifier"
	"github.com/SkySingh04/DreamOps-sub000/pkg/pipeline"
	"github.com/SkySingh04/DreamOps-sub000/pkg/remediation"
	"github.com/SkySingh04/DreamOps-sub000/pkg/server"
	"github.com/SkySingh04/DreamOps-sub000/pkg/skills"
	"github.com/SkySingh04/DreamOps-sub000/pkg/telemetry"
	"github.com/SkySingh04/DreamOps-sub000/pkg/tools"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.SetupLogging()

	slog.Info("starting dreamops-remediator",
		"port", cfg.Port,
		"clusterName", cfg.ClusterName,
		"executorMode", cfg.ExecutorMode,
		"otelEnabled", cfg.OTelEnabled,
	)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTelemetry(ctx, cfg.OTelEnabled, cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdown()
	if cfg.OTelEnabled {
		telemetry.SetupOTelLogging(cfg.SlogLevel())
	}

	exec, err := buildExecutor(cfg)
	if err != nil {
		slog.Error("failed to initialize command executor", "error", err)
		os.Exit(1)
	}

	var notify notifier.Notifier = notifier.Noop{}
	if slack := notifier.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID); slack.IsConfigured() {
		notify = slack
		slog.Info("slack resolution notifications enabled", "channel", cfg.SlackChannelID)
	}

	actions := remediation.NewActions(exec, cfg.Policy)
	pipe := pipeline.New(exec, actions, cfg.Policy, notify)

	skillRegistry := skills.NewRegistry()
	skillRegistry.Register(&skills.PlaybookSkill{Cfg: cfg})
	skillRegistry.Register(&skills.SizingSkill{Cfg: cfg})

	registry := tools.NewRegistry()
	baseTool := tools.BaseTool{Cfg: cfg, Pipeline: pipe}
	registry.Register(&tools.RemediateIncidentTool{BaseTool: baseTool})
	registry.Register(&tools.DiagnoseIncidentTool{BaseTool: baseTool})
	registry.Register(&tools.RunbookTool{BaseTool: baseTool, Skills: skillRegistry})

	prober := health.NewProber(exec, func(available bool) {
		if !available {
			slog.Warn("command executor unreachable, marking not ready")
		}
	})
	go prober.Start(ctx)

	srv := server.NewServer(registry, prober.Status().IsReady, cfg.Port)

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		slog.Error("server stopped", "error", err)
	}

	slog.Info("dreamops-remediator stopped")
}

// buildExecutor selects the command transport configured for this
// deployment.
func buildExecutor(cfg *config.Config) (executor.Executor, error) {
	switch cfg.ExecutorMode {
	case config.ExecutorNative:
		clients, err := k8s.NewClients()
		if err != nil {
			return nil, err
		}
		return k8s.NewNativeExecutor(clients), nil
	case config.ExecutorMCP:
		if cfg.MCPServerURL == "" {
			return nil, fmt.Errorf("executor mode %q requires MCP_SERVER_URL", cfg.ExecutorMode)
		}
		return executor.NewMCPExecutor(cfg.MCPServerURL, cfg.Policy.CommandTimeout), nil
	default:
		return executor.NewKubectlExecutor(cfg.KubectlPath, cfg.Policy.CommandTimeout), nil
	}
}
