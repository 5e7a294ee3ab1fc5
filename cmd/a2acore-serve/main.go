package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentbridge/a2acore/pkg/a2a"
	"github.com/agentbridge/a2acore/pkg/agent"
	"github.com/agentbridge/a2acore/pkg/config"
	coreerrors "github.com/agentbridge/a2acore/pkg/errors"
	"github.com/agentbridge/a2acore/pkg/engine"
	"github.com/agentbridge/a2acore/pkg/jsonrpc"
	"github.com/agentbridge/a2acore/pkg/metrics"
	"github.com/agentbridge/a2acore/pkg/sse"
	"github.com/agentbridge/a2acore/pkg/stores"
	"github.com/agentbridge/a2acore/pkg/webhook"
)

var (
	portFlag    int
	hostFlag    string
	agentIDFlag string

	rootCmd = &cobra.Command{
		Use:   "a2acore-serve",
		Short: "Serve the A2A protocol engine with a reference echo agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
)

func init() {
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 8080, "Port to serve on")
	rootCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
	rootCmd.Flags().StringVar(&agentIDFlag, "agent-id", "a2acore-echo", "Agent id advertised in the AgentCard")

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		charmlog.Fatal("fatal error", "error", err)
	}
}

func serve() error {
	url := fmt.Sprintf("http://%s:%d", hostFlag, portFlag)

	cfg := config.Load(viper.GetViper(), "default")
	if cfg.AgentID == "" {
		cfg.AgentID = agentIDFlag
	}

	taskStore := stores.NewInMemoryTaskStore()
	webhookStore := stores.NewInMemoryWebhookConfigStore()
	streamRegistry := sse.NewRegistry()

	webhookMetrics := metrics.NewWebhookMetrics()

	pipeline := webhook.NewPipeline(
		cfg.AgentID,
		cfg.QueueCapacity,
		cfg.WorkerCount,
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithRetryConfig(&coreerrors.RetryConfig{
			MaxAttempts:    cfg.MaxRetries,
			InitialDelay:   cfg.BaseDelay,
			MaxDelay:       cfg.MaxDelay,
			BackoffFactor:  cfg.Multiplier,
			JitterFraction: 0.2,
		}),
		webhook.WithMetricsHooks(
			func() { webhookMetrics.Enqueued.Add(1) },
			func() { webhookMetrics.Dropped.Add(1) },
			func() { webhookMetrics.Delivered.Add(1) },
			func() { webhookMetrics.Failed.Add(1) },
		),
	)
	defer pipeline.Shutdown()

	card := &a2a.AgentCard{
		ID:      cfg.AgentID,
		Name:    "A2A Core Echo Agent",
		Version: "0.3.0",
		URL:     url,
		TransportInterfaces: []a2a.TransportInterface{
			{Protocol: "jsonrpc", Version: "0.3.0", URL: url},
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{
			{ID: "echo", Name: "Echo"},
		},
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("invalid agent card: %w", err)
	}

	handler := engine.NewHandler(taskStore, webhookStore, streamRegistry, pipeline, agent.NewEcho(), cfg, card)

	rpcServer := jsonrpc.NewServer()
	handler.RegisterRPC(rpcServer)

	mux := http.NewServeMux()
	mux.Handle("/rpc", rpcServer)
	mux.Handle("/stream", handler.StreamHandler())

	mux.HandleFunc("/.well-known/agent.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(handler.AssembleCard()); err != nil {
			charmlog.Error("failed to encode agent card", "error", err)
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "healthy",
			"webhook": webhookMetrics.GetMetrics(),
			"stream":  handler.StreamMetrics().GetMetrics(),
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", hostFlag, portFlag),
		Handler: mux,
	}

	go func() {
		charmlog.Info("a2acore serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			charmlog.Fatal("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	charmlog.Info("shutting down a2acore")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
