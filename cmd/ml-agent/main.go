package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triadflow/triad/internal/agenthttp"
	"github.com/triadflow/triad/internal/agents"
	"github.com/triadflow/triad/internal/config"
	"github.com/triadflow/triad/internal/executor"
	"github.com/triadflow/triad/internal/mcpclient"
	"github.com/triadflow/triad/internal/protocol"
	"github.com/triadflow/triad/internal/taskstore"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting ml agent...")
	log.Printf("Port: %d", cfg.MLAgentPort)
	log.Printf("Tool backend: %s", cfg.MLMCPURL)

	card := &protocol.AgentCard{
		Name:               "ML MCP Agent",
		Description:        "Trains and evaluates models and selects the query methods for a question.",
		URL:                fmt.Sprintf("http://localhost:%d/", cfg.MLAgentPort),
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Capabilities:       protocol.AgentCapabilities{Streaming: false, PushNotifications: false},
		Skills: []protocol.AgentSkill{{
			ID:          "model_trainer",
			Name:        "Model Trainer MCP",
			Description: "Selects query methods and trains models via the ML MCP service.",
			Tags:        []string{"ml", "mcp", "training"},
		}},
	}

	mcp := mcpclient.NewClient(&http.Client{Timeout: cfg.ClientTimeout}, cfg.MLMCPURL)
	exec := executor.New(agents.NewMLHandler(mcp), taskstore.New())

	server := agenthttp.NewServer(card, exec)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.MLAgentPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("ml agent started on port %d", cfg.MLAgentPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down ml agent...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("ml agent stopped")
}
