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

	log.Printf("Starting dv agent...")
	log.Printf("Port: %d", cfg.DVAgentPort)
	log.Printf("Tool backend: %s", cfg.DVMCPURL)

	card := &protocol.AgentCard{
		Name:               "DV MCP Agent",
		Description:        "Composes visualizations and returns renderable HTML reports.",
		URL:                fmt.Sprintf("http://localhost:%d/", cfg.DVAgentPort),
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/html"},
		Capabilities:       protocol.AgentCapabilities{Streaming: false, PushNotifications: false},
		Skills: []protocol.AgentSkill{{
			ID:          "visualization_composer",
			Name:        "Visualization Composer MCP",
			Description: "Renders charts and HTML reports from processed pipeline output.",
			Tags:        []string{"visualization", "mcp", "html"},
		}},
	}

	mcp := mcpclient.NewClient(&http.Client{Timeout: cfg.ClientTimeout}, cfg.DVMCPURL)
	exec := executor.New(agents.NewDVHandler(mcp), taskstore.New())

	server := agenthttp.NewServer(card, exec)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.DVAgentPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("dv agent started on port %d", cfg.DVAgentPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down dv agent...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("dv agent stopped")
}
