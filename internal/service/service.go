// Package service implements the pipeline orchestrator: it resolves the
// three worker agents at startup and runs the fixed ml -> data -> dv chain.
package service

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/triadflow/triad/internal/agentclient"
	"github.com/triadflow/triad/internal/config"
	"github.com/triadflow/triad/internal/hub"
	"github.com/triadflow/triad/internal/policy"
	"github.com/triadflow/triad/internal/repository"
)

// Agent roles, in pipeline order.
const (
	RoleML   = "ml"
	RoleData = "data"
	RoleDV   = "dv"
)

// Service coordinates the pipeline. One instance per process; the HTTP
// client and the per-role protocol clients are long-lived and reused
// across runs.
type Service struct {
	cfg          *config.Config
	store        repository.Store
	policyEngine *policy.Engine
	hub          *hub.Hub
	httpClient   *http.Client
	agents       map[string]*agentclient.Client
}

// New creates the service. Agents are not resolved yet; call ResolveAgents
// before serving requests.
func New(cfg *config.Config, store repository.Store, policyEngine *policy.Engine, h *hub.Hub) *Service {
	return &Service{
		cfg:          cfg,
		store:        store,
		policyEngine: policyEngine,
		hub:          h,
		httpClient:   &http.Client{Timeout: cfg.ClientTimeout},
		agents:       make(map[string]*agentclient.Client),
	}
}

// ResolveAgents fetches the card of every pipeline agent. Any failure is
// returned as-is and must abort startup: there is no partial pipeline.
func (s *Service) ResolveAgents(ctx context.Context) error {
	bases := map[string]string{
		RoleML:   s.cfg.MLAgentURL,
		RoleData: s.cfg.DataAgentURL,
		RoleDV:   s.cfg.DVAgentURL,
	}

	for role, baseURL := range bases {
		resolver := agentclient.NewCardResolver(s.httpClient, baseURL)
		log.Printf("Fetching agent card from %s", baseURL)
		card, err := resolver.Resolve(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve %s agent: %w", role, err)
		}
		s.agents[role] = agentclient.NewClient(s.httpClient, card)
		log.Printf("%s agent card fetched: %s", role, card.Name)
	}

	return nil
}

// Store exposes the run-history store for the transport layer.
func (s *Service) Store() repository.Store {
	return s.store
}

// Hub exposes the pipeline event hub for the transport layer.
func (s *Service) Hub() *hub.Hub {
	return s.hub
}

// Config exposes the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// CheckQuestion evaluates the ask policy for a question.
func (s *Service) CheckQuestion(ctx context.Context, question string) (string, error) {
	if s.policyEngine == nil {
		return policy.DecisionAllow, nil
	}
	return s.policyEngine.Evaluate(ctx, question)
}
