package protocol

// Discovery paths served by every agent.
const (
	WellKnownCardPath = "/.well-known/agent-card.json"
	CardAliasPath     = "/agent.json"
)

// AgentCapabilities advertises optional protocol features.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// AgentSkill is a declared capability tag, informational only.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AgentCard identifies a remote agent: name, base address, capabilities.
// Immutable once resolved; the supervisor caches it for the process
// lifetime and re-resolves only on restart.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	Skills             []AgentSkill      `json:"skills,omitempty"`
}
