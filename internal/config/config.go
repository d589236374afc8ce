// Package config provides configuration for the supervisor and agents.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds process configuration, loaded from environment variables.
type Config struct {
	// Server settings
	Host           string
	SupervisorPort int
	MLAgentPort    int
	DataAgentPort  int
	DVAgentPort    int

	// Agent base URLs (default to localhost on the configured ports)
	MLAgentURL   string
	DataAgentURL string
	DVAgentURL   string

	// Tool backend URLs
	MLMCPURL   string
	DataMCPURL string
	DVMCPURL   string

	// Database
	DatabaseURL string

	// Timeouts
	PipelineTimeout time.Duration
	ClientTimeout   time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		SupervisorPort:  getEnvInt("SUPERVISOR_PORT", 10500),
		MLAgentPort:     getEnvInt("ML_AGENT_PORT", 10200),
		DataAgentPort:   getEnvInt("DATA_AGENT_PORT", 10100),
		DVAgentPort:     getEnvInt("DV_AGENT_PORT", 10300),
		MLMCPURL:        getEnv("ML_MCP_URL", "http://localhost:10020"),
		DataMCPURL:      getEnv("DATA_MCP_URL", "http://localhost:10010"),
		DVMCPURL:        getEnv("DV_MCP_URL", "http://localhost:10030"),
		DatabaseURL:     getEnv("DATABASE_URL", "file:supervisor.db?cache=shared&mode=rwc"),
		PipelineTimeout: time.Duration(getEnvInt("PIPELINE_TIMEOUT_MS", 300000)) * time.Millisecond,
		ClientTimeout:   time.Duration(getEnvInt("CLIENT_TIMEOUT_MS", 900000)) * time.Millisecond,
	}
	cfg.MLAgentURL = getEnv("ML_AGENT_URL", fmt.Sprintf("http://localhost:%d", cfg.MLAgentPort))
	cfg.DataAgentURL = getEnv("DATA_AGENT_URL", fmt.Sprintf("http://localhost:%d", cfg.DataAgentPort))
	cfg.DVAgentURL = getEnv("DV_AGENT_URL", fmt.Sprintf("http://localhost:%d", cfg.DVAgentPort))
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
