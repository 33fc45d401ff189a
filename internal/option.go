package internal

import "github.com/tallyhq/tally/internal/ai"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	generator ai.Generator
	mcpStdio  bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGenerator overrides the AI generator (used by tests).
func WithGenerator(gen ai.Generator) Option {
	return func(a *application) {
		a.generator = gen
	}
}

// WithMCPStdio runs the MCP stdio server instead of the HTTP server.
func WithMCPStdio() Option {
	return func(a *application) {
		a.mcpStdio = true
	}
}
