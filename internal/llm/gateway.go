package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GatewayConfig tunes free-text generation.
type GatewayConfig struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	Fallback    string
}

// GatewayConfigFrom extracts the gateway settings from a provider Config.
func GatewayConfigFrom(cfg Config) GatewayConfig {
	return GatewayConfig{
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Fallback:    cfg.Fallback,
	}
}

// Gateway turns a prompt into reply text. Generate never fails: any
// provider error, timeout or empty answer yields the fallback apology, so
// callers can keep a consultation going while the service is degraded.
type Gateway struct {
	provider   Provider
	cfg        GatewayConfig
	logger     *zap.Logger
	onFallback func(purpose string)
}

// NewGateway creates a Gateway. A nil provider is allowed and makes every
// Generate call return the fallback text.
func NewGateway(p Provider, cfg GatewayConfig, logger *zap.Logger) *Gateway {
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{provider: p, cfg: cfg, logger: logger}
}

// OnFallback registers a hook invoked with the request purpose every time
// the fallback text is served.
func (g *Gateway) OnFallback(fn func(purpose string)) {
	g.onFallback = fn
}

// Fallback returns the apology text served on failure.
func (g *Gateway) Fallback() string {
	return g.cfg.Fallback
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *Gateway) Generate(ctx context.Context, prompt string) string {
	purpose := PurposeFrom(ctx)

	if g.provider == nil {
		g.logger.Warn("no generation provider configured", zap.String("purpose", purpose))
		return g.fallback(purpose)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.provider.Generate(ctx, Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		g.logger.Error("generation failed",
			zap.String("purpose", purpose),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
		return g.fallback(purpose)
	}

	text := strings.TrimSpace(string(resp.Content))
	if text == "" {
		g.logger.Warn("generation returned empty text", zap.String("purpose", purpose))
		return g.fallback(purpose)
	}
	return text
}

// GenerateStructured requests a JSON document conforming to schema. Unlike
// Generate it reports failures to the caller.
func (g *Gateway) GenerateStructured(ctx context.Context, system, prompt string, schema *Schema) (json.RawMessage, error) {
	if g.provider == nil {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("no provider configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.provider.Generate(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Schema:    schema,
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("structured generation: %w", err)
	}
	return resp.Content, nil
}

func (g *Gateway) fallback(purpose string) string {
	if g.onFallback != nil {
		g.onFallback(purpose)
	}
	return g.cfg.Fallback
}
