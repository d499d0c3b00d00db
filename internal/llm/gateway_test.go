package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_ReturnsTrimmedText(t *testing.T) {
	mock := NewMockProvider(TextResponse("  Bonjour docteur.\n"))
	g := NewGateway(mock, GatewayConfig{Temperature: 0.7}, nil)

	got := g.Generate(context.Background(), "prompt")
	assert.Equal(t, "Bonjour docteur.", got)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, 0.7, mock.Calls[0].Temperature)
	assert.Equal(t, 1024, mock.Calls[0].MaxTokens)
	assert.Equal(t, []string{"prompt"}, mock.Prompts())
}

func TestGateway_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		resp MockResponse
	}{
		{"provider error", MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}},
		{"quota", MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}}},
		{"empty text", TextResponse("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var purposes []string
			g := NewGateway(NewMockProvider(tt.resp), GatewayConfig{}, nil)
			g.OnFallback(func(p string) { purposes = append(purposes, p) })

			got := g.Generate(WithPurpose(context.Background(), PurposeTutorReply), "prompt")
			assert.Equal(t, DefaultFallback, got)
			assert.Equal(t, []string{"tutor-reply"}, purposes)
		})
	}
}

func TestGateway_NilProvider(t *testing.T) {
	g := NewGateway(nil, GatewayConfig{Fallback: "indisponible"}, nil)
	assert.Equal(t, "indisponible", g.Generate(context.Background(), "x"))
	assert.Equal(t, "indisponible", g.Fallback())

	_, err := g.GenerateStructured(context.Background(), "sys", "x", testSchema())
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestGateway_TimeoutBoundsHangingCalls(t *testing.T) {
	g := NewGateway(blockingProvider{}, GatewayConfig{Timeout: 10 * time.Millisecond}, nil)

	start := time.Now()
	got := g.Generate(context.Background(), "x")
	assert.Equal(t, DefaultFallback, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGateway_GenerateStructured(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"a","age":3}`)})
	g := NewGateway(mock, GatewayConfig{}, nil)

	raw, err := g.GenerateStructured(context.Background(), "system", "prompt", testSchema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","age":3}`, string(raw))
	assert.Equal(t, "system", mock.Calls[0].System)
	assert.NotNil(t, mock.Calls[0].Schema)

	_, err = g.GenerateStructured(context.Background(), "system", "prompt", testSchema())
	assert.Error(t, err, "empty mock queue surfaces as an error")
}

func TestGatewayConfigFrom(t *testing.T) {
	gc := GatewayConfigFrom(DefaultConfig())
	assert.Equal(t, 30*time.Second, gc.Timeout)
	assert.Equal(t, 0.7, gc.Temperature)
	assert.Equal(t, DefaultFallback, gc.Fallback)
}
