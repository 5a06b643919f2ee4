package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTokenUsage_EstimateCost_KnownModel(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
	}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	// 1M input at $0.80 + 0.5M output at $4.00.
	assert.InDelta(t, 0.80+2.00, cost, 0.0001)
}

func TestTokenUsage_EstimateCost_UnknownModel(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000}
	assert.Equal(t, 0.0, usage.EstimateCost("some-future-model"))
}

func TestTokenUsage_EstimateCost_CacheTokens(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	// Cache writes at 1.25x input, cache reads at 0.1x input.
	assert.InDelta(t, 0.80*1.25+0.80*0.1, cost, 0.0001)
}

func TestMessageResponse_Text_ConcatenatesTextBlocks(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: `{"invoice_number":`},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: `"INV-1"}`},
		},
	}
	assert.Equal(t, `{"invoice_number":"INV-1"}`, resp.Text())
}

func TestCachedSystem(t *testing.T) {
	blocks := CachedSystem("You are an invoice extractor.")
	assert.Len(t, blocks, 1)
	assert.Equal(t, "You are an invoice extractor.", blocks[0].Text)
	assert.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "5m", blocks[0].CacheControl.TTL)
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient("test-key", WithModel("claude-sonnet-4-5-20250929"), WithMaxTokens(2048), WithRateLimit(5))
	sc, ok := c.(*sdkClient)
	assert.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-5-20250929", sc.model)
	assert.Equal(t, int64(2048), sc.maxTokens)
}

func TestTokenUsage_LogCost_EmitsAttribution(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(prev)

	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}
	usage.LogCost("claude-haiku-4-5-20251001", "messages.create")

	entries := logs.FilterMessage("cost attribution").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "claude-haiku-4-5-20251001", fields["model"])
	assert.Equal(t, "messages.create", fields["operation"])
	assert.Equal(t, int64(1_000_000), fields["input_tokens"])
	assert.InDelta(t, 2.80, fields["estimated_cost_usd"].(float64), 0.0001)
}
