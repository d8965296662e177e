package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"unity-within-go/internal/model"
	"unity-within-go/pkg/ai"
)

// scriptedProvider 返回固定文本，用于驱动分类器测试。
type scriptedProvider struct {
	reply string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Result, error) {
	return &ai.Result{Text: p.reply, Provider: "scripted"}, nil
}

func newClassifier(reply string) ModerationService {
	orch := ai.NewOrchestrator([]ai.Provider{&scriptedProvider{reply: reply}}, 1, time.Second, time.Millisecond, time.Second)
	return NewModerationService(orch)
}

// TestClassify_Safe verifies a SAFE reply admits the message.
func TestClassify_Safe(t *testing.T) {
	verdict := newClassifier("SAFE").Classify(context.Background(), "how was your day")
	assert.True(t, verdict.Safe)
	assert.Empty(t, verdict.FlagType)
	assert.False(t, verdict.FailedOpen)
}

// TestClassify_Unsafe verifies an UNSAFE reply rejects with the UNSAFE flag.
func TestClassify_Unsafe(t *testing.T) {
	verdict := newClassifier("UNSAFE").Classify(context.Background(), "...")
	assert.False(t, verdict.Safe)
	assert.Equal(t, model.FlagUnsafe, verdict.FlagType)
}

// TestClassify_Crisis verifies a CRISIS reply rejects with the CRISIS flag.
func TestClassify_Crisis(t *testing.T) {
	verdict := newClassifier("CRISIS").Classify(context.Background(), "...")
	assert.False(t, verdict.Safe)
	assert.Equal(t, model.FlagCrisis, verdict.FlagType)
}

// TestClassify_CrisisPrecedence verifies CRISIS wins when the reply mentions
// both labels. UNSAFE contains the substring SAFE, so ordering matters twice.
func TestClassify_CrisisPrecedence(t *testing.T) {
	verdict := newClassifier("UNSAFE, possibly CRISIS").Classify(context.Background(), "...")
	assert.False(t, verdict.Safe)
	assert.Equal(t, model.FlagCrisis, verdict.FlagType)
}

// TestClassify_CaseAndWhitespace verifies verdicts survive sloppy formatting.
func TestClassify_CaseAndWhitespace(t *testing.T) {
	verdict := newClassifier("  crisis\n").Classify(context.Background(), "...")
	assert.Equal(t, model.FlagCrisis, verdict.FlagType)

	verdict = newClassifier("The verdict is: safe.").Classify(context.Background(), "...")
	assert.True(t, verdict.Safe)
}

// TestClassify_FailOpenOnExhaustion verifies the classifier admits the message
// when no provider is reachable, and marks the verdict as failed-open.
func TestClassify_FailOpenOnExhaustion(t *testing.T) {
	orch := ai.NewOrchestrator(nil, 1, time.Second, time.Millisecond, time.Second)
	verdict := NewModerationService(orch).Classify(context.Background(), "...")
	assert.True(t, verdict.Safe)
	assert.True(t, verdict.FailedOpen)
}

// TestClassify_FailOpenOnGibberish verifies an unparseable reply is treated
// as a classifier failure, not as a rejection.
func TestClassify_FailOpenOnGibberish(t *testing.T) {
	verdict := newClassifier("I cannot help with that").Classify(context.Background(), "...")
	assert.True(t, verdict.Safe)
	assert.True(t, verdict.FailedOpen)
}
