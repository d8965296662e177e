package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 按预设脚本依次返回结果或错误。
type fakeProvider struct {
	name    string
	calls   int
	results []fakeCall
}

type fakeCall struct {
	text string
	err  error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	idx := p.calls
	p.calls++
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	call := p.results[idx]
	if call.err != nil {
		return nil, call.err
	}
	return finishResult(p.name, call.text, req.JSONMode, time.Now())
}

func newTestOrchestrator(providers ...Provider) *Orchestrator {
	return NewOrchestrator(providers, 2, time.Second, time.Millisecond, 5*time.Second)
}

// TestRun_FirstProviderWins verifies the first provider's success short-circuits
// the cascade: later providers are never called.
func TestRun_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", results: []fakeCall{{text: "hello"}}}
	second := &fakeProvider{name: "second", results: []fakeCall{{text: "unused"}}}

	res, err := newTestOrchestrator(first, second).Run(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "first", res.Provider)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}

// TestRun_FallsThroughOnFailure verifies an unavailable provider is skipped and
// the next one serves the request.
func TestRun_FallsThroughOnFailure(t *testing.T) {
	broken := &fakeProvider{name: "broken", results: []fakeCall{
		{err: newProviderError("broken", KindUnavailable, errors.New("connection refused"))},
	}}
	healthy := &fakeProvider{name: "healthy", results: []fakeCall{{text: "backup"}}}

	res, err := newTestOrchestrator(broken, healthy).Run(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "healthy", res.Provider)
	// unavailable 不重试，直接换下一个
	assert.Equal(t, 1, broken.calls)
}

// TestRun_RetriesOnRateLimit verifies a 429 is retried against the same
// provider before falling through.
func TestRun_RetriesOnRateLimit(t *testing.T) {
	flaky := &fakeProvider{name: "flaky", results: []fakeCall{
		{err: newProviderError("flaky", KindRateLimited, errors.New("429"))},
		{text: "second try"},
	}}

	res, err := newTestOrchestrator(flaky).Run(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "second try", res.Text)
	assert.Equal(t, 2, flaky.calls)
}

// TestRun_NoRetryOnAuthFailure verifies auth errors burn no retry budget.
func TestRun_NoRetryOnAuthFailure(t *testing.T) {
	unauthorized := &fakeProvider{name: "unauthorized", results: []fakeCall{
		{err: newProviderError("unauthorized", KindAuth, errors.New("401"))},
	}}
	healthy := &fakeProvider{name: "healthy", results: []fakeCall{{text: "ok"}}}

	res, err := newTestOrchestrator(unauthorized, healthy).Run(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "healthy", res.Provider)
	assert.Equal(t, 1, unauthorized.calls)
}

// TestRun_AllExhausted verifies the sentinel error when every provider fails.
func TestRun_AllExhausted(t *testing.T) {
	a := &fakeProvider{name: "a", results: []fakeCall{
		{err: newProviderError("a", KindUnavailable, errors.New("down"))},
	}}
	b := &fakeProvider{name: "b", results: []fakeCall{
		{err: newProviderError("b", KindAuth, errors.New("401"))},
	}}

	res, err := newTestOrchestrator(a, b).Run(context.Background(), CompletionRequest{Prompt: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
}

// TestRun_EmptyProviderList verifies zero providers short-circuits immediately.
func TestRun_EmptyProviderList(t *testing.T) {
	res, err := newTestOrchestrator().Run(context.Background(), CompletionRequest{Prompt: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
}

// TestRun_MalformedJSONFallsThrough verifies a provider that returns
// unparseable JSON in JSON mode is skipped without retries.
func TestRun_MalformedJSONFallsThrough(t *testing.T) {
	chatty := &fakeProvider{name: "chatty", results: []fakeCall{
		{text: "sorry, no JSON here"},
	}}
	strict := &fakeProvider{name: "strict", results: []fakeCall{
		{text: `{"insights": []}`},
	}}

	res, err := newTestOrchestrator(chatty, strict).Run(context.Background(), CompletionRequest{Prompt: "hi", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "strict", res.Provider)
	assert.NotNil(t, res.JSON)
	assert.Equal(t, 1, chatty.calls)
}

// TestRun_CanceledContext verifies a canceled context stops the cascade.
func TestRun_CanceledContext(t *testing.T) {
	slow := &fakeProvider{name: "slow", results: []fakeCall{{text: "never"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestOrchestrator(slow).Run(ctx, CompletionRequest{Prompt: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
	assert.Zero(t, slow.calls)
}

// blockingProvider 阻塞到上下文取消为止，模拟迟迟不响应的后端。
type blockingProvider struct{ name string }

func (p *blockingProvider) Name() string { return p.name }

func (p *blockingProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	<-ctx.Done()
	return nil, newProviderError(p.name, KindTimeout, ctx.Err())
}

// TestRun_MaxTotalWaitBoundsTimeouts verifies total wall clock stays within the
// configured bound when every provider times out on every attempt.
func TestRun_MaxTotalWaitBoundsTimeouts(t *testing.T) {
	providers := []Provider{
		&blockingProvider{name: "a"},
		&blockingProvider{name: "b"},
		&blockingProvider{name: "c"},
	}
	o := NewOrchestrator(providers, 3, 200*time.Millisecond, time.Millisecond, 500*time.Millisecond)

	started := time.Now()
	res, err := o.Run(context.Background(), CompletionRequest{Prompt: "hi"})
	elapsed := time.Since(started)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
	assert.Less(t, elapsed, time.Second, "cascade must give up once the total wait is spent")
}

// TestFinishResult_JSONMode verifies JSON recovery and the malformed error path.
func TestFinishResult_JSONMode(t *testing.T) {
	res, err := finishResult("p", "```json\n{\"k\":1}\n```", true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, float64(1), res.JSON["k"])

	_, err = finishResult("p", "not json", true, time.Now())
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindMalformed, perr.Kind)
}
