package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"unity-within-go/internal/model"
	"unity-within-go/pkg/ai"
)

type fakeConversationRepo struct {
	histories map[uint][]model.BuddieMessage
	updates   int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{histories: make(map[uint][]model.BuddieMessage)}
}

func (r *fakeConversationRepo) GetHistory(ctx context.Context, userID uint) ([]model.BuddieMessage, error) {
	return r.histories[userID], nil
}

func (r *fakeConversationRepo) UpdateHistory(ctx context.Context, userID uint, messages []model.BuddieMessage) error {
	r.histories[userID] = messages
	r.updates++
	return nil
}

func (r *fakeConversationRepo) IncrAbuseCount(ctx context.Context, userID uint, ttl time.Duration) (int64, error) {
	return 0, nil
}

func (r *fakeConversationRepo) GetAbuseCount(ctx context.Context, userID uint) (int64, error) {
	return 0, nil
}

// newBuddie 返回一个使用内置样本的服务实例。providers 为空时所有
// 生成调用都会落到兜底文案。
func newBuddie(convRepo *fakeConversationRepo, providers ...ai.Provider) BuddieService {
	orch := ai.NewOrchestrator(providers, 1, time.Second, time.Millisecond, time.Second)
	return NewBuddieService(orch, convRepo, "", "", "", 4, nil)
}

// TestRespond_GreetingShortCircuit verifies simple greetings are answered
// locally without touching the generation pipeline.
func TestRespond_GreetingShortCircuit(t *testing.T) {
	svc := newBuddie(newFakeConversationRepo())

	for _, msg := range []string{"hi", "Hello!", "sasa", "hey Buddie", "good morning"} {
		reply := svc.Respond(context.Background(), RespondInput{Message: msg})
		assert.Contains(t, humanGreetings, reply, "greeting %q should use a canned reply", msg)
	}
}

// TestRespond_GratitudeShortCircuit verifies thanks are answered locally.
func TestRespond_GratitudeShortCircuit(t *testing.T) {
	svc := newBuddie(newFakeConversationRepo())

	for _, msg := range []string{"thanks", "Thank you so much!", "asante"} {
		reply := svc.Respond(context.Background(), RespondInput{Message: msg})
		assert.Contains(t, humanGratitudeReplies, reply, "gratitude %q should use a canned reply", msg)
	}
}

// TestRespond_FallbackByMood verifies the mood-keyed fallback table when no
// provider is reachable.
func TestRespond_FallbackByMood(t *testing.T) {
	svc := newBuddie(newFakeConversationRepo())

	reply := svc.Respond(context.Background(), RespondInput{Message: "everything is too much", Mood: "sad"})
	assert.Equal(t, "I'm here with you. That feeling can be heavy. Pole sana. Would you like to breathe together?", reply)

	reply = svc.Respond(context.Background(), RespondInput{Message: "so much to do", Mood: "Anxious"})
	assert.Equal(t, "Take a moment. Just breathe. Hakuna matata - let's take it step by step.", reply)

	reply = svc.Respond(context.Background(), RespondInput{Message: "just checking in", Mood: "curious"})
	assert.Equal(t, "Thank you for sharing. How are you holding up?", reply)
}

// TestRespond_SavesHistoryOnSuccess verifies a generated reply appends both
// sides of the exchange to the stored history.
func TestRespond_SavesHistoryOnSuccess(t *testing.T) {
	convRepo := newFakeConversationRepo()
	svc := newBuddie(convRepo, &scriptedProvider{reply: "That sounds rough. Want to talk it through?"})

	reply := svc.Respond(context.Background(), RespondInput{UserID: 9, Message: "rough week honestly"})
	assert.Equal(t, "That sounds rough. Want to talk it through?", reply)

	history := convRepo.histories[9]
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "rough week honestly", history[0].Content)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
}

// TestRespond_FallbackSkipsHistory verifies fallback replies are not written
// into the conversation history.
func TestRespond_FallbackSkipsHistory(t *testing.T) {
	convRepo := newFakeConversationRepo()
	svc := newBuddie(convRepo)

	svc.Respond(context.Background(), RespondInput{UserID: 9, Message: "rough week honestly"})
	assert.Zero(t, convRepo.updates)
}

// TestBuildBuddieUserPrompt verifies the prompt assembly rules.
func TestBuildBuddieUserPrompt(t *testing.T) {
	// 空输入退化为固定问候
	assert.Equal(t, "Hello Buddie.", buildBuddieUserPrompt("", "", "", 0, nil))

	prompt := buildBuddieUserPrompt("I failed my exam", "sad", "long day", 7, nil)
	assert.Contains(t, prompt, `mood="sad"`)
	assert.Contains(t, prompt, `intensity="7"`)
	assert.Contains(t, prompt, `note="long day"`)
	assert.Contains(t, prompt, "Latest user message: I failed my exam")

	// 缺省强度标记为 unknown
	prompt = buildBuddieUserPrompt("", "sad", "", 0, nil)
	assert.Contains(t, prompt, `intensity="unknown"`)
}

// TestBuildBuddieUserPrompt_HistoryWindow verifies only the most recent six
// history entries make it into the prompt.
func TestBuildBuddieUserPrompt_HistoryWindow(t *testing.T) {
	var history []model.BuddieMessage
	for i := 0; i < 10; i++ {
		history = append(history, model.BuddieMessage{Role: model.RoleUser, Content: "entry"})
	}
	history[3].Content = "too old"
	history[9].Content = "most recent"

	prompt := buildBuddieUserPrompt("hi there friend", "", "", 0, history)
	assert.Contains(t, prompt, "most recent")
	assert.NotContains(t, prompt, "too old")
}

// TestSelectExamples_TokenOverlap verifies relevant calibration examples are
// preferred over the default ordering.
func TestSelectExamples_TokenOverlap(t *testing.T) {
	convRepo := newFakeConversationRepo()
	svc := newBuddie(convRepo).(*buddieService)

	selected := svc.selectExamples("I keep overthinking everything lately")
	require.NotEmpty(t, selected)
	assert.Equal(t, "I am overthinking everything.", selected[0].User)
}

// TestExtractTokens verifies normalization drops punctuation and short words.
func TestExtractTokens(t *testing.T) {
	tokens := extractTokens("I'm SO anxious... about exams!")
	assert.Equal(t, []string{"anxious", "about", "exams"}, tokens)
}
