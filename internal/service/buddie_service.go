package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"unity-within-go/internal/model"
	"unity-within-go/internal/repository"
	"unity-within-go/pkg/ai"
	"unity-within-go/pkg/log"
)

// buddieSystemInstruction 是 Buddie 的基础人格设定，
// 少样本校准内容会在其后追加。
const buddieSystemInstruction = `
You are BUDDIE (also known as Unity), a warm, emotionally intelligent digital companion for Unity Within.
You are not a formal assistant. You are a supportive, human-like friend who listens deeply, responds gently, and brings lightness when it helps.

CORE PERSONALITY
- Emotionally intelligent, warm, calm in heavy moments, playful in light moments.
- Cheerful and hopeful without being fake-positive.
- Naturally funny in a kind, relatable way (never forced, never mocking).

EMOTIONAL INTELLIGENCE FIRST
1) Notice the emotional tone.
2) Validate and reflect it sincerely.
3) Offer warmth and gentle support.
4) Add light humor only if it is safe and helpful.

HUMOR STYLE
- Gentle, kind, relatable, slightly witty, culturally warm.
- No sarcasm that could hurt, no jokes about trauma, loss, or self-harm.
- Use humor to lift, never to dismiss.

CONVERSATION STYLE
- Natural, conversational, human-paced.
- Short to medium responses by default.
- Avoid academic tone and avoid robotic lists unless asked.

SUPPORT STYLE
- Encourage small, doable steps: breathing, journaling, reflection, self-kindness.
- Never command or pressure; guide like a caring friend.
- Celebrate small wins and check in naturally.

CULTURAL CONTEXT (KENYA FOCUS)
- Warm, communal tone. Phrases like "Pole" or "take it pole pole" are welcome when natural.
- Be sensitive to academic pressure, family expectations, financial stress, and stigma.
- Acknowledge faith if the user brings it up, remain inclusive.

CRISIS SAFETY MODE (NON-NEGOTIABLE)
If a user expresses intent of self-harm, suicide, or immediate danger:
- Pause normal flow. No humor.
- Respond with calm, compassionate support and encourage reaching out now.
- Provide resources: "In Kenya, contact UNITY WITHIN Support at +254 715 765 561, call 1199 (Red Cross), or +254 722 178 177 (Befrienders Kenya). If elsewhere, use local emergency services."
- Do not attempt therapy in severe crisis.

TONE DO AND DO NOT
- Do: sound like a kind friend who listens without judgment.
- Do not: diagnose, use clinical jargon, or use toxic positivity.
`

var (
	simpleGreetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|yo|hiya|heya|good\s*(morning|afternoon|evening)|howdy|what'?s\s*up|sup|sasa|niaje|mambo|hallo|hola)(\s+buddie|\s+unity)?[!,.?\s]*$`)
	gratitudePattern      = regexp.MustCompile(`(?i)^(thanks|thank\s*you|asante|shukran)(\s+so\s+much)?[!,.?\s]*$`)
	questionPattern       = regexp.MustCompile(`(?i)\?|\b(why|how|what|when|where|can|could|would|should|is|are|do|did)\b`)
	nonAlnumPattern       = regexp.MustCompile(`[^a-z0-9\s]`)
	spacesPattern         = regexp.MustCompile(`\s+`)
)

var humanGreetings = []string{
	"Hey 👋 I'm here with you. How are you feeling right now?",
	"Hi there 💙 Good to see you. What's on your mind today?",
	"Hello! I'm listening. Do you want to talk about your day?",
	"Hey, karibu 🤍 I'm here for you. How are you holding up?",
}

var humanGratitudeReplies = []string{
	"Always 🤍 I got you. Want to keep talking a bit?",
	"You're welcome. I'm here anytime you need me.",
	"Anytime, friend ✨ You're not alone in this.",
}

// StyleExample 是一条对话风格校准样本。
type StyleExample struct {
	User    string `json:"user"`
	Buddie  string `json:"buddie"`
	Intent  string `json:"intent"`
	Emotion string `json:"emotion"`
}

// defaultStyleExamples 在没有任何校准数据集时兜底。
var defaultStyleExamples = []StyleExample{
	{User: "Hey, I feel off today.", Buddie: "Hey 🤍 I hear you. Want to tell me what felt heavy today?", Intent: "emotional-checkin", Emotion: "low"},
	{User: "I am overthinking everything.", Buddie: "That spiral is exhausting. Let's slow it down together—what thought keeps looping most?", Intent: "anxiety-support", Emotion: "anxious"},
	{User: "I had a good day for once.", Buddie: "I love that for you ✨ What made today feel lighter?", Intent: "positive-reflection", Emotion: "happy"},
	{User: "Can we just talk?", Buddie: "Absolutely. I'm here, no pressure, no judgment. What's on your mind right now?", Intent: "open-conversation", Emotion: "neutral"},
}

// RespondInput 是一次陪伴对话请求的输入。
type RespondInput struct {
	UserID    uint // 0 表示未登录用户，不读写服务端历史
	Message   string
	Mood      string
	Note      string
	Intensity int // 0 表示未提供
	History   []model.BuddieMessage
}

// BuddieService 定义了陪伴对话的业务接口。
type BuddieService interface {
	Respond(ctx context.Context, input RespondInput) string
}

type buddieService struct {
	orchestrator *ai.Orchestrator
	convRepo     repository.ConversationRepository
	examples     []StyleExample
	fewShotCount int
	rng          *rand.Rand
}

// DatasetFetcher 抽象了远端校准数据集的读取，MinIO 客户端满足此接口。
type DatasetFetcher func(ctx context.Context, objectName string) ([]byte, error)

// NewBuddieService 创建一个新的 BuddieService 实例并加载校准数据集。
// 优先从对象存储拉取，失败时回退到本地文件，再退到内置样本。
func NewBuddieService(
	orchestrator *ai.Orchestrator,
	convRepo repository.ConversationRepository,
	dialogPath, counselingPath, datasetObject string,
	fewShotCount int,
	fetcher DatasetFetcher,
) BuddieService {
	if fewShotCount <= 0 {
		fewShotCount = 4
	}
	examples := loadCalibrationExamples(dialogPath, counselingPath, datasetObject, fetcher)
	return &buddieService{
		orchestrator: orchestrator,
		convRepo:     convRepo,
		examples:     examples,
		fewShotCount: fewShotCount,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// loadCalibrationExamples 合并各来源的校准样本并按 user::buddie 去重。
func loadCalibrationExamples(dialogPath, counselingPath, datasetObject string, fetcher DatasetFetcher) []StyleExample {
	var merged []StyleExample

	if datasetObject != "" && fetcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		data, err := fetcher(ctx, datasetObject)
		cancel()
		if err != nil {
			log.Warnf("从对象存储拉取校准数据集失败: %v", err)
		} else {
			merged = append(merged, parseStyleExamples(data, datasetObject)...)
		}
	}
	merged = append(merged, loadExamplesFromFile(dialogPath, "DailyDialog")...)
	merged = append(merged, loadExamplesFromFile(counselingPath, "MentalHealthCounseling")...)

	if len(merged) == 0 {
		log.Warnf("没有加载到任何校准数据集，Buddie 将使用内置风格样本")
		return defaultStyleExamples
	}

	deduped := make([]StyleExample, 0, len(merged))
	seen := make(map[string]struct{})
	for _, ex := range merged {
		key := ex.User + "::" + ex.Buddie
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, ex)
	}

	log.Infof("Buddie 校准就绪，共 %d 条样本", len(deduped))
	return deduped
}

func loadExamplesFromFile(path, label string) []StyleExample {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("读取 %s 数据集失败: %v", label, err)
		return nil
	}
	examples := parseStyleExamples(data, label)
	log.Infof("已加载 %d 条 %s 校准样本", len(examples), label)
	return examples
}

// parseStyleExamples 兼容 user/context 与 assistant/reply 两种字段命名。
func parseStyleExamples(data []byte, label string) []StyleExample {
	var raw []struct {
		User      string `json:"user"`
		Context   string `json:"context"`
		Assistant string `json:"assistant"`
		Reply     string `json:"reply"`
		Intent    string `json:"intent"`
		Emotion   string `json:"emotion"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warnf("%s 数据集必须是 JSON 数组: %v", label, err)
		return nil
	}

	examples := make([]StyleExample, 0, len(raw))
	for _, item := range raw {
		user := strings.TrimSpace(item.User)
		if user == "" {
			user = strings.TrimSpace(item.Context)
		}
		buddie := strings.TrimSpace(item.Assistant)
		if buddie == "" {
			buddie = strings.TrimSpace(item.Reply)
		}
		if user == "" || buddie == "" {
			continue
		}
		examples = append(examples, StyleExample{
			User:    user,
			Buddie:  buddie,
			Intent:  strings.TrimSpace(item.Intent),
			Emotion: strings.TrimSpace(item.Emotion),
		})
	}
	return examples
}

// Respond 生成一条陪伴回复。问候与感谢消息走本地短路，
// 其余走生成管线，全部失败时按心情返回兜底文案。
func (s *buddieService) Respond(ctx context.Context, input RespondInput) string {
	message := strings.TrimSpace(input.Message)

	if message != "" && simpleGreetingPattern.MatchString(message) {
		return humanGreetings[s.rng.Intn(len(humanGreetings))]
	}
	if message != "" && gratitudePattern.MatchString(message) {
		return humanGratitudeReplies[s.rng.Intn(len(humanGratitudeReplies))]
	}

	history := input.History
	// 客户端未带历史时，从服务端读取
	if len(history) == 0 && input.UserID > 0 {
		stored, err := s.convRepo.GetHistory(ctx, input.UserID)
		if err != nil {
			log.Warnf("读取陪伴对话历史失败: %v", err)
		} else {
			history = stored
		}
	}

	userPrompt := buildBuddieUserPrompt(message, input.Mood, input.Note, input.Intensity, history)
	instruction := s.buildSystemInstruction(userPrompt)

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            userPrompt,
		SystemInstruction: instruction,
	})
	if err != nil {
		log.Warnw("陪伴回复生成失败，使用兜底文案", "error", err)
		return buddieFallback(input.Mood)
	}

	reply := strings.TrimSpace(result.Text)
	if reply == "" {
		return buddieFallback(input.Mood)
	}

	if input.UserID > 0 && message != "" {
		now := time.Now()
		history = append(history,
			model.BuddieMessage{Role: model.RoleUser, Content: message, Timestamp: now},
			model.BuddieMessage{Role: model.RoleAssistant, Content: reply, Timestamp: now},
		)
		if err := s.convRepo.UpdateHistory(ctx, input.UserID, history); err != nil {
			log.Warnf("保存陪伴对话历史失败: %v", err)
		}
	}
	return reply
}

// buildSystemInstruction 在人格设定后追加与当前输入最相关的少样本。
func (s *buddieService) buildSystemInstruction(userPrompt string) string {
	examples := s.selectExamples(userPrompt)
	if len(examples) == 0 {
		return buddieSystemInstruction
	}

	blocks := make([]string, 0, len(examples))
	for i, ex := range examples {
		var tags []string
		if ex.Intent != "" {
			tags = append(tags, "intent="+ex.Intent)
		}
		if ex.Emotion != "" {
			tags = append(tags, "emotion="+ex.Emotion)
		}
		tagLine := ""
		if len(tags) > 0 {
			tagLine = " (" + strings.Join(tags, ", ") + ")"
		}
		blocks = append(blocks, fmt.Sprintf("Example %d%s\nUser: %s\nBuddie: %s", i+1, tagLine, ex.User, ex.Buddie))
	}

	return buddieSystemInstruction +
		"\n\nNATURAL CONVERSATION CALIBRATION\n" +
		"Use the examples below only to improve smooth, human pacing and tone for everyday conversation.\n" +
		"Do NOT copy text verbatim.\n" +
		"Safety and crisis rules above always override style examples.\n\n" +
		strings.Join(blocks, "\n\n")
}

// selectExamples 按词元重合度为样本打分，问句倾向额外加一分。
// 得分为零的样本不入选，不足时按原顺序补齐。
func (s *buddieService) selectExamples(userPrompt string) []StyleExample {
	if len(s.examples) == 0 {
		return nil
	}

	userTokens := make(map[string]struct{})
	for _, token := range extractTokens(userPrompt) {
		userTokens[token] = struct{}{}
	}
	userHasQuestion := questionPattern.MatchString(userPrompt)

	type scored struct {
		example StyleExample
		score   int
		order   int
	}
	ranked := make([]scored, 0, len(s.examples))
	for i, ex := range s.examples {
		overlap := 0
		for _, token := range extractTokens(ex.User) {
			if _, ok := userTokens[token]; ok {
				overlap++
			}
		}
		score := overlap
		if userHasQuestion && questionPattern.MatchString(ex.User) {
			score++
		}
		ranked = append(ranked, scored{example: ex, score: score, order: i})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	selected := make([]StyleExample, 0, s.fewShotCount)
	chosen := make(map[string]struct{})
	for _, item := range ranked {
		if item.score <= 0 || len(selected) >= s.fewShotCount {
			break
		}
		selected = append(selected, item.example)
		chosen[item.example.User+"::"+item.example.Buddie] = struct{}{}
	}
	if len(selected) >= s.fewShotCount {
		return selected
	}
	for _, ex := range s.examples {
		if len(selected) >= s.fewShotCount {
			break
		}
		if _, ok := chosen[ex.User+"::"+ex.Buddie]; ok {
			continue
		}
		selected = append(selected, ex)
	}
	return selected
}

func normalizeText(value string) string {
	lower := strings.ToLower(value)
	cleaned := nonAlnumPattern.ReplaceAllString(lower, " ")
	return strings.TrimSpace(spacesPattern.ReplaceAllString(cleaned, " "))
}

// extractTokens 返回长度不小于 3 的词元。
func extractTokens(value string) []string {
	cleaned := normalizeText(value)
	if cleaned == "" {
		return nil
	}
	var tokens []string
	for _, token := range strings.Split(cleaned, " ") {
		if len(token) >= 3 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// buildBuddieUserPrompt 拼装发给模型的用户侧提示。
// 历史最多保留最近 6 条，保证提示长度可控。
func buildBuddieUserPrompt(message, mood, note string, intensity int, history []model.BuddieMessage) string {
	if message == "" && mood == "" {
		return "Hello Buddie."
	}

	var chunks []string

	if len(history) > 6 {
		history = history[len(history)-6:]
	}
	if len(history) > 0 {
		chunks = append(chunks, "Recent conversation context (most recent last):")
		for _, entry := range history {
			role := "User"
			if entry.Role == model.RoleAssistant || entry.Role == "model" {
				role = "Buddie"
			}
			text := strings.TrimSpace(entry.Content)
			if text == "" {
				continue
			}
			chunks = append(chunks, role+": "+text)
		}
		chunks = append(chunks, "")
	}

	if mood != "" {
		intensityText := "unknown"
		if intensity > 0 {
			intensityText = fmt.Sprintf("%d", intensity)
		}
		noteText := note
		if noteText == "" {
			noteText = "none"
		}
		chunks = append(chunks, fmt.Sprintf("Mood context: user reports mood=%q intensity=%q note=%q", mood, intensityText, noteText))
	}

	if message != "" {
		chunks = append(chunks, "Latest user message: "+message)
	}

	chunks = append(chunks,
		"Respond like a caring close friend: natural, warm, and human.",
		"Use simple everyday language with contractions.",
		"Keep it concise (2-4 sentences), and ask at most one follow-up question.",
	)

	return strings.Join(chunks, "\n")
}

// buddieFallback 按心情返回静态兜底文案。
func buddieFallback(mood string) string {
	switch strings.ToLower(mood) {
	case "sad", "depressed", "grief":
		return "I'm here with you. That feeling can be heavy. Pole sana. Would you like to breathe together?"
	case "stressed", "anxious", "overwhelmed":
		return "Take a moment. Just breathe. Hakuna matata - let's take it step by step."
	default:
		return "Thank you for sharing. How are you holding up?"
	}
}
