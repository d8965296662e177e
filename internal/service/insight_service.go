package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"unity-within-go/internal/repository"
	"unity-within-go/pkg/ai"
	"unity-within-go/pkg/log"
)

const insightWindowDays = 14

// Insight 是一条数据分析洞察。
type Insight struct {
	Type  string `json:"type"` // PATTERN / SUGGESTION / WARNING
	Title string `json:"title"`
	Text  string `json:"text"`
}

// SourceLink 是一条权威来源链接。
type SourceLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// EducationalGuide 是一份主题深度指南。
type EducationalGuide struct {
	Title     string       `json:"title"`
	Synthesis string       `json:"synthesis"`
	Sources   []SourceLink `json:"sources"`
}

// InsightService 定义了各类生成式内容的业务接口。
// 所有方法都保证返回可用内容：生成失败时回退到静态文案。
type InsightService interface {
	Affirmation(ctx context.Context, mood string) string
	Reframe(ctx context.Context, anxiousThought string) string
	ValuesAffirmation(ctx context.Context, values []string) string
	Educational(ctx context.Context, topicTitle string) *EducationalGuide
	Insights(ctx context.Context, userID uint) []Insight
}

type insightService struct {
	orchestrator *ai.Orchestrator
	moodRepo     repository.MoodRepository
	journalRepo  repository.JournalRepository
	tinyWinRepo  repository.TinyWinRepository
}

// NewInsightService 创建一个新的 InsightService 实例。
func NewInsightService(
	orchestrator *ai.Orchestrator,
	moodRepo repository.MoodRepository,
	journalRepo repository.JournalRepository,
	tinyWinRepo repository.TinyWinRepository,
) InsightService {
	return &insightService{
		orchestrator: orchestrator,
		moodRepo:     moodRepo,
		journalRepo:  journalRepo,
		tinyWinRepo:  tinyWinRepo,
	}
}

// Affirmation 生成一条简短的每日肯定语。
func (s *insightService) Affirmation(ctx context.Context, mood string) string {
	prompt := fmt.Sprintf(`The user is feeling "%s". Write a short, beautiful, comforting daily affirmation (max 20 words) for them. No quotes, just the affirmation.`, mood)

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: "You are a supportive companion.",
	})
	if err != nil {
		return "You are enough, exactly as you are."
	}
	return strings.TrimSpace(result.Text)
}

// Reframe 为一条焦虑想法生成温和的重构视角。
func (s *insightService) Reframe(ctx context.Context, anxiousThought string) string {
	prompt := fmt.Sprintf(`The user has this anxious thought: "%s".
Provide a gentle, non-clinical, and compassionate reframe.
Start with "Try looking at it this way:"
Keep it under 40 words.`, anxiousThought)

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: "You are a compassionate companion.",
	})
	if err != nil {
		return "It is okay to feel this way, but remember that thoughts are not always facts."
	}
	return strings.TrimSpace(result.Text)
}

// ValuesAffirmation 基于用户价值观生成引导语。
func (s *insightService) ValuesAffirmation(ctx context.Context, values []string) string {
	prompt := fmt.Sprintf(`The user values: %s.
Write a short, gentle guiding statement (under 30 words) to help them feel direction and purpose based on these values.
Tone: Warm, hopeful, grounding.`, strings.Join(values, ", "))

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: "You are a supportive companion.",
	})
	if err != nil {
		return "Your values are your compass. Trust them to guide you forward."
	}
	return strings.TrimSpace(result.Text)
}

// Educational 生成主题深度指南，失败时回退到可信来源的检索链接。
func (s *insightService) Educational(ctx context.Context, topicTitle string) *EducationalGuide {
	searchSlug := strings.ReplaceAll(topicTitle, " ", "+")
	prompt := fmt.Sprintf(`Analyze information about "%s" from verified mental health authorities:
- Psychology Today (psychologytoday.com)
- Healthline (healthline.com)
- VeryWell Mind (verywellmind.com)
- Mayo Clinic (mayoclinic.org)
- Harvard Health (health.harvard.edu)

Task:
1. Synthesize the most common and effective advice from at least three of these sources into a "best-of" deep guide.
2. Ensure the tone is empathetic, deep, and grounded.
3. Include 3 STRICTLY REAL, WORKING URL links as sources.
4. IMPORTANT: If you are not 100%% sure of a specific article's deep-link slug, you MUST provide a search/category link for that topic on the trusted site instead (e.g., "https://www.healthline.com/search?q=%s").
5. Do NOT use placeholder URLs like example.com.
6. Format the output as JSON.

Output format:
{
  "title": "%s",
  "synthesis": "Markdown formatted content (approx 300-400 words). Include a deep definition, 3-5 expert-backed tips, and a soothing conclusion.",
  "sources": [
    {"name": "Psychology Today", "url": "https://www.psychologytoday.com/us/archive?search=%s"},
    {"name": "Healthline", "url": "https://www.healthline.com/search?q=%s"},
    {"name": "VeryWell Mind", "url": "https://www.verywellmind.com/search?q=%s"}
  ]
}`, topicTitle, searchSlug, topicTitle, searchSlug, searchSlug, searchSlug)

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: "You are a mental health researcher.",
		JSONMode:          true,
	})
	if err == nil && result.JSON != nil {
		var guide EducationalGuide
		if raw, marshalErr := json.Marshal(result.JSON); marshalErr == nil {
			if unmarshalErr := json.Unmarshal(raw, &guide); unmarshalErr == nil && guide.Synthesis != "" {
				if guide.Title == "" {
					guide.Title = topicTitle
				}
				return &guide
			}
		}
	}

	return &EducationalGuide{
		Title:     topicTitle,
		Synthesis: "We couldn't generate a deep guide right now, but please check these trusted sources for more information.",
		Sources: []SourceLink{
			{Name: "Psychology Today", URL: "https://www.psychologytoday.com/us/archive?search=" + searchSlug},
			{Name: "Healthline", URL: "https://www.healthline.com/search?q=" + searchSlug},
		},
	}
}

// Insights 汇总用户近 14 天的打卡数据并生成三条洞察。
// 数据不足或生成失败时返回对应的静态洞察组。
func (s *insightService) Insights(ctx context.Context, userID uint) []Insight {
	moods, err := s.moodRepo.FindRecentByUser(userID, insightWindowDays)
	if err != nil {
		log.Errorf("读取心情记录失败: %v", err)
	}
	journals, err := s.journalRepo.FindRecentByUser(userID, insightWindowDays)
	if err != nil {
		log.Errorf("读取日记失败: %v", err)
	}
	wins, err := s.tinyWinRepo.FindRecentByUser(userID, insightWindowDays)
	if err != nil {
		log.Errorf("读取小胜利记录失败: %v", err)
	}

	if len(moods) == 0 && len(journals) == 0 {
		return []Insight{
			{Type: "PATTERN", Title: "Starting Your Journey", Text: "Log your mood for a few days so I can help identify your unique emotional patterns."},
			{Type: "SUGGESTION", Title: "Daily Ritual", Text: "Try recording one small win today to start building your resilience bank."},
			{Type: "WARNING", Title: "Stay Consistent", Text: "Regular check-ins help us catch early signs of stress before they grow."},
		}
	}

	moodsJSON, _ := json.Marshal(moods)
	journalsJSON, _ := json.Marshal(journals)
	winsJSON, _ := json.Marshal(wins)

	prompt := fmt.Sprintf(`As an empathetic mental health AI analyst for youth, analyze this data and provide 3 distinct insights.
1. Pattern Detection: Identify a correlation (e.g., mood dips, certain times, link between journals and moods).
2. Personalized Suggestion: One specific micro-action based on their data.
3. Early Warning: Identify if stress is rising or if they haven't logged positive things lately.
Data:
User Data (Last 14 Days):
Moods: %s
Journals: %s
Tiny Wins: %s
Output MUST be JSON format exactly like this:
{
    "insights": [
        {"type": "PATTERN", "title": "Insight Title", "text": "Insight description..."},
        {"type": "SUGGESTION", "title": "Insight Title", "text": "Insight description..."},
        {"type": "WARNING", "title": "Insight Title", "text": "Insight description..."}
    ]
}`, moodsJSON, journalsJSON, winsJSON)

	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: "You are a mental health data analyst.",
		JSONMode:          true,
	})
	if err == nil && result.JSON != nil {
		var parsed struct {
			Insights []Insight `json:"insights"`
		}
		if raw, marshalErr := json.Marshal(result.JSON); marshalErr == nil {
			if unmarshalErr := json.Unmarshal(raw, &parsed); unmarshalErr == nil && len(parsed.Insights) > 0 {
				return parsed.Insights
			}
		}
	}

	return []Insight{
		{Type: "PATTERN", Title: "Keep Going", Text: "Tracking your data regularly helps us unlock more insights for you."},
		{Type: "SUGGESTION", Title: "Practice Mindfulness", Text: "Take 5 minutes today to practice deep breathing."},
		{Type: "WARNING", Title: "Data Insight", Text: "We need more data to provide deep personalized patterns."},
	}
}
