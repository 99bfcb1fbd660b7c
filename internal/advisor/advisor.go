package advisor

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/asvab-prep/backend/internal/models"
)

// Advisor turns an ability report into plain-language study
// recommendations.
type Advisor struct {
	llm   LLMClient
	model string
}

func NewAdvisor() *Advisor {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_ADVISOR") == "true" || os.Getenv("ANTHROPIC_API_KEY") == "" {
		llm = NewMockClient()
		log.Println("Advisor using mock responses")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		llm = NewAPIClient(model)
		log.Println("Advisor using Anthropic API:", model)
	}

	return &Advisor{llm: llm, model: model}
}

func (a *Advisor) ModelName() string {
	return a.model
}

// StudyPlanResponse is the advisor's output for one learner.
type StudyPlanResponse struct {
	UserID    string `json:"user_id"`
	Plan      string `json:"plan"`
	ModelUsed string `json:"model_used"`
	Message   string `json:"message"`
}

// StudyPlan asks the model for recommendations grounded in the learner's
// ability report.
func (a *Advisor) StudyPlan(ctx context.Context, report *models.UserAbilityResponse) (*StudyPlanResponse, error) {
	resp, err := a.llm.Generate(ctx, systemPrompt(), buildUserPrompt(report))
	if err != nil {
		return nil, fmt.Errorf("generate study plan: %w", err)
	}

	return &StudyPlanResponse{
		UserID:    report.UserID,
		Plan:      strings.TrimSpace(resp.Content),
		ModelUsed: a.model,
		Message:   "Study plan generated successfully",
	}, nil
}

func systemPrompt() string {
	return `You are a study coach for a military aptitude exam prep app.
You receive a learner's ability report: an overall ability on a standard-normal
scale (-3 weakest, +3 strongest) and per-topic abilities with confidence
scores. Write a short, concrete study plan: which topics to prioritize, what
difficulty to practice at, and how to check progress. Plain prose, no
headings, at most 150 words.`
}

func buildUserPrompt(report *models.UserAbilityResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall ability: %.2f (confidence %.2f, %d responses)\n",
		report.OverallAbility, report.Confidence, report.NumResponses)

	// Weakest topics first so the model leads with them.
	topics := make([]models.TopicAbility, len(report.MainTopicAbilities))
	copy(topics, report.MainTopicAbilities)
	sort.Slice(topics, func(i, j int) bool { return topics[i].Ability < topics[j].Ability })

	b.WriteString("Topic abilities (weakest first):\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "- topic %s: ability %.2f, confidence %.2f, %d responses\n",
			t.TopicID, t.Ability, t.Confidence, t.NumResponses)
	}
	return b.String()
}
