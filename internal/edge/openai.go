package edge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

const insightSystemPrompt = "You are an organisational psychologist. Given team survey metrics on a 0-5 scale " +
	"(higher engagement and cohesion are better, higher friction is worse), write three short, concrete " +
	"recommendations for the team lead. Do not quote comments verbatim."

// OpenAIInsights generates insights directly against an OpenAI-compatible API.
type OpenAIInsights struct {
	client  *openai.Client
	model   string
	observe func(target, outcome string)
}

// NewOpenAIInsights builds a generator. An empty baseURL uses the OpenAI default.
func NewOpenAIInsights(apiKey, baseURL, model string, observe func(target, outcome string)) *OpenAIInsights {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIInsights{client: openai.NewClientWithConfig(cfg), model: model, observe: observe}
}

// BuildInsightMessages renders the chat prompt. Only the first five comments
// are sent.
func BuildInsightMessages(p analytics.InsightPayload) ([]openai.ChatCompletionMessage, error) {
	summary := struct {
		Department string                     `json:"department"`
		Engagement float64                    `json:"avgEngagement"`
		Cohesion   float64                    `json:"avgCohesion"`
		Friction   float64                    `json:"avgFriction"`
		TeamGoals  map[analytics.TeamGoal]int `json:"teamGoalDistribution"`
		Comments   []string                   `json:"verbalComments"`
		RiskTier   analytics.RiskLevel        `json:"riskTier"`
	}{
		Department: p.DepartmentName,
		Engagement: p.AvgEngagement,
		Cohesion:   p.AvgCohesion,
		Friction:   p.AvgFriction,
		TeamGoals:  p.TeamGoalDistribution,
		Comments:   p.FirstComments(analytics.InsightCommentLimit),
		RiskTier:   analytics.FrictionClassification(p.AvgFriction),
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: insightSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: string(data)},
	}, nil
}

func (o *OpenAIInsights) GenerateInsight(ctx context.Context, payload analytics.InsightPayload) (string, error) {
	msgs, err := BuildInsightMessages(payload)
	if err != nil {
		return "", err
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: 0.4,
		MaxTokens:   600,
	})
	if err != nil {
		o.report("error")
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Target: targetInsight, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		o.report("empty")
		return "", errors.New("no completion returned")
	}
	o.report("ok")
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIInsights) report(outcome string) {
	if o.observe != nil {
		o.observe("openai", outcome)
	}
}
