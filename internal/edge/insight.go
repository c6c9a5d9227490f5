package edge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

const targetInsight = "insight"

// InsightClient calls the hosted insight function with the dashboard summary.
type InsightClient struct {
	client *Client
	url    string
}

func NewInsightClient(url string, opts Options, log *logrus.Entry) *InsightClient {
	return &InsightClient{client: NewClient(opts, log), url: url}
}

type insightReply struct {
	Insight string `json:"insight"`
	Content string `json:"content"`
	Error   string `json:"error"`
}

func (c *InsightClient) GenerateInsight(ctx context.Context, payload analytics.InsightPayload) (string, error) {
	rep, err := c.client.postJSON(ctx, targetInsight, c.url, payload)
	if err != nil {
		return "", err
	}
	if !strings.Contains(rep.contentType, "json") {
		return strings.TrimSpace(string(rep.body)), nil
	}
	var out insightReply
	if err := json.Unmarshal(rep.body, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	if out.Insight != "" {
		return out.Insight, nil
	}
	return out.Content, nil
}
