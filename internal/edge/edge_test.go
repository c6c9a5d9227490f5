package edge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/growpoint/internal/analytics"
)

func quietLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func fastOpts() Options {
	return Options{APIKey: "k", Timeout: time.Second, MaxElapsed: time.Second, InitialInterval: 5 * time.Millisecond}
}

func TestInsightClientPostsPayload(t *testing.T) {
	var got analytics.InsightPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"insight":"Hold a retro."}`))
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, fastOpts(), quietLog())
	text, err := c.GenerateInsight(context.Background(), analytics.InsightPayload{DepartmentName: "Eng", AvgFriction: 2.5})
	require.NoError(t, err)
	assert.Equal(t, "Hold a retro.", text)
	assert.Equal(t, "Eng", got.DepartmentName)
	assert.Equal(t, 2.5, got.AvgFriction)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  third time lucky "))
	}))
	defer srv.Close()

	var outcomes []string
	opts := fastOpts()
	opts.Observe = func(target, outcome string) { outcomes = append(outcomes, target+":"+outcome) }
	c := NewInsightClient(srv.URL, opts, quietLog())

	text, err := c.GenerateInsight(context.Background(), analytics.InsightPayload{})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", text)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"insight:ok"}, outcomes)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	var outcomes []string
	opts := fastOpts()
	opts.Observe = func(target, outcome string) { outcomes = append(outcomes, outcome) }
	c := NewInsightClient(srv.URL, opts, quietLog())

	_, err := c.GenerateInsight(context.Background(), analytics.InsightPayload{})
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusTooManyRequests, serr.HTTPStatus())
	assert.Equal(t, "slow down", serr.Body)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"rate_limited"}, outcomes)
}

func TestClientMissingURL(t *testing.T) {
	_, err := NewInsightClient("", fastOpts(), quietLog()).GenerateInsight(context.Background(), analytics.InsightPayload{})
	assert.ErrorContains(t, err, "not configured")
}

func TestSpeechClientRawAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		assert.Equal(t, "nova", req.Voice)
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	audio, ct, err := NewSpeechClient(srv.URL, fastOpts(), quietLog()).Synthesize(context.Background(), "hello", "nova")
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(audio))
	assert.Equal(t, "audio/wav", ct)
}

func TestSpeechClientBase64Reply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"audioContent": base64.StdEncoding.EncodeToString([]byte("ID3"))})
	}))
	defer srv.Close()

	audio, ct, err := NewSpeechClient(srv.URL, fastOpts(), quietLog()).Synthesize(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(audio))
	assert.Equal(t, "audio/mpeg", ct)
}

func TestBuildInsightMessagesUsesFirstFiveComments(t *testing.T) {
	p := analytics.InsightPayload{
		DepartmentName: "Eng",
		AvgFriction:    3.7,
		VerbalComments: []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"},
	}
	msgs, err := BuildInsightMessages(p)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)

	var body struct {
		Comments []string `json:"verbalComments"`
		RiskTier string   `json:"riskTier"`
	}
	require.NoError(t, json.Unmarshal([]byte(msgs[1].Content), &body))
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, body.Comments)
	assert.Equal(t, "Needs Attention", body.RiskTier)
}

func TestOpenAIInsightsAgainstCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: " Rotate on-call. "}}},
		})
	}))
	defer srv.Close()

	var outcomes []string
	gen := NewOpenAIInsights("key", srv.URL, "test-model", func(_, outcome string) { outcomes = append(outcomes, outcome) })
	text, err := gen.GenerateInsight(context.Background(), analytics.InsightPayload{DepartmentName: "Eng"})
	require.NoError(t, err)
	assert.Equal(t, "Rotate on-call.", text)
	assert.Equal(t, []string{"ok"}, outcomes)
}

func TestOpenAIInsightsMapsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"requests"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIInsights("key", srv.URL, "m", nil).GenerateInsight(context.Background(), analytics.InsightPayload{})
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusTooManyRequests, serr.StatusCode)
}
