package edge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const targetSpeech = "speech"

// SpeechClient calls the hosted text-to-speech function. The function may
// answer with raw audio or with JSON carrying base64 audio.
type SpeechClient struct {
	client *Client
	url    string
}

func NewSpeechClient(url string, opts Options, log *logrus.Entry) *SpeechClient {
	return &SpeechClient{client: NewClient(opts, log), url: url}
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type speechReply struct {
	AudioContent string `json:"audioContent"`
	ContentType  string `json:"contentType"`
	Error        string `json:"error"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) ([]byte, string, error) {
	rep, err := c.client.postJSON(ctx, targetSpeech, c.url, speechRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, "", err
	}
	if !strings.Contains(rep.contentType, "json") {
		return rep.body, rep.contentType, nil
	}

	var out speechReply
	if err := json.Unmarshal(rep.body, &out); err != nil {
		return nil, "", fmt.Errorf("decode speech reply: %w", err)
	}
	if out.Error != "" {
		return nil, "", errors.New(out.Error)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, "", fmt.Errorf("decode audio: %w", err)
	}
	if out.ContentType == "" {
		out.ContentType = "audio/mpeg"
	}
	return audio, out.ContentType, nil
}
