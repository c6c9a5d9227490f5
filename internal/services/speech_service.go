package services

import (
	"context"
	"strings"
	"unicode/utf8"
)

// MaxSpeechChars bounds the text forwarded to the speech service.
const MaxSpeechChars = 4000

// SpeechSynthesizer turns text into audio bytes and their content type.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, string, error)
}

type Audio struct {
	Data        []byte
	ContentType string
}

type SpeechService struct {
	synth SpeechSynthesizer
}

func NewSpeechService(synth SpeechSynthesizer) *SpeechService {
	return &SpeechService{synth: synth}
}

// Speak returns audio for text. Each call produces its own Audio; nothing is
// shared between requests.
func (s *SpeechService) Speak(ctx context.Context, text, voice string) (*Audio, error) {
	if s.synth == nil {
		return nil, NewBadGatewayError("speech synthesis is not configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewInvalidError("text required")
	}
	if utf8.RuneCountInString(text) > MaxSpeechChars {
		return nil, NewInvalidError("text too long")
	}
	data, contentType, err := s.synth.Synthesize(ctx, text, strings.TrimSpace(voice))
	if err != nil {
		return nil, upstreamError("speech", err)
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return &Audio{Data: data, ContentType: contentType}, nil
}
