package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/growpoint/internal/middleware"
	"github.com/soaringjerry/growpoint/internal/services"
	"github.com/soaringjerry/growpoint/internal/utils"
)

type insightRequest struct {
	Department string `json:"department"`
}

// POST /api/insights
func (rt *Router) handleInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.svc.Insights == nil {
		rt.writeError(w, r, services.NewBadGatewayError("insight generation is not configured"))
		return
	}
	res, err := rt.svc.Insights.Generate(r.Context(), caller(r), req.Department)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// POST /api/speech returns the audio bytes. Without an explicit voice the
// caller's locale picks one.
func (rt *Router) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.svc.Speech == nil {
		rt.writeError(w, r, services.NewBadGatewayError("speech synthesis is not configured"))
		return
	}
	voice := req.Voice
	if voice == "" {
		voice = utils.T(middleware.LocaleFromContext(r.Context()), "speech.voice")
	}
	audio, err := rt.svc.Speech.Speak(r.Context(), req.Text, voice)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}
