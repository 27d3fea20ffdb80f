package main

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/myrjola/allocovid/internal/conversation"
)

// callRequest is one turn coming from the telephony platform. The text
// is the speech-to-text transcript and the intent and entity come from
// the platform's NLU.
type callRequest struct {
	Session struct {
		SessionID string `json:"sessionId"`
		User      string `json:"user"`
	} `json:"session"`
	Text       string `json:"text"`
	Intent     string `json:"intent"`
	EntityText string `json:"entityText"`
	Locale     string `json:"locale"`
}

type callResponse struct {
	SessionID  string `json:"sessionId"`
	OutputText struct {
		TextToSpeech string `json:"textToSpeech"`
	} `json:"outputText"`
	ConversationEnd bool `json:"conversationEnd"`
}

// call is the voice-assistant webhook. Sessions are keyed by the
// platform's session id and survive a restart through the durable store.
func (app *application) call(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.clientError(w, r, http.StatusMethodNotAllowed)
		return
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	var req callRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	if req.Session.SessionID == "" {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	out := app.voiceBot.Handle(r.Context(), req.Session.SessionID, conversation.Input{
		Utterance:  req.Text,
		Intent:     req.Intent,
		EntityText: req.EntityText,
	})

	resp := callResponse{
		SessionID:       req.Session.SessionID,
		ConversationEnd: out.End,
	}
	resp.OutputText.TextToSpeech = out.Text
	app.sendJSON(w, r, http.StatusCreated, resp)
}
