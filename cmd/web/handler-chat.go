package main

import (
	"encoding/json"
	"net/http"

	"github.com/myrjola/allocovid/internal/conversation"
)

type chatRequest struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

type chatResponse struct {
	Text            string   `json:"text"`
	QuickReplies    []string `json:"quickReplies,omitempty"`
	ConversationEnd bool     `json:"conversationEnd"`
}

// chat is the browser chat endpoint. The questionnaire state rides in
// the scs cookie session, so every browser gets its own conversation
// without any client-side session bookkeeping.
func (app *application) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.clientError(w, r, http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	out := app.webBot.Handle(r.Context(), app.sessionManager.Token(r.Context()), conversation.Input{
		Utterance: req.Text,
		Intent:    req.Intent,
	})

	app.sendJSON(w, r, http.StatusOK, chatResponse{
		Text:            out.Text,
		QuickReplies:    out.Suggestions,
		ConversationEnd: out.End,
	})
}
