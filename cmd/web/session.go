package main

import (
	"context"
	"encoding/json"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/errors"
)

// conversationSessionKey is where the questionnaire state lives inside
// the scs session data.
const conversationSessionKey = "conversation"

// sessionStore adapts the scs session manager to the conversation store
// interface. The session is addressed through the request context that
// scs.LoadAndSave populated, so the session id argument is ignored.
type sessionStore struct {
	sessionManager *scs.SessionManager
}

func newSessionStore(sessionManager *scs.SessionManager) *sessionStore {
	return &sessionStore{sessionManager: sessionManager}
}

func (s *sessionStore) Get(ctx context.Context, _ string) (*conversation.State, error) {
	raw := s.sessionManager.GetBytes(ctx, conversationSessionKey)
	if raw == nil {
		return nil, nil
	}
	var state conversation.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, errors.Wrap(err, "decode conversation state from session")
	}
	return &state, nil
}

func (s *sessionStore) Set(ctx context.Context, _ string, state conversation.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode conversation state for session")
	}
	s.sessionManager.Put(ctx, conversationSessionKey, raw)
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, _ string) error {
	s.sessionManager.Remove(ctx, conversationSessionKey)
	return nil
}
