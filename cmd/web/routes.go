package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave)
	voice := alice.New(app.basicAuth)

	mux.HandleFunc("/api/healthy", app.healthy)
	mux.Handle("/api/call", voice.ThenFunc(app.call))
	mux.Handle("/api/chat", session.ThenFunc(app.chat))

	return alice.New(app.recoverPanic, app.logRequest, secureHeaders).Then(mux)
}
