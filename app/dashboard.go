package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ktruong/campusblog/internal/common"
)

// dashboardHandler returns the authenticated user's own blogs, newest first.
func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	blogs, err := app.blogService.GetBlogsByUserID(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// dashboardWatchHandler streams blog change events for the authenticated user
// as server-sent events. Each subscriber gets its own exclusive broker queue
// which is torn down when the client disconnects.
func (app *application) dashboardWatchHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverErrorResponse(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	msgs, unsubscribe, err := app.broker.Subscribe(common.BlogChangedKey, common.BlogExchange)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			app.logger.Error("could not unsubscribe dashboard watcher", slog.String("error", err.Error()))
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event common.BlogEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				app.logger.Error("could not unmarshal blog event", slog.String("error", err.Error()))
				continue
			}

			// Only the owner's own blogs show up on their dashboard.
			if event.OwnerID != user.ID.String() {
				continue
			}

			fmt.Fprintf(w, "event: blog\ndata: %s\n\n", msg.Body)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
