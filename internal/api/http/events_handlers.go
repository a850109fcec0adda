package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/quizgenix/internal/events"
)

// GET /events?after=<seq>&limit=
func ListEventsHandler(log *events.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		list, err := log.List(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
