package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/mind-engage/quizgenix/internal/grading"
)

var resultsHeader = []string{
	"session_id", "user_id", "quiz_id", "score", "total", "answered",
	"percentage", "grade", "time_taken_seconds", "submitted_at", "performance",
}

// WriteResultsCSV writes one row per attempt.
func WriteResultsCSV(w io.Writer, results []grading.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{
			r.SessionID,
			r.UserID,
			r.QuizID,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Answered),
			strconv.FormatFloat(r.Percentage, 'f', 1, 64),
			r.Grade,
			strconv.FormatInt(r.TimeTakenSeconds, 10),
			r.SubmittedAt.UTC().Format(time.RFC3339),
			r.Performance,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
