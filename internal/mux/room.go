package mux

import (
	"net/http"

	"blackjack-server/pkg/blackjack"
)

func (m *Mux) getRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, rows, err := parsePaginationOptions(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		summaries := make([]blackjack.Summary, 0)
		var i int64
		for summary := range m.pitBoss.List() {
			if i >= start {
				summaries = append(summaries, summary)
				if len(summaries) == rows {
					break
				}
			}

			i++
		}

		writeJSON(w, http.StatusOK, summaries)
	}
}
