package playdto

import "time"

type HistoryEntry struct {
	Game    string    `json:"game"`
	Outcome string    `json:"outcome"`
	Winner  string    `json:"winner,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	Score   [2]int    `json:"score"`
	EndedAt time.Time `json:"endedAt"`
}
