package playdto

type Card struct {
	Pos     int    `json:"pos"` // 1-based
	Symbol  string `json:"symbol"`
	FaceUp  bool   `json:"faceUp"`
	Matched bool   `json:"matched"`
}

type MemoryBoard struct {
	Cards        []Card `json:"cards"`
	MatchedPairs int    `json:"matchedPairs"`
	TotalPairs   int    `json:"totalPairs"`
	Moves        [2]int `json:"moves"`
	Current      string `json:"current"`
	Over         bool   `json:"over"`
	Winner       string `json:"winner,omitempty"`
}

type WordRound struct {
	Phase     string `json:"phase"`
	ClueGiver string `json:"clueGiver"`
	Guesser   string `json:"guesser"`
	Clue      string `json:"clue,omitempty"`
	// Word is empty until the result unless the view is the clue giver's.
	Word     string `json:"word,omitempty"`
	Guess    string `json:"guess,omitempty"`
	TimeLeft int    `json:"timeLeft"`
	Outcome  string `json:"outcome,omitempty"`
	Rounds   int    `json:"rounds"`
	Score    [2]int `json:"score"`
}

type CanvasView struct {
	Prompt  string `json:"prompt"`
	Current string `json:"current"`
	// View is 1-based, 0 while the gallery is empty.
	View  int `json:"view"`
	Count int `json:"count"`
}
