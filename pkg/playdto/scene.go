package playdto

// Seat is one character as shown to players.
type Seat struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hair      string `json:"hair"`
	Skin      string `json:"skin"`
	Outfit    string `json:"outfit"`
	Accessory string `json:"accessory"`
}

type Line struct {
	Speaker     string `json:"speaker"`
	SpeakerName string `json:"speakerName"`
	Text        string `json:"text"`
	Emotion     string `json:"emotion"`
}

// Scene is one rendered moment of a game: exactly one of Memory, Word, Canvas is set.
type Scene struct {
	EngineID string       `json:"engineId"`
	Game     string       `json:"game"`
	Cast     [2]Seat      `json:"cast"`
	Lines    []Line       `json:"lines,omitempty"`
	Memory   *MemoryBoard `json:"memory,omitempty"`
	Word     *WordRound   `json:"word,omitempty"`
	Canvas   *CanvasView  `json:"canvas,omitempty"`
	// Image is an optional PNG sent after the text.
	Image []byte `json:"-"`
}

type Scoreboard struct {
	Names        [2]string `json:"names"`
	Scores       [2]int    `json:"scores"`
	Achievements []string  `json:"achievements"`
}
