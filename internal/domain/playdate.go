package domain

import "time"

// SessionState is the cross-game aggregate persisted per room.
type SessionState struct {
	Score        Tally    `json:"score"`
	Achievements []string `json:"achievements"`
}

func (s SessionState) Clone() SessionState {
	return SessionState{Score: s.Score, Achievements: append([]string(nil), s.Achievements...)}
}

func (s SessionState) HasAchievement(name string) bool {
	for _, a := range s.Achievements {
		if a == name {
			return true
		}
	}
	return false
}

type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
	EmotionThinking  Emotion = "thinking"
)

// DialogueLine is one scripted line of the current narrative beat.
type DialogueLine struct {
	Speaker PlayerID `json:"speaker"`
	Text    string   `json:"text"`
	Emotion Emotion  `json:"emotion"`
}

// GameKind names a mini-game.
type GameKind string

const (
	GameMemoryMatch  GameKind = "memoryMatch"
	GameWordGuess    GameKind = "wordGuess"
	GameDrawTogether GameKind = "drawTogether"
)

func (g GameKind) Valid() bool {
	switch g {
	case GameMemoryMatch, GameWordGuess, GameDrawTogether:
		return true
	}
	return false
}

// Result is a finished game or round, kept for history.
type Result struct {
	ID        string
	Scope     string
	Game      GameKind
	Winner    PlayerID // empty on a tie or when nobody won
	Outcome   string
	Detail    string
	Score     Tally
	StartedAt time.Time
	EndedAt   time.Time
}
