package game

import "kanjizoo/internal/domain"

// Phase is the coarse session state.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseActive  Phase = "active"
	PhaseResults Phase = "results"
)

// Outbound event names, matching the wire protocol existing clients speak.
// The phonetic round keeps its historical hiraganaQuestion name.
const (
	EventJoined           = "joined"
	EventPlayerList       = "playerList"
	EventLeaderboard      = "leaderboard"
	EventGameStarted      = "gameStarted"
	EventNewQuestion      = "newQuestion"
	EventHiraganaQuestion = "hiraganaQuestion"
	EventTimeUp           = "timeUp"
	EventShowAnswer       = "showAnswer"
	EventAnswerResult     = "answerResult"
	EventGamePaused       = "gamePaused"
	EventGameResumed      = "gameResumed"
	EventGameReset        = "gameReset"
	EventGameOver         = "gameOver"
)

// JoinedPayload is sent privately to a freshly joined connection.
type JoinedPayload struct {
	Phase Phase `json:"phase"`
}

// QuestionPayload announces a new round to everyone. TimeLimit is in
// milliseconds.
type QuestionPayload struct {
	Question       domain.Question `json:"question"`
	QuestionNumber int             `json:"questionNumber"`
	Total          int             `json:"total"`
	TimeLimit      int64           `json:"timeLimit"`
}

// ResumedPayload carries the recomputed remaining answer window in
// milliseconds.
type ResumedPayload struct {
	TimeRemaining int64 `json:"timeRemaining"`
}

// Gateway is the narrow fan-out surface the session emits through. Delivery
// is fire-and-forget; the session never waits on it.
type Gateway interface {
	SendToAll(event string, payload any)
	SendToOne(connID string, event string, payload any)
}
