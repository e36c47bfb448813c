package game

import "kanjizoo/internal/domain"

// player is the session-owned state for one connected participant.
type player struct {
	name      string
	score     int
	answered  bool
	last      *domain.AnswerOutcome
	joinOrder int
}

func (p *player) resetRound() {
	p.answered = false
	p.last = nil
}

func (p *player) resetGame() {
	p.score = 0
	p.resetRound()
}
