package game

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"kanjizoo/internal/domain"
)

type roundStep int

const (
	stepSymbol roundStep = iota
	stepPhonetic
)

// Session is the authoritative game state machine. All inbound commands and
// timer firings are serialized through the single Run goroutine, so handlers
// never observe interleaved mutation. Out-of-precondition commands are
// silently dropped: a client resending a stale action must never corrupt
// shared state.
type Session struct {
	inbox    chan any
	gateway  Gateway
	clock    clockwork.Clock
	settings Settings
	log      zerolog.Logger

	gen     *Generator
	timer   *roundTimer
	onFire  func()
	phase   Phase
	players map[string]*player
	joinSeq int

	question         *domain.Question
	questionStart    time.Time
	ordinal          int
	step             roundStep
	itemIndex        int
	paused           bool
	remainingAtPause time.Duration
	awaitingAnswers  bool
}

// New builds a session over an immutable catalog. clock may be nil for the
// real clock. Multiple sessions can coexist; nothing here is process-global.
func New(catalog []domain.CatalogItem, gateway Gateway, settings Settings, clock clockwork.Clock, log zerolog.Logger) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{
		inbox:    make(chan any, 256),
		gateway:  gateway,
		clock:    clock,
		settings: settings,
		log:      log,
		gen:      NewGenerator(catalog, settings.OptionCount, nil),
		timer:    newRoundTimer(clock),
		phase:    PhaseLobby,
		players:  make(map[string]*player),
	}
}

// Run consumes commands and timer firings until ctx is cancelled. It is the
// only goroutine that touches session state.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.timer.Stop()
			return
		case cmd := <-s.inbox:
			s.handle(cmd)
		case <-s.timer.C():
			s.timerFired()
		}
	}
}

// Join registers a connection under the given display name.
func (s *Session) Join(connID, name string) { s.send(joinCmd{connID: connID, name: name}) }

// Answer submits an option choice for the current question.
func (s *Session) Answer(connID, optionID string) {
	s.send(answerCmd{connID: connID, optionID: optionID})
}

// Leave removes a disconnected player.
func (s *Session) Leave(connID string) { s.send(leaveCmd{connID: connID}) }

// StartGame resets scores and begins round one. Valid from any phase.
func (s *Session) StartGame() { s.send(startCmd{}) }

// PauseGame freezes the in-flight timer.
func (s *Session) PauseGame() { s.send(pauseCmd{}) }

// ResumeGame re-arms the frozen timer for its remaining duration.
func (s *Session) ResumeGame() { s.send(resumeCmd{}) }

// StopGame returns to the lobby, zeroing all scores. Valid from any phase.
func (s *Session) StopGame() { s.send(stopCmd{}) }

func (s *Session) send(cmd any) {
	select {
	case s.inbox <- cmd:
	default:
		s.log.Warn().Type("cmd", cmd).Msg("session inbox full, dropping command")
	}
}

func (s *Session) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		s.handleJoin(c)
	case answerCmd:
		s.handleAnswer(c)
	case leaveCmd:
		s.handleLeave(c)
	case startCmd:
		s.handleStart()
	case pauseCmd:
		s.handlePause()
	case resumeCmd:
		s.handleResume()
	case stopCmd:
		s.handleStop()
	}
}

// schedule arms the single owned timer; any previously pending action is
// cancelled by the same step.
func (s *Session) schedule(d time.Duration, fn func()) {
	s.onFire = fn
	s.timer.Arm(d)
}

func (s *Session) timerFired() {
	fire := s.onFire
	s.onFire = nil
	s.timer.Stop()
	if fire != nil {
		fire()
	}
}

func (s *Session) handleJoin(c joinCmd) {
	name := []rune(c.name)
	if len(name) > s.settings.MaxNameLen {
		name = name[:s.settings.MaxNameLen]
	}
	s.players[c.connID] = &player{name: string(name), joinOrder: s.joinSeq}
	s.joinSeq++

	s.log.Info().Str("conn", c.connID).Str("name", string(name)).Msg("player joined")
	s.gateway.SendToOne(c.connID, EventJoined, JoinedPayload{Phase: s.phase})
	s.gateway.SendToAll(EventPlayerList, s.playerNames())
	s.broadcastLeaderboard()
}

func (s *Session) handleAnswer(c answerCmd) {
	p, ok := s.players[c.connID]
	if !ok || p.answered || s.question == nil || s.paused {
		return
	}

	p.answered = true
	elapsed := s.clock.Now().Sub(s.questionStart)
	outcome := domain.AnswerOutcome{}
	if c.optionID == s.question.CorrectID {
		outcome = domain.AnswerOutcome{Correct: true, Points: s.settings.Score(elapsed)}
		p.score += outcome.Points
	}
	p.last = &outcome

	s.log.Debug().Str("conn", c.connID).Bool("correct", outcome.Correct).
		Int("points", outcome.Points).Dur("elapsed", elapsed).Msg("answer recorded")
	s.gateway.SendToOne(c.connID, EventAnswerResult, outcome)
	s.broadcastLeaderboard()
	s.checkAllAnswered()
}

func (s *Session) handleLeave(c leaveCmd) {
	p, ok := s.players[c.connID]
	if !ok {
		return
	}
	delete(s.players, c.connID)
	s.log.Info().Str("conn", c.connID).Str("name", p.name).Msg("player left")
	s.gateway.SendToAll(EventPlayerList, s.playerNames())
	s.broadcastLeaderboard()
	// The departed player may have been the last one holding up the round.
	s.checkAllAnswered()
}

func (s *Session) handleStart() {
	s.timer.Stop()
	s.onFire = nil
	s.phase = PhaseActive
	s.ordinal = 0
	s.itemIndex = 0
	s.step = stepSymbol
	s.paused = false
	s.remainingAtPause = 0
	s.gen.Reset()
	for _, p := range s.players {
		p.resetGame()
	}

	s.log.Info().Int("players", len(s.players)).Msg("game started")
	s.gateway.SendToAll(EventGameStarted, nil)
	s.broadcastLeaderboard()
	s.advanceRound()
}

func (s *Session) handlePause() {
	if s.phase != PhaseActive || s.paused {
		return
	}
	s.paused = true
	s.remainingAtPause = s.timer.Remaining()
	s.timer.Stop()
	s.log.Info().Dur("remaining", s.remainingAtPause).Msg("game paused")
	s.gateway.SendToAll(EventGamePaused, nil)
}

func (s *Session) handleResume() {
	if s.phase != PhaseActive || !s.paused {
		return
	}
	s.paused = false
	remaining := s.remainingAtPause
	s.remainingAtPause = 0
	// Shift the start time so elapsed-time accounting stays continuous
	// across the pause.
	s.questionStart = s.clock.Now().Add(remaining - s.settings.TimeLimit)
	s.timer.Arm(remaining)
	s.log.Info().Dur("remaining", remaining).Msg("game resumed")
	s.gateway.SendToAll(EventGameResumed, ResumedPayload{TimeRemaining: remaining.Milliseconds()})
}

func (s *Session) handleStop() {
	s.timer.Stop()
	s.onFire = nil
	s.phase = PhaseLobby
	s.ordinal = 0
	s.itemIndex = 0
	s.step = stepSymbol
	s.question = nil
	s.paused = false
	s.remainingAtPause = 0
	s.awaitingAnswers = false
	s.gen.Reset()
	for _, p := range s.players {
		p.resetGame()
	}

	s.log.Info().Msg("game reset")
	s.gateway.SendToAll(EventGameReset, nil)
	s.broadcastLeaderboard()
}

// advanceRound opens the next answer window, or ends the game once every
// planned item has been covered.
func (s *Session) advanceRound() {
	s.timer.Stop()
	s.onFire = nil
	for _, p := range s.players {
		p.resetRound()
	}

	if s.itemIndex >= s.settings.ItemsPerGame {
		s.phase = PhaseResults
		s.question = nil
		s.awaitingAnswers = false
		s.log.Info().Msg("game over")
		s.gateway.SendToAll(EventGameOver, rankPlayers(s.players))
		return
	}

	s.ordinal++
	event := EventNewQuestion
	var q domain.Question
	if s.step == stepSymbol {
		q = s.gen.SymbolRound()
	} else {
		q = s.gen.PhoneticRound()
		event = EventHiraganaQuestion
	}
	s.question = &q
	s.questionStart = s.clock.Now()
	s.awaitingAnswers = true

	s.log.Debug().Int("ordinal", s.ordinal).Str("kind", string(q.Kind)).Msg("round advanced")
	s.gateway.SendToAll(event, QuestionPayload{
		Question:       q,
		QuestionNumber: s.ordinal,
		Total:          s.settings.TotalQuestions(),
		TimeLimit:      s.settings.TimeLimit.Milliseconds(),
	})
	s.schedule(s.settings.TimeLimit, s.onTimeExpired)
}

func (s *Session) onTimeExpired() {
	s.timer.Stop()
	s.awaitingAnswers = false
	s.gateway.SendToAll(EventTimeUp, nil)
	s.gateway.SendToAll(EventShowAnswer, s.gen.Subject())
	s.schedule(s.settings.RevealTime, s.afterReveal)
}

func (s *Session) afterReveal() {
	if s.step == stepSymbol {
		s.step = stepPhonetic
	} else {
		s.step = stepSymbol
		s.itemIndex++
	}
	s.advanceRound()
}

// checkAllAnswered ends the answer window early once every connected player
// has answered. Only meaningful while the question timer is actually
// running: during a pause or the reveal window the check is a no-op.
func (s *Session) checkAllAnswered() {
	if !s.awaitingAnswers || s.paused || len(s.players) == 0 {
		return
	}
	for _, p := range s.players {
		if !p.answered {
			return
		}
	}
	s.log.Debug().Msg("all players answered, advancing early")
	s.timer.Stop()
	s.onTimeExpired()
}

func (s *Session) broadcastLeaderboard() {
	s.gateway.SendToAll(EventLeaderboard, rankPlayers(s.players))
}

// playerNames lists display names in join order.
func (s *Session) playerNames() []string {
	list := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].joinOrder < list[j].joinOrder })
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.name)
	}
	return names
}
