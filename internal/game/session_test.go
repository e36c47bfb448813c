package game

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"kanjizoo/internal/domain"
)

type sentEvent struct {
	name    string
	to      string // empty for broadcasts
	payload any
}

// fakeGateway records the session's fan-out in emit order.
type fakeGateway struct {
	events chan sentEvent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan sentEvent, 256)}
}

func (g *fakeGateway) SendToAll(event string, payload any) {
	g.events <- sentEvent{name: event, payload: payload}
}

func (g *fakeGateway) SendToOne(connID, event string, payload any) {
	g.events <- sentEvent{name: event, to: connID, payload: payload}
}

func (g *fakeGateway) next(t *testing.T) sentEvent {
	t.Helper()
	select {
	case e := <-g.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return sentEvent{}
	}
}

func (g *fakeGateway) expect(t *testing.T, name string) sentEvent {
	t.Helper()
	e := g.next(t)
	if e.name != name {
		t.Fatalf("expected event %s, got %s", name, e.name)
	}
	return e
}

func testSettings() Settings {
	s := DefaultSettings()
	s.ItemsPerGame = 2
	return s
}

func startSession(t *testing.T) (*Session, *fakeGateway, *clockwork.FakeClock) {
	t.Helper()
	gw := newFakeGateway()
	fc := clockwork.NewFakeClock()
	s := New(testCatalog(), gw, testSettings(), fc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s, gw, fc
}

func join(t *testing.T, s *Session, gw *fakeGateway, connID, name string) {
	t.Helper()
	s.Join(connID, name)
	gw.expect(t, EventJoined)
	gw.expect(t, EventPlayerList)
	gw.expect(t, EventLeaderboard)
}

// startGame drives hostStartGame and returns the first question payload.
func startGame(t *testing.T, s *Session, gw *fakeGateway) QuestionPayload {
	t.Helper()
	s.StartGame()
	gw.expect(t, EventGameStarted)
	gw.expect(t, EventLeaderboard)
	e := gw.expect(t, EventNewQuestion)
	return e.payload.(QuestionPayload)
}

func wrongOption(t *testing.T, q domain.Question) string {
	t.Helper()
	for _, o := range q.Options {
		if o.ID != q.CorrectID {
			return o.ID
		}
	}
	t.Fatalf("question has no wrong option")
	return ""
}

func TestJoinAnnouncesPlayer(t *testing.T) {
	s, gw, _ := startSession(t)

	s.Join("c1", "Alice")

	e := gw.expect(t, EventJoined)
	if e.to != "c1" {
		t.Fatalf("joined should go to the joining connection, went to %q", e.to)
	}
	if got := e.payload.(JoinedPayload).Phase; got != PhaseLobby {
		t.Fatalf("expected lobby phase, got %s", got)
	}

	names := gw.expect(t, EventPlayerList).payload.([]string)
	if len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("expected player list [Alice], got %v", names)
	}

	lb := gw.expect(t, EventLeaderboard).payload.([]domain.LeaderboardEntry)
	if len(lb) != 1 || lb[0].Score != 0 {
		t.Fatalf("expected fresh leaderboard entry, got %+v", lb)
	}
}

func TestJoinTruncatesLongNames(t *testing.T) {
	s, gw, _ := startSession(t)

	s.Join("c1", "abcdefghijklmnopqrstuvwxyz")
	gw.expect(t, EventJoined)
	names := gw.expect(t, EventPlayerList).payload.([]string)
	if names[0] != "abcdefghijklmno" {
		t.Fatalf("expected 15-char name, got %q (%d chars)", names[0], len(names[0]))
	}
}

func TestLateJoinerSeesActivePhase(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	startGame(t, s, gw)

	s.Join("c2", "Bob")
	e := gw.expect(t, EventJoined)
	if got := e.payload.(JoinedPayload).Phase; got != PhaseActive {
		t.Fatalf("late joiner should see active phase, got %s", got)
	}
}

func TestStartGameBeginsFirstRound(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")

	q := startGame(t, s, gw)
	if q.QuestionNumber != 1 {
		t.Fatalf("expected question 1, got %d", q.QuestionNumber)
	}
	if q.Total != 4 {
		t.Fatalf("expected %d planned questions, got %d", 4, q.Total)
	}
	if q.TimeLimit != testSettings().TimeLimit.Milliseconds() {
		t.Fatalf("expected time limit %d ms, got %d", testSettings().TimeLimit.Milliseconds(), q.TimeLimit)
	}
	checkChoiceSet(t, q.Question)
}

func TestAnswerScoringAndDuplicateIgnored(t *testing.T) {
	s, gw, fc := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	fc.BlockUntil(1)
	fc.Advance(5 * time.Second)

	s.Answer("c1", q.Question.CorrectID)
	s.Answer("c1", q.Question.CorrectID) // duplicate, silently dropped
	s.Answer("c2", wrongOption(t, q.Question))

	e := gw.expect(t, EventAnswerResult)
	if e.to != "c1" {
		t.Fatalf("answerResult should be private, went to %q", e.to)
	}
	outcome := e.payload.(domain.AnswerOutcome)
	if !outcome.Correct || outcome.Points != 550 {
		t.Fatalf("expected 550 points at half time, got %+v", outcome)
	}
	lb := gw.expect(t, EventLeaderboard).payload.([]domain.LeaderboardEntry)
	if lb[0].Name != "Alice" || lb[0].Score != 550 {
		t.Fatalf("expected Alice leading with 550, got %+v", lb[0])
	}

	// The duplicate emitted nothing: the next result belongs to Bob.
	e = gw.expect(t, EventAnswerResult)
	if e.to != "c2" {
		t.Fatalf("expected Bob's result next, went to %q", e.to)
	}
	if outcome := e.payload.(domain.AnswerOutcome); outcome.Correct || outcome.Points != 0 {
		t.Fatalf("wrong answer should award nothing, got %+v", outcome)
	}
	gw.expect(t, EventLeaderboard)

	// Both answered: the round ends without waiting out the clock.
	gw.expect(t, EventTimeUp)
	gw.expect(t, EventShowAnswer)
}

func TestUnknownPlayerAnswerIgnored(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	q := startGame(t, s, gw)

	s.Answer("ghost", q.Question.CorrectID)
	s.Answer("c1", q.Question.CorrectID)

	// The ghost produced nothing; Alice's result is first out.
	if e := gw.expect(t, EventAnswerResult); e.to != "c1" {
		t.Fatalf("expected Alice's result, went to %q", e.to)
	}
}

func TestAllAnsweredEarlyAdvance(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	s.Answer("c1", q.Question.CorrectID)
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	s.Answer("c2", wrongOption(t, q.Question))
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	// No clock advance needed: both answered.
	gw.expect(t, EventTimeUp)
	answer := gw.expect(t, EventShowAnswer).payload.(domain.CatalogItem)
	if answer.Symbol != q.Question.CorrectID {
		t.Fatalf("reveal shows %q, want %q", answer.Symbol, q.Question.CorrectID)
	}
}

func TestDisconnectTriggersEarlyAdvance(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	s.Answer("c1", q.Question.CorrectID)
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	s.Leave("c2")
	gw.expect(t, EventPlayerList)
	gw.expect(t, EventLeaderboard)
	gw.expect(t, EventTimeUp)
	gw.expect(t, EventShowAnswer)
}

func TestMidRoundJoinerBlocksEarlyAdvance(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	q := startGame(t, s, gw)

	join(t, s, gw, "c2", "Bob")

	s.Answer("c1", q.Question.CorrectID)
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	// Bob has not answered, so no early advance: pausing is the next event.
	s.PauseGame()
	gw.expect(t, EventGamePaused)
}

func TestRoundSequencingThroughResults(t *testing.T) {
	s, gw, fc := startSession(t)
	settings := testSettings()

	s.StartGame()
	gw.expect(t, EventGameStarted)
	gw.expect(t, EventLeaderboard)

	questions := 0
	var symbolCorrectID string
	for {
		e := gw.next(t)
		switch e.name {
		case EventNewQuestion, EventHiraganaQuestion:
			questions++
			q := e.payload.(QuestionPayload)
			if q.QuestionNumber != questions {
				t.Fatalf("expected ordinal %d, got %d", questions, q.QuestionNumber)
			}
			if e.name == EventHiraganaQuestion {
				if q.Question.CorrectID != symbolCorrectID {
					t.Fatalf("phonetic round subject %q, want preceding symbol subject %q",
						q.Question.CorrectID, symbolCorrectID)
				}
			} else {
				symbolCorrectID = q.Question.CorrectID
			}
			fc.BlockUntil(1)
			fc.Advance(settings.TimeLimit)
		case EventTimeUp:
			gw.expect(t, EventShowAnswer)
			fc.BlockUntil(1)
			fc.Advance(settings.RevealTime)
		case EventGameOver:
			if questions != settings.TotalQuestions() {
				t.Fatalf("expected %d questions before results, got %d", settings.TotalQuestions(), questions)
			}
			return
		default:
			t.Fatalf("unexpected event %s", e.name)
		}
	}
}

func TestPauseFreezesAnswersAndTimer(t *testing.T) {
	s, gw, fc := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	fc.BlockUntil(1)
	fc.Advance(4 * time.Second)

	s.PauseGame()
	gw.expect(t, EventGamePaused)

	// Answers while paused are dropped without a reply or score change.
	s.Answer("c1", q.Question.CorrectID)

	s.ResumeGame()
	e := gw.expect(t, EventGameResumed)
	if got := e.payload.(ResumedPayload).TimeRemaining; got != 6000 {
		t.Fatalf("expected 6000ms remaining after pause at 4s, got %d", got)
	}

	// Elapsed-time accounting is continuous across the pause: answering
	// right after resume still counts 4s of latency.
	s.Answer("c1", q.Question.CorrectID)
	outcome := gw.expect(t, EventAnswerResult).payload.(domain.AnswerOutcome)
	if !outcome.Correct || outcome.Points != 640 {
		t.Fatalf("expected 640 points at 4s elapsed, got %+v", outcome)
	}
	gw.expect(t, EventLeaderboard)

	// The re-armed timer runs for the remaining 6s, not the full limit.
	fc.BlockUntil(1)
	fc.Advance(6 * time.Second)
	gw.expect(t, EventTimeUp)
	gw.expect(t, EventShowAnswer)
}

func TestResumeRearmsOnlyRemainingTime(t *testing.T) {
	s, gw, fc := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	startGame(t, s, gw)

	fc.BlockUntil(1)
	fc.Advance(9 * time.Second)
	s.PauseGame()
	gw.expect(t, EventGamePaused)
	s.ResumeGame()
	if got := gw.expect(t, EventGameResumed).payload.(ResumedPayload).TimeRemaining; got != 1000 {
		t.Fatalf("expected 1000ms remaining, got %d", got)
	}

	// 999ms in, the timer has not fired: a pause is the next event out.
	fc.BlockUntil(1)
	fc.Advance(999 * time.Millisecond)
	s.PauseGame()
	gw.expect(t, EventGamePaused)
	s.ResumeGame()
	if got := gw.expect(t, EventGameResumed).payload.(ResumedPayload).TimeRemaining; got != 1 {
		t.Fatalf("expected 1ms remaining, got %d", got)
	}

	fc.BlockUntil(1)
	fc.Advance(time.Millisecond)
	gw.expect(t, EventTimeUp)
	gw.expect(t, EventShowAnswer)
}

func TestPauseOutsideActiveIgnored(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")

	s.PauseGame()  // lobby: dropped
	s.ResumeGame() // not paused: dropped
	s.Join("c2", "Bob")
	gw.expect(t, EventJoined)
}

func TestStopCancelsStaleTimer(t *testing.T) {
	s, gw, fc := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	s.Answer("c1", q.Question.CorrectID)
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	fc.BlockUntil(1)
	s.StopGame()
	gw.expect(t, EventGameReset)
	lb := gw.expect(t, EventLeaderboard).payload.([]domain.LeaderboardEntry)
	for _, entry := range lb {
		if entry.Score != 0 {
			t.Fatalf("expected zeroed scores after reset, got %+v", lb)
		}
	}

	// The cancelled question timer must never fire.
	fc.Advance(testSettings().TimeLimit + testSettings().RevealTime)
	s.Join("c3", "Cho")
	e := gw.expect(t, EventJoined)
	if got := e.payload.(JoinedPayload).Phase; got != PhaseLobby {
		t.Fatalf("expected lobby after stop, got %s", got)
	}
}

func TestRepeatedStopIsSafe(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	startGame(t, s, gw)

	for i := 0; i < 3; i++ {
		s.StopGame()
		gw.expect(t, EventGameReset)
		gw.expect(t, EventLeaderboard)
	}
}

func TestRestartResetsScores(t *testing.T) {
	s, gw, _ := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	s.Answer("c1", q.Question.CorrectID)
	gw.expect(t, EventAnswerResult)
	gw.expect(t, EventLeaderboard)

	s.StartGame()
	gw.expect(t, EventGameStarted)
	lb := gw.expect(t, EventLeaderboard).payload.([]domain.LeaderboardEntry)
	for _, entry := range lb {
		if entry.Score != 0 {
			t.Fatalf("restart should zero scores, got %+v", lb)
		}
	}
	gw.expect(t, EventNewQuestion)
}

func TestLateAnswerDuringRevealScoresFloor(t *testing.T) {
	s, gw, fc := startSession(t)
	join(t, s, gw, "c1", "Alice")
	join(t, s, gw, "c2", "Bob")
	q := startGame(t, s, gw)

	fc.BlockUntil(1)
	fc.Advance(testSettings().TimeLimit)
	gw.expect(t, EventTimeUp)
	gw.expect(t, EventShowAnswer)

	// The question stays answerable through the reveal window; the score
	// has decayed to the floor.
	s.Answer("c1", q.Question.CorrectID)
	outcome := gw.expect(t, EventAnswerResult).payload.(domain.AnswerOutcome)
	if !outcome.Correct || outcome.Points != 100 {
		t.Fatalf("expected floor score during reveal, got %+v", outcome)
	}
}
