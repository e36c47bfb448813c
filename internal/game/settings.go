package game

import "time"

// Settings carries the fixed game tuning. Production uses DefaultSettings;
// tests shrink the durations.
type Settings struct {
	TimeLimit    time.Duration // answer window per question
	RevealTime   time.Duration // how long the correct answer stays on screen
	ItemsPerGame int           // catalog items per game; two rounds each
	MaxNameLen   int
	OptionCount  int
	ScoreCeiling int
	ScoreFloor   int
}

func DefaultSettings() Settings {
	return Settings{
		TimeLimit:    10 * time.Second,
		RevealTime:   3500 * time.Millisecond,
		ItemsPerGame: 10,
		MaxNameLen:   15,
		OptionCount:  4,
		ScoreCeiling: 1000,
		ScoreFloor:   100,
	}
}

// TotalQuestions is the planned number of rounds for a full game: each item
// is covered by a symbol round and a phonetic round.
func (s Settings) TotalQuestions() int {
	return s.ItemsPerGame * 2
}
