package game

// Inbox commands. Every mutation of session state arrives as one of these
// and is handled by the single Run goroutine; timer firings join the same
// loop through the round timer's channel.

type joinCmd struct {
	connID string
	name   string
}

type answerCmd struct {
	connID   string
	optionID string
}

type leaveCmd struct {
	connID string
}

type startCmd struct{}

type pauseCmd struct{}

type resumeCmd struct{}

type stopCmd struct{}
