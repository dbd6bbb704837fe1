package engine

import "time"

// response carries a handler's result back to the blocked caller.
type response struct {
	value any
	err   error
}

// command pairs a typed argument payload with its one-shot reply channel.
// The worker type-switches on the payload, so a command the worker does
// not recognize can only come from a payload type missing below.
type command struct {
	args  any
	reply chan response
}

// shutdownCmd is the close sentinel. The worker finishes everything it
// received before the sentinel, then terminates.
type shutdownCmd struct{}

type addUserCmd struct {
	email    string
	password string
}

type loginUserCmd struct {
	email    string
	password string
}

type addAccountCmd struct {
	userID       int64
	name         string
	url          string
	info         string
	accountType  string
	interestRate float64
	assetID      *int64
}

type listAccountsCmd struct {
	userID int64
}

type listDebtsCmd struct {
	accountID int64
}

// addStatementCmd carries dates as the codec accepts them: a "YYYY/MM/DD"
// string, a time value, or nil for the optional due date.
type addStatementCmd struct {
	accountID    int64
	start        any
	due          any
	end          any
	fees         float64
	interest     float64
	deposits     float64
	withdrawals  float64
	startBalance float64
	endBalance   float64
}

type listStatementsCmd struct {
	accountID int64
	limit     int
}

type addFeedbackCmd struct {
	userID       int64
	feedbackType string
	subject      string
	description  string
}

type listFeedbackCmd struct {
	userID int64
}

type relateFeedbackCmd struct {
	fromID   int64
	toID     int64
	fromType string
	toType   string
}

type listRelatedFeedbackCmd struct {
	feedbackID int64
}

// feedbackVoteCmd reads when votes is nil and writes otherwise.
type feedbackVoteCmd struct {
	userID     int64
	feedbackID int64
	votes      *int64
}

type feedbackAllVotesCmd struct {
	feedbackID int64
}

type createSessionCmd struct {
	userID    int64
	expiresAt time.Time
}

type validateSessionCmd struct {
	token string
}

type deleteSessionCmd struct {
	token string
}
