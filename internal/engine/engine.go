// Package engine serializes all database access behind a single worker
// goroutine. Callers hold an Engine handle; every operation builds a
// command, hands it to the worker over a channel, and blocks until the
// worker replies. The worker owns the store for the engine's entire
// lifetime, so the store is never touched concurrently.
package engine

import (
	"errors"
	"sync"
	"time"

	"networth-tracker/internal/models"
)

// ErrClosed is returned for commands submitted after Close.
var ErrClosed = errors.New("engine is closed")

// Engine is the client handle. All methods are safe for concurrent use;
// commands execute one at a time in submission order.
type Engine struct {
	commands  chan command
	done      chan struct{}
	closeOnce sync.Once
}

// Open starts the worker and waits for it to open the underlying store,
// creating the database file and schema as needed.
func Open(path string) (*Engine, error) {
	e := &Engine{
		commands: make(chan command),
		done:     make(chan struct{}),
	}

	opened := make(chan error, 1)
	go e.run(path, opened)
	if err := <-opened; err != nil {
		return nil, err
	}

	return e, nil
}

// Close enqueues the shutdown sentinel and blocks until the worker has
// finished every command ahead of it and released the store. Closing an
// already-closed engine is a no-op.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		reply := make(chan response, 1)
		select {
		case e.commands <- command{args: shutdownCmd{}, reply: reply}:
			<-reply
		case <-e.done:
		}
		<-e.done
	})
	return nil
}

// submit enqueues one command and blocks on its reply. The worker
// answers every command it receives, so once the send succeeds the
// reply is guaranteed.
func (e *Engine) submit(args any) (any, error) {
	reply := make(chan response, 1)
	select {
	case e.commands <- command{args: args, reply: reply}:
	case <-e.done:
		return nil, ErrClosed
	}

	r := <-reply
	return r.value, r.err
}

// AddUser registers a new user. If the email is already taken (compared
// case-insensitively) the result has a nil ID and Valid false, and
// nothing is written.
func (e *Engine) AddUser(email, password string) (*models.AuthResult, error) {
	v, err := e.submit(addUserCmd{email: email, password: password})
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthResult), nil
}

// LoginUser checks credentials. An unknown email yields a nil ID; a known
// email yields the user's ID even when the password is wrong, with Valid
// carrying the verdict.
func (e *Engine) LoginUser(email, password string) (*models.AuthResult, error) {
	v, err := e.submit(loginUserCmd{email: email, password: password})
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthResult), nil
}

// AddAccount creates an account. assetID may point at another account
// this one is secured against; it is stored as given, unvalidated.
func (e *Engine) AddAccount(userID int64, name, url, info, accountType string, interestRate float64, assetID *int64) (*models.Account, error) {
	v, err := e.submit(addAccountCmd{
		userID:       userID,
		name:         name,
		url:          url,
		info:         info,
		accountType:  accountType,
		interestRate: interestRate,
		assetID:      assetID,
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Account), nil
}

// ListAccounts returns all accounts owned by a user, in no particular
// order.
func (e *Engine) ListAccounts(userID int64) ([]models.Account, error) {
	v, err := e.submit(listAccountsCmd{userID: userID})
	if err != nil {
		return nil, err
	}
	return v.([]models.Account), nil
}

// ListDebts returns the accounts that reference the given account as
// their asset (the reverse side of the asset link).
func (e *Engine) ListDebts(accountID int64) ([]models.Account, error) {
	v, err := e.submit(listDebtsCmd{accountID: accountID})
	if err != nil {
		return nil, err
	}
	return v.([]models.Account), nil
}

// AddStatement records a statement period for an account. start and end
// accept a "YYYY/MM/DD" string or a time value; due additionally accepts
// nil.
func (e *Engine) AddStatement(accountID int64, start, due, end any, fees, interest, deposits, withdrawals, startBalance, endBalance float64) (*models.Statement, error) {
	v, err := e.submit(addStatementCmd{
		accountID:    accountID,
		start:        start,
		due:          due,
		end:          end,
		fees:         fees,
		interest:     interest,
		deposits:     deposits,
		withdrawals:  withdrawals,
		startBalance: startBalance,
		endBalance:   endBalance,
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Statement), nil
}

// ListStatements returns statements for an account. A limit of zero or
// less returns them all.
func (e *Engine) ListStatements(accountID int64, limit int) ([]models.Statement, error) {
	v, err := e.submit(listStatementsCmd{accountID: accountID, limit: limit})
	if err != nil {
		return nil, err
	}
	return v.([]models.Statement), nil
}

// AddFeedback records a feedback item for a user.
func (e *Engine) AddFeedback(userID int64, feedbackType, subject, description string) (*models.Feedback, error) {
	v, err := e.submit(addFeedbackCmd{
		userID:       userID,
		feedbackType: feedbackType,
		subject:      subject,
		description:  description,
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Feedback), nil
}

// ListFeedback returns all feedback items submitted by a user.
func (e *Engine) ListFeedback(userID int64) ([]models.Feedback, error) {
	v, err := e.submit(listFeedbackCmd{userID: userID})
	if err != nil {
		return nil, err
	}
	return v.([]models.Feedback), nil
}

// RelateFeedback creates one directed edge between two feedback items.
// Nothing stops a caller from creating duplicate edges or a reverse edge
// with different labels.
func (e *Engine) RelateFeedback(fromID, toID int64, fromType, toType string) (*models.FeedbackRelationship, error) {
	v, err := e.submit(relateFeedbackCmd{
		fromID:   fromID,
		toID:     toID,
		fromType: fromType,
		toType:   toType,
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FeedbackRelationship), nil
}

// ListRelatedFeedback returns every relationship touching the given
// feedback item, each enriched with both endpoint records.
func (e *Engine) ListRelatedFeedback(feedbackID int64) ([]models.RelatedFeedback, error) {
	v, err := e.submit(listRelatedFeedbackCmd{feedbackID: feedbackID})
	if err != nil {
		return nil, err
	}
	return v.([]models.RelatedFeedback), nil
}

// FeedbackVote reads or casts a vote. With a nil votes it returns the
// current row, durably creating a zero-vote row if the pair has never
// voted. With a non-nil, non-zero votes it overwrites the stored weight.
func (e *Engine) FeedbackVote(userID, feedbackID int64, votes *int64) (*models.FeedbackVote, error) {
	v, err := e.submit(feedbackVoteCmd{userID: userID, feedbackID: feedbackID, votes: votes})
	if err != nil {
		return nil, err
	}
	return v.(*models.FeedbackVote), nil
}

// FeedbackAllVotes returns every vote row for a feedback item.
func (e *Engine) FeedbackAllVotes(feedbackID int64) ([]models.FeedbackVote, error) {
	v, err := e.submit(feedbackAllVotesCmd{feedbackID: feedbackID})
	if err != nil {
		return nil, err
	}
	return v.([]models.FeedbackVote), nil
}

// CreateSession starts a session for a user, generating a fresh token.
func (e *Engine) CreateSession(userID int64, expiresAt time.Time) (*models.Session, error) {
	v, err := e.submit(createSessionCmd{userID: userID, expiresAt: expiresAt})
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

// ValidateSession resolves a session token to its user. An unknown or
// expired token returns (nil, nil).
func (e *Engine) ValidateSession(token string) (*models.User, error) {
	v, err := e.submit(validateSessionCmd{token: token})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*models.User), nil
}

// DeleteSession removes a session token.
func (e *Engine) DeleteSession(token string) error {
	_, err := e.submit(deleteSessionCmd{token: token})
	return err
}
