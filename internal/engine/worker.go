package engine

import (
	"fmt"
	"log"
	"time"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/codec"
	"networth-tracker/internal/models"
	"networth-tracker/internal/storage"
)

// run is the worker goroutine. It opens the store, reports the outcome
// to Open, then drains the command channel until the shutdown sentinel
// arrives. No other goroutine ever holds the store.
func (e *Engine) run(path string, opened chan<- error) {
	defer close(e.done)

	store, err := storage.Open(path)
	opened <- err
	if err != nil {
		return
	}
	defer store.Close()

	for cmd := range e.commands {
		if _, ok := cmd.args.(shutdownCmd); ok {
			cmd.reply <- response{}
			return
		}
		cmd.reply <- e.dispatch(store, cmd)
	}
}

// dispatch executes one command. A failing or panicking handler is
// logged and turned into an error result; it never takes the worker
// down with it.
func (e *Engine) dispatch(store *storage.Store, cmd command) (resp response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: %T panicked: %v", cmd.args, r)
			resp = response{err: fmt.Errorf("internal error in %T: %v", cmd.args, r)}
		}
	}()

	value, err := e.handle(store, cmd.args)
	if err != nil {
		log.Printf("engine: %T failed: %v", cmd.args, err)
	}
	return response{value: value, err: err}
}

func (e *Engine) handle(store *storage.Store, args any) (any, error) {
	switch a := args.(type) {
	case addUserCmd:
		return e.addUser(store, a)
	case loginUserCmd:
		return e.loginUser(store, a)
	case addAccountCmd:
		return store.CreateAccount(a.userID, a.name, a.url, a.info, a.accountType, a.interestRate, a.assetID)
	case listAccountsCmd:
		return store.ListAccounts(a.userID)
	case listDebtsCmd:
		return store.ListDebts(a.accountID)
	case addStatementCmd:
		return e.addStatement(store, a)
	case listStatementsCmd:
		return store.ListStatements(a.accountID, a.limit)
	case addFeedbackCmd:
		return store.CreateFeedback(a.userID, a.feedbackType, a.subject, a.description)
	case listFeedbackCmd:
		return store.ListFeedback(a.userID)
	case relateFeedbackCmd:
		return store.CreateFeedbackRelationship(a.fromID, a.toID, a.fromType, a.toType)
	case listRelatedFeedbackCmd:
		return store.ListFeedbackRelationships(a.feedbackID)
	case feedbackVoteCmd:
		return e.feedbackVote(store, a)
	case feedbackAllVotesCmd:
		return store.ListFeedbackVotes(a.feedbackID)
	case createSessionCmd:
		return e.createSession(store, a)
	case validateSessionCmd:
		return e.validateSession(store, a)
	case deleteSessionCmd:
		return nil, store.DeleteSession(a.token)
	default:
		return nil, fmt.Errorf("unrecognized command %T", args)
	}
}

// addUser refuses to reveal whether the conflicting account exists beyond
// the Valid flag: a taken email comes back with a nil ID.
func (e *Engine) addUser(store *storage.Store, cmd addUserCmd) (any, error) {
	existing, err := store.FindUserByEmail(cmd.email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.AuthResult{ID: nil, Email: cmd.email, Valid: false}, nil
	}

	hash, err := auth.HashPassword(cmd.password)
	if err != nil {
		return nil, err
	}

	user, err := store.CreateUser(cmd.email, hash)
	if err != nil {
		return nil, err
	}

	return &models.AuthResult{ID: &user.ID, Email: cmd.email, Valid: true}, nil
}

// loginUser populates the ID whenever the email is known, even on a wrong
// password; only Valid signals the failure. Signup hides existence, login
// reveals it.
func (e *Engine) loginUser(store *storage.Store, cmd loginUserCmd) (any, error) {
	user, err := store.FindUserByEmail(cmd.email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &models.AuthResult{ID: nil, Email: cmd.email, Valid: false}, nil
	}

	return &models.AuthResult{
		ID:    &user.ID,
		Email: cmd.email,
		Valid: auth.CheckPassword(user.PasswordHash, cmd.password),
	}, nil
}

func (e *Engine) addStatement(store *storage.Store, cmd addStatementCmd) (any, error) {
	start, err := codec.ParseDate(cmd.start)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, fmt.Errorf("statement start date is required")
	}

	end, err := codec.ParseDate(cmd.end)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, fmt.Errorf("statement end date is required")
	}

	due, err := codec.ParseDate(cmd.due)
	if err != nil {
		return nil, err
	}

	return store.CreateStatement(&models.Statement{
		Start:        *start,
		Due:          due,
		End:          *end,
		Fees:         cmd.fees,
		Interest:     cmd.interest,
		Deposits:     cmd.deposits,
		Withdrawals:  cmd.withdrawals,
		StartBalance: cmd.startBalance,
		EndBalance:   cmd.endBalance,
		AccountID:    cmd.accountID,
	})
}

// feedbackVote is both the read and the write path. A pair that has never
// voted gets a durable row even on a pure read, so aggregate queries see
// an explicit zero. An existing row is only overwritten by a non-nil,
// non-zero vote value.
func (e *Engine) feedbackVote(store *storage.Store, cmd feedbackVoteCmd) (any, error) {
	existing, err := store.FindFeedbackVote(cmd.userID, cmd.feedbackID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		var votes int64
		if cmd.votes != nil {
			votes = *cmd.votes
		}
		return store.CreateFeedbackVote(cmd.userID, cmd.feedbackID, votes)
	}

	if cmd.votes != nil && *cmd.votes != 0 {
		if err := store.UpdateFeedbackVote(existing.ID, *cmd.votes); err != nil {
			return nil, err
		}
		existing.Votes = *cmd.votes
	}

	return existing, nil
}

func (e *Engine) createSession(store *storage.Store, cmd createSessionCmd) (any, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	if err := store.CreateSession(token, cmd.userID, cmd.expiresAt); err != nil {
		return nil, err
	}
	return &models.Session{Token: token, UserID: cmd.userID, ExpiresAt: cmd.expiresAt}, nil
}

// validateSession returns an untyped nil for a dead token so the client
// handle can distinguish "no session" without an error.
func (e *Engine) validateSession(store *storage.Store, cmd validateSessionCmd) (any, error) {
	user, err := store.FindSessionUser(cmd.token, time.Now())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}
