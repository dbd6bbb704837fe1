// Package storage owns the database connection and executes row-level
// operations against the schema. It is single-threaded by contract:
// only the engine's worker goroutine may call into a Store.
package storage

import (
	"database/sql"
	"errors"
	"time"

	"networth-tracker/internal/codec"
	"networth-tracker/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB connection.
type Store struct {
	conn *sql.DB
}

// Open opens a database connection and ensures the schema exists.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// One caller, one connection. Also keeps :memory: databases alive,
	// which vanish when their connection is recycled.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			info TEXT NOT NULL,
			type TEXT NOT NULL,
			interest_rate INTEGER NOT NULL DEFAULT 0,
			user_id INTEGER NOT NULL REFERENCES users(id),
			asset_id INTEGER REFERENCES accounts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start DATETIME NOT NULL,
			due DATETIME,
			end DATETIME NOT NULL,
			fees INTEGER NOT NULL,
			interest INTEGER NOT NULL,
			deposits INTEGER NOT NULL,
			withdrawals INTEGER NOT NULL,
			start_balance INTEGER NOT NULL,
			end_balance INTEGER NOT NULL,
			account_id INTEGER NOT NULL REFERENCES accounts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			subject TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedback_relationships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_id INTEGER NOT NULL REFERENCES feedback(id),
			to_id INTEGER NOT NULL REFERENCES feedback(id),
			from_type TEXT NOT NULL,
			to_type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedback_votes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			feedback_id INTEGER NOT NULL REFERENCES feedback(id),
			votes INTEGER NOT NULL DEFAULT 0,
			UNIQUE (user_id, feedback_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			expires_at DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateUser inserts a new user with the given email and password hash.
func (s *Store) CreateUser(email, passwordHash string) (*models.User, error) {
	result, err := s.conn.Exec(
		"INSERT INTO users (email, password_hash) VALUES (?, ?)",
		email, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}

// FindUserByEmail retrieves a user by case-insensitive email match.
// A missing user is not an error: it returns (nil, nil).
func (s *Store) FindUserByEmail(email string) (*models.User, error) {
	row := s.conn.QueryRow(
		"SELECT id, email, password_hash FROM users WHERE lower(email) = lower(?)",
		email,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateAccount inserts a new account. AssetID is stored as given; no
// existence check is made on the referenced account.
func (s *Store) CreateAccount(userID int64, name, url, info, accountType string, interestRate float64, assetID *int64) (*models.Account, error) {
	result, err := s.conn.Exec(
		"INSERT INTO accounts (name, url, info, type, interest_rate, user_id, asset_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		name, url, info, accountType, codec.EncodeRate(interestRate), userID, assetID,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Account{
		ID:           id,
		Name:         name,
		URL:          url,
		Info:         info,
		Type:         accountType,
		InterestRate: codec.DecodeRate(codec.EncodeRate(interestRate)),
		UserID:       userID,
		AssetID:      assetID,
	}, nil
}

// ListAccounts retrieves all accounts owned by a user. Order is whatever
// the database returns.
func (s *Store) ListAccounts(userID int64) ([]models.Account, error) {
	rows, err := s.conn.Query(
		"SELECT id, name, url, info, type, interest_rate, user_id, asset_id FROM accounts WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		var rate int64
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Info, &a.Type, &rate, &a.UserID, &a.AssetID); err != nil {
			return nil, err
		}
		a.InterestRate = codec.DecodeRate(rate)
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// ListDebts retrieves the accounts that reference the given account as
// their asset, scanning the asset_id column on demand.
func (s *Store) ListDebts(assetID int64) ([]models.Account, error) {
	rows, err := s.conn.Query(
		"SELECT id, name, url, info, type, interest_rate, user_id, asset_id FROM accounts WHERE asset_id = ?",
		assetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		var rate int64
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Info, &a.Type, &rate, &a.UserID, &a.AssetID); err != nil {
			return nil, err
		}
		a.InterestRate = codec.DecodeRate(rate)
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// CreateStatement inserts a statement, converting monetary fields to
// integer cents on the way in.
func (s *Store) CreateStatement(st *models.Statement) (*models.Statement, error) {
	result, err := s.conn.Exec(
		`INSERT INTO statements (start, due, end, fees, interest, deposits, withdrawals, start_balance, end_balance, account_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Start, st.Due, st.End,
		codec.EncodeMoney(st.Fees), codec.EncodeMoney(st.Interest),
		codec.EncodeMoney(st.Deposits), codec.EncodeMoney(st.Withdrawals),
		codec.EncodeMoney(st.StartBalance), codec.EncodeMoney(st.EndBalance),
		st.AccountID,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	out := *st
	out.ID = id
	return &out, nil
}

// ListStatements retrieves statements for an account. A limit of zero or
// less means no limit.
func (s *Store) ListStatements(accountID int64, limit int) ([]models.Statement, error) {
	query := "SELECT id, start, due, end, fees, interest, deposits, withdrawals, start_balance, end_balance, account_id FROM statements WHERE account_id = ?"
	args := []any{accountID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []models.Statement
	for rows.Next() {
		var st models.Statement
		var fees, interest, deposits, withdrawals, startBalance, endBalance int64
		if err := rows.Scan(&st.ID, &st.Start, &st.Due, &st.End,
			&fees, &interest, &deposits, &withdrawals, &startBalance, &endBalance,
			&st.AccountID); err != nil {
			return nil, err
		}
		st.Fees = codec.DecodeMoney(fees)
		st.Interest = codec.DecodeMoney(interest)
		st.Deposits = codec.DecodeMoney(deposits)
		st.Withdrawals = codec.DecodeMoney(withdrawals)
		st.StartBalance = codec.DecodeMoney(startBalance)
		st.EndBalance = codec.DecodeMoney(endBalance)
		statements = append(statements, st)
	}

	return statements, rows.Err()
}

// CreateFeedback inserts a feedback item.
func (s *Store) CreateFeedback(userID int64, feedbackType, subject, description string) (*models.Feedback, error) {
	result, err := s.conn.Exec(
		"INSERT INTO feedback (user_id, type, subject, description) VALUES (?, ?, ?, ?)",
		userID, feedbackType, subject, description,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Feedback{
		ID:          id,
		UserID:      userID,
		Type:        feedbackType,
		Subject:     subject,
		Description: description,
	}, nil
}

// ListFeedback retrieves all feedback items submitted by a user.
func (s *Store) ListFeedback(userID int64) ([]models.Feedback, error) {
	rows, err := s.conn.Query(
		"SELECT id, user_id, type, subject, description FROM feedback WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Subject, &f.Description); err != nil {
			return nil, err
		}
		items = append(items, f)
	}

	return items, rows.Err()
}

// CreateFeedbackRelationship inserts one directed edge between two
// feedback items. Duplicate and reverse edges are allowed.
func (s *Store) CreateFeedbackRelationship(fromID, toID int64, fromType, toType string) (*models.FeedbackRelationship, error) {
	result, err := s.conn.Exec(
		"INSERT INTO feedback_relationships (from_id, to_id, from_type, to_type) VALUES (?, ?, ?, ?)",
		fromID, toID, fromType, toType,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.FeedbackRelationship{
		ID:       id,
		FromID:   fromID,
		ToID:     toID,
		FromType: fromType,
		ToType:   toType,
	}, nil
}

// ListFeedbackRelationships retrieves every relationship where the given
// feedback appears at either end, with both endpoint records joined in.
func (s *Store) ListFeedbackRelationships(feedbackID int64) ([]models.RelatedFeedback, error) {
	rows, err := s.conn.Query(`
		SELECT r.id, r.from_id, r.to_id, r.from_type, r.to_type,
		       f.id, f.user_id, f.type, f.subject, f.description,
		       t.id, t.user_id, t.type, t.subject, t.description
		FROM feedback_relationships r
		JOIN feedback f ON f.id = r.from_id
		JOIN feedback t ON t.id = r.to_id
		WHERE r.from_id = ? OR r.to_id = ?
	`, feedbackID, feedbackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var related []models.RelatedFeedback
	for rows.Next() {
		var rel models.RelatedFeedback
		var from, to models.Feedback
		if err := rows.Scan(&rel.ID, &rel.FromID, &rel.ToID, &rel.FromType, &rel.ToType,
			&from.ID, &from.UserID, &from.Type, &from.Subject, &from.Description,
			&to.ID, &to.UserID, &to.Type, &to.Subject, &to.Description); err != nil {
			return nil, err
		}
		rel.From = &from
		rel.To = &to
		related = append(related, rel)
	}

	return related, rows.Err()
}

// FindFeedbackVote retrieves the unique vote row for a (user, feedback)
// pair, or (nil, nil) when no vote has been cast.
func (s *Store) FindFeedbackVote(userID, feedbackID int64) (*models.FeedbackVote, error) {
	row := s.conn.QueryRow(
		"SELECT id, user_id, feedback_id, votes FROM feedback_votes WHERE user_id = ? AND feedback_id = ?",
		userID, feedbackID,
	)

	var v models.FeedbackVote
	if err := row.Scan(&v.ID, &v.UserID, &v.FeedbackID, &v.Votes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// CreateFeedbackVote inserts a vote row for a pair that has never voted.
func (s *Store) CreateFeedbackVote(userID, feedbackID, votes int64) (*models.FeedbackVote, error) {
	result, err := s.conn.Exec(
		"INSERT INTO feedback_votes (user_id, feedback_id, votes) VALUES (?, ?, ?)",
		userID, feedbackID, votes,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.FeedbackVote{ID: id, UserID: userID, FeedbackID: feedbackID, Votes: votes}, nil
}

// UpdateFeedbackVote overwrites the stored vote weight for an existing row.
func (s *Store) UpdateFeedbackVote(id, votes int64) error {
	_, err := s.conn.Exec("UPDATE feedback_votes SET votes = ? WHERE id = ?", votes, id)
	return err
}

// ListFeedbackVotes retrieves all vote rows for a feedback item.
func (s *Store) ListFeedbackVotes(feedbackID int64) ([]models.FeedbackVote, error) {
	rows, err := s.conn.Query(
		"SELECT id, user_id, feedback_id, votes FROM feedback_votes WHERE feedback_id = ?",
		feedbackID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []models.FeedbackVote
	for rows.Next() {
		var v models.FeedbackVote
		if err := rows.Scan(&v.ID, &v.UserID, &v.FeedbackID, &v.Votes); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// CreateSession creates a new session for a user.
func (s *Store) CreateSession(token string, userID int64, expiresAt time.Time) error {
	_, err := s.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt,
	)
	return err
}

// FindSessionUser retrieves the user behind a live session token, or
// (nil, nil) when the token is unknown or expired.
func (s *Store) FindSessionUser(token string, now time.Time) (*models.User, error) {
	row := s.conn.QueryRow(`
		SELECT u.id, u.email, u.password_hash
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, now)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// DeleteSession removes a session by token.
func (s *Store) DeleteSession(token string) error {
	_, err := s.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}
