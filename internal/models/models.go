package models

import "time"

// User represents a registered user.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// AuthResult is the outcome of a signup or login attempt. ID is nil when
// signup conflicts or login hits an unknown email; Valid carries the
// success flag in both flows.
type AuthResult struct {
	ID    *int64 `json:"id"`
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

// Account represents a financial account owned by a user. AssetID, when
// set, points at another account this one is secured against (a mortgage
// referencing the house, say). No existence check is made when it is stored.
type Account struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Info         string  `json:"info"`
	Type         string  `json:"type"`
	InterestRate float64 `json:"interest_rate"`
	UserID       int64   `json:"user_id"`
	AssetID      *int64  `json:"asset_id"`
}

// Statement represents one account statement period. Monetary fields are
// decimal amounts; the store keeps them as integer cents. Due may be absent.
type Statement struct {
	ID           int64      `json:"id"`
	Start        time.Time  `json:"start"`
	Due          *time.Time `json:"due"`
	End          time.Time  `json:"end"`
	Fees         float64    `json:"fees"`
	Interest     float64    `json:"interest"`
	Deposits     float64    `json:"deposits"`
	Withdrawals  float64    `json:"withdrawals"`
	StartBalance float64    `json:"start_balance"`
	EndBalance   float64    `json:"end_balance"`
	AccountID    int64      `json:"account_id"`
}

// Feedback represents a user-submitted feedback item.
type Feedback struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// FeedbackRelationship is a directed edge between two feedback items. The
// two type labels describe the edge from each endpoint's perspective
// ("duplicate"/"duplicate", "predecessor"/"successor").
type FeedbackRelationship struct {
	ID       int64  `json:"id"`
	FromID   int64  `json:"from_id"`
	ToID     int64  `json:"to_id"`
	FromType string `json:"from_type"`
	ToType   string `json:"to_type"`
}

// RelatedFeedback is a relationship enriched with both endpoint records.
type RelatedFeedback struct {
	FeedbackRelationship
	From *Feedback `json:"from"`
	To   *Feedback `json:"to"`
}

// FeedbackVote holds one user's vote weight on one feedback item. At most
// one row exists per (UserID, FeedbackID); no row means a weight of 0.
type FeedbackVote struct {
	ID         int64 `json:"id"`
	UserID     int64 `json:"user_id"`
	FeedbackID int64 `json:"feedback_id"`
	Votes      int64 `json:"votes"`
}

// Session represents a logged-in user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
