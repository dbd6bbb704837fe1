// Package handlers exposes the engine over a JSON HTTP API. This is thin
// glue: every handler decodes a request, calls one engine operation, and
// serializes the result.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"networth-tracker/internal/engine"
	"networth-tracker/internal/models"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine       *engine.Engine
	secureCookie bool
}

// New creates a new Handlers instance.
func New(e *engine.Engine, secureCookie bool) *Handlers {
	return &Handlers{engine: e, secureCookie: secureCookie}
}

// Register attaches all routes to the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.Signup)
	mux.HandleFunc("POST /api/sessions", h.Login)
	mux.HandleFunc("DELETE /api/sessions", h.Logout)

	mux.Handle("GET /api/accounts", h.AuthMiddleware(http.HandlerFunc(h.ListAccounts)))
	mux.Handle("POST /api/accounts", h.AuthMiddleware(http.HandlerFunc(h.AddAccount)))
	mux.Handle("GET /api/accounts/{id}/debts", h.AuthMiddleware(http.HandlerFunc(h.ListDebts)))
	mux.Handle("GET /api/accounts/{id}/statements", h.AuthMiddleware(http.HandlerFunc(h.ListStatements)))
	mux.Handle("POST /api/accounts/{id}/statements", h.AuthMiddleware(http.HandlerFunc(h.AddStatement)))

	mux.Handle("GET /api/feedback", h.AuthMiddleware(http.HandlerFunc(h.ListFeedback)))
	mux.Handle("POST /api/feedback", h.AuthMiddleware(http.HandlerFunc(h.AddFeedback)))
	mux.Handle("POST /api/feedback/relationships", h.AuthMiddleware(http.HandlerFunc(h.RelateFeedback)))
	mux.Handle("GET /api/feedback/{id}/related", h.AuthMiddleware(http.HandlerFunc(h.ListRelatedFeedback)))
	mux.Handle("POST /api/feedback/{id}/vote", h.AuthMiddleware(http.HandlerFunc(h.Vote)))
	mux.Handle("GET /api/feedback/{id}/votes", h.AuthMiddleware(http.HandlerFunc(h.ListVotes)))
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require a live session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := h.engine.ValidateSession(cookie.Value)
		if err != nil {
			log.Printf("validate session: %v", err)
			respondError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if user == nil {
			h.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "session expired")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a new user.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.engine.AddUser(req.Email, req.Password)
	if err != nil {
		log.Printf("add user: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if !result.Valid {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	respondJSON(w, http.StatusCreated, "user created", result)
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	result, err := h.engine.LoginUser(req.Email, req.Password)
	if err != nil {
		log.Printf("login user: %v", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !result.Valid {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session, err := h.engine.CreateSession(*result.ID, time.Now().Add(SessionDuration))
	if err != nil {
		log.Printf("create session: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, "logged in", result)
}

// Logout ends the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.engine.DeleteSession(cookie.Value); err != nil {
			log.Printf("delete session: %v", err)
		}
	}
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, "logged out", nil)
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

type accountRequest struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Info         string  `json:"info"`
	Type         string  `json:"type"`
	InterestRate float64 `json:"interest_rate"`
	AssetID      *int64  `json:"asset_id"`
}

// AddAccount creates an account for the logged-in user.
func (h *Handlers) AddAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Name == "" || req.Type == "" {
		respondError(w, http.StatusBadRequest, "name and type are required")
		return
	}

	account, err := h.engine.AddAccount(user.ID, req.Name, req.URL, req.Info, req.Type, req.InterestRate, req.AssetID)
	if err != nil {
		log.Printf("add account: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(w, http.StatusCreated, "account created", account)
}

// ListAccounts returns the logged-in user's accounts.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	accounts, err := h.engine.ListAccounts(user.ID)
	if err != nil {
		log.Printf("list accounts: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	respondJSON(w, http.StatusOK, "accounts", accounts)
}

// ListDebts returns the accounts secured against one of the user's
// accounts.
func (h *Handlers) ListDebts(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	account := h.ownedAccount(w, r, user)
	if account == nil {
		return
	}

	debts, err := h.engine.ListDebts(account.ID)
	if err != nil {
		log.Printf("list debts: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list debts")
		return
	}

	respondJSON(w, http.StatusOK, "debts", debts)
}

// ownedAccount resolves the {id} path value to one of the user's own
// accounts, or writes the error response and returns nil.
func (h *Handlers) ownedAccount(w http.ResponseWriter, r *http.Request, user *models.User) *models.Account {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return nil
	}

	accounts, err := h.engine.ListAccounts(user.ID)
	if err != nil {
		log.Printf("list accounts: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to look up account")
		return nil
	}

	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}

	respondError(w, http.StatusNotFound, "account not found")
	return nil
}

type statementRequest struct {
	Start        string  `json:"start"`
	Due          *string `json:"due"`
	End          string  `json:"end"`
	Fees         float64 `json:"fees"`
	Interest     float64 `json:"interest"`
	Deposits     float64 `json:"deposits"`
	Withdrawals  float64 `json:"withdrawals"`
	StartBalance float64 `json:"start_balance"`
	EndBalance   float64 `json:"end_balance"`
}

// AddStatement records a statement for one of the user's accounts.
func (h *Handlers) AddStatement(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	account := h.ownedAccount(w, r, user)
	if account == nil {
		return
	}

	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var due any
	if req.Due != nil {
		due = *req.Due
	}

	statement, err := h.engine.AddStatement(account.ID, req.Start, due, req.End,
		req.Fees, req.Interest, req.Deposits, req.Withdrawals, req.StartBalance, req.EndBalance)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, "statement created", statement)
}

// ListStatements returns statements for one of the user's accounts. An
// optional ?limit= query caps the result.
func (h *Handlers) ListStatements(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	account := h.ownedAccount(w, r, user)
	if account == nil {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	statements, err := h.engine.ListStatements(account.ID, limit)
	if err != nil {
		log.Printf("list statements: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list statements")
		return
	}

	respondJSON(w, http.StatusOK, "statements", statements)
}

type feedbackRequest struct {
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// AddFeedback records a feedback item for the logged-in user.
func (h *Handlers) AddFeedback(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Subject == "" {
		respondError(w, http.StatusBadRequest, "subject is required")
		return
	}

	item, err := h.engine.AddFeedback(user.ID, req.Type, req.Subject, req.Description)
	if err != nil {
		log.Printf("add feedback: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create feedback")
		return
	}

	respondJSON(w, http.StatusCreated, "feedback created", item)
}

// ListFeedback returns the logged-in user's feedback items.
func (h *Handlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	items, err := h.engine.ListFeedback(user.ID)
	if err != nil {
		log.Printf("list feedback: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}

	respondJSON(w, http.StatusOK, "feedback", items)
}

type relateRequest struct {
	FromID   int64  `json:"from_id"`
	ToID     int64  `json:"to_id"`
	FromType string `json:"from_type"`
	ToType   string `json:"to_type"`
}

// RelateFeedback creates a directed edge between two feedback items.
func (h *Handlers) RelateFeedback(w http.ResponseWriter, r *http.Request) {
	var req relateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	rel, err := h.engine.RelateFeedback(req.FromID, req.ToID, req.FromType, req.ToType)
	if err != nil {
		log.Printf("relate feedback: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to relate feedback")
		return
	}

	respondJSON(w, http.StatusCreated, "relationship created", rel)
}

func feedbackIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid feedback id")
		return 0, false
	}
	return id, true
}

// ListRelatedFeedback returns relationships touching a feedback item.
func (h *Handlers) ListRelatedFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := feedbackIDFromPath(w, r)
	if !ok {
		return
	}

	related, err := h.engine.ListRelatedFeedback(id)
	if err != nil {
		log.Printf("list related feedback: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list related feedback")
		return
	}

	respondJSON(w, http.StatusOK, "related feedback", related)
}

type voteRequest struct {
	Votes *int64 `json:"votes"`
}

// Vote reads or casts the logged-in user's vote on a feedback item.
func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, ok := feedbackIDFromPath(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	vote, err := h.engine.FeedbackVote(user.ID, id, req.Votes)
	if err != nil {
		log.Printf("feedback vote: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to record vote")
		return
	}

	respondJSON(w, http.StatusOK, "vote", vote)
}

// ListVotes returns every vote row for a feedback item.
func (h *Handlers) ListVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := feedbackIDFromPath(w, r)
	if !ok {
		return
	}

	votes, err := h.engine.FeedbackAllVotes(id)
	if err != nil {
		log.Printf("feedback votes: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list votes")
		return
	}

	respondJSON(w, http.StatusOK, "votes", votes)
}
