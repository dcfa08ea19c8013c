// Package session gates the back-office behind the single configured admin
// credential. The session travels as a signed cookie and is loaded into the
// request context as an explicit Session value.
package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakhaus/showroom/app/httpx"
)

const (
	cookieName = "showroom_admin"
	emailKey   = "email"
	maxAgeSecs = 12 * 60 * 60
)

// Session is the signed-in admin.
type Session struct {
	Email string `json:"email"`
}

type contextKey struct{}

// FromContext returns the session loaded by RequireAdmin.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Credentials is the admin login the service accepts.
type Credentials struct {
	Email        string
	PasswordHash string
}

// Manager issues, reads and clears the admin cookie.
type Manager struct {
	store     sessions.Store
	creds     Credentials
	validator *httpx.Validator
	log       *zap.Logger
}

func NewManager(secret []byte, secure bool, creds Credentials, log *zap.Logger) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSecs,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, creds: creds, validator: httpx.NewValidator(), log: log}
}

// Check compares the login form with the configured credential.
func (m *Manager) Check(email, password string) bool {
	if m.creds.Email == "" || m.creds.PasswordHash == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(m.creds.Email)),
	) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(m.creds.PasswordHash), []byte(password)) == nil
	return emailOK && passOK
}

// Load reads the session from the request cookie.
func (m *Manager) Load(r *http.Request) (Session, bool) {
	sess, err := m.store.Get(r, cookieName)
	if err != nil {
		return Session{}, false
	}
	email, ok := sess.Values[emailKey].(string)
	if !ok || email == "" {
		return Session{}, false
	}
	return Session{Email: email}, true
}

// RequireAdmin rejects requests without a session and puts the session in
// the context of those that have one.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := m.Load(r)
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "admin session required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin serves POST /admin/login.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if !m.validator.Bind(w, r, &input) {
		return
	}
	if !m.Check(input.Email, input.Password) {
		m.log.Warn("admin login rejected", zap.String("email", input.Email))
		httpx.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	sess, _ := m.store.Get(r, cookieName)
	sess.Values[emailKey] = m.creds.Email
	if err := sess.Save(r, w); err != nil {
		m.log.Error("save admin session", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	m.log.Info("admin signed in", zap.String("email", m.creds.Email))
	httpx.JSON(w, http.StatusOK, Session{Email: m.creds.Email})
}

// HandleLogout serves POST /admin/logout and always succeeds.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.store.Get(r, cookieName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		m.log.Error("clear admin session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrent serves GET /admin/session.
func (m *Manager) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	s, ok := FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "admin session required")
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
