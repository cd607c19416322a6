// Package apitest runs an in-process member and notification backend for
// tests. Tokens are real HS256 JWTs.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openkcm/fitness-client/pkg/api"
	"github.com/openkcm/fitness-client/pkg/session"
	"github.com/openkcm/fitness-client/pkg/transport"
)

const (
	PathSignup        = api.DefaultMemberPrefix + "/auth/signup"
	PathLogin         = api.DefaultMemberPrefix + "/auth/login"
	PathLogout        = api.DefaultMemberPrefix + "/auth/logout"
	PathProfile       = api.DefaultMemberPrefix + "/member"
	PathNotifications = api.DefaultNotificationPrefix + "/notification"
	PathUnread        = api.DefaultNotificationPrefix + "/notification/unread"
	PathMarkAsRead    = api.DefaultNotificationPrefix + "/notification/read"
)

type member struct {
	password string
	user     session.User
}

type forcedResponse struct {
	status  int
	message string
}

// RecordedRequest is what the server saw of one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	secret        []byte
	tokenTTL      time.Duration
	members       map[string]*member
	notifications map[int64][]api.Notification
	revoked       map[string]bool
	forced        map[string]forcedResponse
	delays        map[string]time.Duration
	requests      []RecordedRequest
	nextUserID    int64
	nextNotifID   int64
}

// NewServer starts the backend and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:        []byte(uuid.NewString()),
		tokenTTL:      time.Hour,
		members:       make(map[string]*member),
		notifications: make(map[int64][]api.Notification),
		revoked:       make(map[string]bool),
		forced:        make(map[string]forcedResponse),
		delays:        make(map[string]time.Duration),
	}

	r := mux.NewRouter()
	r.Use(s.record, s.delay, s.force)
	r.HandleFunc(PathSignup, s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc(PathLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(PathLogout, s.authenticated(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc(PathProfile, s.authenticated(s.handleProfile)).Methods(http.MethodGet)
	r.HandleFunc(PathNotifications, s.authenticated(s.handleNotifications)).Methods(http.MethodGet)
	r.HandleFunc(PathUnread, s.authenticated(s.handleUnread)).Methods(http.MethodGet)
	r.HandleFunc(PathMarkAsRead, s.authenticated(s.handleMarkAsRead)).Methods(http.MethodPatch)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

// Config points an api.Client at this server.
func (s *Server) Config() api.Config {
	return api.Config{
		BaseURL:            s.URL,
		MemberPrefix:       api.DefaultMemberPrefix,
		NotificationPrefix: api.DefaultNotificationPrefix,
	}
}

// APIClient builds a client for this server with the production stage chain
// minus instrumentation.
func (s *Server) APIClient(tokens transport.TokenSource, invalidator transport.Invalidator) *api.Client {
	handler := transport.Chain(
		transport.Dispatch(s.Client()),
		transport.Classify(invalidator),
		transport.Authenticate(tokens),
	)

	return api.New(s.Config(), handler)
}

// AddMember registers a member directly.
func (s *Server) AddMember(id, password string, role session.Role) session.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addMember(id, password, role)
}

// AddNotification appends a notification to the member's list.
func (s *Server) AddNotification(userID int64, content string, read bool) api.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotifID++
	n := api.Notification{
		NotificationID:    s.nextNotifID,
		UserID:            userID,
		Content:           content,
		CheckNotification: read,
	}
	s.notifications[userID] = append(s.notifications[userID], n)

	return n
}

// Notifications returns the server side list of the member.
func (s *Server) Notifications(userID int64) []api.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.notifications[userID])
}

// IssueToken mints a token for user valid for ttl.
func (s *Server) IssueToken(user session.User, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.issueToken(user, ttl)
}

// ExpireTokens rotates the signing secret: every issued token is rejected
// with 401 from now on.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secret = []byte(uuid.NewString())
}

// ForceStatus makes every request to path fail with status. A zero status
// removes the override.
func (s *Server) ForceStatus(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		delete(s.forced, path)
		return
	}
	s.forced[path] = forcedResponse{status: status, message: message}
}

// Delay holds every request to path for d, or until the client gives up.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delays[path] = d
}

// Requests returns the recorded requests to path, or all when path is empty.
func (s *Server) Requests(path string) []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		return slices.Clone(s.requests)
	}

	var out []RecordedRequest
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}

	return out
}

func (s *Server) addMember(id, password string, role session.Role) session.User {
	if role == "" {
		role = session.RoleUser
	}

	s.nextUserID++
	user := session.User{UserID: s.nextUserID, Username: id, Role: role}
	s.members[id] = &member{password: password, user: user}

	return user
}

func (s *Server) issueToken(user session.User, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.Username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}

	return signed
}

func (s *Server) memberFromToken(raw string) (*member, error) {
	s.mu.Lock()
	secret := s.secret
	revoked := s.revoked[raw]
	s.mu.Unlock()

	if revoked {
		return nil, errors.New("token revoked")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[claims.Subject]
	if !ok {
		return nil, errors.New("unknown member")
	}

	return m, nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		d := s.delays[r.URL.Path]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) force(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		forced, ok := s.forced[r.URL.Path]
		s.mu.Unlock()

		if ok {
			writeFailure(w, forced.status, forced.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, *member, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeFailure(w, http.StatusUnauthorized, "missing token")
			return
		}

		m, err := s.memberFromToken(raw)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r, m, raw)
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "id and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[req.ID]; exists {
		writeFailure(w, http.StatusBadRequest, "id already exists")
		return
	}

	user := s.addMember(req.ID, req.Password, req.Role)
	writeJSON(w, http.StatusCreated, api.Envelope{
		Status:  api.StatusSuccess,
		Message: "signed up",
		Data:    s.issueToken(user, s.tokenTTL),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[req.ID]
	if !ok || m.password != req.Password {
		writeFailure(w, http.StatusBadRequest, "invalid id or password")
		return
	}

	writeJSON(w, http.StatusOK, api.Envelope{
		Status:  api.StatusSuccess,
		Message: "logged in",
		Data:    s.issueToken(m.user, s.tokenTTL),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _ *member, raw string) {
	s.mu.Lock()
	s.revoked[raw] = true
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request, m *member, _ string) {
	writeJSON(w, http.StatusOK, api.Envelope{
		Status:  api.StatusSuccess,
		Message: "member found",
		Data:    m.user,
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request, m *member, _ string) {
	list := s.Notifications(m.user.UserID)
	if list == nil {
		list = []api.Notification{}
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUnread(w http.ResponseWriter, _ *http.Request, m *member, _ string) {
	unread := []api.Notification{}
	for _, n := range s.Notifications(m.user.UserID) {
		if !n.CheckNotification {
			unread = append(unread, n)
		}
	}

	writeJSON(w, http.StatusOK, unread)
}

func (s *Server) handleMarkAsRead(w http.ResponseWriter, r *http.Request, m *member, _ string) {
	var req api.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.notifications[m.user.UserID]
	idx := slices.IndexFunc(list, func(n api.Notification) bool { return n.NotificationID == req.NotificationID })
	if idx < 0 {
		writeFailure(w, http.StatusNotFound, "notification "+strconv.FormatInt(req.NotificationID, 10)+" not found")
		return
	}

	list[idx].CheckNotification = true
	writeJSON(w, http.StatusOK, map[string]any{})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.Envelope{Status: "FAIL", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
