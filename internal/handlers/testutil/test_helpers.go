package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/api"
	"github.com/charlesng35/resumex/internal/app"
	iauth "github.com/charlesng35/resumex/internal/auth"
	sharedtestutil "github.com/charlesng35/resumex/internal/database/testutil"
	"github.com/charlesng35/resumex/internal/handlers"
	"github.com/charlesng35/resumex/internal/middleware"
	"github.com/charlesng35/resumex/internal/services"
	"github.com/charlesng35/resumex/pkg/mail"
	"github.com/charlesng35/resumex/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
// It keeps a one-cookie jar so consecutive requests behave like a browser session.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.SessionSigner
	Config *app.Config
	Mailer *RecordingMailer

	session *http.Cookie
}

// Option customises the environment before the router is built.
type Option func(*envOptions)

type envOptions struct {
	analyzer    services.ResumeAnalyzer
	environment string
	rateLimit   int
	maxUpload   int64
	cache       handlers.Pinger
}

// WithAnalyzer mounts an analyze endpoint backed by the supplied analyzer.
func WithAnalyzer(a services.ResumeAnalyzer) Option {
	return func(o *envOptions) { o.analyzer = a }
}

// WithEnvironment sets server.environment, e.g. "production".
func WithEnvironment(env string) Option {
	return func(o *envOptions) { o.environment = env }
}

// WithRateLimit overrides the per-route auth rate limit.
func WithRateLimit(n int) Option {
	return func(o *envOptions) { o.rateLimit = n }
}

// WithMaxUpload overrides the analyze upload cap.
func WithMaxUpload(n int64) Option {
	return func(o *envOptions) { o.maxUpload = n }
}

// WithCache registers a cache probe for the health check.
func WithCache(p handlers.Pinger) Option {
	return func(o *envOptions) { o.cache = p }
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	o := envOptions{environment: "test", rateLimit: 1000}
	for _, opt := range opts {
		opt(&o)
	}

	db := sharedtestutil.OpenDB(t, sharedtestutil.Migrated())

	cfg := &app.Config{
		Server: app.ServerConfig{
			Environment: o.environment,
			ClientURL:   "http://localhost:5173",
			CORSOrigins: middleware.DefaultCORSOrigins,
			RateLimit:   app.RateLimitConfig{Requests: o.rateLimit, Window: time.Minute},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    7 * 24 * time.Hour,
			},
			CookieName: iauth.DefaultCookieName,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	jwtSvc, err := iauth.NewSessionSigner(cfg.Auth.SignerConfig())
	require.NoError(t, err)

	users, err := services.NewUserStore(db)
	require.NoError(t, err)

	mailer := &RecordingMailer{}
	notifier := services.NewNotifier(mailer, services.WithNotifierClientURL(cfg.Server.ClientURL))

	authSvc, err := services.NewAuthService(users, jwtSvc, notifier, cfg.Auth.AuthServiceOptions()...)
	require.NoError(t, err)

	analyses, err := services.NewAnalysisService(db)
	require.NoError(t, err)

	deps := api.Dependencies{
		DB:        db,
		Config:    cfg,
		JWT:       jwtSvc,
		Auth:      authSvc,
		Analyses:  analyses,
		RateStore: middleware.NewMemoryRateStore(),
		Cache:     o.cache,
	}
	if o.analyzer != nil {
		deps.Analyzer, err = services.NewAnalyzerService(o.analyzer, analyses, services.WithMaxUploadBytes(o.maxUpload))
		require.NoError(t, err)
	}

	router, err := api.NewRouter(deps)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Config: cfg,
		Mailer: mailer,
	}
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	Password   string `json:"password"`
}

// UserEnvelope is the data payload of signup, login, verify and check.
type UserEnvelope struct {
	User UserPayload `json:"user"`
}

// Signup registers a user and returns the decoded profile. The session cookie is kept.
func (e *Env) Signup(name, email, password string) UserPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var data UserEnvelope
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &data)
	return data.User
}

// SignupVerified registers a user and completes email verification with the mailed code.
func (e *Env) SignupVerified(name, email, password string) UserPayload {
	e.T.Helper()

	user := e.Signup(name, email, password)
	code := e.Mailer.LastData(e.T, email, "code")

	w := e.Request(http.MethodPost, "/api/auth/verify-email", map[string]string{"code": code})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	user.IsVerified = true
	return user
}

// Login authenticates and keeps the issued session cookie.
func (e *Env) Login(email, password string) UserPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var data UserEnvelope
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &data)
	return data.User
}

// SessionCookie returns the cookie currently held by the jar.
func (e *Env) SessionCookie() *http.Cookie {
	return e.session
}

// ForgetSession empties the jar.
func (e *Env) ForgetSession() {
	e.session = nil
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a JSON request against the test router with the jar's session cookie.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			data, err := json.Marshal(body)
			require.NoError(e.T, err)
			reader = bytes.NewBuffer(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.Do(req)
}

// Upload posts a multipart form with a resume file and job description.
func (e *Env) Upload(path, fileName string, content []byte, jobDescription string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := writer.CreateFormFile("resume", fileName)
		require.NoError(e.T, err)
		_, err = part.Write(content)
		require.NoError(e.T, err)
	}
	if jobDescription != "" {
		require.NoError(e.T, writer.WriteField("jobDescription", jobDescription))
	}
	require.NoError(e.T, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.Do(req)
}

// Do serves a prepared request, attaching and then updating the session cookie.
func (e *Env) Do(req *http.Request) *httptest.ResponseRecorder {
	e.T.Helper()

	if e.session != nil {
		req.AddCookie(e.session)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	e.capture(w.Result())
	return w
}

func (e *Env) capture(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name != e.Config.Auth.CookieName {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			e.session = nil
			continue
		}
		clone := *c
		e.session = &clone
	}
}

// RecordingMailer captures every message and can be switched to fail.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	fail     error
}

// Send records the message or returns the configured failure.
func (m *RecordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.messages = append(m.messages, msg)
	return nil
}

// FailWith makes subsequent sends return err. A nil error restores delivery.
func (m *RecordingMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Messages returns a copy of the recorded messages.
func (m *RecordingMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// Last returns the most recent message sent to recipient.
func (m *RecordingMailer) Last(t *testing.T, recipient string) mail.Message {
	t.Helper()
	msgs := m.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		for _, to := range msgs[i].To {
			if to == recipient {
				return msgs[i]
			}
		}
	}
	t.Fatalf("no message sent to %s", recipient)
	return mail.Message{}
}

// LastData returns a string template value from the latest message to recipient.
func (m *RecordingMailer) LastData(t *testing.T, recipient, key string) string {
	t.Helper()
	value, ok := m.Last(t, recipient).Data[key].(string)
	require.True(t, ok, "message data %q is not a string", key)
	return value
}
