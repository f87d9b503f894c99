package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/greentrace/apiclient"
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/internal/metrics"
	"github.com/jrsteele09/greentrace/sessions"
	"github.com/jrsteele09/greentrace/token/jwt"
	"github.com/jrsteele09/greentrace/users"
)

const (
	DefaultVerifyTimeout = 5 * time.Second
	DefaultVerifyRetries = 2
	defaultRetryBackoff  = 100 * time.Millisecond
)

// Operation names used for metrics and logging
const (
	opInitialize     = "initialize"
	opLogin          = "login"
	opRegister       = "register"
	opLogout         = "logout"
	opVerify         = "verify"
	opForgotPassword = "forgot_password"
	opResetPassword  = "reset_password"
)

// AuthAPI is the subset of the auth API the Manager depends on
type AuthAPI interface {
	Verify(ctx context.Context, token string) (*users.User, error)
	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) (map[string]any, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (map[string]any, error)
}

// Manager owns the process wide session. Construct one in main and pass it down.
type Manager struct {
	api   AuthAPI
	store sessions.Store

	logger        zerolog.Logger
	httpClient    *http.Client
	verifyTimeout time.Duration
	verifyRetries uint64
	retryBackoff  time.Duration
	now           func() time.Time

	mu            sync.RWMutex
	token         string
	user          *users.User
	authenticated bool
	initialized   bool
	inflight      int

	initOnce    sync.Once
	verifyGroup singleflight.Group
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithVerifyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.verifyTimeout = d
		}
	}
}

// WithVerifyRetries sets how often startup verification retries a transport failure
func WithVerifyRetries(n uint64) Option {
	return func(m *Manager) { m.verifyRetries = n }
}

func WithRetryBackoff(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retryBackoff = d
		}
	}
}

// WithHTTPClient sets the client used by Do
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) {
		if hc != nil {
			m.httpClient = hc
		}
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(api AuthAPI, store sessions.Store, opts ...Option) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] auth API is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}
	m := &Manager{
		api:           api,
		store:         store,
		logger:        log.Logger,
		httpClient:    &http.Client{Timeout: apiclient.DefaultTimeout},
		verifyTimeout: DefaultVerifyTimeout,
		verifyRetries: DefaultVerifyRetries,
		retryBackoff:  defaultRetryBackoff,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Token:           m.token,
		User:            m.user,
		IsAuthenticated: m.authenticated && m.token != "",
		IsLoading:       !m.initialized || m.inflight > 0,
	}
}

// Initialize restores and verifies the persisted session. Only the first call does
// any work; every call returns once initialization has finished.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer m.finishInitialize()
		m.restore(ctx)
	})
}

func (m *Manager) restore(ctx context.Context) {
	token, user, ok, err := sessions.LoadCredentials(ctx, m.store)
	if err != nil {
		m.logger.Warn().Err(err).Msg("unable to read stored session")
		m.clear(ctx)
		metrics.ObserveOperation(opInitialize, false)
		return
	}
	if !ok {
		m.clear(ctx)
		return
	}

	if jwt.IsExpired(token, m.now()) {
		m.logger.Info().Msg("stored token has expired")
		m.clear(ctx)
		metrics.ObserveOperation(opInitialize, false)
		return
	}

	m.mu.Lock()
	m.token, m.user = token, user
	m.mu.Unlock()

	vctx, cancel := context.WithTimeout(ctx, m.verifyTimeout)
	defer cancel()
	verified := m.verify(vctx, token, m.verifyRetries)
	metrics.ObserveOperation(opInitialize, verified)
}

func (m *Manager) finishInitialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
}

// Verify re-checks the current token with the API. Concurrent callers share one request.
func (m *Manager) Verify(ctx context.Context) bool {
	token := m.currentToken()
	if token == "" {
		return false
	}
	done := m.begin()
	defer done()
	return m.verify(ctx, token, 0)
}

func (m *Manager) verify(ctx context.Context, token string, retries uint64) bool {
	v, _, _ := m.verifyGroup.Do(token, func() (any, error) {
		user, err := m.verifyWithRetry(ctx, token, retries)
		if err != nil {
			m.logger.Warn().Err(err).Msg("token verification failed")
			m.clearIfCurrent(ctx, token)
			return false, nil
		}
		m.acceptVerified(ctx, token, user)
		return true, nil
	})
	verified, _ := v.(bool)
	metrics.ObserveOperation(opVerify, verified)
	return verified
}

// verifyWithRetry retries transport failures only; a rejection is final
func (m *Manager) verifyWithRetry(ctx context.Context, token string, retries uint64) (*users.User, error) {
	var user *users.User
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(m.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := m.api.Verify(ctx, token)
		if err != nil {
			if gterrors.Is(err, gterrors.ErrNetwork) {
				return retry.RetryableError(err)
			}
			return err
		}
		user = u
		return nil
	})
	return user, err
}

func (m *Manager) acceptVerified(ctx context.Context, token string, user *users.User) {
	m.mu.Lock()
	if m.token != token {
		m.mu.Unlock()
		return
	}
	m.user = user
	m.authenticated = true
	m.mu.Unlock()
	metrics.Authenticated.Set(1)

	if err := sessions.SaveUser(context.WithoutCancel(ctx), m.store, user); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist verified user")
	}
}

// Login authenticates with email and password. It never returns an error; failures
// are described by the Result.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if errs := requireFields(map[string]string{FieldEmail: email, FieldPassword: password}); len(errs) > 0 {
		return validationFailure(errs)
	}

	done := m.begin()
	defer done()

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		metrics.ObserveOperation(opLogin, false)
		return apiFailure(err, MsgLoginFailed)
	}
	result := m.establish(ctx, resp, MsgLoginFailed)
	metrics.ObserveOperation(opLogin, result.Success)
	return result
}

// Register creates an account and signs it in
func (m *Manager) Register(ctx context.Context, req apiclient.SignupRequest) Result {
	req.Email = strings.TrimSpace(req.Email)
	errs := requireFields(map[string]string{
		FieldFirstName:       req.FirstName,
		FieldLastName:        req.LastName,
		FieldEmail:           req.Email,
		FieldPassword:        req.Password,
		FieldConfirmPassword: req.ConfirmPassword,
	})
	if len(errs) > 0 {
		return validationFailure(errs)
	}

	done := m.begin()
	defer done()

	resp, err := m.api.Signup(ctx, req)
	if err != nil {
		metrics.ObserveOperation(opRegister, false)
		return apiFailure(err, MsgRegistrationFailed)
	}
	result := m.establish(ctx, resp, MsgRegistrationFailed)
	metrics.ObserveOperation(opRegister, result.Success)
	return result
}

func (m *Manager) establish(ctx context.Context, resp *apiclient.AuthResponse, failMsg string) Result {
	if resp.Token == "" || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = failMsg
		}
		return Result{Message: msg, Errors: resp.Errors, Kind: ServerFailure}
	}

	m.mu.Lock()
	m.token = resp.Token
	m.user = resp.User
	m.authenticated = true
	m.mu.Unlock()
	metrics.Authenticated.Set(1)

	if err := sessions.SaveCredentials(context.WithoutCancel(ctx), m.store, resp.Token, resp.User); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist session")
	}
	return Result{Success: true, Message: resp.Message, User: resp.User}
}

// Logout always clears the session, even when the API cannot be reached
func (m *Manager) Logout(ctx context.Context) Result {
	done := m.begin()
	defer done()

	if token := m.currentToken(); token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Warn().Err(err).Msg("logout request failed")
		}
	}
	m.clear(ctx)
	metrics.ObserveOperation(opLogout, true)
	return Result{Success: true, Message: MsgLoggedOut}
}

func (m *Manager) ForgotPassword(ctx context.Context, email string) Result {
	body, err := m.api.ForgotPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		m.logger.Warn().Err(err).Msg("forgot password request failed")
		metrics.ObserveOperation(opForgotPassword, false)
		return networkFailure()
	}
	result := passthroughResult(body)
	metrics.ObserveOperation(opForgotPassword, result.Success)
	return result
}

func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) Result {
	body, err := m.api.ResetPassword(ctx, resetToken, newPassword)
	if err != nil {
		m.logger.Warn().Err(err).Msg("reset password request failed")
		metrics.ObserveOperation(opResetPassword, false)
		return networkFailure()
	}
	result := passthroughResult(body)
	metrics.ObserveOperation(opResetPassword, result.Success)
	return result
}

// AuthHeaders returns the headers for an authenticated API call
func (m *Manager) AuthHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if token := m.currentToken(); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// Do sends req with the auth headers. Headers already set on req take precedence.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	for key, values := range m.AuthHeaders() {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}
	return m.httpClient.Do(req)
}

func (m *Manager) currentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// begin marks an operation in flight; the returned func must be deferred
func (m *Manager) begin() func() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.authenticated = false
	m.mu.Unlock()
	metrics.Authenticated.Set(0)

	if err := sessions.ClearCredentials(context.WithoutCancel(ctx), m.store); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear stored session")
	}
}

// clearIfCurrent clears only when token is still the session token, so a stale
// verification cannot sign out a newer login.
func (m *Manager) clearIfCurrent(ctx context.Context, token string) {
	if m.currentToken() != token {
		return
	}
	m.clear(ctx)
}

func apiFailure(err error, defaultMsg string) Result {
	var apiErr *apiclient.APIError
	if !gterrors.As(err, &apiErr) {
		return networkFailure()
	}
	kind := ServerFailure
	if gterrors.Is(err, gterrors.ErrUnauthorized) {
		kind = Unauthorized
	}
	msg := apiErr.Message
	if msg == "" {
		msg = defaultMsg
	}
	return Result{Message: msg, Errors: apiErr.Errors, Kind: kind}
}
