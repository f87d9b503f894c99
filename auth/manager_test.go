package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/greentrace/apiclient"
	"github.com/jrsteele09/greentrace/auth"
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/sessions"
	"github.com/jrsteele09/greentrace/users"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Secret1!"
	testToken    = "tok-1"
)

var testUser = &users.User{ID: "1", Email: testEmail, FirstName: "Ada", LastName: "Lovelace"}

// fakeAPI records calls and delegates to the configured funcs
type fakeAPI struct {
	verifyFn func(ctx context.Context, token string) (*users.User, error)
	loginFn  func(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	signupFn func(ctx context.Context, req apiclient.SignupRequest) (*apiclient.AuthResponse, error)
	logoutFn func(ctx context.Context, token string) error
	forgotFn func(ctx context.Context, email string) (map[string]any, error)
	resetFn  func(ctx context.Context, token, password string) (map[string]any, error)

	mu    sync.Mutex
	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Verify(ctx context.Context, token string) (*users.User, error) {
	f.record("verify")
	if f.verifyFn == nil {
		return testUser, nil
	}
	return f.verifyFn(ctx, token)
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error) {
	f.record("login")
	if f.loginFn == nil {
		return &apiclient.AuthResponse{Success: true, Message: "Login successful", Token: testToken, User: testUser}, nil
	}
	return f.loginFn(ctx, email, password)
}

func (f *fakeAPI) Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.AuthResponse, error) {
	f.record("signup")
	if f.signupFn == nil {
		return &apiclient.AuthResponse{Success: true, Token: testToken, User: testUser}, nil
	}
	return f.signupFn(ctx, req)
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.record("logout")
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx, token)
}

func (f *fakeAPI) ForgotPassword(ctx context.Context, email string) (map[string]any, error) {
	f.record("forgot")
	return f.forgotFn(ctx, email)
}

func (f *fakeAPI) ResetPassword(ctx context.Context, token, password string) (map[string]any, error) {
	f.record("reset")
	return f.resetFn(ctx, token, password)
}

func networkErr() error {
	return errors.Wrap(gterrors.ErrNetwork, "connection refused")
}

func newManager(t *testing.T, api *fakeAPI, store sessions.Store, opts ...auth.Option) *auth.Manager {
	t.Helper()
	opts = append([]auth.Option{
		auth.WithLogger(zerolog.Nop()),
		auth.WithRetryBackoff(time.Millisecond),
	}, opts...)
	m, err := auth.NewManager(api, store, opts...)
	require.NoError(t, err)
	return m
}

func storedKeys(t *testing.T, store sessions.Store) (token string, hasToken, hasUser bool) {
	t.Helper()
	token, hasToken, err := store.Get(context.Background(), sessions.KeyToken)
	require.NoError(t, err)
	_, hasUser, err = store.Get(context.Background(), sessions.KeyUser)
	require.NoError(t, err)
	return token, hasToken, hasUser
}

func seedSession(t *testing.T, store sessions.Store, token string) {
	t.Helper()
	require.NoError(t, sessions.SaveCredentials(context.Background(), store, token, testUser))
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	_, err := auth.NewManager(nil, sessions.NewInMemoryStore())
	require.Error(t, err)
	_, err = auth.NewManager(newFakeAPI(), nil)
	require.Error(t, err)
}

func TestManager_LoadingUntilInitialized(t *testing.T) {
	m := newManager(t, newFakeAPI(), sessions.NewInMemoryStore())
	require.True(t, m.State().IsLoading)

	m.Initialize(context.Background())
	state := m.State()
	require.False(t, state.IsLoading)
	require.False(t, state.IsAuthenticated)
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists token and user", func(t *testing.T) {
		store := sessions.NewInMemoryStore()
		m := newManager(t, newFakeAPI(), store)
		m.Initialize(ctx)

		result := m.Login(ctx, "  "+testEmail+" ", testPassword)
		require.True(t, result.Success)
		require.Equal(t, "Login successful", result.Message)
		require.Equal(t, testEmail, result.User.Email)
		require.NoError(t, result.Err())

		token, hasToken, hasUser := storedKeys(t, store)
		require.True(t, hasToken)
		require.True(t, hasUser)
		require.Equal(t, testToken, token)

		state := m.State()
		require.True(t, state.IsAuthenticated)
		require.False(t, state.IsLoading)
		require.Equal(t, testToken, state.Token)
	})

	t.Run("empty fields fail without a network call", func(t *testing.T) {
		api := newFakeAPI()
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		result := m.Login(ctx, "   ", "")
		require.False(t, result.Success)
		require.Equal(t, auth.ValidationFailure, result.Kind)
		require.Equal(t, auth.MsgRequired, result.Errors[auth.FieldEmail])
		require.Equal(t, auth.MsgRequired, result.Errors[auth.FieldPassword])
		require.ErrorIs(t, result.Err(), gterrors.ErrValidation)
		require.Zero(t, api.count("login"))
	})

	t.Run("rejected credentials leave state untouched", func(t *testing.T) {
		api := newFakeAPI()
		api.loginFn = func(context.Context, string, string) (*apiclient.AuthResponse, error) {
			return nil, apiclient.NewAPIError(http.StatusUnauthorized, "Invalid email or password", nil)
		}
		store := sessions.NewInMemoryStore()
		m := newManager(t, api, store)
		m.Initialize(ctx)

		result := m.Login(ctx, testEmail, "wrong")
		require.False(t, result.Success)
		require.Equal(t, auth.Unauthorized, result.Kind)
		require.Equal(t, "Invalid email or password", result.Message)
		require.False(t, m.State().IsAuthenticated)
		_, hasToken, _ := storedKeys(t, store)
		require.False(t, hasToken)
	})

	t.Run("missing message falls back to default", func(t *testing.T) {
		api := newFakeAPI()
		api.loginFn = func(context.Context, string, string) (*apiclient.AuthResponse, error) {
			return nil, apiclient.NewAPIError(http.StatusInternalServerError, "", nil)
		}
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		result := m.Login(ctx, testEmail, testPassword)
		require.Equal(t, auth.MsgLoginFailed, result.Message)
	})

	t.Run("network failure", func(t *testing.T) {
		api := newFakeAPI()
		api.loginFn = func(context.Context, string, string) (*apiclient.AuthResponse, error) {
			return nil, networkErr()
		}
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		result := m.Login(ctx, testEmail, testPassword)
		require.False(t, result.Success)
		require.Equal(t, auth.NetworkFailure, result.Kind)
		require.Equal(t, auth.MsgNetworkError, result.Message)
		require.ErrorIs(t, result.Err(), gterrors.ErrNetwork)
	})

	t.Run("loading while in flight", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		api := newFakeAPI()
		api.loginFn = func(context.Context, string, string) (*apiclient.AuthResponse, error) {
			close(entered)
			<-release
			return &apiclient.AuthResponse{Success: true, Token: testToken, User: testUser}, nil
		}
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		done := make(chan auth.Result)
		go func() { done <- m.Login(ctx, testEmail, testPassword) }()
		<-entered
		require.True(t, m.State().IsLoading)
		close(release)
		require.True(t, (<-done).Success)
		require.False(t, m.State().IsLoading)
	})
}

func TestManager_Register(t *testing.T) {
	ctx := context.Background()
	req := apiclient.SignupRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: testEmail,
		Password: testPassword, ConfirmPassword: testPassword,
	}

	t.Run("success signs in", func(t *testing.T) {
		api := newFakeAPI()
		api.signupFn = func(_ context.Context, got apiclient.SignupRequest) (*apiclient.AuthResponse, error) {
			require.Equal(t, req, got)
			return &apiclient.AuthResponse{Success: true, Token: testToken, User: testUser}, nil
		}
		store := sessions.NewInMemoryStore()
		m := newManager(t, api, store)
		m.Initialize(ctx)

		result := m.Register(ctx, req)
		require.True(t, result.Success)
		require.True(t, m.State().IsAuthenticated)
		token, _, _ := storedKeys(t, store)
		require.Equal(t, testToken, token)
	})

	t.Run("field errors are surfaced", func(t *testing.T) {
		api := newFakeAPI()
		api.signupFn = func(context.Context, apiclient.SignupRequest) (*apiclient.AuthResponse, error) {
			return nil, apiclient.NewAPIError(http.StatusConflict, "", map[string]string{"email": "Email is already registered"})
		}
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		result := m.Register(ctx, req)
		require.False(t, result.Success)
		require.Equal(t, auth.MsgRegistrationFailed, result.Message)
		require.Equal(t, "Email is already registered", result.Errors["email"])
		require.Equal(t, auth.ServerFailure, result.Kind)
		require.False(t, m.State().IsAuthenticated)
	})

	t.Run("missing fields fail locally", func(t *testing.T) {
		api := newFakeAPI()
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)

		result := m.Register(ctx, apiclient.SignupRequest{Email: testEmail})
		require.Equal(t, auth.ValidationFailure, result.Kind)
		require.Len(t, result.Errors, 4)
		require.Zero(t, api.count("signup"))
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears even when the API fails", func(t *testing.T) {
		api := newFakeAPI()
		api.logoutFn = func(context.Context, string) error { return networkErr() }
		store := sessions.NewInMemoryStore()
		m := newManager(t, api, store)
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).Success)

		result := m.Logout(ctx)
		require.True(t, result.Success)
		require.Equal(t, 1, api.count("logout"))

		_, hasToken, hasUser := storedKeys(t, store)
		require.False(t, hasToken)
		require.False(t, hasUser)
		require.False(t, m.State().IsAuthenticated)
	})

	t.Run("idempotent", func(t *testing.T) {
		api := newFakeAPI()
		store := sessions.NewInMemoryStore()
		m := newManager(t, api, store)
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).Success)

		first := m.Logout(ctx)
		firstState := m.State()
		second := m.Logout(ctx)

		require.Equal(t, first, second)
		require.Equal(t, firstState, m.State())
		require.NoError(t, second.Err())
		// no token on the second call so the API is not contacted again
		require.Equal(t, 1, api.count("logout"))
		_, hasToken, hasUser := storedKeys(t, store)
		require.False(t, hasToken)
		require.False(t, hasUser)
	})
}

func TestManager_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("verified session is restored", func(t *testing.T) {
		refreshed := &users.User{ID: "1", Email: testEmail, FirstName: "Augusta", LastName: "King"}
		api := newFakeAPI()
		api.verifyFn = func(_ context.Context, token string) (*users.User, error) {
			require.Equal(t, testToken, token)
			return refreshed, nil
		}
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store)

		m.Initialize(ctx)
		state := m.State()
		require.True(t, state.IsAuthenticated)
		require.False(t, state.IsLoading)
		require.Equal(t, "Augusta", state.User.FirstName)

		_, user, ok, err := sessions.LoadCredentials(ctx, store)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Augusta", user.FirstName)
	})

	t.Run("rejected token clears the session", func(t *testing.T) {
		api := newFakeAPI()
		api.verifyFn = func(context.Context, string) (*users.User, error) {
			return nil, apiclient.NewAPIError(http.StatusUnauthorized, "", nil)
		}
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store)

		m.Initialize(ctx)
		state := m.State()
		require.False(t, state.IsLoading)
		require.False(t, state.IsAuthenticated)
		require.Empty(t, state.Token)
		require.Nil(t, state.User)
		require.Equal(t, 1, api.count("verify"))
		_, hasToken, hasUser := storedKeys(t, store)
		require.False(t, hasToken)
		require.False(t, hasUser)
	})

	t.Run("expired jwt is cleared without a network call", func(t *testing.T) {
		expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"sub": "1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		api := newFakeAPI()
		store := sessions.NewInMemoryStore()
		seedSession(t, store, expired)
		m := newManager(t, api, store)

		m.Initialize(ctx)
		require.False(t, m.State().IsAuthenticated)
		require.Zero(t, api.count("verify"))
		_, hasToken, _ := storedKeys(t, store)
		require.False(t, hasToken)
	})

	t.Run("network failures are retried", func(t *testing.T) {
		var attempts atomic.Int32
		api := newFakeAPI()
		api.verifyFn = func(context.Context, string) (*users.User, error) {
			if attempts.Add(1) < 3 {
				return nil, networkErr()
			}
			return testUser, nil
		}
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store, auth.WithVerifyRetries(2))

		m.Initialize(ctx)
		require.True(t, m.State().IsAuthenticated)
		require.Equal(t, int32(3), attempts.Load())
	})

	t.Run("rejections are not retried", func(t *testing.T) {
		api := newFakeAPI()
		api.verifyFn = func(context.Context, string) (*users.User, error) {
			return nil, gterrors.ErrUnauthorized
		}
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store, auth.WithVerifyRetries(5))

		m.Initialize(ctx)
		require.Equal(t, 1, api.count("verify"))
	})

	t.Run("timeout falls back to logged out", func(t *testing.T) {
		api := newFakeAPI()
		api.verifyFn = func(ctx context.Context, _ string) (*users.User, error) {
			<-ctx.Done()
			return nil, errors.Wrap(gterrors.ErrNetwork, ctx.Err().Error())
		}
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store, auth.WithVerifyTimeout(20*time.Millisecond), auth.WithVerifyRetries(0))

		m.Initialize(ctx)
		state := m.State()
		require.False(t, state.IsLoading)
		require.False(t, state.IsAuthenticated)
	})

	t.Run("partial credentials are cleared", func(t *testing.T) {
		api := newFakeAPI()
		store := sessions.NewInMemoryStore()
		require.NoError(t, store.Set(ctx, sessions.KeyToken, testToken))
		m := newManager(t, api, store)

		m.Initialize(ctx)
		require.False(t, m.State().IsAuthenticated)
		require.Zero(t, api.count("verify"))
		_, hasToken, _ := storedKeys(t, store)
		require.False(t, hasToken)
	})

	t.Run("runs once", func(t *testing.T) {
		api := newFakeAPI()
		store := sessions.NewInMemoryStore()
		seedSession(t, store, testToken)
		m := newManager(t, api, store)

		m.Initialize(ctx)
		m.Initialize(ctx)
		require.Equal(t, 1, api.count("verify"))
	})
}

func TestManager_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		api := newFakeAPI()
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)
		require.False(t, m.Verify(ctx))
		require.Zero(t, api.count("verify"))
	})

	t.Run("concurrent calls share one request", func(t *testing.T) {
		release := make(chan struct{})
		api := newFakeAPI()
		m := newManager(t, api, sessions.NewInMemoryStore())
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).Success)

		api.verifyFn = func(context.Context, string) (*users.User, error) {
			<-release
			return testUser, nil
		}

		var wg sync.WaitGroup
		results := make([]bool, 5)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = m.Verify(ctx)
			}(i)
		}
		require.Eventually(t, func() bool { return api.count("verify") == 1 }, time.Second, time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, 1, api.count("verify"))
		for _, ok := range results {
			require.True(t, ok)
		}
	})

	t.Run("failure clears the session", func(t *testing.T) {
		api := newFakeAPI()
		store := sessions.NewInMemoryStore()
		m := newManager(t, api, store)
		m.Initialize(ctx)
		require.True(t, m.Login(ctx, testEmail, testPassword).Success)

		api.verifyFn = func(context.Context, string) (*users.User, error) {
			return nil, gterrors.ErrUnauthorized
		}
		require.False(t, m.Verify(ctx))
		require.False(t, m.State().IsAuthenticated)
		_, hasToken, _ := storedKeys(t, store)
		require.False(t, hasToken)
	})
}

func TestManager_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("forgot password passes the body through", func(t *testing.T) {
		api := newFakeAPI()
		api.forgotFn = func(_ context.Context, email string) (map[string]any, error) {
			require.Equal(t, testEmail, email)
			return map[string]any{"success": true, "message": "Reset email sent", "resetToken": "r-1"}, nil
		}
		m := newManager(t, api, sessions.NewInMemoryStore())

		result := m.ForgotPassword(ctx, " "+testEmail)
		require.True(t, result.Success)
		require.Equal(t, "Reset email sent", result.Message)
		require.Equal(t, "r-1", result.Data["resetToken"])
	})

	t.Run("reset password failure body", func(t *testing.T) {
		api := newFakeAPI()
		api.resetFn = func(context.Context, string, string) (map[string]any, error) {
			return map[string]any{"success": false, "message": "Reset token is required"}, nil
		}
		m := newManager(t, api, sessions.NewInMemoryStore())

		result := m.ResetPassword(ctx, "", "NewSecret1!")
		require.False(t, result.Success)
		require.Equal(t, "Reset token is required", result.Message)
		require.Equal(t, auth.ServerFailure, result.Kind)
	})

	t.Run("network failure", func(t *testing.T) {
		api := newFakeAPI()
		api.resetFn = func(context.Context, string, string) (map[string]any, error) {
			return nil, networkErr()
		}
		m := newManager(t, api, sessions.NewInMemoryStore())

		result := m.ResetPassword(ctx, "r-1", "NewSecret1!")
		require.Equal(t, auth.MsgNetworkError, result.Message)
		require.Equal(t, auth.NetworkFailure, result.Kind)
	})
}

func TestManager_AuthHeaders(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, newFakeAPI(), sessions.NewInMemoryStore())
	m.Initialize(ctx)

	h := m.AuthHeaders()
	require.Equal(t, "application/json", h.Get("Content-Type"))
	require.Empty(t, h.Get("Authorization"))

	require.True(t, m.Login(ctx, testEmail, testPassword).Success)
	require.Equal(t, "Bearer "+testToken, m.AuthHeaders().Get("Authorization"))
}

func TestManager_Do(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		require.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := newManager(t, newFakeAPI(), sessions.NewInMemoryStore(), auth.WithHTTPClient(srv.Client()))
	m.Initialize(ctx)
	require.True(t, m.Login(ctx, testEmail, testPassword).Success)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/footprints/import", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")

	resp, err := m.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestManager_RecoversCorruptSessionFile(t *testing.T) {
	store, err := sessions.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{garbage"), 0o600))

	api := newFakeAPI()
	m := newManager(t, api, store)
	m.Initialize(context.Background())

	state := m.State()
	require.False(t, state.IsAuthenticated)
	require.False(t, state.IsLoading)
	require.Zero(t, api.count("verify"))

	_, hasToken, hasUser := storedKeys(t, store)
	require.False(t, hasToken)
	require.False(t, hasUser)

	result := m.Login(context.Background(), testEmail, testPassword)
	require.True(t, result.Success)
	token, hasToken, hasUser := storedKeys(t, store)
	require.True(t, hasToken)
	require.True(t, hasUser)
	require.Equal(t, testToken, token)

	require.True(t, m.Logout(context.Background()).Success)
	_, hasToken, hasUser = storedKeys(t, store)
	require.False(t, hasToken)
	require.False(t, hasUser)
}
