package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

func newAuthHandler(userStore *fakeUserStore, publisher *fakePublisher) *AuthHandler {
	jwtService := &auth.MockJWTService{
		GenerateTokenFunc: func(ctx context.Context, userID uuid.UUID) (string, error) {
			return "token-for-" + userID.String(), nil
		},
	}
	return NewAuthHandler(userStore, jwtService, fakePasswordVerifier{}, publisher)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Parallel()

	userStore := newFakeUserStore()
	publisher := &fakePublisher{}
	handler := newAuthHandler(userStore, publisher)

	w := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a-long-password"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)

	// The stored user carries only the hash.
	stored, err := userStore.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
	assert.NotEmpty(t, stored.HashedPassword)

	// Registration announces the new user.
	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeUserRegistered, published[0].EventType)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"password":"a-long-password"}`},
		{"invalid email", `{"email":"not-an-email","password":"a-long-password"}`},
		{"short password", `{"email":"alice@example.com","password":"short"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			handler := newAuthHandler(newFakeUserStore(), &fakePublisher{})
			w := postJSON(t, handler.Register, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(newFakeUserStore(), &fakePublisher{})
	body := `{"email":"alice@example.com","password":"a-long-password"}`

	w := postJSON(t, handler.Register, "/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, handler.Register, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterSucceedsWhenBrokerDown(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{err: events.ErrBrokerUnavailable}
	handler := newAuthHandler(newFakeUserStore(), publisher)

	w := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a-long-password"}`)

	// The account exists once committed; only the announcement is lost.
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	userStore := newFakeUserStore()
	handler := newAuthHandler(userStore, &fakePublisher{})

	w := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a-long-password"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, handler.Login, "/auth/login",
		`{"email":"alice@example.com","password":"a-long-password"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	userStore := newFakeUserStore()
	handler := newAuthHandler(userStore, &fakePublisher{})

	w := postJSON(t, handler.Register, "/auth/register",
		`{"email":"alice@example.com","password":"a-long-password"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"alice@example.com","password":"wrong-password-1"}`},
		{"unknown email", `{"email":"mallory@example.com","password":"a-long-password"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, handler.Login, "/auth/login", tc.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			// Unknown email and wrong password are indistinguishable.
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid credentials", resp["error"])
		})
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	expiry := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)

	jwtService := &auth.MockJWTService{
		ValidateTokenFunc: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			switch tokenString {
			case "good-token":
				return &auth.Claims{UserID: userID, ExpiresAt: expiry}, nil
			case "expired-token":
				return nil, auth.ErrExpiredToken
			default:
				return nil, auth.ErrInvalidToken
			}
		},
	}
	handler := NewAuthHandler(newFakeUserStore(), jwtService, fakePasswordVerifier{}, nil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"expired token", "Bearer expired-token", http.StatusUnauthorized},
		{"garbage token", "Bearer nonsense", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.Verify(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				var resp VerifyResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, userID, resp.UserID)
				assert.Equal(t, expiry, resp.ExpiresAt)
			}
		})
	}
}
