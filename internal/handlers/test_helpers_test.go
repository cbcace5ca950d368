package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/BradenHooton/cis-membership/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds session claims to the request context
func WithAuthContext(req *http.Request, email string) *http.Request {
	claims := &models.TokenClaims{Email: email}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParams attaches chi route parameters to the request
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a JSON response into a generic map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// assertError checks status, error code and success=false
func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, code, body["error"])
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc    func(ctx context.Context, email, password string) (*services.RegisterResult, error)
	LoginFunc       func(ctx context.Context, email, password string) (*services.LoginResult, error)
	VerifyEmailFunc func(ctx context.Context, token string) error
	MeFunc          func(ctx context.Context, email string) (*models.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*services.RegisterResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) Me(ctx context.Context, email string) (*models.User, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, email)
	}
	return nil, models.ErrIdentityNotFound
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	RequestResetFunc  func(ctx context.Context, email string) error
	VerifyOTPFunc     func(ctx context.Context, email, code string) error
	ResetPasswordFunc func(ctx context.Context, email, code, newPassword string) error
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) error {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, email)
	}
	return nil
}

func (m *MockPasswordResetService) VerifyOTP(ctx context.Context, email, code string) error {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, email, code)
	}
	return nil
}

func (m *MockPasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

// MockMembershipService implements MembershipServiceInterface for testing
type MockMembershipService struct {
	SubmitFunc              func(ctx context.Context, application *models.Membership) (*models.Membership, error)
	UpdatePaymentStatusFunc func(ctx context.Context, membershipID, status string) (*models.Membership, error)
	CheckActiveFunc         func(ctx context.Context, email string) (*services.MembershipStatus, error)
	GetCardFunc             func(ctx context.Context, membershipID string) (*services.CardView, error)
}

func (m *MockMembershipService) Submit(ctx context.Context, application *models.Membership) (*models.Membership, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, application)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMembershipService) UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	if m.UpdatePaymentStatusFunc != nil {
		return m.UpdatePaymentStatusFunc(ctx, membershipID, status)
	}
	return nil, models.ErrMembershipNotFound
}

func (m *MockMembershipService) CheckActive(ctx context.Context, email string) (*services.MembershipStatus, error) {
	if m.CheckActiveFunc != nil {
		return m.CheckActiveFunc(ctx, email)
	}
	return &services.MembershipStatus{}, nil
}

func (m *MockMembershipService) GetCard(ctx context.Context, membershipID string) (*services.CardView, error) {
	if m.GetCardFunc != nil {
		return m.GetCardFunc(ctx, membershipID)
	}
	return nil, models.ErrMembershipNotFound
}

// MockNewsletterService implements NewsletterServiceInterface for testing
type MockNewsletterService struct {
	SubscribeFunc   func(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error)
	UnsubscribeFunc func(ctx context.Context, email string) error
}

func (m *MockNewsletterService) Subscribe(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, sub)
	}
	return sub, nil
}

func (m *MockNewsletterService) Unsubscribe(ctx context.Context, email string) error {
	if m.UnsubscribeFunc != nil {
		return m.UnsubscribeFunc(ctx, email)
	}
	return nil
}
