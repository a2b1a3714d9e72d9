package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, password string) *Service {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	svc, err := NewService(Config{
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		Secret:            testSecret,
		Issuer:            "chaldduck",
		Audience:          "chaldduck-admin",
		AccessTTL:         15 * time.Minute,
		ClockSkew:         time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsWeakConfig(t *testing.T) {
	hash, err := argon2id.CreateHash("pw", argon2id.DefaultParams)
	require.NoError(t, err)

	_, err = NewService(Config{AdminUsername: "admin", AdminPasswordHash: hash, Secret: "short"})
	require.Error(t, err)

	_, err = NewService(Config{AdminUsername: "admin", AdminPasswordHash: "plaintext", Secret: testSecret})
	require.Error(t, err)

	_, err = NewService(Config{AdminPasswordHash: hash, Secret: testSecret})
	require.Error(t, err)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newTestService(t, "correct horse battery staple")

	session, err := svc.Login("admin", "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), session.ExpiresAt, time.Minute)

	subject, err := svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t, "correct horse battery staple")

	_, err := svc.Login("admin", "wrong")
	requireUnauthorized(t, err)

	_, err = svc.Login("root", "correct horse battery staple")
	requireUnauthorized(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, "pw12345678")
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return issuedAt })

	session, err := svc.Login("admin", "pw12345678")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(session.AccessToken)
	requireUnauthorized(t, err)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t, "pw12345678")

	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := svc.ParseAccessToken(token)
		require.Error(t, err)
	}
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	svc := newTestService(t, "pw12345678")
	other := newTestService(t, "pw12345678")
	other.secret = []byte("ffffffffffffffffffffffffffffffff")

	session, err := other.Login("admin", "pw12345678")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(session.AccessToken)
	requireUnauthorized(t, err)
}

func TestRequireAdminMiddleware(t *testing.T) {
	svc := newTestService(t, "pw12345678")
	mw := Middleware{Service: svc}

	var gotSubject string
	protected := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = AdminFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/shipping-policies", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	session, err := svc.Login("admin", "pw12345678")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/shipping-policies", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "admin", gotSubject)
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}
