package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/http/auth"
)

var secret = []byte("test-secret")

func TestMiddleware(t *testing.T) {
	valid, err := auth.Issue(secret, "bookkeeper", time.Hour)
	require.NoError(t, err)

	expired, err := auth.Issue(secret, "bookkeeper", -time.Hour)
	require.NoError(t, err)

	otherKey, err := auth.Issue([]byte("other"), "bookkeeper", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString(secret)
	require.NoError(t, err)

	type testCase struct {
		name   string
		header string
		status int
	}

	tests := []testCase{
		{name: "Valid", header: "Bearer " + valid, status: http.StatusOK},
		{name: "Missing", header: "", status: http.StatusUnauthorized},
		{name: "NotBearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "Expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "WrongKey", header: "Bearer " + otherKey, status: http.StatusUnauthorized},
		{name: "NoExpiry", header: "Bearer " + noExpiry, status: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var subject string

			h := auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, _ = auth.Subject(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)

			if tc.status == http.StatusOK {
				assert.Equal(t, "bookkeeper", subject)
			}
		})
	}
}
