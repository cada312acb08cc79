package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/2beens/gymscore/internal/auth"
	"github.com/2beens/gymscore/internal/middleware"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockVerifier := NewMocktokenVerifier(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockVerifier)

	userID := uuid.NewString()

	testCases := []struct {
		name               string
		path               string
		method             string
		authHeader         string
		expectVerify       bool
		verifyErr          error
		expectedStatusCode int
		expectedUserID     string
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "PublicSharePage",
			path:               "/gymscore/share/" + userID,
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Options",
			path:               "/gymscore",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MissingToken",
			path:               "/gymscore/me",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "NotBearer",
			path:               "/gymscore/me",
			method:             "GET",
			authHeader:         "Basic abc",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/gymscore/me",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			expectVerify:       true,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     userID,
		},
		{
			name:               "InvalidToken",
			path:               "/gymscore",
			method:             "POST",
			authHeader:         "Bearer valid-token",
			expectVerify:       true,
			verifyErr:          auth.ErrInvalidToken,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "RevocationCheckFailed",
			path:               "/gymscore",
			method:             "PUT",
			authHeader:         "bearer valid-token",
			expectVerify:       true,
			verifyErr:          errors.New("redis down"),
			expectedStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.authHeader != "" {
				req.Header.Add("Authorization", tc.authHeader)
			}

			if tc.expectVerify {
				var claims *auth.Claims
				if tc.verifyErr == nil {
					claims = &auth.Claims{UserID: userID}
				}
				mockVerifier.EXPECT().
					Verify(gomock.Any(), "valid-token").
					Return(claims, tc.verifyErr).Times(1)
			}

			var gotUserID string
			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = auth.UserIDFromContext(r.Context())
			})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectedUserID, gotUserID)
		})
	}
}
