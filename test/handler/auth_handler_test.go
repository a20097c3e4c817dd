package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbox/sealbox/internal/pkg/errcode"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	email := fmt.Sprintf("user-%d@example.com", time.Now().UnixNano())

	bearer := registerUser(t, router, email)
	require.NotEmpty(t, bearer)

	// Duplicate registration is a conflict.
	_, parsed := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "super-secret-1",
	})
	require.Equal(t, errcode.ErrConflict, parsed.Code)

	// Short passwords are rejected up front.
	_, parsed = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "short-" + email,
		"password": "short",
	})
	require.Equal(t, errcode.ErrInvalid, parsed.Code)

	_, parsed = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	require.Equal(t, errcode.ErrUnauthorized, parsed.Code)

	_, parsed = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "super-secret-1",
	})
	require.Zero(t, parsed.Code, parsed.Msg)
}

func TestAuthRequiredOnOwnerRoutes(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp, parsed := doJSON(t, router, http.MethodGet, "/api/v1/files", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, errcode.ErrUnauthorized, parsed.Code)

	_, parsed = doJSON(t, router, http.MethodGet, "/api/v1/files", "not-a-jwt", nil)
	require.Equal(t, errcode.ErrUnauthorized, parsed.Code)
}
