package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/types"
)

type stubAccessChecker struct {
	err   error
	calls int
}

func (s *stubAccessChecker) CheckInventoryAccess(ctx context.Context, userID uuid.UUID) error {
	s.calls++
	return s.err
}

func serveGate(t *testing.T, checker InventoryAccessChecker, userID string) *httptest.ResponseRecorder {
	t.Helper()
	handler := LicenseGate(checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestLicenseGateRequiresAuthentication(t *testing.T) {
	checker := &stubAccessChecker{}
	resp := serveGate(t, checker, "")

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, checker.calls)

	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, "Authentication credentials were not provided.", env.Error.Message)
}

func TestLicenseGateForwardsCheckerFailure(t *testing.T) {
	checker := &stubAccessChecker{err: pkgerrors.New(pkgerrors.CodeForbidden, "Your license key has expired.")}
	resp := serveGate(t, checker, uuid.NewString())

	require.Equal(t, http.StatusForbidden, resp.Code)
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, string(pkgerrors.CodeForbidden), env.Error.Code)
	assert.Equal(t, "Your license key has expired.", env.Error.Message)
}

func TestLicenseGateAllowsLicensedAccount(t *testing.T) {
	checker := &stubAccessChecker{}
	resp := serveGate(t, checker, uuid.NewString())

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, 1, checker.calls)
}
