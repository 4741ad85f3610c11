package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetgov/kernel/internal/clock"
	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/engine"
	"github.com/packetgov/kernel/internal/httpapi"
	"github.com/packetgov/kernel/internal/integrity"
	"github.com/packetgov/kernel/internal/kernelstate"
	"github.com/packetgov/kernel/internal/lock"
)

func lockOpts() lock.Options {
	return lock.Options{Timeout: 2 * time.Second, PollInterval: time.Millisecond}
}

func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()
	root := t.TempDir()
	wbs := &domain.WBSDefinition{Packets: []domain.PacketDefinition{{ID: "A"}}}
	store := kernelstate.New(filepath.Join(root, "wbs-state.json"), lockOpts(), clock.RealClock{})
	ledger := dcl.New(filepath.Join(root, "dcl"), lockOpts(), clock.RealClock{}, "")
	eng, err := engine.New(engine.Options{WBS: wbs, Store: store, Ledger: ledger, Clock: clock.RealClock{}, LockOpts: lockOpts()})
	require.NoError(t, err)
	svc := integrity.New(store, ledger)
	return httpapi.NewServer(eng, eng, svc, zerolog.Nop())
}

func doRequest(t *testing.T, s *httpapi.Server, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set("X-Kernel-Role", role)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz_NoRoleRequired(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClaim_OperatorAllowed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/v1/claim", "operator", map[string]string{"packet_id": "A", "agent": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestClaim_ReviewerForbidden(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/v1/claim", "reviewer", map[string]string{"packet_id": "A", "agent": "alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReset_SupervisorAllowedOperatorDenied(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/reset", "operator", map[string]string{"packet_id": "A", "agent": "alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/v1/reset", "supervisor", map[string]string{"packet_id": "A", "agent": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code) // nothing claimed yet, engine rejects the reset
}

func TestStatus_DefaultRoleIsOperatorAndDenied(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/status", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatus_ReviewerAllowed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/status", "reviewer", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClaim_InvalidBodyIsBadRequest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/claim", bytes.NewReader([]byte("not json")))
	req.Header.Set("X-Kernel-Role", "operator")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegrity_ReportsOKOnCleanState(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/integrity", "reviewer", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleBypassesRBACForEveryAction(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/status", "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/v1/claim", "admin", map[string]string{"packet_id": "A", "agent": "alice"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
