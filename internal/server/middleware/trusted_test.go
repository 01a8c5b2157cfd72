package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func trusted(t *testing.T, cidr string) http.Handler {
	t.Helper()
	mw, err := TrustedCIDR(cidr)
	require.NoError(t, err)
	return mw(okHandler())
}

func TestTrustedCIDR_Empty_AllowsAll(t *testing.T) {
	h := trusted(t, "")

	req := httptest.NewRequest(http.MethodPut, "/any", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestTrustedCIDR_Inside_OK(t *testing.T) {
	h := trusted(t, "10.0.0.0/24")

	req := httptest.NewRequest(http.MethodPut, "/any", nil)
	req.Header.Set("X-Real-IP", "10.0.0.42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestTrustedCIDR_Outside_Forbidden(t *testing.T) {
	h := trusted(t, "10.0.0.0/24")

	req := httptest.NewRequest(http.MethodPut, "/any", nil)
	req.Header.Set("X-Real-IP", "192.168.1.10")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTrustedCIDR_FallsBackToRemoteAddr(t *testing.T) {
	h := trusted(t, "192.0.2.0/24")

	// httptest requests come from 192.0.2.1
	req := httptest.NewRequest(http.MethodPut, "/any", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req.RemoteAddr = "203.0.113.5:4000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTrustedCIDR_InvalidCIDR(t *testing.T) {
	_, err := TrustedCIDR("wtf")
	require.Error(t, err)
}
