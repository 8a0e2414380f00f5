package providers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cstannahill/dataset-generator/types"
)

func TestReadErrMsg(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"flat", `{"error": "model not found"}`, "model not found"},
		{"nested", `{"error": {"message": "invalid api key"}}`, "invalid api key"},
		{"plain text", "bad gateway", "bad gateway"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadErrMsg(strings.NewReader(tt.body)))
		})
	}
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		code      types.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, types.ErrUnauthorized, false},
		{http.StatusForbidden, types.ErrForbidden, false},
		{http.StatusTooManyRequests, types.ErrRateLimited, true},
		{http.StatusPaymentRequired, types.ErrQuotaExceeded, false},
		{http.StatusBadRequest, types.ErrInvalidRequest, false},
		{http.StatusNotFound, types.ErrInvalidRequest, false},
		{http.StatusServiceUnavailable, types.ErrModelOverloaded, true},
		{http.StatusGatewayTimeout, types.ErrUpstreamTimeout, true},
		{http.StatusInternalServerError, types.ErrUpstreamError, true},
	}

	for _, tt := range tests {
		err := MapHTTPError(tt.status, "msg", "test")
		assert.Equal(t, tt.code, err.Code, "status %d", tt.status)
		assert.Equal(t, tt.retryable, err.Retryable, "status %d", tt.status)
		assert.Equal(t, tt.status, err.HTTPStatus)
	}
}

type fakeProvider struct {
	Provider
	id types.ModelProvider
}

func (f fakeProvider) Identity() types.ModelProvider { return f.id }

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(types.ProviderOllama)
	require.Error(t, err)

	r.Register(fakeProvider{id: types.ProviderOllama})
	r.Register(fakeProvider{id: types.ProviderOpenAI})

	p, err := r.Get(types.ProviderOllama)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderOllama, p.Identity())

	assert.ElementsMatch(t,
		[]types.ModelProvider{types.ProviderOllama, types.ProviderOpenAI},
		r.Identities())
}
