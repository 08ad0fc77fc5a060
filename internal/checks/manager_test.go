package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsewatch/internal/config"
	"pulsewatch/internal/storage"
)

func TestManagerProbe(t *testing.T) {
	manager := NewManager(config.ChecksConfig{HTTP: testHTTPDefaults()})
	assert.Equal(t, testHTTPDefaults().Timeout, manager.Timeout())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Run("Routes http targets", func(t *testing.T) {
		out, err := manager.Probe(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.True(t, out.IsUp)
		assert.Equal(t, http.StatusNoContent, *out.StatusCode)
	})

	t.Run("Rejects unsupported schemes", func(t *testing.T) {
		_, err := manager.Probe(context.Background(), "gopher://example.com")
		assert.ErrorIs(t, err, storage.ErrInvalidInput)
	})
}
