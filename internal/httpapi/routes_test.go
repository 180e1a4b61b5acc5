package httpapi_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/diceroller/internal/config"
	"github.com/cory-johannsen/diceroller/internal/httpapi"
	"github.com/cory-johannsen/diceroller/internal/testutil"
)

func TestServer_ServeAndStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	router := newTestRouter(t, testutil.MaxSource{}, nil)
	srv := httpapi.NewServer(config.HTTPConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second}, router, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/roll/2d10")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total": 20, "rolls": {"2d10": [[10, 10]]}}`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err, "graceful stop must not surface http.ErrServerClosed")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
