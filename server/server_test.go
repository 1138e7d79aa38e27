package server_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/peer-calls/mediatrack/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("hello"))
})

func listen(t *testing.T) (net.Listener, int) {
	t.Helper()

	addr := net.JoinHostPort("127.0.0.1", "0")
	l, err := net.Listen("tcp", addr)
	require.Nil(t, err, "error listening to: %s", addr)

	return l, l.Addr().(*net.TCPAddr).Port
}

func TestServer_HTTP(t *testing.T) {
	defer goleak.VerifyNone(t)

	l, port := listen(t)
	s := server.New(server.Params{}, handler)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start(ctx, l)
	}()

	c := http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	url := fmt.Sprintf("http://127.0.0.1:%d", port)
	r, err := http.NewRequest("GET", url, nil)
	require.Nil(t, err, "error creating new request")
	res, err := c.Do(r)
	require.Nil(t, err, "error executing request")
	body, err := ioutil.ReadAll(res.Body)
	res.Body.Close()
	require.Nil(t, err, "error reading body")
	assert.Equal(t, []byte("hello"), body)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}
}

func TestServer_ListenerClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	l, _ := listen(t)
	l.Close()

	s := server.New(server.Params{}, handler)

	err := s.Start(context.Background(), l)
	assert.Error(t, err)
}
