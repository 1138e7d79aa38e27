package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/test"
	"github.com/peer-calls/mediatrack/server/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const accessToken = "token1234"

func newMux(f *tracksFixture) *server.Mux {
	return server.NewMux(server.MuxParams{
		Log:         test.NewLogger(),
		Tracks:      f.tracks,
		AccessToken: accessToken,
	})
}

func serve(mux http.Handler, method string, url string, body string) *httptest.ResponseRecorder {
	var r *http.Request

	if body == "" {
		r = httptest.NewRequest(method, url, nil)
	} else {
		r = httptest.NewRequest(method, url, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func TestMux_liveness(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTracksFixture(t)
	defer f.tracks.Close()

	w := serve(newMux(f), "GET", "/probes/liveness", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMux_metrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTracksFixture(t)
	defer f.tracks.Close()

	mux := newMux(f)

	w := serve(mux, "GET", "/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(mux, "GET", "/metrics?access_token=invalid", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(mux, "GET", "/metrics?access_token="+accessToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediatrack_tracks_active")

	r := httptest.NewRequest("GET", "/metrics", nil)
	r.Header.Set("Authorization", "Bearer "+accessToken)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMux_tracks(t *testing.T) {
	defer goleak.VerifyNone(t)
	defer test.Timeout(t, 10*time.Second)()

	f := newTracksFixture(t)
	defer f.tracks.Close()

	mux := newMux(f)

	w := serve(mux, "POST", "/tracks", `{"id":"a1","kind":"audio","enabled":true,"remote":true,"readyState":"live"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var state track.State
	decode(t, w, &state)
	assert.Equal(t, track.State{
		Info: track.Info{
			ID:         "a1",
			Kind:       "audio",
			Enabled:    true,
			Remote:     true,
			ReadyState: "live",
		},
		Muted:    false,
		Readonly: true,
	}, state)

	w = serve(mux, "POST", "/tracks", `{"id":"a1","kind":"audio"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(mux, "POST", "/tracks", `{"kind":"data"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "POST", "/tracks", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "GET", "/tracks/a1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(mux, "GET", "/tracks/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var list []track.State

	w = serve(mux, "GET", "/tracks", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = serve(mux, "PUT", "/tracks/a1/enabled", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.False(t, state.Enabled)
	assert.True(t, state.Muted)

	w = serve(mux, "PUT", "/tracks/a1/enabled", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "POST", "/tracks/a1/switch-camera", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(mux, "POST", "/tracks/a1/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.Equal(t, "ended", state.ReadyState)

	w = serve(mux, "DELETE", "/tracks/a1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(mux, "DELETE", "/tracks/a1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMux_capture(t *testing.T) {
	defer goleak.VerifyNone(t)
	defer test.Timeout(t, 10*time.Second)()

	f := newTracksFixture(t)
	defer f.tracks.Close()

	mux := newMux(f)
	s := f.openVideo(t)

	w := serve(mux, "POST", "/tracks/"+s.ID.String()+"/capture", `{"captureTarget":"memory","maxSize":32}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Result string `json:"result"`
	}

	decode(t, w, &res)
	assert.NotEmpty(t, res.Result)

	w = serve(mux, "POST", "/tracks/"+s.ID.String()+"/capture", `{"captureTarget":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "POST", "/tracks/"+s.ID.String()+"/capture", `{"captureTargetCode":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "POST", "/tracks/"+s.ID.String()+"/switch-camera", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(mux, "POST", "/tracks/"+s.ID.String()+"/flash", `{"flashMode":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &res)
	assert.Equal(t, capture.FlashModeOn.String(), res.Result)

	w = serve(mux, "POST", "/tracks/"+s.ID.String()+"/flash", `{"flashMode":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(mux, "POST", "/tracks/missing/capture", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMux_defaults(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTracksFixture(t)
	defer f.tracks.Close()

	mux := newMux(f)

	var defaults capture.Defaults

	w := serve(mux, "GET", "/defaults", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &defaults)
	assert.Equal(t, capture.NewDefaults(), defaults)

	body := `{"captureTarget":"temp","maxSize":640,"maxJpegQuality":0.5,"flashMode":1}`

	w = serve(mux, "PUT", "/defaults", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(mux, "PUT", "/defaults?access_token="+accessToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &defaults)
	assert.Equal(t, capture.Defaults{
		CaptureTarget:  capture.TargetTemp,
		MaxSize:        640,
		MaxJPEGQuality: 0.5,
		FlashMode:      capture.FlashModeOn,
	}, defaults)

	w = serve(mux, "PUT", "/defaults?access_token="+accessToken, `{"captureTarget":"temp","maxSize":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMux_events(t *testing.T) {
	defer goleak.VerifyNone(t)
	defer test.Timeout(t, 10*time.Second)()

	f := newTracksFixture(t)
	defer f.tracks.Close()

	s := f.openVideo(t)

	srv := httptest.NewServer(newMux(f))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tracks/" + s.ID.String() + "/events"

	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	defer c.Close(websocket.StatusNormalClosure, "")

	// The subscription is registered before the websocket is accepted.
	_, err = f.tracks.SetEnabled(s.ID, false)
	require.NoError(t, err)

	var event events.Event

	require.NoError(t, wsjson.Read(ctx, c, &event))
	assert.Equal(t, events.Event{
		Kind:    events.KindMute,
		TrackID: s.ID,
	}, event)

	_, _, err = websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/tracks/missing/events", nil)
	assert.Error(t, err)
}

func TestMux_events_endedClosesStream(t *testing.T) {
	defer goleak.VerifyNone(t)
	defer test.Timeout(t, 10*time.Second)()

	f := newTracksFixture(t)
	defer f.tracks.Close()

	s := f.openVideo(t)

	srv := httptest.NewServer(newMux(f))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tracks/" + s.ID.String() + "/events"

	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	defer c.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, f.tracks.Remove(s.ID))

	for {
		var event events.Event

		require.NoError(t, wsjson.Read(ctx, c, &event))
		assert.Equal(t, s.ID, event.TrackID)

		if event.Kind == events.KindEnded {
			break
		}
	}

	var event events.Event

	err = wsjson.Read(ctx, c, &event)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}
