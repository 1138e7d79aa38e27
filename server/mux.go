package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi"
	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/events"
	"github.com/peer-calls/mediatrack/server/identifiers"
	"github.com/peer-calls/mediatrack/server/logger"
	"github.com/peer-calls/mediatrack/server/promise"
	"github.com/peer-calls/mediatrack/server/track"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const eventsBufferSize = 16

// Tracks is the part of TracksManager used by the HTTP surface.
type Tracks interface {
	Add(info track.Info) (track.State, error)
	Get(id identifiers.TrackID) (track.State, error)
	List() []track.State
	Remove(id identifiers.TrackID) error

	SetEnabled(id identifiers.TrackID, enabled bool) (track.State, error)
	Stop(id identifiers.TrackID) (track.State, error)
	SwitchCamera(id identifiers.TrackID) error
	CapturePhoto(ctx context.Context, id identifiers.TrackID, opts *capture.CaptureOptions) (string, error)
	SwitchFlash(ctx context.Context, id identifiers.TrackID, opts *capture.FlashOptions) (string, error)

	Subscribe(id identifiers.TrackID, handler events.Handler) (func(), error)

	Defaults() capture.Defaults
	SetDefaults(defaults capture.Defaults) error
}

var _ Tracks = &TracksManager{}

type Mux struct {
	handler     *chi.Mux
	log         logger.Logger
	tracks      Tracks
	accessToken string
}

type MuxParams struct {
	Log    logger.Logger
	Tracks Tracks
	// AccessToken guards /metrics and PUT /defaults. When empty, both
	// always respond with 401.
	AccessToken string
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.handler.ServeHTTP(w, r)
}

func withCounter(route string, h http.HandlerFunc) http.HandlerFunc {
	counter := prometheusHTTPRequestsTotal.WithLabelValues(route)

	return func(w http.ResponseWriter, r *http.Request) {
		counter.Inc()
		h.ServeHTTP(w, r)
	}
}

func NewMux(params MuxParams) *Mux {
	handler := chi.NewRouter()

	mux := &Mux{
		handler:     handler,
		log:         params.Log.WithNamespaceAppended("mux"),
		tracks:      params.Tracks,
		accessToken: params.AccessToken,
	}

	handler.Get("/probes/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	})

	handler.Get("/metrics", mux.withAccessToken(promhttp.Handler().ServeHTTP))

	handler.Route("/tracks", func(router chi.Router) {
		router.Get("/", withCounter("list", mux.routeList))
		router.Post("/", withCounter("add", mux.routeAdd))

		router.Route("/{trackID}", func(router chi.Router) {
			router.Get("/", withCounter("get", mux.routeGet))
			router.Delete("/", withCounter("remove", mux.routeRemove))
			router.Put("/enabled", withCounter("set_enabled", mux.routeSetEnabled))
			router.Post("/stop", withCounter("stop", mux.routeStop))
			router.Post("/switch-camera", withCounter("switch_camera", mux.routeSwitchCamera))
			router.Post("/capture", withCounter("capture_photo", mux.routeCapturePhoto))
			router.Post("/flash", withCounter("switch_flash", mux.routeSwitchFlash))
			router.Get("/events", withCounter("events", mux.routeEvents))
		})
	})

	handler.Get("/defaults", withCounter("get_defaults", mux.routeGetDefaults))
	handler.Put("/defaults", withCounter("set_defaults", mux.withAccessToken(mux.routeSetDefaults)))

	return mux
}

func (mux *Mux) withAccessToken(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.Header.Get("Authorization")
		if strings.HasPrefix(accessToken, "Bearer ") {
			accessToken = accessToken[len("Bearer "):]
		} else {
			accessToken = r.FormValue("access_token")
		}

		if accessToken == "" || accessToken != mux.accessToken {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		h(w, r)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusCode maps err to a status code. Errors that fall in no category
// are reported with fallback.
func statusCode(err error, fallback int) int {
	cause := errors.Cause(err)

	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsNotValid(err),
		cause == capture.ErrInvalidCaptureTarget,
		cause == events.ErrUnsupportedEventKind:
		return http.StatusBadRequest
	case errors.IsAlreadyExists(err),
		errors.IsNotSupported(err),
		cause == track.ErrUnsupportedOperation:
		return http.StatusConflict
	case cause == track.ErrNotImplemented:
		return http.StatusNotImplemented
	case cause == promise.ErrCanceled:
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}

func (mux *Mux) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		mux.log.Error("Write response", errors.Trace(err), nil)
	}
}

func (mux *Mux) writeError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusCode(err, fallback)

	if status >= http.StatusInternalServerError {
		mux.log.Error("Request failed", err, logger.Ctx{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		})
	}

	mux.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (mux *Mux) readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewNotValid(err, "request body")
	}

	return nil
}

func trackID(r *http.Request) identifiers.TrackID {
	return identifiers.TrackID(chi.URLParam(r, "trackID"))
}

func (mux *Mux) routeList(w http.ResponseWriter, r *http.Request) {
	mux.writeJSON(w, http.StatusOK, mux.tracks.List())
}

func (mux *Mux) routeAdd(w http.ResponseWriter, r *http.Request) {
	var info track.Info

	if err := mux.readJSON(r, &info); err != nil {
		mux.writeError(w, r, err, http.StatusBadRequest)

		return
	}

	state, err := mux.tracks.Add(info)
	if err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	mux.writeJSON(w, http.StatusCreated, state)
}

func (mux *Mux) routeGet(w http.ResponseWriter, r *http.Request) {
	state, err := mux.tracks.Get(trackID(r))
	if err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	mux.writeJSON(w, http.StatusOK, state)
}

func (mux *Mux) routeRemove(w http.ResponseWriter, r *http.Request) {
	if err := mux.tracks.Remove(trackID(r)); err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (mux *Mux) routeSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest

	if err := mux.readJSON(r, &req); err != nil {
		mux.writeError(w, r, err, http.StatusBadRequest)

		return
	}

	if req.Enabled == nil {
		mux.writeError(w, r, errors.NotValidf("missing enabled"), http.StatusBadRequest)

		return
	}

	state, err := mux.tracks.SetEnabled(trackID(r), *req.Enabled)
	if err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	mux.writeJSON(w, http.StatusOK, state)
}

func (mux *Mux) routeStop(w http.ResponseWriter, r *http.Request) {
	state, err := mux.tracks.Stop(trackID(r))
	if err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	mux.writeJSON(w, http.StatusOK, state)
}

func (mux *Mux) routeSwitchCamera(w http.ResponseWriter, r *http.Request) {
	if err := mux.tracks.SwitchCamera(trackID(r)); err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resultResponse struct {
	Result string `json:"result"`
}

func (mux *Mux) routeCapturePhoto(w http.ResponseWriter, r *http.Request) {
	var opts capture.CaptureOptions

	if r.ContentLength != 0 {
		if err := mux.readJSON(r, &opts); err != nil {
			mux.writeError(w, r, err, http.StatusBadRequest)

			return
		}
	}

	result, err := mux.tracks.CapturePhoto(r.Context(), trackID(r), &opts)
	if err != nil {
		mux.writeError(w, r, err, http.StatusBadGateway)

		return
	}

	mux.writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (mux *Mux) routeSwitchFlash(w http.ResponseWriter, r *http.Request) {
	var opts capture.FlashOptions

	if r.ContentLength != 0 {
		if err := mux.readJSON(r, &opts); err != nil {
			mux.writeError(w, r, err, http.StatusBadRequest)

			return
		}
	}

	result, err := mux.tracks.SwitchFlash(r.Context(), trackID(r), &opts)
	if err != nil {
		mux.writeError(w, r, err, http.StatusBadGateway)

		return
	}

	mux.writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (mux *Mux) routeGetDefaults(w http.ResponseWriter, r *http.Request) {
	mux.writeJSON(w, http.StatusOK, mux.tracks.Defaults())
}

func (mux *Mux) routeSetDefaults(w http.ResponseWriter, r *http.Request) {
	var defaults capture.Defaults

	if err := mux.readJSON(r, &defaults); err != nil {
		mux.writeError(w, r, err, http.StatusBadRequest)

		return
	}

	if err := mux.tracks.SetDefaults(defaults); err != nil {
		mux.writeError(w, r, err, http.StatusBadRequest)

		return
	}

	mux.writeJSON(w, http.StatusOK, mux.tracks.Defaults())
}

// routeEvents streams the events of a track over a websocket until either
// side closes it or the track ends. Events are dropped when the client reads
// too slowly, ended always closes the stream.
func (mux *Mux) routeEvents(w http.ResponseWriter, r *http.Request) {
	id := trackID(r)
	log := mux.log.WithCtx(logger.Ctx{
		"track_id": id,
	})

	eventsCh := make(chan events.Event, eventsBufferSize)
	endedCh := make(chan struct{})

	var endedOnce sync.Once

	unsubscribe, err := mux.tracks.Subscribe(id, func(event events.Event) error {
		if event.Kind == events.KindEnded {
			defer endedOnce.Do(func() { close(endedCh) })
		}

		select {
		case eventsCh <- event:
			return nil
		default:
			return errors.Errorf("events stream full, dropped %s", event.Kind)
		}
	})
	if err != nil {
		mux.writeError(w, r, err, http.StatusInternalServerError)

		return
	}

	defer unsubscribe()

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("Accept websocket", errors.Trace(err), nil)

		return
	}

	prometheusWSConnActive.Inc()
	defer prometheusWSConnActive.Dec()

	log.Info("Events stream open", nil)

	// Incoming messages are not expected, CloseRead cancels ctx when the
	// client goes away.
	ctx := c.CloseRead(r.Context())

	write := func(event events.Event) bool {
		if err := wsjson.Write(ctx, c, event); err != nil {
			log.Error("Write event", errors.Trace(err), nil)
			c.Close(websocket.StatusInternalError, "")

			return false
		}

		return true
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("Events stream closed", nil)
			c.Close(websocket.StatusNormalClosure, "")

			return
		case event := <-eventsCh:
			if !write(event) {
				return
			}
		case <-endedCh:
			// Flush what is buffered, ended included when it fit.
			for len(eventsCh) > 0 {
				if !write(<-eventsCh) {
					return
				}
			}

			log.Info("Events stream ended", nil)
			c.Close(websocket.StatusNormalClosure, "track ended")

			return
		}
	}
}
