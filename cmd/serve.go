package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/station-sim/station-sim/sim"
	"github.com/station-sim/station-sim/sim/trace"
)

var serveAddr string // Listen address for the HTTP control plane

// Error codes in API error responses.
const (
	errCodeBadRequest = "BAD_REQUEST"
	errCodeConflict   = "CONFLICT"
)

// startRequest is the body of POST /v1/simulation. Missing fields take the
// station defaults.
type startRequest struct {
	WaitingCapacity *int   `json:"waiting_capacity"`
	BayCount        *int   `json:"bay_count"`
	TotalArrivals   *int   `json:"total_arrivals"`
	Speed           *int   `json:"speed"`
	Trace           string `json:"trace"`
}

func (req startRequest) config() sim.Config {
	cfg := sim.NewConfig(3, 2, 15)
	if req.WaitingCapacity != nil {
		cfg.WaitingCapacity = *req.WaitingCapacity
	}
	if req.BayCount != nil {
		cfg.BayCount = *req.BayCount
	}
	if req.TotalArrivals != nil {
		cfg.TotalArrivals = *req.TotalArrivals
	}
	cfg.TraceLevel = trace.TraceLevel(req.Trace)
	return cfg
}

type speedRequest struct {
	Factor *int `json:"factor"`
}

type speedResponse struct {
	Factor int `json:"factor"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// eventEnvelope is one line of the /v1/events stream.
type eventEnvelope struct {
	Type  string    `json:"type"`
	Event sim.Event `json:"event"`
}

// api serves the HTTP control plane for one controller.
type api struct {
	ctrl   *sim.Controller
	events *sim.Broadcaster
	// timing overrides the default timings of started runs; zero keeps them.
	timing sim.Timing
}

// newRouter builds the /v1 routes.
func newRouter(a *api) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/simulation", a.status)
		r.Post("/simulation", a.start)
		r.Post("/simulation/pause", a.command(a.ctrl.Pause, "simulation is not running"))
		r.Post("/simulation/resume", a.command(a.ctrl.Resume, "simulation is not paused"))
		r.Post("/simulation/stop", a.command(a.ctrl.Stop, "no active simulation"))
		r.Put("/simulation/speed", a.setSpeed)
		r.Get("/events", a.streamEvents)
	})
	return r
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": chimiddleware.GetReqID(r.Context()),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	})
}

func (a *api) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ctrl.Status())
}

func (a *api) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Speed != nil {
		if *req.Speed < sim.MinSpeedFactor || *req.Speed > sim.MaxSpeedFactor {
			err := &sim.ConfigError{Field: "speed factor", Value: *req.Speed, Min: sim.MinSpeedFactor, Max: sim.MaxSpeedFactor}
			writeError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
			return
		}
	}

	cfg := req.config()
	cfg.Timing = a.timing
	if a.ctrl.State().Active() {
		writeError(w, http.StatusConflict, errCodeConflict, sim.ErrAlreadyRunning.Error())
		return
	}
	// The first arrival gap and service use the factor in force at Start.
	if req.Speed != nil {
		a.ctrl.SetSpeedFactor(*req.Speed)
	}
	if err := a.ctrl.Start(cfg); err != nil {
		var cfgErr *sim.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			writeError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		case errors.Is(err, sim.ErrAlreadyRunning):
			writeError(w, http.StatusConflict, errCodeConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, a.ctrl.Status())
}

// command adapts a state-changing controller method to a handler. A no-op
// transition is a conflict.
func (a *api) command(apply func() bool, conflict string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !apply() {
			writeError(w, http.StatusConflict, errCodeConflict, conflict+" (state "+a.ctrl.State().String()+")")
			return
		}
		writeJSON(w, http.StatusOK, a.ctrl.Status())
	}
}

func (a *api) setSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Factor == nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "factor is required")
		return
	}
	writeJSON(w, http.StatusOK, speedResponse{Factor: a.ctrl.SetSpeedFactor(*req.Factor)})
}

// streamEvents writes every event as one JSON line until the client goes away.
func (a *api) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}
	events, cancel := a.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := enc.Encode(eventEnvelope{Type: ev.Type(), Event: ev}); err != nil {
				logrus.Debugf("event stream closed: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Debugf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// serveCmd exposes a controller over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP control plane for the simulation",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events := sim.NewBroadcaster()
		ctrl := sim.NewController(sim.Sinks(sim.LogSink{}, events))
		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           newRouter(&api{ctrl: ctrl, events: events}),
			ReadHeaderTimeout: 10 * time.Second,
			// Event streams end with the signal context.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		errCh := make(chan error, 1)
		go func() {
			logrus.Infof("Listening on %s", serveAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("HTTP server: %v", err)
			}
		case <-ctx.Done():
			logrus.Info("Shutting down")
		}

		ctrl.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ctrl.Wait(shutdownCtx); err != nil {
			logrus.Warnf("simulation did not tear down: %v", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("HTTP shutdown: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
