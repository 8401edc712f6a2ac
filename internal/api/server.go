package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/httputil"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/security"
	"github.com/banshee-data/stride.report/internal/serialmux"
	"github.com/banshee-data/stride.report/internal/stepdetect"
	"github.com/banshee-data/stride.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultStepBuffer is the per-client queue of the step stream. Events for a
// client that falls further behind are dropped.
const DefaultStepBuffer = 64

// Detector is the part of the step engine the API reads from.
type Detector interface {
	State() stepdetect.State
	Config() stepdetect.Config
	AddStepListener(l stepdetect.Listener) string
	RemoveStepListener(id string)
}

// Options configures optional parts of the server. A nil DB disables the
// session routes; a nil History disables /debug/filters.
type Options struct {
	SpeedUnits  string
	LengthUnits string
	History     *History
	DB          *db.DB
	Pipeline    *serialmux.Pipeline
	StepBuffer  int
}

type Server struct {
	engine      Detector
	db          *db.DB
	pipeline    *serialmux.Pipeline
	history     *History
	speedUnits  string
	lengthUnits string
	stepBuffer  int
}

func NewServer(engine Detector, opts Options) *Server {
	s := &Server{
		engine:      engine,
		db:          opts.DB,
		pipeline:    opts.Pipeline,
		history:     opts.History,
		speedUnits:  opts.SpeedUnits,
		lengthUnits: opts.LengthUnits,
		stepBuffer:  opts.StepBuffer,
	}
	if !units.IsValidSpeed(s.speedUnits) {
		s.speedUnits = units.MPS
	}
	if !units.IsValidLength(s.lengthUnits) {
		s.lengthUnits = units.Meters
	}
	if s.stepBuffer <= 0 {
		s.stepBuffer = DefaultStepBuffer
	}
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.showState)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/steps", s.streamSteps)
	if s.db != nil {
		mux.HandleFunc("/api/sessions", s.listSessions)
		mux.HandleFunc("/api/sessions/{id}", s.sessionHandler)
		mux.HandleFunc("/api/sessions/{id}/samples", s.sessionSamples)
	}
	if s.history != nil {
		mux.HandleFunc("/debug/filters", s.handleFilterChart)
	}
	return mux
}

type stateResponse struct {
	stepdetect.State
	WalkingSpeed     string         `json:"walking_speed"`
	StrideLength     string         `json:"stride_length"`
	Device           map[string]any `json:"device,omitempty"`
	ParsedSamples    uint64         `json:"parsed_samples"`
	MalformedSamples uint64         `json:"malformed_samples"`
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	st := s.engine.State()
	resp := stateResponse{
		State:        st,
		WalkingSpeed: units.FormatSpeed(units.WalkingSpeed(st.LastStrideLength, st.StrideDuration), s.speedUnits),
		StrideLength: units.FormatLength(st.LastStrideLength, s.lengthUnits),
	}
	if s.pipeline != nil {
		resp.Device = s.pipeline.DeviceState()
		resp.ParsedSamples = s.pipeline.Samples()
		resp.MalformedSamples = s.pipeline.Malformed()
	}
	httputil.WriteJSONOK(w, resp)
}

type configResponse struct {
	stepdetect.Config
	Gating      string `json:"gating"`
	SpeedUnits  string `json:"speed_units"`
	LengthUnits string `json:"length_units"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	cfg := s.engine.Config()
	httputil.WriteJSONOK(w, configResponse{
		Config:      cfg,
		Gating:      cfg.Gating.String(),
		SpeedUnits:  s.speedUnits,
		LengthUnits: s.lengthUnits,
	})
}

// stepResponse adds display strings to a step event. The text field names
// differ from the event's so the embedded numeric fields stay promoted.
type stepResponse struct {
	stepdetect.StepEvent
	WalkingSpeedText string `json:"walking_speed"`
	StrideLengthText string `json:"stride_length"`
}

// streamSteps sends every step event to the client as server-sent events.
// Each client registers its own listener for the life of the request.
func (s *Server) streamSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	// The channel is never closed: a dispatch already holding a listener
	// snapshot may still call the listener after it is removed.
	events := make(chan stepdetect.StepEvent, s.stepBuffer)
	var dropped atomic.Uint64
	id := s.engine.AddStepListener(stepdetect.ListenerFunc(func(ev stepdetect.StepEvent) {
		select {
		case events <- ev:
		default:
			dropped.Add(1)
		}
	}))
	defer s.engine.RemoveStepListener(id)

	flusher, ok := httputil.StartEventStream(w, "connected")
	if !ok {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			if n := dropped.Load(); n > 0 {
				monitoring.Logf("api: step stream client dropped %d events", n)
			}
			return
		case ev := <-events:
			payload, err := json.Marshal(stepResponse{
				StepEvent:        ev,
				WalkingSpeedText: units.FormatSpeed(units.WalkingSpeed(ev.StrideLength, ev.Duration), s.speedUnits),
				StrideLengthText: units.FormatLength(ev.StrideLength, s.lengthUnits),
			})
			if err != nil {
				monitoring.Logf("api: failed to encode step event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: step\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sessions, err := s.db.Sessions()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		session, err := s.db.Session(id)
		if errors.Is(err, db.ErrSessionNotFound) {
			httputil.NotFound(w, "Session not found")
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve session: %v", err))
			return
		}
		httputil.WriteJSONOK(w, session)
	case http.MethodDelete:
		err := s.db.DeleteSession(id)
		if errors.Is(err, db.ErrSessionNotFound) {
			httputil.NotFound(w, "Session not found")
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to delete session: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// sessionSamples exports a capture session in the sensor's CSV line format,
// which steptrace replays directly.
func (s *Server) sessionSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.PathValue("id")
	samples, err := s.db.SessionSamples(id)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, "Session not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve samples: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "session-"+security.SanitizeFilename(id)+".csv"))
	for _, smp := range samples {
		if _, err := io.WriteString(w, serialmux.FormatSampleLine(smp)+"\n"); err != nil {
			return
		}
	}
}
