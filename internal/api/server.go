// Package api exposes the engine over HTTP: window and viewport
// queries, action submission and a websocket stream of dispatch
// results. It shares its wire types with the ipc package so both
// surfaces report windows the same way.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/dispatch"
	"github.com/hemebond/PyWO/internal/ipc"
	"github.com/hemebond/PyWO/internal/platform"
)

// Engine is the slice of the pipeline the API needs.
type Engine interface {
	Enqueue(actions.Request) error
	Stats() dispatch.Stats
	Subscribe(func(dispatch.Result)) func()
}

// EventData is one dispatch result as sent on the event stream.
type EventData struct {
	RequestID string   `json:"request_id"`
	Kind      string   `json:"kind"`
	Source    string   `json:"source"`
	Windows   []uint32 `json:"windows,omitempty"`
	Error     string   `json:"error,omitempty"`
	ElapsedMS int64    `json:"elapsed_ms"`
}

// Server serves the HTTP API on a configured listen address.
type Server struct {
	httpServer *http.Server
	engine     Engine
	backend    platform.Backend
	startTime  time.Time

	cfg   *config.Config
	cfgMu sync.RWMutex
}

// NewServer builds the API server. It does not listen until Start.
func NewServer(listenAddr string, engine Engine, backend platform.Backend, cfg *config.Config) *Server {
	s := &Server{
		engine:    engine,
		backend:   backend,
		startTime: time.Now(),
		cfg:       cfg,
	}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/windows", s.handleWindows).Methods("GET")
	router.HandleFunc("/windows/{id:[0-9]+}", s.handleWindow).Methods("GET")
	router.HandleFunc("/viewport", s.handleViewport).Methods("GET")
	router.HandleFunc("/actions", s.handleAction).Methods("POST")
	router.HandleFunc("/events", s.handleEvents).Methods("GET")
	router.PathPrefix("/").Handler(http.NotFoundHandler())

	s.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: router,
		// No write timeout; /events holds its connection open.
		ReadTimeout:    5 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	return s
}

// Start binds the listen address and begins serving.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind API address: %w", err)
	}

	log.Info("API server listening [", s.httpServer.Addr, "]")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("API server stopped [", err, "]")
		}
	}()

	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Warn("API shutdown [", err, "]")
	}
}

// UpdateConfig swaps the config after a reload.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

func jsonResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	log.Debug(status, " ", r.Method, " ", r.URL.Path)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	jsonResponse(w, r, status, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()

	desktop, _ := s.backend.CurrentDesktop()
	windowCount := 0
	if snaps, err := s.backend.ListWindows(); err == nil {
		windowCount = len(snaps)
	}

	s.cfgMu.RLock()
	grid := s.cfg.Grid
	s.cfgMu.RUnlock()

	jsonResponse(w, r, http.StatusOK, ipc.StatusData{
		DaemonRunning: true,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Desktop:       desktop,
		WindowCount:   windowCount,
		Grid:          ipc.GridInfo{Columns: grid.Columns, Rows: grid.Rows, Gap: grid.Gap},
		Dispatched:    stats.Dispatched,
		Failed:        stats.Failed,
		Dropped:       stats.Dropped,
		QueueLength:   stats.QueueLen,
	})
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.backend.ListWindows()
	if err != nil {
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	windows := make([]ipc.WindowData, len(snaps))
	for i, snap := range snaps {
		windows[i] = ipc.WindowFromSnapshot(snap)
	}
	jsonResponse(w, r, http.StatusOK, ipc.WindowsData{Windows: windows})
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		errorResponse(w, r, http.StatusNotFound, "no such window")
		return
	}

	snaps, err := s.backend.ListWindows()
	if err != nil {
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	for _, snap := range snaps {
		if snap.ID == platform.WindowID(id) {
			jsonResponse(w, r, http.StatusOK, ipc.WindowFromSnapshot(snap))
			return
		}
	}
	errorResponse(w, r, http.StatusNotFound, "no such window")
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	area, err := s.backend.Viewport()
	if err != nil {
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	jsonResponse(w, r, http.StatusOK, ipc.ViewportData{
		X: area.X, Y: area.Y, Width: area.Width, Height: area.Height,
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var payload ipc.DoActionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		errorResponse(w, r, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.cfgMu.RLock()
	req, err := s.cfg.ParseAction(payload.Action)
	s.cfgMu.RUnlock()
	if err != nil {
		errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Stamp("api")

	if err := s.engine.Enqueue(req); err != nil {
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	jsonResponse(w, r, http.StatusAccepted, ipc.DoActionData{RequestID: req.ID})
}

// handleEvents streams dispatch results to one websocket client until
// it disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("Websocket accept failed [", err, "]")
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	log.Debug("Event stream connected [", r.RemoteAddr, "]")
	defer log.Debug("Event stream disconnected [", r.RemoteAddr, "]")

	// Slow clients lose results rather than stalling dispatch.
	results := make(chan dispatch.Result, 16)
	cancel := s.engine.Subscribe(func(res dispatch.Result) {
		select {
		case results <- res:
		default:
		}
	})
	defer cancel()

	// The stream is write-only; CloseRead cancels the context when the
	// client goes away.
	ctx := c.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case res := <-results:
			if err := writeEvent(ctx, c, res); err != nil {
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, c *websocket.Conn, res dispatch.Result) error {
	ev := EventData{
		RequestID: res.RequestID,
		Kind:      res.Kind,
		Source:    res.Source,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	for _, win := range res.Windows {
		ev.Windows = append(ev.Windows, uint32(win))
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, data)
}
