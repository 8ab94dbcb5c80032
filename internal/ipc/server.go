package ipc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/dispatch"
	"github.com/hemebond/PyWO/internal/platform"
	"github.com/hemebond/PyWO/internal/runtimepath"
)

// Dispatcher is the slice of the pipeline the server needs.
type Dispatcher interface {
	Enqueue(actions.Request) error
	Stats() dispatch.Stats
}

// Server answers IPC requests on the daemon's unix socket.
type Server struct {
	socketPath string
	listener   net.Listener
	dispatcher Dispatcher
	backend    platform.Backend
	reload     func() error
	startTime  time.Time

	cfg   *config.Config
	cfgMu sync.RWMutex

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer prepares the server. The socket path comes from the config
// override or the runtime directory. The reload callback re-applies
// configuration and returns the first error, which is reported to the
// requesting client.
func NewServer(cfg *config.Config, disp Dispatcher, backend platform.Backend, reload func() error) (*Server, error) {
	socketPath := cfg.IPC.Socket
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove stale socket from a previous run
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		dispatcher: disp,
		backend:    backend,
		reload:     reload,
		startTime:  time.Now(),
		cfg:        cfg,
	}, nil
}

// SocketPath returns where the server listens.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Owner-only; actions move the caller's windows around.
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Info("IPC server listening [", s.socketPath, "]")

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Warn("IPC accept error [", err, "]")
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection reads one request line, answers it and closes.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Warn("IPC read error [", err, "]")
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandDoAction:
		return s.handleDoAction(req.Payload)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandGetViewport:
		return s.handleGetViewport()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleDoAction(payload json.RawMessage) *Response {
	var p DoActionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid action payload: %v", err))
	}

	s.cfgMu.RLock()
	req, err := s.cfg.ParseAction(p.Action)
	s.cfgMu.RUnlock()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Bad action %q: %v", p.Action, err))
	}
	req.Stamp("ipc")

	if err := s.dispatcher.Enqueue(req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Cannot enqueue action: %v", err))
	}

	log.Debug("IPC action ", p.Action, " [", req.ID, "]")

	resp, _ := NewOKResponse(DoActionData{RequestID: req.ID})
	return resp
}

func (s *Server) handleGetStatus() *Response {
	stats := s.dispatcher.Stats()

	desktop, _ := s.backend.CurrentDesktop()
	windowCount := 0
	if snaps, err := s.backend.ListWindows(); err == nil {
		windowCount = len(snaps)
	}

	s.cfgMu.RLock()
	grid := s.cfg.Grid
	s.cfgMu.RUnlock()

	status := StatusData{
		DaemonRunning: true,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Desktop:       desktop,
		WindowCount:   windowCount,
		Grid:          GridInfo{Columns: grid.Columns, Rows: grid.Rows, Gap: grid.Gap},
		Dispatched:    stats.Dispatched,
		Failed:        stats.Failed,
		Dropped:       stats.Dropped,
		QueueLength:   stats.QueueLen,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListWindows() *Response {
	snaps, err := s.backend.ListWindows()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}

	windows := make([]WindowData, len(snaps))
	for i, snap := range snaps {
		windows[i] = WindowFromSnapshot(snap)
	}

	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handleGetViewport() *Response {
	area, err := s.backend.Viewport()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get viewport: %v", err))
	}

	resp, _ := NewOKResponse(ViewportData{
		X: area.X, Y: area.Y, Width: area.Width, Height: area.Height,
	})
	return resp
}

func (s *Server) handleReload() *Response {
	log.Info("IPC reload requested")

	if s.reload != nil {
		if err := s.reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Reload failed: %v", err))
		}
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		log.Warn("Failed to marshal response [", err, "]")
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		log.Warn("Failed to send response [", err, "]")
	}
}

// Stop gracefully shuts down the server and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// UpdateConfig swaps the config after a reload.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
