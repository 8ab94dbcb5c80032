package mcp

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/dispatch"
	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/ipc"
	"github.com/hemebond/PyWO/internal/platform"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	enqueued []actions.Request
}

func (f *fakeDispatcher) Enqueue(req actions.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, req)
	return nil
}

func (f *fakeDispatcher) Stats() dispatch.Stats {
	return dispatch.Stats{Dispatched: 9}
}

type fakeBackend struct{}

func (fakeBackend) ListWindows() ([]platform.Snapshot, error) {
	return []platform.Snapshot{
		{ID: 31, Title: "files", Class: "Files", Type: platform.TypeNormal,
			Desktop: 0, Geometry: geometry.Rect{X: 40, Y: 30, Width: 800, Height: 600}, Active: true},
	}, nil
}

func (fakeBackend) ActiveWindow() (platform.WindowID, error) { return 31, nil }

func (fakeBackend) Viewport() (geometry.Rect, error) {
	return geometry.Rect{Width: 2560, Height: 1400}, nil
}

func (fakeBackend) CurrentDesktop() (int, error) { return 0, nil }

func (fakeBackend) Apply(platform.Command) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (fakeBackend) Watch(func(platform.Event)) error { return nil }
func (fakeBackend) EventLoop()                       {}
func (fakeBackend) Disconnect()                      {}

// startDaemon runs a real IPC server on a temp socket so the tool
// handlers are exercised through their actual transport.
func startDaemon(t *testing.T) (string, *fakeDispatcher) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.IPC.Socket = filepath.Join(t.TempDir(), "pywo.sock")

	disp := &fakeDispatcher{}
	srv, err := ipc.NewServer(cfg, disp, fakeBackend{}, nil)
	if err != nil {
		t.Fatalf("ipc server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return cfg.IPC.Socket, disp
}

func TestHandleRunAction(t *testing.T) {
	socket, disp := startDaemon(t)

	s, err := NewServer(socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, out, err := s.handleRunAction(context.Background(), nil, RunActionInput{Action: "put 1,1"})
	if err != nil {
		t.Fatalf("run_action: %v", err)
	}
	if out.RequestID == "" {
		t.Fatal("no request id returned")
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 1 || disp.enqueued[0].ID != out.RequestID {
		t.Fatalf("enqueued %+v, want one request with id %s", disp.enqueued, out.RequestID)
	}
}

func TestHandleRunAction_BadAction(t *testing.T) {
	socket, _ := startDaemon(t)

	s, err := NewServer(socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if _, _, err := s.handleRunAction(context.Background(), nil, RunActionInput{Action: "teleport left"}); err == nil {
		t.Fatal("bad action must fail")
	}
}

func TestHandleListWindows(t *testing.T) {
	socket, _ := startDaemon(t)

	s, err := NewServer(socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list_windows: %v", err)
	}
	if len(out.Windows) != 1 || out.Windows[0].Class != "Files" {
		t.Fatalf("windows %+v, want the files snapshot", out.Windows)
	}
}

func TestHandleGetStatus(t *testing.T) {
	socket, _ := startDaemon(t)

	s, err := NewServer(socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, status, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	if !status.DaemonRunning || status.Dispatched != 9 {
		t.Fatalf("status %+v, want running with 9 dispatched", status)
	}
}

func TestHandleGetViewport(t *testing.T) {
	socket, _ := startDaemon(t)

	s, err := NewServer(socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	_, area, err := s.handleGetViewport(context.Background(), nil, GetViewportInput{})
	if err != nil {
		t.Fatalf("get_viewport: %v", err)
	}
	if area.Width != 2560 || area.Height != 1400 {
		t.Fatalf("viewport %+v, want the full monitor", area)
	}
}
