package ipc

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/config"
	"github.com/hemebond/PyWO/internal/dispatch"
	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	enqueued []actions.Request
	fail     error
}

func (f *fakeDispatcher) Enqueue(req actions.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.enqueued = append(f.enqueued, req)
	return nil
}

func (f *fakeDispatcher) Stats() dispatch.Stats {
	return dispatch.Stats{Dispatched: 4, Failed: 1, Dropped: 0, QueueLen: 2}
}

type fakeBackend struct {
	snaps []platform.Snapshot
}

func (f *fakeBackend) ListWindows() ([]platform.Snapshot, error) { return f.snaps, nil }
func (f *fakeBackend) ActiveWindow() (platform.WindowID, error)  { return 0, nil }

func (f *fakeBackend) Viewport() (geometry.Rect, error) {
	return geometry.Rect{X: 0, Y: 24, Width: 1920, Height: 1056}, nil
}

func (f *fakeBackend) CurrentDesktop() (int, error) { return 2, nil }

func (f *fakeBackend) Apply(platform.Command) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (f *fakeBackend) Watch(func(platform.Event)) error { return nil }
func (f *fakeBackend) EventLoop()                       {}
func (f *fakeBackend) Disconnect()                      {}

func testServer(t *testing.T, reload func() error) (*Server, *fakeDispatcher) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.IPC.Socket = filepath.Join(t.TempDir(), "pywo.sock")

	disp := &fakeDispatcher{}
	backend := &fakeBackend{
		snaps: []platform.Snapshot{
			{ID: 21, Title: "terminal", Class: "Term", Type: platform.TypeNormal,
				Desktop: 2, Geometry: geometry.Rect{X: 0, Y: 24, Width: 960, Height: 528}, Active: true},
		},
	}

	s, err := NewServer(cfg, disp, backend, reload)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, disp
}

func doAction(t *testing.T, s *Server, action string) *Response {
	t.Helper()
	payload, err := json.Marshal(DoActionPayload{Action: action})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return s.handleCommand(&Request{Command: CommandDoAction, Payload: payload})
}

func TestHandleDoAction_EnqueuesStamped(t *testing.T) {
	s, disp := testServer(t, nil)

	resp := doAction(t, s, "put 1,0")
	if resp.Status != "OK" {
		t.Fatalf("status %s: %s", resp.Status, resp.Error)
	}

	var data DoActionData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 1 {
		t.Fatalf("want 1 enqueued request, got %d", len(disp.enqueued))
	}
	got := disp.enqueued[0]
	if got.Source != "ipc" || got.ID != data.RequestID {
		t.Fatalf("request %+v, want source ipc and id %s", got, data.RequestID)
	}
}

func TestHandleDoAction_TargetClause(t *testing.T) {
	s, disp := testServer(t, nil)
	s.cfg.Filters = map[string]config.FilterConfig{
		"browsers": {Class: []string{"firefox"}},
	}

	resp := doAction(t, s, "toggle fullscreen on browsers")
	if resp.Status != "OK" {
		t.Fatalf("status %s: %s", resp.Status, resp.Error)
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 1 || disp.enqueued[0].Target == nil {
		t.Fatalf("want 1 request carrying the preset filter, got %+v", disp.enqueued)
	}
}

func TestHandleDoAction_UnknownPreset(t *testing.T) {
	s, disp := testServer(t, nil)

	resp := doAction(t, s, "center on nope")
	if resp.Status != "ERROR" {
		t.Fatalf("status %s, want ERROR", resp.Status)
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 0 {
		t.Fatal("unknown preset must not reach the dispatcher")
	}
}

func TestHandleDoAction_BadAction(t *testing.T) {
	s, disp := testServer(t, nil)

	resp := doAction(t, s, "teleport left")
	if resp.Status != "ERROR" {
		t.Fatalf("status %s, want ERROR", resp.Status)
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 0 {
		t.Fatal("bad action must not reach the dispatcher")
	}
}

func TestHandleDoAction_QueueFull(t *testing.T) {
	s, disp := testServer(t, nil)
	disp.fail = errors.New("dispatch queue full")

	resp := doAction(t, s, "center")
	if resp.Status != "ERROR" {
		t.Fatalf("status %s, want ERROR", resp.Status)
	}
}

func TestHandleGetStatus(t *testing.T) {
	s, _ := testServer(t, nil)

	resp := s.handleCommand(&Request{Command: CommandGetStatus})
	if resp.Status != "OK" {
		t.Fatalf("status %s: %s", resp.Status, resp.Error)
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.DaemonRunning || status.Desktop != 2 || status.WindowCount != 1 {
		t.Fatalf("status %+v, want running on desktop 2 with 1 window", status)
	}
	if status.Dispatched != 4 || status.QueueLength != 2 {
		t.Fatalf("status %+v, want the dispatcher counters", status)
	}
}

func TestHandleReload_ReportsFailure(t *testing.T) {
	s, _ := testServer(t, func() error { return errors.New("config broken") })

	resp := s.handleCommand(&Request{Command: CommandReload})
	if resp.Status != "ERROR" || resp.Error == "" {
		t.Fatalf("response %+v, want the reload error", resp)
	}
}

func TestHandleCommand_Unknown(t *testing.T) {
	s, _ := testServer(t, nil)

	resp := s.handleCommand(&Request{Command: "EXPLODE"})
	if resp.Status != "ERROR" {
		t.Fatalf("status %s, want ERROR", resp.Status)
	}
}

func TestClientServer_RoundTrip(t *testing.T) {
	reloaded := false
	s, disp := testServer(t, func() error { reloaded = true; return nil })

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	client, err := NewClient(s.SocketPath())
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.WindowCount != 1 || status.Grid.Columns != 3 {
		t.Fatalf("status %+v, want 1 window on the default grid", status)
	}

	id, err := client.DoAction("put 2,1")
	if err != nil {
		t.Fatalf("do action: %v", err)
	}
	if id == "" {
		t.Fatal("no request id returned")
	}

	windows, err := client.Windows()
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if len(windows.Windows) != 1 || windows.Windows[0].Class != "Term" {
		t.Fatalf("windows %+v, want the terminal snapshot", windows.Windows)
	}

	area, err := client.Viewport()
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	if area.Y != 24 || area.Height != 1056 {
		t.Fatalf("viewport %+v, want the carved work area", area)
	}

	if err := client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded {
		t.Fatal("reload callback never ran")
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.enqueued) != 1 {
		t.Fatalf("want 1 enqueued request, got %d", len(disp.enqueued))
	}
}
