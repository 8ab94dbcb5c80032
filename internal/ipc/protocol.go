// Package ipc carries the daemon's control protocol: newline-delimited
// JSON requests over a unix socket, one request per connection.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/hemebond/PyWO/internal/platform"
)

// CommandType names an IPC operation.
type CommandType string

const (
	CommandDoAction    CommandType = "DO_ACTION"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandGetViewport CommandType = "GET_VIEWPORT"
	CommandReload      CommandType = "RELOAD"
)

// Request is one IPC request from client to daemon.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the daemon's reply.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// DoActionPayload carries the action string for DO_ACTION.
type DoActionPayload struct {
	Action string `json:"action"`
}

// DoActionData is the DO_ACTION result: the request id assigned to the
// enqueued action, usable to correlate dispatch results.
type DoActionData struct {
	RequestID string `json:"request_id"`
}

// GridInfo describes the active grid.
type GridInfo struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
	Gap     int `json:"gap"`
}

// StatusData is the GET_STATUS result.
type StatusData struct {
	DaemonRunning bool     `json:"daemon_running"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Desktop       int      `json:"desktop"`
	WindowCount   int      `json:"window_count"`
	Grid          GridInfo `json:"grid"`
	Dispatched    uint64   `json:"dispatched"`
	Failed        uint64   `json:"failed"`
	Dropped       uint64   `json:"dropped"`
	QueueLength   int      `json:"queue_length"`
}

// WindowData describes one window for LIST_WINDOWS.
type WindowData struct {
	ID      uint32   `json:"id"`
	Title   string   `json:"title"`
	Class   string   `json:"class"`
	Type    string   `json:"type"`
	Desktop int      `json:"desktop"`
	X       int      `json:"x"`
	Y       int      `json:"y"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	States  []string `json:"states,omitempty"`
	Active  bool     `json:"active,omitempty"`
}

// WindowsData is the LIST_WINDOWS result, topmost first.
type WindowsData struct {
	Windows []WindowData `json:"windows"`
}

// ViewportData is the GET_VIEWPORT result.
type ViewportData struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// WindowFromSnapshot flattens a snapshot into its wire form.
func WindowFromSnapshot(snap platform.Snapshot) WindowData {
	return WindowData{
		ID:      uint32(snap.ID),
		Title:   snap.Title,
		Class:   snap.Class,
		Type:    string(snap.Type),
		Desktop: snap.Desktop,
		X:       snap.Geometry.X,
		Y:       snap.Geometry.Y,
		Width:   snap.Geometry.Width,
		Height:  snap.Geometry.Height,
		States:  snap.State.Names(),
		Active:  snap.Active,
	}
}
