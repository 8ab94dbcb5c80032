package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hemebond/PyWO/internal/runtimepath"
)

const clientTimeout = 5 * time.Second

// Client talks to a running daemon over its unix socket. Each call
// opens a fresh connection, sends one request and reads one reply.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the given socket path. An empty path
// selects the default runtime socket.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	return &Client{
		socketPath: socketPath,
		timeout:    clientTimeout,
	}, nil
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("daemon not running at %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, errors.New(resp.Error)
	}

	return &resp, nil
}

// DoAction submits an action string and returns the assigned request id.
func (c *Client) DoAction(action string) (string, error) {
	payload, err := json.Marshal(DoActionPayload{Action: action})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandDoAction, Payload: payload})
	if err != nil {
		return "", err
	}

	var data DoActionData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to parse action response: %w", err)
	}
	return data.RequestID, nil
}

// Status fetches daemon status.
func (c *Client) Status() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// Windows fetches the current window list, topmost first.
func (c *Client) Windows() (*WindowsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var windows WindowsData
	if err := json.Unmarshal(resp.Data, &windows); err != nil {
		return nil, fmt.Errorf("failed to parse window list: %w", err)
	}
	return &windows, nil
}

// Viewport fetches the usable work area of the active monitor.
func (c *Client) Viewport() (*ViewportData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetViewport})
	if err != nil {
		return nil, err
	}

	var area ViewportData
	if err := json.Unmarshal(resp.Data, &area); err != nil {
		return nil, fmt.Errorf("failed to parse viewport: %w", err)
	}
	return &area, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping reports whether a daemon answers on the socket.
func (c *Client) Ping() error {
	_, err := c.sendRequest(&Request{Command: CommandGetStatus})
	return err
}
