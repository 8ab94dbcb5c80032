package mcp

import "github.com/hemebond/PyWO/internal/ipc"

// RunActionInput is the input for the run_action tool.
type RunActionInput struct {
	Action string `json:"action" jsonschema:"required,Action string in the hotkey grammar (e.g. 'put 1,0', 'expand left', 'cycle next', 'toggle maximized'). A trailing 'on NAME' clause targets windows matching the named filter preset from the daemon config."`
}

// RunActionOutput is the output for the run_action tool.
type RunActionOutput struct {
	RequestID string `json:"request_id"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowData `json:"windows"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetViewportInput is the input for the get_viewport tool.
type GetViewportInput struct{}
