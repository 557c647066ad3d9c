package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for socketPath.
func NewClientWithSocket(socketPath string) *Client {
	// The timeout leaves room for the server's own UI wait.
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultUITimeout + time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(cmd CommandType, payload any) (*Response, error) {
	req := Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
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
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload, out any) error {
	resp, err := c.sendRequest(cmd, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetSnap turns snapping on or off and returns the resulting state.
func (c *Client) SetSnap(enabled bool) (bool, error) {
	var data SnapData
	err := c.call(CommandSetSnap, SetSnapPayload{Enabled: enabled}, &data)
	return data.Enabled, err
}

// ToggleSnap flips snapping and returns the resulting state.
func (c *Client) ToggleSnap() (bool, error) {
	var data SnapData
	err := c.call(CommandToggleSnap, nil, &data)
	return data.Enabled, err
}

func (c *Client) ListMeters() ([]deck.MeterInfo, error) {
	var data MetersData
	if err := c.call(CommandListMeters, nil, &data); err != nil {
		return nil, err
	}
	return data.Meters, nil
}

func (c *Client) AddMeter(p AddMeterPayload) (*deck.MeterInfo, error) {
	var info deck.MeterInfo
	if err := c.call(CommandAddMeter, p, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) CloseMeter(id string) error {
	return c.call(CommandCloseMeter, MeterPayload{ID: id}, nil)
}

func (c *Client) ResetMeter(id string) error {
	return c.call(CommandResetMeter, MeterPayload{ID: id}, nil)
}

func (c *Client) InvertMeter(id string) error {
	return c.call(CommandInvertMeter, MeterPayload{ID: id}, nil)
}

func (c *Client) SetStrike(id string, strike float64) error {
	return c.call(CommandSetStrike, SetStrikePayload{ID: id, Strike: strike}, nil)
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
