package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/meter"
)

// DefaultUITimeout bounds how long a request waits for the UI goroutine.
const DefaultUITimeout = 5 * time.Second

// Deck is the part of deck.Deck the server drives. Every call is made on
// the UI goroutine through the server's dispatch function.
type Deck interface {
	Meters() []deck.MeterInfo
	AddMeter(spec config.MeterSpec) (deck.MeterInfo, error)
	CloseMeter(id string) error
	ResetMeter(id string) error
	InvertMeter(id string) error
	SetStrike(id string, strike float64) error
	SetSnapEnabled(on bool)
	ToggleSnap() bool
	SnapEnabled() bool
	SnapDistance() int
	Reload(cfg *config.Config)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	deck       Deck
	dispatch   func(func())
	reload     func() (*config.Config, error)
	logger     *slog.Logger
	timeout    time.Duration
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on socketPath. dispatch must run its argument on
// the UI goroutine; reload loads the configuration for RELOAD.
func NewServer(socketPath string, d Deck, dispatch func(func()), reload func() (*config.Config, error), logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: socketPath,
		deck:       d,
		dispatch:   dispatch,
		reload:     reload,
		logger:     logger,
		timeout:    DefaultUITimeout,
		startTime:  time.Now(),
	}
}

// Start begins listening for IPC connections. A stale socket file from a
// previous run is removed first.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.write(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.logger.Debug("IPC request", "command", req.Command)
	s.write(conn, s.handleCommand(req))
}

func (s *Server) write(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.onUI(s.handleGetStatus)
	case CommandSetSnap:
		var p SetSnapPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.onUI(func() *Response {
			s.deck.SetSnapEnabled(p.Enabled)
			return ok(SnapData{Enabled: s.deck.SnapEnabled()})
		})
	case CommandToggleSnap:
		return s.onUI(func() *Response {
			return ok(SnapData{Enabled: s.deck.ToggleSnap()})
		})
	case CommandListMeters:
		return s.onUI(func() *Response {
			return ok(MetersData{Meters: s.deck.Meters()})
		})
	case CommandAddMeter:
		return s.handleAddMeter(req.Payload)
	case CommandCloseMeter:
		return s.meterCommand(req.Payload, s.deck.CloseMeter)
	case CommandResetMeter:
		return s.meterCommand(req.Payload, s.deck.ResetMeter)
	case CommandInvertMeter:
		return s.meterCommand(req.Payload, s.deck.InvertMeter)
	case CommandSetStrike:
		var p SetStrikePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.onUI(func() *Response {
			return result(s.deck.SetStrike(p.ID, p.Strike))
		})
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	return ok(StatusData{
		SnapEnabled:   s.deck.SnapEnabled(),
		SnapDistance:  s.deck.SnapDistance(),
		MeterCount:    len(s.deck.Meters()),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
}

func (s *Server) handleAddMeter(payload json.RawMessage) *Response {
	var p AddMeterPayload
	if err := decodePayload(payload, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	spec, err := p.spec()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.onUI(func() *Response {
		info, err := s.deck.AddMeter(spec)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return ok(info)
	})
}

func (s *Server) meterCommand(payload json.RawMessage, fn func(string) error) *Response {
	var p MeterPayload
	if err := decodePayload(payload, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.onUI(func() *Response {
		return result(fn(p.ID))
	})
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	cfg, err := s.reload()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return s.onUI(func() *Response {
		s.deck.Reload(cfg)
		return ok(nil)
	})
}

// onUI runs fn on the UI goroutine and waits for its response.
func (s *Server) onUI(fn func() *Response) *Response {
	done := make(chan *Response, 1)
	s.dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("IPC handler panic", "panic", r)
				done <- NewErrorResponse(fmt.Sprintf("internal error: %v", r))
			}
		}()
		done <- fn()
	})

	select {
	case resp := <-done:
		return resp
	case <-time.After(s.timeout):
		return NewErrorResponse("timed out waiting for the UI thread")
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func (p AddMeterPayload) spec() (config.MeterSpec, error) {
	spec := config.MeterSpec{
		ID:       strings.TrimSpace(p.ID),
		Strike:   p.Strike,
		Expiry:   strings.TrimSpace(p.Expiry),
		Inverted: p.Inverted,
		X:        p.X,
		Y:        p.Y,
		Width:    p.Width,
		Height:   p.Height,
	}
	if p.Strike < 0 {
		return spec, fmt.Errorf("strike must be > 0")
	}
	if p.Right != "" {
		right, err := meter.ParseRight(p.Right)
		if err != nil {
			return spec, err
		}
		spec.Right = right
	}
	if spec.Expiry != "" {
		if _, err := time.Parse(config.ExpiryLayout, spec.Expiry); err != nil {
			return spec, fmt.Errorf("expiry must be YYYY-MM-DD")
		}
	}
	return spec, nil
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func result(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}
