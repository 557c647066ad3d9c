// Package runtimepath locates per-user runtime files such as the daemon
// socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketEnv overrides the socket location when set.
const SocketEnv = "METERDECK_SOCKET"

const socketName = "meterdeck.sock"

// Dir returns the per-user runtime directory, trying in order
// $XDG_RUNTIME_DIR, /run/user/<uid>, and /tmp/meterdeck-runtime-<uid>
// (created with mode 0700).
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	runUser := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUser); err == nil && info.IsDir() {
		return runUser, nil
	}

	tmp := fmt.Sprintf("/tmp/meterdeck-runtime-%d", uid)
	if err := os.MkdirAll(tmp, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmp, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}
