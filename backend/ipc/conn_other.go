//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// SocketEnv overrides the socket location when set.
const SocketEnv = "MEDIABRIDGE_SOCKET"

// socketPath follows platform conventions:
//   - macOS: ~/Library/Caches/mediabridge/mediabridge.sock
//   - Linux/Unix: $XDG_RUNTIME_DIR/mediabridge.sock
//
// with /tmp/mediabridge-{uid}.sock as the fallback on both.
var socketPath = "/tmp/mediabridge.sock"

func init() {
	socketPath = defaultSocketPath()
}

func defaultSocketPath() string {
	if p := os.Getenv(SocketEnv); p != "" {
		return p
	}
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Caches", "mediabridge", "mediabridge.sock")
		}
	} else if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "mediabridge.sock")
	}
	if u, err := user.Current(); err == nil {
		return fmt.Sprintf("/tmp/mediabridge-%s.sock", u.Uid)
	}
	return socketPath
}

// Address returns the socket path clients connect to.
func Address() string {
	return socketPath
}

// Dial establishes a connection to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

// Listen creates the Unix domain socket. A socket file left behind by a
// daemon that did not shut down cleanly is replaced.
func Listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return nil, err
	}
	if c, err := Dial(); err == nil {
		c.Close()
		return nil, fmt.Errorf("listen %s: socket in use", socketPath)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return net.Listen("unix", socketPath)
}

// DestroyConn removes the Unix socket file from the filesystem.
func DestroyConn() error {
	return os.Remove(socketPath)
}
