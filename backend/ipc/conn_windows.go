//go:build windows

package ipc

import (
	"net"
	"os"
	"os/user"
	"regexp"

	"github.com/Microsoft/go-winio"
)

// SocketEnv overrides the pipe name when set.
const SocketEnv = "MEDIABRIDGE_SOCKET"

var pipeName = `\\.\pipe\mediabridge`

func init() {
	if p := os.Getenv(SocketEnv); p != "" {
		pipeName = p
	} else if u, err := user.Current(); err == nil {
		pipeName += regexp.MustCompile(`[^a-zA-Z0-9]+`).ReplaceAllString(u.Name, "")
	}
}

func Address() string {
	return pipeName
}

func Dial() (net.Conn, error) {
	return winio.DialPipe(pipeName, nil)
}

func Listen() (net.Listener, error) {
	// only the current user may connect
	return winio.ListenPipe(pipeName, &winio.PipeConfig{SecurityDescriptor: "D:P(A;;GA;;;OW)"})
}

func DestroyConn() error {
	// named pipes go away with their last handle
	return nil
}
