package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/r3labs/sse/v2"
)

// maximum accepted update body; artwork travels inline as base64
const maxUpdateBytes = 8 << 20

var errMethodNotAllowed = errors.New("method not allowed")

// Server exposes the message bus to the application over HTTP.
// Updates are posted to UpdatePath and control events are streamed
// from EventsPath.
type Server struct {
	bus    *bus.Bus
	quit   func()
	events *sse.Server
	http   *http.Server

	closeOnce sync.Once
	sub       *bus.Subscription
}

// NewServer creates a server publishing updates to b. quit is invoked
// asynchronously when a client requests shutdown.
func NewServer(b *bus.Bus, quit func()) *Server {
	s := &Server{bus: b, quit: quit}
	s.events = sse.New()
	s.events.AutoReplay = false
	s.events.CreateStream(ControlStream)
	s.sub = b.Subscribe(bus.TopicControl, s.forwardControl)
	s.http = &http.Server{Handler: s.Handler()}
	return s
}

// Serve accepts connections on l until Close is called.
func (s *Server) Serve(l net.Listener) error {
	err := s.http.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops streaming events and closes all connections.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.sub.Unsubscribe()
		s.events.Close()
		err = s.http.Close()
	})
	return err
}

func (s *Server) Handler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("The given path is not valid"))
	})
	m.HandleFunc(PingPath, func(w http.ResponseWriter, r *http.Request) {
		writeOK(w)
	})
	m.HandleFunc(QuitPath, s.post(func(w http.ResponseWriter, r *http.Request) {
		if s.quit != nil {
			go s.quit()
		}
		writeOK(w)
	}))
	m.HandleFunc(UpdatePath, s.post(s.handleUpdate))
	m.HandleFunc(EventsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("stream") != ControlStream {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown stream %q", r.URL.Query().Get("stream")))
			return
		}
		s.events.ServeHTTP(w, r)
	})
	return m
}

func (s *Server) post(f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		f(w, r)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		writeErr(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	msg, err := bus.Decode(body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if msg.Topic() != bus.TopicUpdate {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: %s", bus.ErrUnknownMessage, msg.Topic()))
		return
	}
	s.bus.Publish(msg)
	writeOK(w)
}

func (s *Server) forwardControl(m bus.Message) {
	b, err := bus.Encode(m)
	if err != nil {
		slog.Error("Failed to encode control event", slog.String("stack", err.Error()))
		return
	}
	s.events.Publish(ControlStream, &sse.Event{Data: b})
}

func writeOK(w http.ResponseWriter) (int, error) {
	b, err := json.Marshal(&Response{})
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	return w.Write(b)
}

func writeErr(w http.ResponseWriter, status int, err error) (int, error) {
	b, err := json.Marshal(&Response{Error: err.Error()})
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return w.Write(b)
}
