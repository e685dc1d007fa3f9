package ipc

const (
	PingPath   = "/ping"
	UpdatePath = "/bus/update" // POST body: UPDATE_NOTIFICATION message
	EventsPath = "/bus/events" // ?stream=<ControlStream>, server-sent events
	QuitPath   = "/quit"

	// ControlStream carries one TRACKS_TRACKS message per event.
	ControlStream = "control"

	// host part of request URLs; the transport ignores it
	baseURL = "http://mediabridge"
)

type Response struct {
	Error string `json:"error"`
}
