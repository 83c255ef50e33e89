package server

// Status tags returned alongside the state snapshot.
const (
	statusOK       = "ok"
	statusAccepted = "accepted"
	statusStarted  = "started"
	statusStopped  = "stopped"
	statusCleared  = "cleared"
)
