package monitor

import "github.com/jerrydevmouse/responsed/internal/models"

// ObservationKind discriminates the variant carried by an Observation.
type ObservationKind int

const (
	// ObservationOnline means the probe received a 2xx response.
	ObservationOnline ObservationKind = iota
	// ObservationUnreachable means the probe received a non-2xx response.
	ObservationUnreachable
	// ObservationChannelError means the probe failed before a response was
	// received (transport error or timeout). A body read failure is not a
	// channel error: the body is replaced by a placeholder instead.
	ObservationChannelError
)

// Observation is what a Prober publishes on an edge transition. Server is
// always set; which payload fields are meaningful depends on Kind (Online:
// StatusCode, Body; Unreachable: StatusCode, Reason, Body; ChannelError:
// Cause). A tagged struct is used instead of an interface so the
// observation loop can switch on Kind without type assertions.
type Observation struct {
	Kind       ObservationKind
	Server     models.Server
	StatusCode int
	Reason     string
	Body       []byte
	Cause      error
}

// ControlKind discriminates the variant carried by a ControlMessage.
type ControlKind int

const (
	ControlAddServer ControlKind = iota
	ControlModifyServer
	ControlRemoveServer
	ControlShutdown
)

// ControlMessage is an administrative instruction consumed by the control
// loop; it must preserve the single-Prober-per-server invariant.
type ControlMessage struct {
	Kind     ControlKind
	Server   models.Server
	ServerID int64
}
