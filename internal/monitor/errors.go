package monitor

import "errors"

// ErrRepositoryCall wraps the startup ListAllServers failure that Run
// returns. Repository failures inside the orchestrator loops are logged
// unwrapped and are never fatal: a failed status update does not prevent
// the matching log insert, and a failed log insert does not stop the
// observation loop from moving to the next observation.
var ErrRepositoryCall = errors.New("monitor: repository call failed")
