package engine

import "fmt"

/*
 * RemoteIOError wraps any unexpected failure of the RemoteGateway.
 * It is fatal: the run is aborted.
 */
type RemoteIOError struct {
	Operation string // for example "list teams"
	Target    string // organization, team, login or repository
	Err       error
}

func (e *RemoteIOError) Error() string {
	return fmt.Sprintf("remote call failed: %s %s: %v", e.Operation, e.Target, e.Err)
}

func (e *RemoteIOError) Unwrap() error {
	return e.Err
}

func newRemoteIOError(operation, target string, err error) error {
	return &RemoteIOError{Operation: operation, Target: target, Err: err}
}
