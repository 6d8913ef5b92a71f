package engine

import (
	"context"
	"fmt"
)

// Progress reports intermediate INVITE outcomes.
type Progress int

const (
	// ProgressRinging means the callee is alerting (180/183).
	ProgressRinging Progress = iota + 1
	// ProgressAnswered means the call was accepted and acknowledged.
	ProgressAnswered
)

// Signaler places and controls one SIP dialog at a time.
type Signaler interface {
	// Invite blocks until the call is answered, rejected or ctx is cancelled.
	// Cancelling ctx before an answer abandons the attempt.
	Invite(ctx context.Context, target string, progress func(Progress)) error
	// Refer asks the remote party of the answered call to call target.
	Refer(ctx context.Context, target string) error
	// Bye terminates the answered call.
	Bye(ctx context.Context) error
	Close() error
}

// RejectedError is returned by Invite when the callee answers with a final
// non-2xx response.
type RejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("call rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("call rejected: %d %s", e.StatusCode, e.Reason)
}
