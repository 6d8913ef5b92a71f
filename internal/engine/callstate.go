package engine

import (
	"context"

	"github.com/looplab/fsm"
)

// CallState is the lifecycle of the single outgoing call.
type CallState string

const (
	StateIdle    CallState = "idle"
	StateDialing CallState = "dialing"
	StateRinging CallState = "ringing"
	StateActive  CallState = "active"
	StateEnded   CallState = "ended"
)

const (
	evDial   = "dial"
	evRing   = "ring"
	evAnswer = "answer"
	evEnd    = "end"
)

// CallUpdate is posted whenever the call changes state.
type CallUpdate struct {
	From   CallState
	State  CallState
	Remote string
	Err    error
}

func newCallMachine(onChange func(from, to CallState)) *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: evDial, Src: []string{string(StateIdle), string(StateEnded)}, Dst: string(StateDialing)},
			{Name: evRing, Src: []string{string(StateDialing)}, Dst: string(StateRinging)},
			{Name: evAnswer, Src: []string{string(StateDialing), string(StateRinging)}, Dst: string(StateActive)},
			{Name: evEnd, Src: []string{string(StateDialing), string(StateRinging), string(StateActive)}, Dst: string(StateEnded)},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				onChange(CallState(e.Src), CallState(e.Dst))
			},
		},
	)
}
