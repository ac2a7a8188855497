package model

// State is the location a job currently occupies.
type State string

const (
	StatePending  State = "pending"
	StateQueued   State = "queued"
	StateFinished State = "finished"
)

// States lists every state in lifecycle order.
var States = []State{StatePending, StateQueued, StateFinished}

// Prefix returns the key prefix under which jobs in s are stored.
func (s State) Prefix() string { return string(s) + "/" }

// Key returns the object key of job id in state s.
func (s State) Key(id string) string { return s.Prefix() + id }

type Job struct {
	ID    string
	Body  string
	State State
}
