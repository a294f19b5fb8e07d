// Package exchange carries the ambient request/response pair for one inbound
// exchange as an explicit value, passed through every pipeline stage that
// needs it instead of being looked up through a hidden per-exchange bag.
//
// Exactly one State exists per exchange: all cooperating stages observe the
// same instance by reference, and the instance never outlives its exchange.
//
// Concurrency: a State is not locked. Each exchange is expected to be
// processed by a bounded set of cooperating stages that hand the state off
// rather than race on it.
package exchange

// State holds at most one ambient request object and one ambient response
// object for a single exchange. Both slots start empty; writes overwrite
// (last write wins) and may store nil to clear a slot. The contents are
// opaque to this package.
type State struct {
	request  any
	response any
}

// NewState creates a State with both slots empty.
func NewState() *State {
	return &State{}
}

// Request returns the stored request object, or nil if none has been set.
func (s *State) Request() any { return s.request }

// SetRequest stores v in the request slot, replacing any previous value.
func (s *State) SetRequest(v any) { s.request = v }

// Response returns the stored response object, or nil if none has been set.
func (s *State) Response() any { return s.response }

// SetResponse stores v in the response slot, replacing any previous value.
func (s *State) SetResponse(v any) { s.response = v }
