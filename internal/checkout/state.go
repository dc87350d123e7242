package checkout

// State is the lifecycle position of one checkout attempt.
type State string

const (
	StateIdle                    State = "idle"
	StateOrderCreating           State = "order_creating"
	StateOrderCreated            State = "order_created"
	StateAwaitingGatewayCallback State = "awaiting_gateway_callback"
	StateVerifying               State = "verifying"
	StateCompleted               State = "completed"
	StateVerificationFailed      State = "verification_failed"
	StateCreationFailed          State = "creation_failed"
	StateGatewayLoadFailed       State = "gateway_load_failed"
)

var allowedTransitions = map[State][]State{
	StateIdle:                    {StateOrderCreating, StateGatewayLoadFailed},
	StateOrderCreating:           {StateOrderCreated, StateCreationFailed},
	StateOrderCreated:            {StateAwaitingGatewayCallback, StateCreationFailed, StateGatewayLoadFailed},
	StateAwaitingGatewayCallback: {StateVerifying, StateIdle},
	StateVerifying:               {StateCompleted, StateVerificationFailed},
}

// CanTransition reports whether an attempt may move from one state to another.
// Terminal states have no outgoing edges; a new attempt starts over from Idle.
func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateVerificationFailed, StateCreationFailed, StateGatewayLoadFailed:
		return true
	}
	return false
}

// FreezesCart reports whether the gateway modal is open or verification is
// running, during which the cart must not change.
func (s State) FreezesCart() bool {
	return s == StateAwaitingGatewayCallback || s == StateVerifying
}

func (s State) String() string {
	return string(s)
}
