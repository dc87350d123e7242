package checkout

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to State }{
		{StateIdle, StateOrderCreating},
		{StateIdle, StateGatewayLoadFailed},
		{StateOrderCreating, StateOrderCreated},
		{StateOrderCreating, StateCreationFailed},
		{StateOrderCreated, StateAwaitingGatewayCallback},
		{StateOrderCreated, StateCreationFailed},
		{StateAwaitingGatewayCallback, StateVerifying},
		{StateAwaitingGatewayCallback, StateIdle},
		{StateVerifying, StateCompleted},
		{StateVerifying, StateVerificationFailed},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	rejected := []struct{ from, to State }{
		{StateIdle, StateVerifying},
		{StateOrderCreating, StateAwaitingGatewayCallback},
		{StateAwaitingGatewayCallback, StateCompleted},
		{StateVerifying, StateIdle},
		{StateVerificationFailed, StateIdle},
		{StateCompleted, StateIdle},
		{StateCreationFailed, StateOrderCreating},
	}
	for _, tc := range rejected {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	t.Parallel()

	states := []State{
		StateIdle, StateOrderCreating, StateOrderCreated, StateAwaitingGatewayCallback,
		StateVerifying, StateCompleted, StateVerificationFailed, StateCreationFailed, StateGatewayLoadFailed,
	}
	for _, from := range states {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range states {
			if CanTransition(from, to) {
				t.Fatalf("terminal state %s must not move to %s", from, to)
			}
		}
	}
}

func TestFreezesCart(t *testing.T) {
	t.Parallel()

	if !StateAwaitingGatewayCallback.FreezesCart() || !StateVerifying.FreezesCart() {
		t.Fatal("expected modal and verification states to freeze the cart")
	}
	for _, s := range []State{StateIdle, StateOrderCreating, StateOrderCreated, StateCompleted, StateVerificationFailed} {
		if s.FreezesCart() {
			t.Fatalf("state %s should not freeze the cart", s)
		}
	}
}
