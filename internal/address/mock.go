package address

import (
	"context"
	"sync"
)

// MockResolver is a test implementation of Resolver.
type MockResolver struct {
	ResolveFunc func(ctx context.Context, addrs []*Address) (*Result, error)

	mu    sync.Mutex
	calls [][]*Address
}

// NewMockResolver creates a mock resolver that confirms every address:
// each output is a copy of its input carrying a DPV confirmation of "Y".
func NewMockResolver() *MockResolver {
	return &MockResolver{}
}

// Resolve delegates to the configured function or returns the default result.
func (m *MockResolver) Resolve(ctx context.Context, addrs []*Address) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, addrs)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, addrs)
	}

	slots := make([]Slot, 0, len(addrs))
	for _, a := range addrs {
		out := a.Clone()
		out.AdditionalInfo = NewInfo()
		out.AdditionalInfo[InfoDPVConfirmation] = "Y"
		slots = append(slots, Slot{Input: a, Output: out})
	}
	return NewResult(slots...)
}

// Calls returns the address lists passed to Resolve.
func (m *MockResolver) Calls() [][]*Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*Address(nil), m.calls...)
}

// StaticResolver returns a resolver that answers every address with a copy of
// out, keeping the caller's name.
func StaticResolver(out *Address) Resolver {
	return ResolverFunc(func(ctx context.Context, addrs []*Address) (*Result, error) {
		slots := make([]Slot, 0, len(addrs))
		for _, a := range addrs {
			std := out.Clone()
			std.Name = a.Clone().Name
			slots = append(slots, Slot{Input: a, Output: std})
		}
		return NewResult(slots...)
	})
}

// FailingResolver returns a resolver that always fails with err.
func FailingResolver(err error) Resolver {
	return ResolverFunc(func(ctx context.Context, addrs []*Address) (*Result, error) {
		return nil, err
	})
}
