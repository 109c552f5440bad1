package core

//go:generate mockgen -source=signal_iface.go -destination=mocks/mock_signal.go -package=mocks

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking and fails when the peer is not keeping up.
	TrySend(Frame) error
	Close()
}
