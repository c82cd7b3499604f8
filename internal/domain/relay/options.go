package relay

const defaultMailboxSize = 256

type hubConfig struct {
	mailboxSize int
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithMailboxSize sets the [BACKPRESSURE] threshold: the buffer capacity of
// each individual subscriber mailbox. Frames arriving at a full mailbox are
// dropped (newest-dropped policy).
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.config.mailboxSize = size
		}
	}
}
