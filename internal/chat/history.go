package chat

const (
	// HistoryCapacity bounds the number of messages a room retains.
	HistoryCapacity = 100
	// HistoryReplay is the number of messages replayed to a joining connection.
	HistoryReplay = 50
)

// History is a fixed-capacity ring of messages, oldest first.
// It is not safe for concurrent use; the Engine serializes access.
type History struct {
	buf   []Message
	start int
	size  int
}

// NewHistory returns an empty ring holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{buf: make([]Message, capacity)}
}

// Append adds msg as the newest entry, evicting the oldest one when full.
func (h *History) Append(msg Message) {
	capacity := len(h.buf)
	if h.size < capacity {
		h.buf[(h.start+h.size)%capacity] = msg
		h.size++
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % capacity
}

// Len reports how many messages the ring holds.
func (h *History) Len() int {
	return h.size
}

// Recent returns a copy of the newest n messages, oldest first.
func (h *History) Recent(n int) []Message {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return []Message{}
	}

	out := make([]Message, n)
	first := h.start + h.size - n
	for i := range out {
		out[i] = h.buf[(first+i)%len(h.buf)]
	}
	return out
}
