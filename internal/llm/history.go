package llm

// DefaultHistoryMessages keeps the last five exchanges.
const DefaultHistoryMessages = 10

// History is a fixed-capacity ring of messages. Appending past capacity
// overwrites the oldest entry. It is not safe for concurrent use.
type History struct {
	buf   []Message
	start int
	size  int
}

// NewHistory returns a History holding at most capacity messages. A
// non-positive capacity falls back to DefaultHistoryMessages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryMessages
	}
	return &History{buf: make([]Message, capacity)}
}

func (h *History) Append(msgs ...Message) {
	for _, m := range msgs {
		idx := (h.start + h.size) % len(h.buf)
		h.buf[idx] = m
		if h.size < len(h.buf) {
			h.size++
			continue
		}
		h.start = (h.start + 1) % len(h.buf)
	}
}

// Messages returns the retained messages oldest first.
func (h *History) Messages() []Message {
	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }

func (h *History) Reset() {
	for i := range h.buf {
		h.buf[i] = Message{}
	}
	h.start, h.size = 0, 0
}
