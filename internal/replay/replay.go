package replay

// Buffer holds bytes already consumed from a non-seekable stream during
// format detection so they can be read back before live reads resume.
// Draining the final byte releases the storage. The reader only appends
// while detection runs; once iteration starts the buffer drains exactly
// once and is never repopulated.
type Buffer struct {
	data []byte
	off  int
}

// Append queues p for replay, in stream order.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.data = append(b.data, p...)
}

// Pending reports whether unread replay bytes remain.
func (b *Buffer) Pending() bool {
	return b.off < len(b.data)
}

// Len returns the number of unread replay bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.off
}

// Window returns the unread portion without consuming it.
func (b *Buffer) Window() []byte {
	return b.data[b.off:]
}

// Skip consumes n bytes of the unread portion. Consuming the final byte
// frees the storage.
func (b *Buffer) Skip(n int) {
	b.off += n
	if b.off >= len(b.data) {
		b.release()
	}
}

// Discard drops any unread remainder and frees the storage.
func (b *Buffer) Discard() {
	b.release()
}

func (b *Buffer) release() {
	b.data = nil
	b.off = 0
}
