package replay

import (
	"bytes"
	"testing"
)

func TestBufferReplaysInOrder(t *testing.T) {
	var b Buffer
	b.Append([]byte("alpha,"))
	b.Append([]byte("beta\n"))

	if !b.Pending() {
		t.Fatal("expected pending bytes after append")
	}
	if got, want := b.Len(), 11; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if got := b.Window(); !bytes.Equal(got, []byte("alpha,beta\n")) {
		t.Fatalf("Window() = %q, want %q", got, "alpha,beta\n")
	}

	b.Skip(6)
	if got := b.Window(); !bytes.Equal(got, []byte("beta\n")) {
		t.Fatalf("after Skip(6) Window() = %q, want %q", got, "beta\n")
	}
}

func TestBufferFreesOnceDrained(t *testing.T) {
	var b Buffer
	b.Append([]byte("abc"))
	b.Skip(3)

	if b.Pending() {
		t.Fatal("expected no pending bytes after draining")
	}
	if b.data != nil {
		t.Fatal("expected storage to be released after draining")
	}
}

func TestBufferCyclesDuringDetection(t *testing.T) {
	// Detection drains the probe surplus and pushes the full first line
	// back; the buffer must accept appends again after a drain.
	var b Buffer
	b.Append([]byte("fe"))
	b.Skip(2)

	b.Append([]byte("ff,00\n"))
	if !b.Pending() {
		t.Fatal("expected pending bytes after re-append")
	}
	if got := b.Window(); !bytes.Equal(got, []byte("ff,00\n")) {
		t.Fatalf("Window() = %q, want %q", got, "ff,00\n")
	}
}

func TestBufferDiscard(t *testing.T) {
	var b Buffer
	b.Append([]byte("leftover"))
	b.Discard()

	if b.Pending() {
		t.Fatal("expected nothing pending after Discard")
	}
	if b.data != nil {
		t.Fatal("expected storage to be released after Discard")
	}
}

func TestEmptyBufferIsUsable(t *testing.T) {
	var b Buffer
	if b.Pending() {
		t.Fatal("zero-value buffer should have nothing pending")
	}
	b.Append(nil)
	b.Append([]byte("x"))
	if !b.Pending() {
		t.Fatal("append after empty append should still work")
	}
}
