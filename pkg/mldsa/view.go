package mldsa

type bufferKind uint8

const (
	bufferPublicKey bufferKind = 1 + iota
	bufferSecretKey
	bufferSignature
)

func (kind bufferKind) String() string {
	switch kind {
	case bufferPublicKey:
		return "public key"
	case bufferSecretKey:
		return "secret key"
	case bufferSignature:
		return "signature"
	}
	panic("mldsa: invalid buffer kind")
}

// A View is a read-only window into one of a context's owned buffers.
// It does not copy the bytes: the window observes later changes to the
// buffer, including zeroization at Close, and every access re-validates
// that the context has not been mutated or closed since the view was
// taken. Callers must not modify the returned slice.
type View struct {
	context *SignatureContext
	kind    bufferKind
	gen     uint64
}

// Bytes returns the current window. It fails with ErrStaleView once a
// later operation has mutated the context, and with ErrContextClosed
// once the context has been closed.
func (view View) Bytes() ([]byte, error) {
	return view.context.viewBytes(view.kind, view.gen)
}

// Len returns the window length, or 0 if the view is no longer valid.
func (view View) Len() int {
	b, err := view.Bytes()
	if err != nil {
		return 0
	}
	return len(b)
}
