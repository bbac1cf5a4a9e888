// Package hybrid provides a signature context pairing an ML-DSA
// parameter set with Ed25519. A hybrid signature is valid only when
// both component signatures verify, so it stays secure while either
// scheme does. Lifecycle, error taxonomy and zeroization follow
// pkg/mldsa; both secret key halves are wiped when the context is
// closed.
package hybrid

import (
	"crypto/rand"
	"io"
	"sync/atomic"

	"github.com/awnumar/memguard"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/jeremyhahn/go-mldsa/pkg/logging"
	"github.com/jeremyhahn/go-mldsa/pkg/mldsa"
)

type bufferKind uint8

const (
	bufferPublicKey bufferKind = 1 + iota
	bufferSecretKey
	bufferSignature
)

// SignatureContext owns the buffers for one hybrid key pair and
// signature. The ML-DSA half lives in an inner mldsa.SignatureContext
// and accepts any of the three parameter sets; the Ed25519 half is
// held directly. Loads populate both halves of a buffer together, so
// a half can never be usable without its counterpart.
//
// Not safe for concurrent use, same as mldsa.SignatureContext.
type SignatureContext struct {
	random io.Reader
	logger *logging.Logger

	pq    *mldsa.SignatureContext
	edPK  []byte
	edSK  []byte
	edSig []byte

	gen    atomic.Uint64
	closed atomic.Bool
}

// New creates an empty hybrid context. The caller is responsible for
// calling Close when the context is no longer needed.
func New() *SignatureContext {
	return NewWithRandom(nil)
}

// NewWithRandom creates an empty hybrid context that draws key
// generation entropy from the given reader. A nil random defaults to
// crypto/rand.
func NewWithRandom(random io.Reader) *SignatureContext {
	if random == nil {
		random = rand.Reader
	}
	return &SignatureContext{
		random: random,
		pq:     mldsa.NewWithRandom(random),
	}
}

// SetLogger attaches a logger to both halves of the context.
func (c *SignatureContext) SetLogger(logger *logging.Logger) {
	c.logger = logger
	c.pq.SetLogger(logger)
}

func (c *SignatureContext) isClosed() bool {
	return c.closed.Load()
}

func (c *SignatureContext) bump() {
	c.gen.Add(1)
}

// GenerateKeyPair generates a fresh ML-DSA key pair for the given
// parameter set together with an Ed25519 key pair. On failure the
// context is left as it was.
func (c *SignatureContext) GenerateKeyPair(variant mldsa.Variant) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	edPK, edSK, err := ed25519.GenerateKey(c.random)
	if err != nil {
		if c.logger != nil {
			c.logger.Error(err)
		}
		return mldsa.ErrProcessingFailed
	}
	if err := c.pq.GenerateKeyPair(variant); err != nil {
		memguard.WipeBytes(edSK)
		return err
	}
	c.installEd(&c.edPK, edPK)
	memguard.WipeBytes(c.edSK)
	c.installEd(&c.edSK, edSK)
	memguard.WipeBytes(edSK)
	c.bump()
	return nil
}

// installEd copies material into an Ed25519 half. Retired secret
// material is wiped by the callers before the slot is replaced.
func (c *SignatureContext) installEd(slot *[]byte, material []byte) {
	owned := make([]byte, len(material))
	copy(owned, material)
	*slot = owned
}

// LoadSecretKey imports both secret key halves. The ML-DSA parameter
// set is inferred from the first buffer's length; the Ed25519 key must
// be the 64 byte expanded form. On failure neither half is changed.
func (c *SignatureContext) LoadSecretKey(pqKey, edKey []byte) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	if len(edKey) != ed25519.PrivateKeySize {
		return mldsa.ErrProcessingFailed
	}
	if err := c.pq.LoadSecretKey(pqKey); err != nil {
		return err
	}
	memguard.WipeBytes(c.edSK)
	c.installEd(&c.edSK, edKey)
	c.bump()
	return nil
}

// LoadPublicKey imports both public key halves.
func (c *SignatureContext) LoadPublicKey(pqKey, edKey []byte) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	if len(edKey) != ed25519.PublicKeySize {
		return mldsa.ErrProcessingFailed
	}
	if err := c.pq.LoadPublicKey(pqKey); err != nil {
		return err
	}
	c.installEd(&c.edPK, edKey)
	c.bump()
	return nil
}

// LoadSignature imports both signature halves for verification.
func (c *SignatureContext) LoadSignature(pqSig, edSig []byte) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	if len(edSig) != ed25519.SignatureSize {
		return mldsa.ErrProcessingFailed
	}
	if err := c.pq.LoadSignature(pqSig); err != nil {
		return err
	}
	c.installEd(&c.edSig, edSig)
	c.bump()
	return nil
}

// Sign produces a hedged ML-DSA signature and an Ed25519 signature
// over message. Ed25519 signing is deterministic by construction.
func (c *SignatureContext) Sign(message []byte) error {
	return c.sign(message, mldsa.SignOpts{})
}

// SignDeterministic produces a deterministic signature for both
// halves.
func (c *SignatureContext) SignDeterministic(message []byte) error {
	return c.sign(message, mldsa.SignOpts{Deterministic: true})
}

func (c *SignatureContext) sign(message []byte, opts mldsa.SignOpts) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	if !c.HasSecretKey() {
		return mldsa.ErrNotInitialized
	}
	if err := c.pq.SignWithOpts(message, opts); err != nil {
		return err
	}
	edSig := ed25519.Sign(ed25519.PrivateKey(c.edSK), message)
	c.installEd(&c.edSig, edSig)
	c.bump()
	return nil
}

// Verify checks both signature halves over message. A mismatch in
// either half reports ErrVerificationFailed; the ML-DSA half is
// checked first.
func (c *SignatureContext) Verify(message []byte) error {
	if c.isClosed() {
		return mldsa.ErrContextClosed
	}
	if !c.HasPublicKey() || !c.HasSignature() {
		return mldsa.ErrNotInitialized
	}
	if err := c.pq.Verify(message); err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(c.edPK), message, c.edSig) {
		return mldsa.ErrVerificationFailed
	}
	return nil
}

// HasPublicKey reports whether both public key halves are populated.
func (c *SignatureContext) HasPublicKey() bool {
	return !c.isClosed() && c.pq.HasPublicKey() && len(c.edPK) > 0
}

// HasSecretKey reports whether both secret key halves are populated.
func (c *SignatureContext) HasSecretKey() bool {
	return !c.isClosed() && c.pq.HasSecretKey() && len(c.edSK) > 0
}

// HasSignature reports whether both signature halves are populated.
func (c *SignatureContext) HasSignature() bool {
	return !c.isClosed() && c.pq.HasSignature() && len(c.edSig) > 0
}

// A View is a read-only window into one half of a hybrid buffer, with
// the same staleness semantics as mldsa.View.
type View struct {
	pq      *mldsa.View
	context *SignatureContext
	kind    bufferKind
	gen     uint64
}

// Bytes returns the current window, failing with mldsa.ErrStaleView
// after a later mutation and mldsa.ErrContextClosed after Close.
func (view View) Bytes() ([]byte, error) {
	if view.pq != nil {
		return view.pq.Bytes()
	}
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

// PublicKey returns read-only views of the ML-DSA and Ed25519 public
// key halves.
func (c *SignatureContext) PublicKey() (View, View, error) {
	return c.views(bufferPublicKey)
}

// SecretKey returns read-only views of the two secret key halves.
// Both windows are backed by the context's own buffers, so slices
// obtained from them before Close read as zeros afterwards.
func (c *SignatureContext) SecretKey() (View, View, error) {
	return c.views(bufferSecretKey)
}

// Signature returns read-only views of the two signature halves.
func (c *SignatureContext) Signature() (View, View, error) {
	return c.views(bufferSignature)
}

func (c *SignatureContext) views(kind bufferKind) (View, View, error) {
	if c.isClosed() {
		return View{}, View{}, mldsa.ErrContextClosed
	}
	var pqView mldsa.View
	var err error
	switch kind {
	case bufferPublicKey:
		if !c.HasPublicKey() {
			return View{}, View{}, mldsa.ErrNotInitialized
		}
		pqView, err = c.pq.PublicKey()
	case bufferSecretKey:
		if !c.HasSecretKey() {
			return View{}, View{}, mldsa.ErrNotInitialized
		}
		pqView, err = c.pq.SecretKey()
	case bufferSignature:
		if !c.HasSignature() {
			return View{}, View{}, mldsa.ErrNotInitialized
		}
		pqView, err = c.pq.Signature()
	default:
		return View{}, View{}, mldsa.ErrProcessingFailed
	}
	if err != nil {
		return View{}, View{}, err
	}
	edView := View{context: c, kind: kind, gen: c.gen.Load()}
	return View{pq: &pqView}, edView, nil
}

func (c *SignatureContext) viewBytes(kind bufferKind, gen uint64) ([]byte, error) {
	if c.isClosed() {
		return nil, mldsa.ErrContextClosed
	}
	if gen != c.gen.Load() {
		return nil, mldsa.ErrStaleView
	}
	switch kind {
	case bufferPublicKey:
		if len(c.edPK) == 0 {
			return nil, mldsa.ErrNotInitialized
		}
		return c.edPK, nil
	case bufferSecretKey:
		if len(c.edSK) == 0 {
			return nil, mldsa.ErrNotInitialized
		}
		return c.edSK, nil
	case bufferSignature:
		if len(c.edSig) == 0 {
			return nil, mldsa.ErrNotInitialized
		}
		return c.edSig, nil
	}
	return nil, mldsa.ErrProcessingFailed
}

// Close zeroizes both secret key halves and retires the context. It is
// idempotent and never fails.
func (c *SignatureContext) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.pq.Close()
	memguard.WipeBytes(c.edSK)
	c.bump()
}
