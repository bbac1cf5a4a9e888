package mldsa

import (
	"crypto/rand"
	"io"
	"sync/atomic"

	"github.com/awnumar/memguard"
	"github.com/jeremyhahn/go-mldsa/pkg/logging"
)

// SignatureContext owns one public key, one secret key and one
// signature buffer. The parameter set each buffer belongs to is
// inferred from its length when the buffer is imported or generated,
// so a single context type serves all three variants.
//
// A context is not safe for concurrent use. The atomics below carry
// the close-exactly-once guarantee and stale view detection; they do
// not synchronize concurrent operations.
type SignatureContext struct {
	random io.Reader
	logger *logging.Logger

	pk  buffer
	sk  buffer
	sig buffer

	pkSet  bool
	skSet  bool
	sigSet bool

	gen    atomic.Uint64
	closed atomic.Bool
}

// buffer is an owned packed buffer tagged with the parameter set it
// was imported or generated under.
type buffer struct {
	data    []byte
	variant Variant
}

// New creates an empty context. No buffer is considered initialized
// until a load or key generation succeeds. The caller is responsible
// for calling Close when the context is no longer needed.
func New() *SignatureContext {
	return NewWithRandom(nil)
}

// NewWithRandom creates an empty context that draws key generation
// entropy from the given reader. A nil random defaults to crypto/rand.
func NewWithRandom(random io.Reader) *SignatureContext {
	if random == nil {
		random = rand.Reader
	}
	return &SignatureContext{random: random}
}

// SetLogger attaches a logger used to record the underlying library
// failures that the error taxonomy collapses into ErrProcessingFailed.
func (c *SignatureContext) SetLogger(logger *logging.Logger) {
	c.logger = logger
}

func (c *SignatureContext) isClosed() bool {
	return c.closed.Load()
}

func (c *SignatureContext) bump() {
	c.gen.Add(1)
}

func (c *SignatureContext) logError(err error) {
	if c.logger != nil {
		c.logger.Error(err)
	}
}

// LoadSecretKey imports a packed secret key, replacing any previously
// held one. The parameter set is inferred from the buffer length; a
// length matching no parameter set fails with ErrProcessingFailed and
// leaves the context exactly as it was. A replaced secret key is wiped
// before being dropped.
func (c *SignatureContext) LoadSecretKey(skBuf []byte) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	s := schemeForSecretKey(len(skBuf))
	if s == nil {
		return ErrProcessingFailed
	}
	owned := make([]byte, len(skBuf))
	copy(owned, skBuf)
	if c.skSet {
		memguard.WipeBytes(c.sk.data)
	}
	c.sk = buffer{data: owned, variant: s.variant}
	c.skSet = true
	c.bump()
	return nil
}

// LoadPublicKey imports a packed public key, replacing any previously
// held one. The parameter set is inferred from the buffer length.
func (c *SignatureContext) LoadPublicKey(pkBuf []byte) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	s := schemeForPublicKey(len(pkBuf))
	if s == nil {
		return ErrProcessingFailed
	}
	owned := make([]byte, len(pkBuf))
	copy(owned, pkBuf)
	c.pk = buffer{data: owned, variant: s.variant}
	c.pkSet = true
	c.bump()
	return nil
}

// LoadSignature imports a signature to be checked by Verify, replacing
// any previously held one. The parameter set is inferred from the
// buffer length.
func (c *SignatureContext) LoadSignature(sigBuf []byte) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	s := schemeForSignature(len(sigBuf))
	if s == nil {
		return ErrProcessingFailed
	}
	owned := make([]byte, len(sigBuf))
	copy(owned, sigBuf)
	c.sig = buffer{data: owned, variant: s.variant}
	c.sigSet = true
	c.bump()
	return nil
}

// GenerateKeyPair generates a fresh key pair for the given parameter
// set and populates the public and secret key buffers. The signature
// buffer is untouched. On failure the context is left as it was.
func (c *SignatureContext) GenerateKeyPair(variant Variant) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	s, ok := schemes[variant]
	if !ok {
		return ErrInvalidVariant
	}
	pk, sk, err := s.generate(c.random)
	if err != nil {
		c.logError(err)
		return ErrProcessingFailed
	}
	c.install(s.variant, pk, sk)
	return nil
}

// GenerateKeyPairFromSeed derives the key pair for the given parameter
// set from a 32 byte seed. The same seed always yields the same key
// pair. The local seed copy is wiped before returning.
func (c *SignatureContext) GenerateKeyPairFromSeed(variant Variant, seed []byte) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	s, ok := schemes[variant]
	if !ok {
		return ErrInvalidVariant
	}
	if len(seed) != s.seedSize {
		return ErrProcessingFailed
	}
	var local [32]byte
	copy(local[:], seed)
	pk, sk := s.fromSeed(&local)
	memguard.WipeBytes(local[:])
	c.install(s.variant, pk, sk)
	return nil
}

// install points the key buffers at freshly generated material. The
// previous secret key, if any, is wiped before being dropped.
func (c *SignatureContext) install(variant Variant, pk, sk []byte) {
	if c.skSet {
		memguard.WipeBytes(c.sk.data)
	}
	c.pk = buffer{data: pk, variant: variant}
	c.sk = buffer{data: sk, variant: variant}
	c.pkSet = true
	c.skSet = true
	c.bump()
}

// SignOpts controls optional signing behavior.
type SignOpts struct {
	// Deterministic selects the non-hedged FIPS 204 signing mode, in
	// which the same secret key and message always produce the same
	// signature.
	Deterministic bool

	// Context is the optional domain separation context string, at
	// most 255 bytes. Verification must supply the same value.
	Context []byte
}

// VerifyOpts controls optional verification behavior.
type VerifyOpts struct {
	Context []byte
}

// Sign produces a hedged (randomized) signature over message with the
// held secret key and stores it in the signature buffer.
func (c *SignatureContext) Sign(message []byte) error {
	return c.SignWithOpts(message, SignOpts{})
}

// SignDeterministic produces a deterministic signature over message
// with the held secret key and stores it in the signature buffer.
func (c *SignatureContext) SignDeterministic(message []byte) error {
	return c.SignWithOpts(message, SignOpts{Deterministic: true})
}

// SignWithOpts signs message with the held secret key and stores the
// signature in the signature buffer, replacing any previous one. It
// fails with ErrNotInitialized if no secret key is held.
func (c *SignatureContext) SignWithOpts(message []byte, opts SignOpts) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	if !c.skSet {
		return ErrNotInitialized
	}
	s := schemes[c.sk.variant]
	signature, err := s.sign(c.sk.data, message, opts.Context, !opts.Deterministic)
	if err != nil {
		c.logError(err)
		return ErrProcessingFailed
	}
	c.sig = buffer{data: signature, variant: s.variant}
	c.sigSet = true
	c.bump()
	return nil
}

// Verify checks the held signature over message with the held public
// key. ErrVerificationFailed reports a definitive mismatch; a failure
// to complete the check, including a signature and public key from
// different parameter sets, reports ErrProcessingFailed.
func (c *SignatureContext) Verify(message []byte) error {
	return c.VerifyWithOpts(message, VerifyOpts{})
}

// VerifyWithOpts verifies with a domain separation context string. It
// fails with ErrNotInitialized unless both a public key and a
// signature are held.
func (c *SignatureContext) VerifyWithOpts(message []byte, opts VerifyOpts) error {
	if c.isClosed() {
		return ErrContextClosed
	}
	if !c.pkSet || !c.sigSet {
		return ErrNotInitialized
	}
	if c.pk.variant != c.sig.variant {
		return ErrProcessingFailed
	}
	// A context string over 255 bytes is a parameter error, not a
	// signature mismatch; the primitive would report it as a plain
	// verification failure.
	if len(opts.Context) > 255 {
		return ErrProcessingFailed
	}
	s := schemes[c.pk.variant]
	ok, err := s.verify(c.pk.data, message, opts.Context, c.sig.data)
	if err != nil {
		c.logError(err)
		return ErrProcessingFailed
	}
	if !ok {
		return ErrVerificationFailed
	}
	return nil
}

// PublicKey returns a read-only view of the held public key.
func (c *SignatureContext) PublicKey() (View, error) {
	return c.view(bufferPublicKey)
}

// SecretKey returns a read-only view of the held secret key. The
// window is backed by the context's own buffer, so a slice obtained
// from it before Close reads as zeros afterwards.
func (c *SignatureContext) SecretKey() (View, error) {
	return c.view(bufferSecretKey)
}

// Signature returns a read-only view of the most recently produced or
// imported signature.
func (c *SignatureContext) Signature() (View, error) {
	return c.view(bufferSignature)
}

func (c *SignatureContext) view(kind bufferKind) (View, error) {
	if c.isClosed() {
		return View{}, ErrContextClosed
	}
	set, _, err := c.bufferRef(kind)
	if err != nil {
		return View{}, err
	}
	if !set {
		return View{}, ErrNotInitialized
	}
	return View{context: c, kind: kind, gen: c.gen.Load()}, nil
}

// bufferRef resolves a buffer kind to its presence flag and backing
// buffer. An unknown kind is a processing failure.
func (c *SignatureContext) bufferRef(kind bufferKind) (bool, *buffer, error) {
	switch kind {
	case bufferPublicKey:
		return c.pkSet, &c.pk, nil
	case bufferSecretKey:
		return c.skSet, &c.sk, nil
	case bufferSignature:
		return c.sigSet, &c.sig, nil
	}
	return false, nil, ErrProcessingFailed
}

func (c *SignatureContext) viewBytes(kind bufferKind, gen uint64) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrContextClosed
	}
	if gen != c.gen.Load() {
		return nil, ErrStaleView
	}
	set, buf, err := c.bufferRef(kind)
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, ErrNotInitialized
	}
	return buf.data, nil
}

// HasPublicKey reports whether the public key buffer holds usable
// material. Always false after Close.
func (c *SignatureContext) HasPublicKey() bool {
	return !c.isClosed() && c.pkSet
}

// HasSecretKey reports whether the secret key buffer holds usable
// material. Always false after Close.
func (c *SignatureContext) HasSecretKey() bool {
	return !c.isClosed() && c.skSet
}

// HasSignature reports whether the signature buffer holds usable
// material. Always false after Close.
func (c *SignatureContext) HasSignature() bool {
	return !c.isClosed() && c.sigSet
}

// Close zeroizes the secret key buffer and retires the context. It is
// idempotent and never fails; the wipe runs exactly once no matter how
// many times Close is called or what state the context is in. The
// generation bump after the wipe is an atomic read-modify-write, a
// full fence the zero stores cannot be reordered past.
func (c *SignatureContext) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	memguard.WipeBytes(c.sk.data)
	c.bump()
}

// DebugState logs the context's presence flags and buffer lengths. Key
// material itself is never logged.
func DebugState(logger *logging.Logger, c *SignatureContext) {
	logger.Debug("Signature Context")
	for _, kind := range []bufferKind{bufferPublicKey, bufferSecretKey, bufferSignature} {
		set, buf, _ := c.bufferRef(kind)
		logger.Debugf("  %s: present=%t, bytes=%d", kind, set && !c.isClosed(), len(buf.data))
	}
}
