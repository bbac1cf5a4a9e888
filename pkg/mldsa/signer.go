package mldsa

import (
	"crypto"
	"io"
)

// Signer adapts a SignatureContext to the crypto.Signer interface so
// the held key can be used anywhere the standard library expects one.
// Signatures produced through the adapter are also stored in the
// context's signature buffer.
type Signer struct {
	context *SignatureContext
	opts    SignOpts
}

var _ crypto.Signer = (*Signer)(nil)

// Signer returns a crypto.Signer bound to this context. It fails with
// ErrNotInitialized if no secret key is held.
func (c *SignatureContext) Signer() (*Signer, error) {
	return c.SignerWithOpts(SignOpts{})
}

// SignerWithOpts returns a crypto.Signer that applies the given
// options to every signature. The Deterministic option forces
// deterministic signing even when a rand reader is supplied to Sign.
func (c *SignatureContext) SignerWithOpts(opts SignOpts) (*Signer, error) {
	if c.isClosed() {
		return nil, ErrContextClosed
	}
	if !c.skSet {
		return nil, ErrNotInitialized
	}
	return &Signer{context: c, opts: opts}, nil
}

// Returns the public key corresponding to the held secret key, always
// derived from the secret key so the pair can never disagree, or nil
// if the context no longer holds one.
// Implements crypto.Signer
// https://pkg.go.dev/crypto#Signer
func (signer *Signer) Public() crypto.PublicKey {
	c := signer.context
	if c.isClosed() || !c.skSet {
		return nil
	}
	pub, err := schemes[c.sk.variant].public(c.sk.data)
	if err != nil {
		c.logError(err)
		return nil
	}
	return pub
}

// Sign signs message with the context's secret key and returns a copy
// of the signature. ML-DSA signs the message itself, so opts must
// report crypto.Hash(0); pre-hashing requests are rejected. Signing is
// deterministic when rand is nil or the signer carries the
// Deterministic option, hedged otherwise; the primitive draws its own
// hedge randomness, the reader only selects the mode.
// Implements crypto.Signer
// https://pkg.go.dev/crypto#Signer
func (signer *Signer) Sign(
	rand io.Reader,
	message []byte,
	opts crypto.SignerOpts) (signature []byte, err error) {

	if opts != nil && opts.HashFunc() != crypto.Hash(0) {
		return nil, ErrInvalidSignerOpts
	}
	signOpts := signer.opts
	signOpts.Deterministic = signer.opts.Deterministic || rand == nil
	if err := signer.context.SignWithOpts(message, signOpts); err != nil {
		return nil, err
	}
	view, err := signer.context.Signature()
	if err != nil {
		return nil, err
	}
	window, err := view.Bytes()
	if err != nil {
		return nil, err
	}
	signature = make([]byte, len(window))
	copy(signature, window)
	return signature, nil
}

// Close closes the underlying context, zeroizing its secret key.
func (signer *Signer) Close() {
	signer.context.Close()
}
