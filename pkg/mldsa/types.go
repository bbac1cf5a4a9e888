// Package mldsa provides a state managing signature context over the
// ML-DSA (FIPS 204) parameter sets implemented by the Cloudflare CIRCL
// library. A SignatureContext owns the buffers holding a public key, a
// secret key and a signature, tracks which of them contain usable
// material, and guarantees the secret key buffer is zeroized exactly
// once when the context is closed, regardless of how the context was
// used before that point.
//
// The context performs no lattice arithmetic of its own. All key
// generation, signing and verification is delegated to CIRCL.
package mldsa

import (
	"errors"
	"strings"
)

type Variant uint8

const (
	// VariantUnknown is the zero value, so an unpopulated buffer never
	// carries a valid parameter set.
	VariantUnknown Variant = iota

	// ML-DSA parameter sets defined by FIPS 204.
	MLDSA44
	MLDSA65
	MLDSA87
)

var (
	ErrNotInitialized     = errors.New("mldsa: context not initialized")
	ErrProcessingFailed   = errors.New("mldsa: processing error")
	ErrVerificationFailed = errors.New("mldsa: signature verification failed")
	ErrContextClosed      = errors.New("mldsa: context closed")
	ErrStaleView          = errors.New("mldsa: view invalidated by a later operation")
	ErrInvalidVariant     = errors.New("mldsa: invalid variant")
	ErrInvalidSignerOpts  = errors.New("mldsa: invalid signer opts, pre-hashing not supported")
	ErrInvalidConfig      = errors.New("mldsa: invalid config")
	ErrInvalidSeed        = errors.New("mldsa: invalid seed")
)

func (variant Variant) String() string {
	switch variant {
	case MLDSA44:
		return "ML-DSA-44"
	case MLDSA65:
		return "ML-DSA-65"
	case MLDSA87:
		return "ML-DSA-87"
	}
	panic("mldsa: invalid variant")
}

// PublicKeySize returns the packed public key length in bytes, or 0 if
// the variant is not a defined parameter set.
func (variant Variant) PublicKeySize() int {
	if s, ok := schemes[variant]; ok {
		return s.publicKeySize
	}
	return 0
}

// SecretKeySize returns the packed secret key length in bytes, or 0 if
// the variant is not a defined parameter set.
func (variant Variant) SecretKeySize() int {
	if s, ok := schemes[variant]; ok {
		return s.secretKeySize
	}
	return 0
}

// SignatureSize returns the signature length in bytes, or 0 if the
// variant is not a defined parameter set.
func (variant Variant) SignatureSize() int {
	if s, ok := schemes[variant]; ok {
		return s.signatureSize
	}
	return 0
}

// SeedSize returns the key generation seed length in bytes. The three
// parameter sets share a 32 byte seed.
func (variant Variant) SeedSize() int {
	if s, ok := schemes[variant]; ok {
		return s.seedSize
	}
	return 0
}

// AvailableVariants returns the supported parameter sets keyed by their
// configuration file names.
func AvailableVariants() map[string]Variant {
	return map[string]Variant{
		"ml-dsa-44": MLDSA44,
		"ml-dsa-65": MLDSA65,
		"ml-dsa-87": MLDSA87,
		"mldsa44":   MLDSA44,
		"mldsa65":   MLDSA65,
		"mldsa87":   MLDSA87,
	}
}

func ParseVariant(variant string) (Variant, error) {
	v, ok := AvailableVariants()[strings.ToLower(variant)]
	if !ok {
		return VariantUnknown, ErrInvalidVariant
	}
	return v, nil
}
