package mldsa

import (
	"crypto"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
)

// scheme binds a Variant to the CIRCL package implementing it. Key and
// signature material crosses this boundary in packed form only; CIRCL
// key objects are parsed per call and never stored, so the context's
// owned buffers remain the single copy of the secret key.
type scheme struct {
	variant       Variant
	publicKeySize int
	secretKeySize int
	signatureSize int
	seedSize      int

	generate func(random io.Reader) (pk, sk []byte, err error)
	fromSeed func(seed *[32]byte) (pk, sk []byte)
	sign     func(sk, message, context []byte, randomized bool) ([]byte, error)
	verify   func(pk, message, context, signature []byte) (bool, error)
	public   func(sk []byte) (crypto.PublicKey, error)
}

var schemes = map[Variant]*scheme{
	MLDSA44: mldsa44Scheme(),
	MLDSA65: mldsa65Scheme(),
	MLDSA87: mldsa87Scheme(),
}

// The nine packed lengths (three buffer kinds across three parameter
// sets) are pairwise distinct, so a buffer's length identifies its
// variant unambiguously.

func schemeForSecretKey(length int) *scheme {
	for _, s := range schemes {
		if s.secretKeySize == length {
			return s
		}
	}
	return nil
}

func schemeForPublicKey(length int) *scheme {
	for _, s := range schemes {
		if s.publicKeySize == length {
			return s
		}
	}
	return nil
}

func schemeForSignature(length int) *scheme {
	for _, s := range schemes {
		if s.signatureSize == length {
			return s
		}
	}
	return nil
}

func mldsa44Scheme() *scheme {
	return &scheme{
		variant:       MLDSA44,
		publicKeySize: mldsa44.PublicKeySize,
		secretKeySize: mldsa44.PrivateKeySize,
		signatureSize: mldsa44.SignatureSize,
		seedSize:      mldsa44.SeedSize,
		generate: func(random io.Reader) ([]byte, []byte, error) {
			pk, sk, err := mldsa44.GenerateKey(random)
			if err != nil {
				return nil, nil, err
			}
			return pk.Bytes(), sk.Bytes(), nil
		},
		fromSeed: func(seed *[32]byte) ([]byte, []byte) {
			pk, sk := mldsa44.NewKeyFromSeed(seed)
			return pk.Bytes(), sk.Bytes()
		},
		sign: func(sk, message, context []byte, randomized bool) ([]byte, error) {
			var key mldsa44.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			signature := make([]byte, mldsa44.SignatureSize)
			if err := mldsa44.SignTo(&key, message, context, randomized, signature); err != nil {
				return nil, err
			}
			return signature, nil
		},
		verify: func(pk, message, context, signature []byte) (bool, error) {
			var key mldsa44.PublicKey
			if err := key.UnmarshalBinary(pk); err != nil {
				return false, err
			}
			return mldsa44.Verify(&key, message, context, signature), nil
		},
		public: func(sk []byte) (crypto.PublicKey, error) {
			var key mldsa44.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			return key.Public(), nil
		},
	}
}

func mldsa65Scheme() *scheme {
	return &scheme{
		variant:       MLDSA65,
		publicKeySize: mldsa65.PublicKeySize,
		secretKeySize: mldsa65.PrivateKeySize,
		signatureSize: mldsa65.SignatureSize,
		seedSize:      mldsa65.SeedSize,
		generate: func(random io.Reader) ([]byte, []byte, error) {
			pk, sk, err := mldsa65.GenerateKey(random)
			if err != nil {
				return nil, nil, err
			}
			return pk.Bytes(), sk.Bytes(), nil
		},
		fromSeed: func(seed *[32]byte) ([]byte, []byte) {
			pk, sk := mldsa65.NewKeyFromSeed(seed)
			return pk.Bytes(), sk.Bytes()
		},
		sign: func(sk, message, context []byte, randomized bool) ([]byte, error) {
			var key mldsa65.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			signature := make([]byte, mldsa65.SignatureSize)
			if err := mldsa65.SignTo(&key, message, context, randomized, signature); err != nil {
				return nil, err
			}
			return signature, nil
		},
		verify: func(pk, message, context, signature []byte) (bool, error) {
			var key mldsa65.PublicKey
			if err := key.UnmarshalBinary(pk); err != nil {
				return false, err
			}
			return mldsa65.Verify(&key, message, context, signature), nil
		},
		public: func(sk []byte) (crypto.PublicKey, error) {
			var key mldsa65.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			return key.Public(), nil
		},
	}
}

func mldsa87Scheme() *scheme {
	return &scheme{
		variant:       MLDSA87,
		publicKeySize: mldsa87.PublicKeySize,
		secretKeySize: mldsa87.PrivateKeySize,
		signatureSize: mldsa87.SignatureSize,
		seedSize:      mldsa87.SeedSize,
		generate: func(random io.Reader) ([]byte, []byte, error) {
			pk, sk, err := mldsa87.GenerateKey(random)
			if err != nil {
				return nil, nil, err
			}
			return pk.Bytes(), sk.Bytes(), nil
		},
		fromSeed: func(seed *[32]byte) ([]byte, []byte) {
			pk, sk := mldsa87.NewKeyFromSeed(seed)
			return pk.Bytes(), sk.Bytes()
		},
		sign: func(sk, message, context []byte, randomized bool) ([]byte, error) {
			var key mldsa87.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			signature := make([]byte, mldsa87.SignatureSize)
			if err := mldsa87.SignTo(&key, message, context, randomized, signature); err != nil {
				return nil, err
			}
			return signature, nil
		},
		verify: func(pk, message, context, signature []byte) (bool, error) {
			var key mldsa87.PublicKey
			if err := key.UnmarshalBinary(pk); err != nil {
				return false, err
			}
			return mldsa87.Verify(&key, message, context, signature), nil
		},
		public: func(sk []byte) (crypto.PublicKey, error) {
			var key mldsa87.PrivateKey
			if err := key.UnmarshalBinary(sk); err != nil {
				return nil, err
			}
			return key.Public(), nil
		},
	}
}
