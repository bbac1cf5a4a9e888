package mldsa

import (
	"encoding/hex"

	"github.com/awnumar/memguard"
	"github.com/jeremyhahn/go-mldsa/pkg/logging"
)

// Config describes a signing key as declared in a configuration file.
type Config struct {
	// Debug attaches the logger to the context so underlying library
	// failures are recorded, and logs the context state after key
	// generation. Key material is never logged.
	Debug bool `yaml:"debug" json:"debug" mapstructure:"debug"`

	// Deterministic selects deterministic signing for signers built
	// from this config.
	Deterministic bool `yaml:"deterministic" json:"deterministic" mapstructure:"deterministic"`

	// Variant is the ML-DSA parameter set name, ml-dsa-44, ml-dsa-65
	// or ml-dsa-87.
	Variant string `yaml:"variant" json:"variant" mapstructure:"variant"`

	// Seed is an optional hex encoded 32 byte key generation seed.
	// When set, key generation is reproducible. Intended for test
	// fixtures, not production keys.
	Seed string `yaml:"seed" json:"seed" mapstructure:"seed"`

	// Context is an optional domain separation context string applied
	// to every signature.
	Context string `yaml:"context" json:"context" mapstructure:"context"`
}

// FromConfig builds a context from a configuration declaration and
// generates its key pair. The logger is attached when Debug is set.
// The caller is responsible for closing the returned context.
func FromConfig(config *Config, logger *logging.Logger) (*SignatureContext, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	variant, err := ParseVariant(config.Variant)
	if err != nil {
		return nil, err
	}
	c := New()
	if config.Debug {
		c.SetLogger(logger)
	}
	if config.Seed != "" {
		seed, err := hex.DecodeString(config.Seed)
		if err != nil {
			return nil, ErrInvalidSeed
		}
		if len(seed) != variant.SeedSize() {
			memguard.WipeBytes(seed)
			return nil, ErrInvalidSeed
		}
		err = c.GenerateKeyPairFromSeed(variant, seed)
		memguard.WipeBytes(seed)
		if err != nil {
			return nil, err
		}
	} else if err := c.GenerateKeyPair(variant); err != nil {
		return nil, err
	}
	if config.Debug && logger != nil {
		DebugState(logger, c)
	}
	return c, nil
}

// NewSignerFromConfig builds a context from a configuration
// declaration and returns a crypto.Signer bound to it. Closing the
// signer closes the context.
func NewSignerFromConfig(config *Config, logger *logging.Logger) (*Signer, error) {
	c, err := FromConfig(config, logger)
	if err != nil {
		return nil, err
	}
	return c.SignerWithOpts(SignOpts{
		Deterministic: config.Deterministic,
		Context:       []byte(config.Context),
	})
}
