package mldsa

import (
	"crypto"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-mldsa/pkg/logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeedHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestConfigFromYAML(t *testing.T) {

	yamlConfig := `
variant: ml-dsa-65
deterministic: true
debug: true
seed: ` + testSeedHex + `
context: test-rig
`

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yamlConfig)))

	var config Config
	require.NoError(t, v.Unmarshal(&config))
	assert.Equal(t, "ml-dsa-65", config.Variant)
	assert.True(t, config.Deterministic)
	assert.True(t, config.Debug)
	assert.Equal(t, testSeedHex, config.Seed)
	assert.Equal(t, "test-rig", config.Context)

	logger := logging.DefaultLogger()

	first, err := NewSignerFromConfig(&config, logger)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewSignerFromConfig(&config, logger)
	require.NoError(t, err)
	defer second.Close()

	// Seeded generation plus deterministic signing is reproducible
	// across independently built signers, even when entropy is offered
	data := []byte("configured signing")
	sig1, err := first.Sign(nil, data, crypto.Hash(0))
	require.NoError(t, err)
	sig2, err := second.Sign(rand.Reader, data, crypto.Hash(0))
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)
}

func TestFromConfigRandomKey(t *testing.T) {
	config := &Config{Variant: "ml-dsa-44"}

	c, err := FromConfig(config, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.HasSecretKey())
	require.NoError(t, c.Sign([]byte("test data")))
	assert.NoError(t, c.Verify([]byte("test data")))
}

func TestFromConfigInvalidVariant(t *testing.T) {
	config := &Config{Variant: "dilithium2"}

	_, err := FromConfig(config, nil)
	assert.ErrorIs(t, err, ErrInvalidVariant)
}

func TestFromConfigInvalidSeed(t *testing.T) {
	_, err := FromConfig(&Config{Variant: "ml-dsa-44", Seed: "not hex"}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = FromConfig(&Config{Variant: "ml-dsa-44", Seed: "abcd"}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestFromConfigNil(t *testing.T) {
	_, err := FromConfig(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
