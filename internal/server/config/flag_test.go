package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"server", "-a", ":9999", "-s", "flag-secret", "-t", "90", "-m", "local", "-l", "/tmp/media"}
	defer func() { os.Args = oldArgs }()

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, c.EndpointAddrHTTP, ":9999")
	assert.Equal(t, c.SecretKey, "flag-secret")
	assert.Equal(t, c.AccessTokenValidityDuration, 90*time.Minute)
	assert.Equal(t, c.MediaBackend, MediaBackendLocal)
	assert.Equal(t, c.LocalMediaDir, "/tmp/media")
}

func TestParseFlags_KeepsDefaultsWithoutFlags(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"server"}
	defer func() { os.Args = oldArgs }()

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, c.EndpointAddrHTTP, ":5001")
	assert.Equal(t, c.AccessTokenValidityDuration, 24*time.Hour)
}
