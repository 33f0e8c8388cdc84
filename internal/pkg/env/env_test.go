package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"FOXPAY_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("FOXPAY_TEST_KEY", "from-process")

	assert.Equal(t, "from-file", GetEnv("FOXPAY_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("FOXPAY_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"B_TRUE":  "yes",
		"B_FALSE": "nope",
		"I_OK":    " 42 ",
		"I_BAD":   "many",
		"D_GO":    "150ms",
		"D_SECS":  "20",
		"D_BAD":   "soon",
	}
	t.Cleanup(func() { Env = nil })

	assert.True(t, GetBool("B_TRUE", false))
	assert.False(t, GetBool("B_FALSE", true))
	assert.True(t, GetBool("B_MISSING", true))

	assert.Equal(t, 42, GetInt("I_OK", 0))
	assert.Equal(t, 7, GetInt("I_BAD", 7))

	assert.Equal(t, 150*time.Millisecond, GetDuration("D_GO", 0))
	assert.Equal(t, 20*time.Second, GetDuration("D_SECS", 0))
	assert.Equal(t, time.Minute, GetDuration("D_BAD", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("D_MISSING", time.Minute))
}

