package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/atomics/pkg/atomics"
)

func TestBackendCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run([]string{"backend"}, &out, &errOut))
	assert.Contains(t, out.String(), "backend: "+atomics.Backend().Name)
	assert.Contains(t, out.String(), "compare-exchange")
}

func TestCheckCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"check", "-workers", "2", "-iterations", "50", "-scenario", "fetch-add", "-scenario", "lifetime"}, &out, &errOut)
	assert.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "2 passed, 0 failed")
}

func TestCheckRejectsUnknownScenario(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run([]string{"check", "-scenario", "bogus"}, &out, &errOut))
}

func TestUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, &out, &errOut))
	assert.True(t, strings.HasPrefix(errOut.String(), "usage:"))
	assert.Equal(t, 2, run([]string{"frobnicate"}, &out, &errOut))
}
