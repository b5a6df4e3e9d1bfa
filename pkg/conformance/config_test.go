package conformance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	cfg Config
}

func (s *ConfigTestSuite) SetupTest() {
	s.cfg = DefaultConfig()
}

func (s *ConfigTestSuite) TestDefaultsAreValid() {
	s.NoError(VerifyConfig(s.cfg))
	s.GreaterOrEqual(s.cfg.Workers, 2)
	s.LessOrEqual(s.cfg.Workers, maxDefaultWorkers)
	s.Equal(uint64(defaultSubmitRetries), s.cfg.SubmitRetries)
}

func (s *ConfigTestSuite) TestRejectsBadCounts() {
	cases := []func(*Config){
		func(c *Config) { c.Workers = 0 },
		func(c *Config) { c.Iterations = -1 },
		func(c *Config) { c.Racers = 0 },
		func(c *Config) { c.Resources = 0 },
	}
	for i, mutate := range cases {
		cfg := s.cfg
		mutate(&cfg)
		err := VerifyConfig(cfg)
		s.Truef(errors.Is(err, ErrInvalidConfig), "case %d: %v", i, err)
	}
}

func (s *ConfigTestSuite) TestRejectsUnknownScenario() {
	s.cfg.Scenarios = []string{"fetch-add", "no-such-thing"}
	err := VerifyConfig(s.cfg)
	s.ErrorIs(err, ErrInvalidConfig)
	s.ErrorIs(err, ErrUnknownScenario)
	s.Contains(err.Error(), "no-such-thing")
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func TestDefaultConfigEnvironment(t *testing.T) {
	t.Setenv("ATOMICS_CHECK_WORKERS", "3")
	t.Setenv("ATOMICS_CHECK_ITERATIONS", "17")
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 17, cfg.Iterations)

	t.Setenv("ATOMICS_CHECK_WORKERS", "many")
	cfg = DefaultConfig()
	require.NotEqual(t, 0, cfg.Workers)
}

func TestNamesMatchLookup(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{
		"fetch-add", "exchange", "cas-success", "cas-failure",
		"last-owner", "no-lost-updates", "lifetime", "mapped-fetch-add",
	}, names)
	for _, name := range names {
		_, ok := lookup(name)
		assert.True(t, ok, name)
	}
}
