package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/pkg/service"
	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

const sampleYAML = `
owner: alice
chassis:
  - address: 10.0.0.1
  - address: 10.0.0.2
    port: 22612
    password: secret
ports:
  - 10.0.0.1/0/0
  - 10.0.0.2/1/3
poll_interval: 250ms
run_timeout: 2m
keepalive_interval: 5s
protocol_log: lab.xlog
protocol_log_max_size: 1048576
stats_db: stats.db
log_level: debug
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Owner)
	require.Len(t, cfg.Chassis, 2)
	assert.Equal(t, Chassis{Address: "10.0.0.1", Port: transport.DefaultPort, Password: service.DefaultPassword}, cfg.Chassis[0])
	assert.Equal(t, Chassis{Address: "10.0.0.2", Port: 22612, Password: "secret"}, cfg.Chassis[1])
	assert.Equal(t, []string{"10.0.0.1/0/0", "10.0.0.2/1/3"}, cfg.Ports)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, service.DefaultTrafficTimeout, cfg.TrafficTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, "lab.xlog", cfg.ProtocolLog)
	assert.Equal(t, int64(1<<20), cfg.ProtocolLogMaxSize)
	assert.Equal(t, "stats.db", cfg.StatsDB)
	assert.NoError(t, cfg.Validate())
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("owner: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing owner", "chassis:\n  - address: 10.0.0.1\n"},
		{"no chassis", "owner: alice\n"},
		{"empty address", "owner: alice\nchassis:\n  - port: 1\n"},
		{"duplicate chassis", "owner: alice\nchassis:\n  - address: a\n  - address: a\n"},
		{"bad location", "owner: alice\nchassis:\n  - address: a\nports: [a/x/0]\n"},
		{"unknown chassis", "owner: alice\nchassis:\n  - address: a\nports: [b/0/0]\n"},
		{"negative duration", "owner: alice\nchassis:\n  - address: a\nrun_timeout: -1s\n"},
		{"negative log size", "owner: alice\nchassis:\n  - address: a\nprotocol_log_max_size: -1\n"},
		{"bad log level", "owner: alice\nchassis:\n  - address: a\nlog_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadWithEnvFile(t *testing.T) {
	t.Setenv(EnvOwner, "")
	t.Setenv(EnvPassword, "")
	os.Unsetenv(EnvOwner)
	os.Unsetenv(EnvPassword)

	path := writeFile(t, "lab.yaml", sampleYAML)
	env := writeFile(t, ".env", "XENA_OWNER=bob\nXENA_PASSWORD=hunter2\n")

	cfg, err := Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Owner)
	for _, ch := range cfg.Chassis {
		assert.Equal(t, "hunter2", ch.Password)
	}
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	path := writeFile(t, "lab.yaml", sampleYAML)
	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "failed to read file", le.Message)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, "bad.yaml", "owner: alice\n")
	_, err = Load(path, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSessionConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	cfg.ConnectRetries = 3

	sc := cfg.SessionConfig()
	assert.Equal(t, "alice", sc.Owner)
	assert.Equal(t, 250*time.Millisecond, sc.PollInterval)
	assert.Equal(t, 2*time.Minute, sc.RunTimeout)
	assert.Equal(t, 5*time.Second, sc.KeepAlive.Interval)
	assert.Equal(t, 3, sc.Client.ConnectRetries)
	assert.NoError(t, sc.Validate())
}

func TestParseLogLevel(t *testing.T) {
	for in, ok := range map[string]bool{"debug": true, "INFO": true, "warning": true, "error": true, "": true, "trace": false} {
		_, err := ParseLogLevel(in)
		assert.Equal(t, ok, err == nil, in)
	}
}
