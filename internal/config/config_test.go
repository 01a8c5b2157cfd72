package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()

	backup := map[string]string{}
	for k := range env {
		backup[k] = os.Getenv(k)
	}

	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
	defer func() {
		for k := range env {
			_ = os.Unsetenv(k)
			if old, ok := backup[k]; ok {
				_ = os.Setenv(k, old)
			}
		}
	}()

	fn()
}

func withFreshFlagSet(t *testing.T, fn func()) {
	t.Helper()
	old := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	defer func() { flag.CommandLine = old }()
	fn()
}

func TestReadRelayEnvironment(t *testing.T) {
	env := map[string]string{
		"ADDRESS":           "127.0.0.1:9999",
		"FLUSH_INTERVAL":    "7",
		"FILE_STORAGE_PATH": "/tmp/testfile.json",
		"STRICT_STATUS":     "true",
		"LAUNCH_REASON":     "settings",
	}

	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := &RelayConfig{}
			readRelayEnvironment(cfg)

			require.Equal(t, "127.0.0.1:9999", cfg.Addr)
			require.Equal(t, 7, cfg.FlushInterval)
			require.Equal(t, "/tmp/testfile.json", cfg.FileStoragePath)
			require.True(t, cfg.StrictStatus)
			require.True(t, cfg.LaunchedBySettings())
		})
	})
}

func TestReadRelayEnvironment_AllAndInvalid(t *testing.T) {
	env := map[string]string{
		"ADDRESS":        "0.0.0.0:9090",
		"FLUSH_INTERVAL": "bad", // invalid
		"STRICT_STATUS":  "nope", // invalid
		"DATABASE_DSN":   "postgres://u:p@h/db",
		"SQLITE_PATH":    "/tmp/s.db",
		"KEY":            "secret",
		"TRUSTED_SUBNET": "10.0.0.0/8",
	}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := &RelayConfig{FlushInterval: 5}
			readRelayEnvironment(cfg)
			require.Equal(t, "0.0.0.0:9090", cfg.Addr)
			require.Equal(t, 5, cfg.FlushInterval)
			require.False(t, cfg.StrictStatus)
			require.Equal(t, "postgres://u:p@h/db", cfg.DatabaseDsn)
			require.Equal(t, "/tmp/s.db", cfg.SQLitePath)
			require.Equal(t, "secret", cfg.Key)
			require.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
		})
	})
}

func TestReadDeviceEnvironment(t *testing.T) {
	env := map[string]string{
		"RELAY_ADDRESS":   "ws://relay:8080/ws",
		"SENSOR":          "script:60,61",
		"BASE_BPM":        "65",
		"SENSOR_INTERVAL": "2",
		"CACHE_PATH":      "/tmp/c.json",
	}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := &DeviceConfig{}
			readDeviceEnvironment(cfg)
			require.Equal(t, "ws://relay:8080/ws", cfg.RelayAddr)
			require.Equal(t, "script:60,61", cfg.Sensor)
			require.Equal(t, 65, cfg.BaseBPM)
			require.Equal(t, 2, cfg.SensorInterval)
			require.Equal(t, "/tmp/c.json", cfg.CachePath)
		})
	})
}

func TestNormalizeRelayAddr(t *testing.T) {
	require.Equal(t, "ws://srv:9090/ws", normalizeRelayAddr("srv:9090"))
	require.Equal(t, "ws://srv:9090/ws", normalizeRelayAddr("http://srv:9090/"))
	require.Equal(t, "wss://srv/ws", normalizeRelayAddr("wss://srv/ws"))
}

func TestNewDeviceConfig_AddsWSPrefix(t *testing.T) {
	env := map[string]string{"RELAY_ADDRESS": "srv:9090"}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := NewDeviceConfig()
			require.NotNil(t, cfg.Logger)
			require.Equal(t, "ws://srv:9090/ws", cfg.RelayAddr)
			require.Equal(t, "simulated", cfg.Sensor)
		})
	})
}

func TestNewRelayConfig_BuildsLoggerAndReadsEnv(t *testing.T) {
	env := map[string]string{
		"ADDRESS":           "127.0.0.1:7070",
		"FILE_STORAGE_PATH": "/tmp/s.json",
		"DATABASE_DSN":      "dsn",
		"KEY":               "s",
	}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := NewRelayConfig()
			require.NotNil(t, cfg.Logger)
			require.Equal(t, "127.0.0.1:7070", cfg.Addr)
			require.Equal(t, "/tmp/s.json", cfg.FileStoragePath)
			require.Equal(t, "dsn", cfg.DatabaseDsn)
			require.Equal(t, "s", cfg.Key)
			require.Equal(t, 10, cfg.ClientTimeout)
		})
	})
}

func TestNewRelayConfig_JSONBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"address": "json:1",
		"flush_interval": "PT30S",
		"client_timeout": "3s",
		"strict_status": true
	}`), 0o644))

	env := map[string]string{"CONFIG": path, "ADDRESS": "env:2"}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg := NewRelayConfig()
			require.Equal(t, "env:2", cfg.Addr)
			require.Equal(t, 30, cfg.FlushInterval)
			require.Equal(t, 3, cfg.ClientTimeout)
			require.True(t, cfg.StrictStatus)
		})
	})
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5s", 5, false},
		{"1m", 60, false},
		{"PT1M30S", 90, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDurationSeconds(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
