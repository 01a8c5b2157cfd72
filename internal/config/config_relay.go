package config

import (
	"flag"
	"os"

	"go.uber.org/zap"
)

// RelayConfig holds the configuration settings for the relay.
type RelayConfig struct {
	Addr            string // HTTP/WebSocket listen address
	Logger          *zap.SugaredLogger
	FlushInterval   int    // Interval between outbound queue flushes (in seconds)
	ClientTimeout   int    // Alert POST timeout (in seconds)
	FileStoragePath string // Path to the settings file
	DatabaseDsn     string // Data Source Name for PostgreSQL
	SQLitePath      string // Path to the SQLite settings database
	Key             string // Key for hash signing and verification
	TrustedSubnet   string // CIDR, ex. "192.168.1.0/24"
	StrictStatus    bool   // Treat non-2xx alert responses as failures
	LaunchReason    string // "settings" pushes the current settings on start
}

// NewRelayConfig creates and returns a new RelayConfig by parsing flags and environment variables.
func NewRelayConfig() *RelayConfig {
	loadDotEnv()

	// 0) defaults
	cfg := &RelayConfig{
		Addr:            "localhost:8080",
		FlushInterval:   5,
		ClientTimeout:   10,
		FileStoragePath: "./tmp/settings.json",
	}

	// 1) flags
	var fAddr, fFile, fDSN, fSQLite, fKey, fTrusted, fReason, fConf strFlag
	var fFlush, fTO intFlag
	var fStrict boolFlag
	flag.Var(&fAddr, "a", "HTTP server address")
	flag.Var(&fFlush, "i", "flush interval (seconds)")
	flag.Var(&fTO, "t", "alert client timeout (seconds)")
	flag.Var(&fFile, "f", "path to settings file")
	flag.Var(&fDSN, "d", "DB connection string")
	flag.Var(&fSQLite, "s", "path to SQLite database")
	flag.Var(&fKey, "k", "Hash key string")
	flag.Var(&fTrusted, "trusted", "trusted subnet")
	flag.Var(&fStrict, "strict", "treat non-2xx alert responses as failures")
	flag.Var(&fReason, "launch-reason", "launch reason")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if fAddr.set {
		cfg.Addr = fAddr.v
	}
	if fFlush.set {
		cfg.FlushInterval = fFlush.v
	}
	if fTO.set {
		cfg.ClientTimeout = fTO.v
	}
	if fFile.set {
		cfg.FileStoragePath = fFile.v
	}
	cfg.DatabaseDsn = fDSN.v
	cfg.SQLitePath = fSQLite.v
	cfg.Key = fKey.v
	cfg.TrustedSubnet = fTrusted.v
	cfg.StrictStatus = fStrict.v
	cfg.LaunchReason = fReason.v

	// 2) JSON (lowest priority)
	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		if js, err := loadRelayJSON(fConf.v); err == nil {
			applyRelayJSON(cfg, js, relaySetFlags{
				addr: fAddr.set, flush: fFlush.set, timeout: fTO.set, file: fFile.set,
				dsn: fDSN.set, sqlite: fSQLite.set, trusted: fTrusted.set, strict: fStrict.set,
			})
		}
	}

	readRelayEnvironment(cfg)

	cfg.Logger = newLogger("relay.log")
	return cfg
}

type relaySetFlags struct {
	addr, flush, timeout, file, dsn, sqlite, trusted, strict bool
}

func applyRelayJSON(cfg *RelayConfig, js *relayJSON, set relaySetFlags) {
	if js.Address != nil && !set.addr {
		cfg.Addr = *js.Address
	}
	if js.FlushInterval != nil && !set.flush {
		if sec, err := parseDurationSeconds(*js.FlushInterval); err == nil {
			cfg.FlushInterval = sec
		}
	}
	if js.ClientTimeout != nil && !set.timeout {
		if sec, err := parseDurationSeconds(*js.ClientTimeout); err == nil {
			cfg.ClientTimeout = sec
		}
	}
	if js.StoreFile != nil && !set.file {
		cfg.FileStoragePath = *js.StoreFile
	}
	if js.DatabaseDSN != nil && !set.dsn {
		cfg.DatabaseDsn = *js.DatabaseDSN
	}
	if js.SQLitePath != nil && !set.sqlite {
		cfg.SQLitePath = *js.SQLitePath
	}
	if js.TrustedSubnet != nil && !set.trusted {
		cfg.TrustedSubnet = *js.TrustedSubnet
	}
	if js.StrictStatus != nil && !set.strict {
		cfg.StrictStatus = *js.StrictStatus
	}
}

func readRelayEnvironment(cfg *RelayConfig) {
	envStr("ADDRESS", &cfg.Addr)
	envInt("FLUSH_INTERVAL", &cfg.FlushInterval)
	envInt("CLIENT_TIMEOUT", &cfg.ClientTimeout)
	envStr("FILE_STORAGE_PATH", &cfg.FileStoragePath)
	envStr("DATABASE_DSN", &cfg.DatabaseDsn)
	envStr("SQLITE_PATH", &cfg.SQLitePath)
	envStr("KEY", &cfg.Key)
	envStr("TRUSTED_SUBNET", &cfg.TrustedSubnet)
	envBool("STRICT_STATUS", &cfg.StrictStatus)
	envStr("LAUNCH_REASON", &cfg.LaunchReason)
}

// LaunchedBySettings reports whether the relay was started to deliver changed settings.
func (c *RelayConfig) LaunchedBySettings() bool {
	return c.LaunchReason == "settings"
}
