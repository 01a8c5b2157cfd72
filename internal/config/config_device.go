package config

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DeviceConfig holds the configuration settings for the device process.
type DeviceConfig struct {
	RelayAddr      string // Relay WebSocket URL
	DeviceID       string // Sent on connect; generated when empty
	Sensor         string // "simulated" or "script:70,72,..."
	BaseBPM        int    // Resting rate for the simulated sensor
	SensorInterval int    // Interval between heart-rate readings (in seconds)
	FlushInterval  int    // Interval between outbound queue flushes (in seconds)
	ReconnectWait  int    // Pause before redialing the relay (in seconds)
	CachePath      string // Settings cache file
	Logger         *zap.SugaredLogger
}

// NewDeviceConfig creates and returns a new DeviceConfig by parsing flags and environment variables.
func NewDeviceConfig() *DeviceConfig {
	loadDotEnv()

	cfg := &DeviceConfig{
		RelayAddr:      "ws://localhost:8080/ws",
		Sensor:         "simulated",
		BaseBPM:        72,
		SensorInterval: 1,
		FlushInterval:  5,
		ReconnectWait:  2,
		CachePath:      "./tmp/device-settings.json",
	}

	var fAddr, fID, fSensor, fCache, fConf strFlag
	var fBPM, fSensorI, fFlush, fWait intFlag
	flag.Var(&fAddr, "a", "relay address (ws:// or host:port)")
	flag.Var(&fID, "id", "device id")
	flag.Var(&fSensor, "sensor", "sensor kind")
	flag.Var(&fBPM, "bpm", "base heart rate for the simulated sensor")
	flag.Var(&fSensorI, "p", "sensor interval (seconds)")
	flag.Var(&fFlush, "r", "flush interval (seconds)")
	flag.Var(&fWait, "w", "reconnect wait (seconds)")
	flag.Var(&fCache, "cache", "settings cache file")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if fAddr.set {
		cfg.RelayAddr = fAddr.v
	}
	if fID.set {
		cfg.DeviceID = fID.v
	}
	if fSensor.set {
		cfg.Sensor = fSensor.v
	}
	if fBPM.set {
		cfg.BaseBPM = fBPM.v
	}
	if fSensorI.set {
		cfg.SensorInterval = fSensorI.v
	}
	if fFlush.set {
		cfg.FlushInterval = fFlush.v
	}
	if fWait.set {
		cfg.ReconnectWait = fWait.v
	}
	if fCache.set {
		cfg.CachePath = fCache.v
	}

	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		if js, err := loadDeviceJSON(fConf.v); err == nil {
			if js.RelayAddress != nil && !fAddr.set {
				cfg.RelayAddr = *js.RelayAddress
			}
			if js.DeviceID != nil && !fID.set {
				cfg.DeviceID = *js.DeviceID
			}
			if js.Sensor != nil && !fSensor.set {
				cfg.Sensor = *js.Sensor
			}
			if js.BaseBPM != nil && !fBPM.set {
				cfg.BaseBPM = *js.BaseBPM
			}
			if js.SensorInterval != nil && !fSensorI.set {
				if sec, err := parseDurationSeconds(*js.SensorInterval); err == nil {
					cfg.SensorInterval = sec
				}
			}
			if js.FlushInterval != nil && !fFlush.set {
				if sec, err := parseDurationSeconds(*js.FlushInterval); err == nil {
					cfg.FlushInterval = sec
				}
			}
			if js.ReconnectWait != nil && !fWait.set {
				if sec, err := parseDurationSeconds(*js.ReconnectWait); err == nil {
					cfg.ReconnectWait = sec
				}
			}
			if js.CachePath != nil && !fCache.set {
				cfg.CachePath = *js.CachePath
			}
		}
	}

	readDeviceEnvironment(cfg)

	cfg.RelayAddr = normalizeRelayAddr(cfg.RelayAddr)
	cfg.Logger = newLogger("device.log")
	return cfg
}

func readDeviceEnvironment(cfg *DeviceConfig) {
	envStr("RELAY_ADDRESS", &cfg.RelayAddr)
	envStr("DEVICE_ID", &cfg.DeviceID)
	envStr("SENSOR", &cfg.Sensor)
	envInt("BASE_BPM", &cfg.BaseBPM)
	envInt("SENSOR_INTERVAL", &cfg.SensorInterval)
	envInt("FLUSH_INTERVAL", &cfg.FlushInterval)
	envInt("RECONNECT_WAIT", &cfg.ReconnectWait)
	envStr("CACHE_PATH", &cfg.CachePath)
}

// normalizeRelayAddr turns a bare host:port into the relay's WebSocket URL.
func normalizeRelayAddr(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	addr = strings.TrimPrefix(addr, "http://")
	return "ws://" + strings.TrimSuffix(addr, "/") + "/ws"
}
