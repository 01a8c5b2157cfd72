package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sosodev/duration"
)

type relayJSON struct {
	Address       *string `json:"address"`
	FlushInterval *string `json:"flush_interval"` // "5s" or "PT5S"
	ClientTimeout *string `json:"client_timeout"`
	StoreFile     *string `json:"store_file"`
	DatabaseDSN   *string `json:"database_dsn"`
	SQLitePath    *string `json:"sqlite_path"`
	TrustedSubnet *string `json:"trusted_subnet"`
	StrictStatus  *bool   `json:"strict_status"`
}

type deviceJSON struct {
	RelayAddress   *string `json:"relay_address"`
	DeviceID       *string `json:"device_id"`
	Sensor         *string `json:"sensor"`
	BaseBPM        *int    `json:"base_bpm"`
	SensorInterval *string `json:"sensor_interval"`
	FlushInterval  *string `json:"flush_interval"`
	ReconnectWait  *string `json:"reconnect_wait"`
	CachePath      *string `json:"cache_path"`
}

func loadRelayJSON(path string) (*relayJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg relayJSON
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDeviceJSON(path string) (*deviceJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c deviceJSON
	return &c, json.Unmarshal(b, &c)
}

// parseDurationSeconds accepts Go durations ("5s") and ISO 8601 ones ("PT5S").
func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		iso, isoErr := duration.Parse(s)
		if isoErr != nil {
			return 0, err
		}
		d = iso.ToTimeDuration()
	}
	return int(d / time.Second), nil
}
