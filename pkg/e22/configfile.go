package e22

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultConfigFile is where a module mirrors its configuration after every
// successful register write, unless redirected with SetConfigFile.
const DefaultConfigFile = "E22config.json"

// configDocument is the serialization adapter between Config and its file
// mirror. Enumerated fields are stored as their human labels, the derived
// frequency is not stored at all.
type configDocument struct {
	Model        string `json:"model"`
	Address      uint16 `json:"address"`
	NetID        uint8  `json:"netid"`
	Channel      uint8  `json:"channel"`
	BaudRate     int    `json:"baudrate"`
	Parity       string `json:"parity"`
	AirDataRate  string `json:"datarate"`
	SubPacket    string `json:"subpckt"`
	AmbientNoise bool   `json:"amb_noise"`
	TxPower      string `json:"txpower"`
	RSSIEnabled  bool   `json:"rssi"`
	TransMode    string `json:"transmode"`
	Repeater     bool   `json:"repeater"`
	LBT          bool   `json:"lbt"`
	WORControl   string `json:"worctrl"`
	WakeUpTime   string `json:"wutime"`
}

// SaveConfigFile writes cfg to path as a JSON document.
func SaveConfigFile(path string, cfg Config) error {
	doc := configDocument{
		Model:        cfg.Model,
		Address:      cfg.Address,
		NetID:        cfg.NetID,
		Channel:      cfg.Channel,
		BaudRate:     serialBaudMap[cfg.BaudRate],
		Parity:       parityLabels[cfg.Parity],
		AirDataRate:  airRateLabels[cfg.AirDataRate],
		SubPacket:    subPacketLabels[cfg.SubPacket],
		AmbientNoise: cfg.AmbientNoise,
		TxPower:      txPowerLabels[cfg.TxPower],
		RSSIEnabled:  cfg.RSSIEnabled,
		TransMode:    transModeLabels[cfg.TransmissionMode],
		Repeater:     cfg.Repeater,
		LBT:          cfg.LBT,
		WORControl:   worControlLabels[cfg.WORControl],
		WakeUpTime:   wakeUpTimeLabels[cfg.WakeUpTime],
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a configuration previously written by SaveConfigFile.
// Unknown labels are errors, not defaults: a mirror file that does not round
// trip is a broken mirror.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg := Config{
		Model:        doc.Model,
		Address:      doc.Address,
		NetID:        doc.NetID,
		Channel:      doc.Channel,
		AmbientNoise: doc.AmbientNoise,
		RSSIEnabled:  doc.RSSIEnabled,
		Repeater:     doc.Repeater,
		LBT:          doc.LBT,
	}
	var ok bool
	if cfg.BaudRate, ok = lookupValue(serialBaudMap, doc.BaudRate); !ok {
		return Config{}, fmt.Errorf("config file: unknown baudrate %d", doc.BaudRate)
	}
	if cfg.Parity, ok = lookupValue(parityLabels, doc.Parity); !ok {
		return Config{}, fmt.Errorf("config file: unknown parity %q", doc.Parity)
	}
	if cfg.AirDataRate, ok = lookupValue(airRateLabels, doc.AirDataRate); !ok {
		return Config{}, fmt.Errorf("config file: unknown datarate %q", doc.AirDataRate)
	}
	if cfg.SubPacket, ok = lookupValue(subPacketLabels, doc.SubPacket); !ok {
		return Config{}, fmt.Errorf("config file: unknown subpckt %q", doc.SubPacket)
	}
	if cfg.TxPower, ok = lookupValue(txPowerLabels, doc.TxPower); !ok {
		return Config{}, fmt.Errorf("config file: unknown txpower %q", doc.TxPower)
	}
	if cfg.TransmissionMode, ok = lookupValue(transModeLabels, doc.TransMode); !ok {
		return Config{}, fmt.Errorf("config file: unknown transmode %q", doc.TransMode)
	}
	if cfg.WORControl, ok = lookupValue(worControlLabels, doc.WORControl); !ok {
		return Config{}, fmt.Errorf("config file: unknown worctrl %q", doc.WORControl)
	}
	if cfg.WakeUpTime, ok = lookupValue(wakeUpTimeLabels, doc.WakeUpTime); !ok {
		return Config{}, fmt.Errorf("config file: unknown wutime %q", doc.WakeUpTime)
	}
	return cfg, nil
}
