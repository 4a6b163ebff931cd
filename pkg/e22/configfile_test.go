package e22

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestConfigFileRoundTrip(t *testing.T) {
	cfg := Config{
		Model:            "400T30D",
		Address:          0x1234,
		NetID:            7,
		Channel:          23,
		BaudRate:         BAUD_57600,
		Parity:           PARITY_8E1,
		AirDataRate:      ADR_19200,
		SubPacket:        BYTES_64,
		AmbientNoise:     true,
		TxPower:          TP_13_DBM,
		RSSIEnabled:      true,
		TransmissionMode: TRANSMISSION_FIXED,
		Repeater:         true,
		LBT:              true,
		WORControl:       WOR_TRANSMITTER,
		WakeUpTime:       WOR_3500_MS,
	}
	path := filepath.Join(t.TempDir(), "roundtrip.json")

	if err := SaveConfigFile(path, cfg); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}
	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip =\n%s\nwant\n%s", got, cfg)
	}
}

func TestConfigFileDocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	cfg := DefaultConfig()
	cfg.BaudRate = BAUD_57600

	if err := SaveConfigFile(path, cfg); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc["baudrate"] != float64(57600) {
		t.Errorf(`doc["baudrate"] = %v, want plain 57600`, doc["baudrate"])
	}
	if doc["parity"] != "8N1" || doc["datarate"] != "2.4k" || doc["wutime"] != "2000ms" {
		t.Errorf("enum labels = %v/%v/%v, want 8N1/2.4k/2000ms", doc["parity"], doc["datarate"], doc["wutime"])
	}
	if _, ok := doc["frequency"]; ok {
		t.Error("derived frequency leaked into the config file")
	}
}

func TestLoadConfigFileUnknownLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := SaveConfigFile(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	broken := strings.Replace(string(data), `"8N1"`, `"8X1"`, 1)
	if err := os.WriteFile(path, []byte(broken), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = LoadConfigFile(path)
	if err == nil || !strings.Contains(err.Error(), "unknown parity") {
		t.Errorf("err = %v, want unknown parity", err)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("err = nil for a missing file")
	}
}
