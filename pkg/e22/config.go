// Package e22 drives EBYTE E22 series UART LoRa modules (SX1262/SX1268
// based, 400 and 900 MHz bands). It mirrors the module's register image in a
// Config struct, moves the module between operating modes over the M0/M1
// lines and exchanges framed JSON payloads in transparent or fixed mode.
package e22

import (
	"fmt"
	"strings"

	"github.com/matthias-bs/loraE22/pkg/hal"
)

type BaudRate uint8

const (
	BAUD_1200   BaudRate = 0x00
	BAUD_2400   BaudRate = 0x20
	BAUD_4800   BaudRate = 0x40
	BAUD_9600   BaudRate = 0x60
	BAUD_19200  BaudRate = 0x80
	BAUD_38400  BaudRate = 0xA0
	BAUD_57600  BaudRate = 0xC0
	BAUD_115200 BaudRate = 0xE0
)

type Parity uint8

const (
	PARITY_8N1 Parity = 0x00
	PARITY_8O1 Parity = 0x08
	PARITY_8E1 Parity = 0x10
)

type AirDataRate uint8

const (
	ADR_300   AirDataRate = iota // 0.3k
	ADR_1200                     // 1.2k
	ADR_2400                     // 2.4k
	ADR_4800                     // 4.8k
	ADR_9600                     // 9.6k
	ADR_19200                    // 19.2k
	ADR_38400                    // 38.4k
	ADR_62500                    // 62.5k
)

type SubPacket uint8

const (
	BYTES_240 SubPacket = 0x00
	BYTES_128 SubPacket = 0x40
	BYTES_64  SubPacket = 0x80
	BYTES_32  SubPacket = 0xC0
)

type TxPower uint8

const (
	TP_22_DBM TxPower = iota
	TP_17_DBM
	TP_13_DBM
	TP_10_DBM
)

type TransmissionMode uint8

const (
	TRANSMISSION_TRANSPARENT TransmissionMode = 0x00
	TRANSMISSION_FIXED       TransmissionMode = 0x40
)

type WORControl uint8

const (
	WOR_RECEIVER    WORControl = 0x00
	WOR_TRANSMITTER WORControl = 0x08
)

type WakeUpTime uint8

const (
	WOR_500_MS WakeUpTime = iota
	WOR_1000_MS
	WOR_1500_MS
	WOR_2000_MS
	WOR_2500_MS
	WOR_3000_MS
	WOR_3500_MS
	WOR_4000_MS
)

// Closed value tables. They are the only place a register bit pattern meets
// its human form: sanitize, strict decode and the config file all go through
// them.
var (
	serialBaudMap = map[BaudRate]int{
		BAUD_1200:   1200,
		BAUD_2400:   2400,
		BAUD_4800:   4800,
		BAUD_9600:   9600,
		BAUD_19200:  19200,
		BAUD_38400:  38400,
		BAUD_57600:  57600,
		BAUD_115200: 115200,
	}

	serialParityMap = map[Parity]hal.Parity{
		PARITY_8N1: hal.ParityNone,
		PARITY_8O1: hal.ParityOdd,
		PARITY_8E1: hal.ParityEven,
	}

	parityLabels = map[Parity]string{
		PARITY_8N1: "8N1",
		PARITY_8O1: "8O1",
		PARITY_8E1: "8E1",
	}

	airRateLabels = map[AirDataRate]string{
		ADR_300:   "0.3k",
		ADR_1200:  "1.2k",
		ADR_2400:  "2.4k",
		ADR_4800:  "4.8k",
		ADR_9600:  "9.6k",
		ADR_19200: "19.2k",
		ADR_38400: "38.4k",
		ADR_62500: "62.5k",
	}

	subPacketLabels = map[SubPacket]string{
		BYTES_240: "240B",
		BYTES_128: "128B",
		BYTES_64:  "64B",
		BYTES_32:  "32B",
	}

	txPowerLabels = map[TxPower]string{
		TP_22_DBM: "22dBm",
		TP_17_DBM: "17dBm",
		TP_13_DBM: "13dBm",
		TP_10_DBM: "10dBm",
	}

	transModeLabels = map[TransmissionMode]string{
		TRANSMISSION_TRANSPARENT: "transparent",
		TRANSMISSION_FIXED:       "fixed",
	}

	worControlLabels = map[WORControl]string{
		WOR_RECEIVER:    "receiver",
		WOR_TRANSMITTER: "transmitter",
	}

	wakeUpTimeLabels = map[WakeUpTime]string{
		WOR_500_MS:  "500ms",
		WOR_1000_MS: "1000ms",
		WOR_1500_MS: "1500ms",
		WOR_2000_MS: "2000ms",
		WOR_2500_MS: "2500ms",
		WOR_3000_MS: "3000ms",
		WOR_3500_MS: "3500ms",
		WOR_4000_MS: "4000ms",
	}
)

func lookupValue[K, V comparable](table map[K]V, want V) (K, bool) {
	for k, v := range table {
		if v == want {
			return k, true
		}
	}
	var zero K
	return zero, false
}

const (
	DefaultModel = "900T22D"

	maxChannel = 31

	baseFrequency900 = 850.125 // MHz, E22-900 band
	baseFrequency400 = 410.125 // MHz, E22-400 band
)

// Config mirrors the seven readable registers of the module plus the model
// name. It is pushed to the chip only through an explicit write command and
// never read back implicitly.
type Config struct {
	Model            string
	Address          uint16
	NetID            uint8
	Channel          uint8 // 0-31, clamped on Start
	BaudRate         BaudRate
	Parity           Parity
	AirDataRate      AirDataRate
	SubPacket        SubPacket
	AmbientNoise     bool
	TxPower          TxPower
	RSSIEnabled      bool
	TransmissionMode TransmissionMode
	Repeater         bool
	LBT              bool
	WORControl       WORControl
	WakeUpTime       WakeUpTime
}

// DefaultConfig returns the module's conventional defaults: 9600 8N1, 2.4k
// air rate, channel 6, transparent mode, 22 dBm, RSSI off.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		BaudRate:         BAUD_9600,
		Parity:           PARITY_8N1,
		AirDataRate:      ADR_2400,
		Channel:          0x06,
		SubPacket:        BYTES_240,
		TxPower:          TP_22_DBM,
		TransmissionMode: TRANSMISSION_TRANSPARENT,
		WORControl:       WOR_RECEIVER,
		WakeUpTime:       WOR_2000_MS,
	}
}

// sanitized replaces invalid enumerated values with their documented
// defaults. Construction is lenient on purpose; decoding register images is
// not, see decodeRegisters.
func (c Config) sanitized() Config {
	if _, ok := serialBaudMap[c.BaudRate]; !ok {
		c.BaudRate = BAUD_9600
	}
	if _, ok := parityLabels[c.Parity]; !ok {
		c.Parity = PARITY_8N1
	}
	if _, ok := airRateLabels[c.AirDataRate]; !ok {
		c.AirDataRate = ADR_2400
	}
	if _, ok := subPacketLabels[c.SubPacket]; !ok {
		c.SubPacket = BYTES_240
	}
	if _, ok := txPowerLabels[c.TxPower]; !ok {
		c.TxPower = TP_22_DBM
	}
	if _, ok := transModeLabels[c.TransmissionMode]; !ok {
		c.TransmissionMode = TRANSMISSION_TRANSPARENT
	}
	if _, ok := worControlLabels[c.WORControl]; !ok {
		c.WORControl = WOR_RECEIVER
	}
	if _, ok := wakeUpTimeLabels[c.WakeUpTime]; !ok {
		c.WakeUpTime = WOR_2000_MS
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	return c
}

// Frequency returns the carrier frequency in MHz: the model's band base plus
// one MHz per channel. Derived only, never stored on the chip or in the
// config file.
func (c Config) Frequency() float64 {
	base := baseFrequency900
	if strings.HasPrefix(c.Model, "400") {
		base = baseFrequency400
	}
	return base + float64(c.Channel)
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model        E22-%s\n", c.Model)
	fmt.Fprintf(&b, "frequency    %.3fMHz\n", c.Frequency())
	fmt.Fprintf(&b, "address      0x%04x\n", c.Address)
	fmt.Fprintf(&b, "netid        0x%02x\n", c.NetID)
	fmt.Fprintf(&b, "channel      0x%02x\n", c.Channel)
	fmt.Fprintf(&b, "baudrate     %dbps\n", serialBaudMap[c.BaudRate])
	fmt.Fprintf(&b, "parity       %s\n", parityLabels[c.Parity])
	fmt.Fprintf(&b, "datarate     %sbps\n", airRateLabels[c.AirDataRate])
	fmt.Fprintf(&b, "sub packet   %s\n", subPacketLabels[c.SubPacket])
	fmt.Fprintf(&b, "amb. noise   %t\n", c.AmbientNoise)
	fmt.Fprintf(&b, "tx power     %s\n", txPowerLabels[c.TxPower])
	fmt.Fprintf(&b, "rssi         %t\n", c.RSSIEnabled)
	fmt.Fprintf(&b, "transmission %s\n", transModeLabels[c.TransmissionMode])
	fmt.Fprintf(&b, "repeater     %t\n", c.Repeater)
	fmt.Fprintf(&b, "lbt          %t\n", c.LBT)
	fmt.Fprintf(&b, "WOR control  %s\n", worControlLabels[c.WORControl])
	fmt.Fprintf(&b, "WOR cycle    %s", wakeUpTimeLabels[c.WakeUpTime])
	return b.String()
}
