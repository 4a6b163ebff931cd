// Package hal isolates the hardware the E22 driver sits on: one UART and
// the three control lines (M0, M1 outputs, AUX input).
package hal

import (
	"errors"
	"time"
)

type Parity byte

const (
	ParityNone  Parity = 'N'
	ParityOdd   Parity = 'O'
	ParityEven  Parity = 'E'
	ParityMark  Parity = 'M' // parity bit is always 1
	ParitySpace Parity = 'S' // parity bit is always 0
)

var ErrPortClosed = errors.New("serial port not open")

// HWHandler is the hardware owned by one driver instance. The driver decides
// what the line levels and serial bytes mean; implementations only move them.
type HWHandler interface {
	OpenSerial(baudRate int, parityBit Parity) error
	CloseSerial() error
	ReadSerial() ([]byte, error)
	WriteSerial(msg []byte) error
	StageSerialPortConfig(baudRate int, parityBit Parity) error
	SetModeLines(m0 bool, m1 bool) error
	ReadAuxLine() (bool, error)
}

// Clock abstracts sleeping so the driver's polling loops can run against a
// fake clock in tests.
type Clock interface {
	Sleep(d time.Duration)
}

type SystemClock struct{}

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
