package hal

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// One read call drains whatever the UART buffered within this window.
// The driver never blocks on the port longer than this.
const serialReadTimeout = 20 * time.Millisecond

const readBufferSize = 512

// HostHW implements HWHandler on a Linux host with the module wired to a
// serial device and three GPIOs, e.g. NewHostHW("/dev/ttyAMA0", "GPIO23",
// "GPIO24", "GPIO18"). Pin names are resolved through periph's gpio registry.
type HostHW struct {
	device string
	port   serial.Port
	m0     gpio.PinOut
	m1     gpio.PinOut
	aux    gpio.PinIn
}

func NewHostHW(serialDevice string, m0Pin string, m1Pin string, auxPin string) (*HostHW, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init gpio host: %w", err)
	}
	m0 := gpioreg.ByName(m0Pin)
	if m0 == nil {
		return nil, fmt.Errorf("M0 pin %s not found", m0Pin)
	}
	m1 := gpioreg.ByName(m1Pin)
	if m1 == nil {
		return nil, fmt.Errorf("M1 pin %s not found", m1Pin)
	}
	aux := gpioreg.ByName(auxPin)
	if aux == nil {
		return nil, fmt.Errorf("AUX pin %s not found", auxPin)
	}
	// AUX is open collector on the module side, idle reads high
	if err := aux.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure AUX input: %w", err)
	}
	return &HostHW{device: serialDevice, m0: m0, m1: m1, aux: aux}, nil
}

func (obj *HostHW) OpenSerial(baudRate int, parityBit Parity) error {
	port, err := serial.Open(obj.device, serialMode(baudRate, parityBit))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", obj.device, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", obj.device, err)
	}
	obj.port = port
	return nil
}

func (obj *HostHW) CloseSerial() error {
	if obj.port == nil {
		return nil
	}
	err := obj.port.Close()
	obj.port = nil
	return err
}

func (obj *HostHW) ReadSerial() ([]byte, error) {
	if obj.port == nil {
		return nil, ErrPortClosed
	}
	buf := make([]byte, readBufferSize)
	n, err := obj.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("serial read failed: %w", err)
	}
	return buf[:n], nil
}

func (obj *HostHW) WriteSerial(msg []byte) error {
	if obj.port == nil {
		return ErrPortClosed
	}
	if _, err := obj.port.Write(msg); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

func (obj *HostHW) StageSerialPortConfig(baudRate int, parityBit Parity) error {
	if obj.port == nil {
		return ErrPortClosed
	}
	if err := obj.port.SetMode(serialMode(baudRate, parityBit)); err != nil {
		return fmt.Errorf("failed to restage serial port: %w", err)
	}
	return nil
}

func (obj *HostHW) SetModeLines(m0 bool, m1 bool) error {
	if err := obj.m0.Out(gpio.Level(m0)); err != nil {
		return fmt.Errorf("failed to drive M0: %w", err)
	}
	if err := obj.m1.Out(gpio.Level(m1)); err != nil {
		return fmt.Errorf("failed to drive M1: %w", err)
	}
	return nil
}

func (obj *HostHW) ReadAuxLine() (bool, error) {
	return obj.aux.Read() == gpio.High, nil
}

func serialMode(baudRate int, parityBit Parity) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	switch parityBit {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}
