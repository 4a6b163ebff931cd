package e22

import (
	"fmt"
	"time"
)

type ChipMode int

const (
	ModeNormal ChipMode = iota // UART and radio open, transparent path on
	ModeWOR                    // wake on radio, transmitter or receiver per WORControl
	ModeConfig                 // register access over the serial port
	ModeSleep                  // deep sleep
)

const (
	// AUX is polled, never interrupt driven. A device busy past the budget
	// is logged and tolerated.
	DefaultIdleTimeout = 200 * time.Millisecond
	idlePollInterval   = 10 * time.Millisecond
	modeSettleTime     = 50 * time.Millisecond
)

func (m ChipMode) String() string {
	switch m {
	case ModeWOR:
		return "wor"
	case ModeConfig:
		return "config"
	case ModeSleep:
		return "sleep"
	default:
		return "normal"
	}
}

// lines returns the M0 and M1 levels selecting the mode. Unknown values fall
// back to normal, the same leniency the rest of the configuration gets.
func (m ChipMode) lines() (m0 bool, m1 bool) {
	switch m {
	case ModeWOR:
		return true, false
	case ModeConfig:
		return false, true
	case ModeSleep:
		return true, true
	default:
		return false, false
	}
}

// SetOperatingMode moves the module to the target mode: wait until the
// device is idle, drive M0/M1, wait for idle again and hold the settle time.
// Any mode is reachable from any other; the chip arbitrates legality itself.
func (obj *Module) SetOperatingMode(mode ChipMode) error {
	obj.waitForDeviceIdle()
	m0, m1 := mode.lines()
	if err := obj.hw.SetModeLines(m0, m1); err != nil {
		return fmt.Errorf("failed to set mode lines for %s: %w", mode, err)
	}
	obj.waitForDeviceIdle()
	obj.clock.Sleep(modeSettleTime)
	obj.mode = mode
	return nil
}

// Mode reports the operating mode last written to the control lines. The
// mode is never read back from the device.
func (obj *Module) Mode() ChipMode {
	return obj.mode
}

// waitForDeviceIdle polls AUX until it reads high. Exceeding the budget is
// not an error: the wait logs a diagnostic and lets the caller proceed.
func (obj *Module) waitForDeviceIdle() {
	count := int(obj.idleTimeout / idlePollInterval)
	for {
		idle, err := obj.hw.ReadAuxLine()
		if err == nil && idle {
			return
		}
		if count <= 0 {
			obj.logf("waitForDeviceIdle: TIMEOUT, AUX still busy after %s", obj.idleTimeout)
			return
		}
		obj.clock.Sleep(idlePollInterval)
		count--
	}
}
