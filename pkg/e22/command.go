package e22

import (
	"errors"
	"fmt"
	"time"
)

const (
	cmdWriteConfigSave   byte = 0xC0 // set registers, kept over power down
	cmdReadRegisters     byte = 0xC1
	cmdWriteConfigNoSave byte = 0xC2 // set registers, lost on power down
)

// Response budgets between the end of a command write and the single
// response read: 200 ms for register writes, 30 ms for reads.
const (
	cmdWriteResponseTime = 200 * time.Millisecond
	cmdReadResponseTime  = 30 * time.Millisecond
)

// Commands prefixed with 0xCF 0xCF are executed by a remote module over the
// air instead of the local one.
var wirelessCmdPrefix = []byte{0xCF, 0xCF}

var ErrResponse = errors.New("invalid command response")

// sendCommand forces config mode, writes one command frame, sleeps the
// response budget and performs a single read. The module is left in config
// mode, exactly as the chip leaves it.
func (obj *Module) sendCommand(frame []byte, respBudget time.Duration) ([]byte, error) {
	if err := obj.SetOperatingMode(ModeConfig); err != nil {
		return nil, err
	}
	if obj.wirelessCmd {
		frame = append(append([]byte(nil), wirelessCmdPrefix...), frame...)
	}
	obj.logf("command: % X", frame)
	if err := obj.hw.WriteSerial(frame); err != nil {
		return nil, fmt.Errorf("failed to write command: %w", err)
	}
	obj.clock.Sleep(respBudget)
	rsp, err := obj.hw.ReadSerial()
	if err != nil {
		return nil, fmt.Errorf("failed to read command response: %w", err)
	}
	obj.logf("response: % X", rsp)
	return rsp, nil
}

// writeConfigRegisters pushes cfg to the chip. A persistent write survives
// power down, a volatile one does not. On success cfg becomes the driver's
// mirror, the serial port is restaged in case the write changed the UART
// parameters, and the mirror file (if configured) is refreshed.
func (obj *Module) writeConfigRegisters(cfg Config, persist bool) error {
	frame := encodeRegisters(cfg)
	if !persist {
		frame[0] = cmdWriteConfigNoSave
	}
	rsp, err := obj.sendCommand(frame[:], cmdWriteResponseTime)
	if err != nil {
		return err
	}
	if len(rsp) != regFrameLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrResponse, len(rsp), regFrameLen)
	}
	obj.config = cfg
	if err := obj.hw.StageSerialPortConfig(serialBaudMap[cfg.BaudRate], serialParityMap[cfg.Parity]); err != nil {
		return fmt.Errorf("config written but serial restage failed: %w", err)
	}
	if obj.configFile != "" {
		if err := SaveConfigFile(obj.configFile, obj.config); err != nil {
			return fmt.Errorf("config written but mirror file not saved: %w", err)
		}
	}
	return nil
}

// readConfigRegisters fetches the 10 byte register image from the chip.
func (obj *Module) readConfigRegisters() ([]byte, error) {
	rsp, err := obj.sendCommand([]byte{cmdReadRegisters, regStartAddr, regParamCount}, cmdReadResponseTime)
	if err != nil {
		return nil, err
	}
	if len(rsp) != regFrameLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrResponse, len(rsp), regFrameLen)
	}
	return rsp, nil
}

// ProductID reads the module's seven product identification bytes.
func (obj *Module) ProductID() ([]byte, error) {
	rsp, err := obj.sendCommand([]byte{cmdReadRegisters, pidStartAddr, regParamCount}, cmdReadResponseTime)
	if err != nil {
		return nil, err
	}
	if len(rsp) != regFrameLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrResponse, len(rsp), regFrameLen)
	}
	return rsp[3:], nil
}
