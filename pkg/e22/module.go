package e22

import (
	"fmt"
	"time"

	"github.com/matthias-bs/loraE22/pkg/hal"
)

// LogPrintf receives the driver's diagnostics (idle wait timeouts, raw
// command and data frames). The default discards them; pass log.Printf to
// SetLogger to see what goes over the wire.
type LogPrintf func(format string, v ...interface{})

// Module is one E22 device. It owns its serial stream, its three control
// lines and the configuration mirror exclusively and is not safe for
// concurrent use; callers needing that must serialize access themselves.
type Module struct {
	config      Config
	hw          hal.HWHandler
	clock       hal.Clock
	mode        ChipMode
	idleTimeout time.Duration
	configFile  string
	wirelessCmd bool
	logf        LogPrintf
}

// NewModule wires a driver to its hardware. Invalid enumerated values in cfg
// are silently replaced with their defaults; the strictness lives on the
// decode side, not here.
func NewModule(hw hal.HWHandler, cfg Config) *Module {
	return newModule(hw, hal.SystemClock{}, cfg)
}

func newModule(hw hal.HWHandler, clock hal.Clock, cfg Config) *Module {
	return &Module{
		config:      cfg.sanitized(),
		hw:          hw,
		clock:       clock,
		mode:        ModeNormal,
		idleTimeout: DefaultIdleTimeout,
		configFile:  DefaultConfigFile,
		logf:        func(string, ...interface{}) {},
	}
}

// SetLogger installs lp as the diagnostics sink. A nil lp silences the
// driver again.
func (obj *Module) SetLogger(lp LogPrintf) {
	if lp == nil {
		lp = func(string, ...interface{}) {}
	}
	obj.logf = lp
}

// SetIdleTimeout changes the budget of every AUX idle wait.
func (obj *Module) SetIdleTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultIdleTimeout
	}
	obj.idleTimeout = d
}

// SetConfigFile redirects the configuration mirror file. An empty path
// disables mirroring.
func (obj *Module) SetConfigFile(path string) {
	obj.configFile = path
}

// SetWirelessCommands makes every following command frame carry the
// 0xCF 0xCF prefix, so a remote module on the air executes it instead of the
// local one.
func (obj *Module) SetWirelessCommands(on bool) {
	obj.wirelessCmd = on
}

// Config returns the driver's configuration mirror.
func (obj *Module) Config() Config {
	return obj.config
}

// Start opens the serial stream with the configured UART parameters, puts
// the module into config mode and persists the configuration. The channel is
// clamped to the top of its range here, matching the chip's behavior.
func (obj *Module) Start() error {
	if obj.config.Channel > maxChannel {
		obj.config.Channel = maxChannel
	}
	if err := obj.hw.OpenSerial(serialBaudMap[obj.config.BaudRate], serialParityMap[obj.config.Parity]); err != nil {
		return fmt.Errorf("failed to open serial stream: %w", err)
	}
	if err := obj.SetOperatingMode(ModeConfig); err != nil {
		return err
	}
	obj.waitForDeviceIdle()
	if err := obj.writeConfigRegisters(obj.config, true); err != nil {
		return fmt.Errorf("failed to write initial config: %w", err)
	}
	return nil
}

// Stop releases the serial stream. The control lines keep their last levels.
func (obj *Module) Stop() error {
	if err := obj.hw.CloseSerial(); err != nil {
		return fmt.Errorf("failed to close serial stream: %w", err)
	}
	return nil
}

// ReadConfig fetches the register image from the chip, decodes it strictly
// and on success adopts it as the new mirror.
func (obj *Module) ReadConfig() (Config, error) {
	rsp, err := obj.readConfigRegisters()
	if err != nil {
		return Config{}, err
	}
	cfg, err := decodeRegisters(rsp, obj.config)
	if err != nil {
		return Config{}, err
	}
	obj.config = cfg
	return cfg, nil
}

// WriteConfig sanitizes cfg the same way construction does and pushes it to
// the chip, persistently or only until power down.
func (obj *Module) WriteConfig(cfg Config, persist bool) error {
	return obj.writeConfigRegisters(cfg.sanitized(), persist)
}
