package e22

import (
	"errors"
	"fmt"
)

var ErrDecode = errors.New("invalid register image")

// Register frame layout, shared by the command channel and the codecs:
//
//	byte 0    command header
//	byte 1    starting register address (0x00)
//	byte 2    register count (0x07)
//	byte 3-4  ADDH, ADDL
//	byte 5    NETID
//	byte 6    REG0  baudrate | parity | air data rate
//	byte 7    REG1  sub packet | ambient noise | reserved | tx power
//	byte 8    REG2  channel
//	byte 9    REG3  rssi | transmission | repeater | lbt | wor control | wor cycle
const (
	regFrameLen   = 10
	regStartAddr  = 0x00
	regParamCount = 0x07
	pidStartAddr  = 0x80
)

// Bit masks within the packed register bytes. The enum constants above carry
// their bits pre shifted, so encode is a plain OR and decode a plain AND over
// this table.
const (
	reg0BaudMask   = 0xE0
	reg0ParityMask = 0x18
	reg0AirMask    = 0x07

	reg1SubPacketMask = 0xC0
	reg1AmbientMask   = 0x20
	reg1PowerMask     = 0x03

	reg3RSSIMask       = 0x80
	reg3TransModeMask  = 0x40
	reg3RepeaterMask   = 0x20
	reg3LBTMask        = 0x10
	reg3WORControlMask = 0x08
	reg3WakeUpMask     = 0x07
)

func bitIf(set bool, mask byte) byte {
	if set {
		return mask
	}
	return 0
}

// encodeRegisters renders the configuration as the full 10 byte write frame.
// Byte 0 defaults to the persistent write command, the command channel
// overrides it for volatile writes.
func encodeRegisters(c Config) [regFrameLen]byte {
	var frame [regFrameLen]byte
	frame[0] = cmdWriteConfigSave
	frame[1] = regStartAddr
	frame[2] = regParamCount
	frame[3] = byte(c.Address >> 8)
	frame[4] = byte(c.Address)
	frame[5] = c.NetID
	frame[6] = byte(c.BaudRate)&reg0BaudMask | byte(c.Parity)&reg0ParityMask | byte(c.AirDataRate)&reg0AirMask
	frame[7] = byte(c.SubPacket)&reg1SubPacketMask | bitIf(c.AmbientNoise, reg1AmbientMask) | byte(c.TxPower)&reg1PowerMask
	frame[8] = c.Channel
	frame[9] = bitIf(c.RSSIEnabled, reg3RSSIMask) | byte(c.TransmissionMode)&reg3TransModeMask |
		bitIf(c.Repeater, reg3RepeaterMask) | bitIf(c.LBT, reg3LBTMask) |
		byte(c.WORControl)&reg3WORControlMask | byte(c.WakeUpTime)&reg3WakeUpMask
	return frame
}

// decodeRegisters maps a 10 byte register image back onto a configuration.
// Fields the image does not carry (the model name) are taken from base.
// Decoding is strict: a wrong length or a bit pattern outside the value
// tables is an error and base stays untouched.
func decodeRegisters(data []byte, base Config) (Config, error) {
	if len(data) != regFrameLen {
		return Config{}, fmt.Errorf("%w: got %d bytes, want %d", ErrDecode, len(data), regFrameLen)
	}
	c := base
	c.Address = uint16(data[3])<<8 | uint16(data[4])
	c.NetID = data[5]
	c.BaudRate = BaudRate(data[6] & reg0BaudMask)
	c.Parity = Parity(data[6] & reg0ParityMask)
	if _, ok := parityLabels[c.Parity]; !ok {
		return Config{}, fmt.Errorf("%w: unmapped parity bits %#02x", ErrDecode, byte(c.Parity))
	}
	c.AirDataRate = AirDataRate(data[6] & reg0AirMask)
	c.SubPacket = SubPacket(data[7] & reg1SubPacketMask)
	c.AmbientNoise = data[7]&reg1AmbientMask != 0
	c.TxPower = TxPower(data[7] & reg1PowerMask)
	c.Channel = data[8]
	c.RSSIEnabled = data[9]&reg3RSSIMask != 0
	c.TransmissionMode = TransmissionMode(data[9] & reg3TransModeMask)
	c.Repeater = data[9]&reg3RepeaterMask != 0
	c.LBT = data[9]&reg3LBTMask != 0
	c.WORControl = WORControl(data[9] & reg3WORControlMask)
	c.WakeUpTime = WakeUpTime(data[9] & reg3WakeUpMask)
	return c, nil
}
