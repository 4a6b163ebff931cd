package e22

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrPayload   = errors.New("invalid payload")
	ErrCorrupted = errors.New("corrupt message")
)

// Message is the result of one receive call. Payload is nil when nothing was
// pending or the frame failed its checksum; a failed checksum additionally
// sets Corrupt while the RSSI, if the frame carried one, is still reported.
type Message struct {
	Payload map[string]interface{}
	RSSI    *int
	Corrupt bool
}

// checksum returns the low byte of the two's complement of the byte sum. A
// frame with its checksum appended therefore sums to zero.
func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}

// resolveTransmissionMode picks transparent when the peer's address and
// channel match the local ones and fixed otherwise.
func resolveTransmissionMode(address uint16, channel uint8, localAddress uint16, localChannel uint8) TransmissionMode {
	if address == localAddress && channel == localChannel {
		return TRANSMISSION_TRANSPARENT
	}
	return TRANSMISSION_FIXED
}

// setTransmissionMode persists the given mode if it differs from the mirror.
// Switching modes mid conversation is the documented cost of talking to a
// peer outside the local address/channel pair.
func (obj *Module) setTransmissionMode(mode TransmissionMode) error {
	if mode == obj.config.TransmissionMode {
		return nil
	}
	cfg := obj.config
	cfg.TransmissionMode = mode
	return obj.writeConfigRegisters(cfg, true)
}

// SendMessage JSON encodes the payload and transmits it to the module at
// toAddress/toChannel. A matching local address and channel selects
// transparent mode, anything else fixed mode with a three byte destination
// prefix; address 0xFFFF broadcasts to every module on the channel. With
// useChecksum a two's complement checksum byte is appended so the receiver
// can validate the transmission.
func (obj *Module) SendMessage(toAddress uint16, toChannel uint8, payload map[string]interface{}, useChecksum bool) error {
	mode := resolveTransmissionMode(toAddress, toChannel, obj.config.Address, obj.config.Channel)
	if err := obj.setTransmissionMode(mode); err != nil {
		return err
	}
	if err := obj.SetOperatingMode(ModeNormal); err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("%w: payload must be a non-nil map", ErrPayload)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPayload, err)
	}
	frame := make([]byte, 0, len(body)+4)
	if mode == TRANSMISSION_FIXED {
		frame = append(frame, byte(toAddress>>8), byte(toAddress), toChannel)
	}
	frame = append(frame, body...)
	if useChecksum {
		frame = append(frame, checksum(body))
	}
	obj.logf("sending: % X", frame)
	obj.waitForDeviceIdle()
	if err := obj.hw.WriteSerial(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReceiveMessage reads one pending message from the module, expecting it
// from the peer at fromAddress/fromChannel (which drives the same
// transmission mode switch as sending). An empty stream is not an error: the
// returned Message simply has no payload and no RSSI.
//
// When RSSI reporting is enabled the frame's last byte is consumed as signal
// strength (value - 256 dBm). With useChecksum a frame whose bytes do not
// sum to zero is reported as corrupt via ErrCorrupted; the payload is left
// unparsed and the Message still carries the RSSI. On success the payload is
// decoded from JSON and the RSSI is attached to it under the "rssi" key,
// numeric or null.
func (obj *Module) ReceiveMessage(fromAddress uint16, fromChannel uint8, useChecksum bool) (Message, error) {
	mode := resolveTransmissionMode(fromAddress, fromChannel, obj.config.Address, obj.config.Channel)
	if err := obj.setTransmissionMode(mode); err != nil {
		return Message{}, err
	}
	if err := obj.SetOperatingMode(ModeNormal); err != nil {
		return Message{}, err
	}
	raw, err := obj.hw.ReadSerial()
	if err != nil {
		return Message{}, fmt.Errorf("failed to read message: %w", err)
	}
	if len(raw) == 0 {
		return Message{}, nil
	}
	obj.logf("received: % X", raw)

	var msg Message
	if obj.config.RSSIEnabled {
		rssi := int(raw[len(raw)-1]) - 256
		msg.RSSI = &rssi
		raw = raw[:len(raw)-1]
	}
	if useChecksum {
		if cs := checksum(raw); cs != 0 {
			msg.Corrupt = true
			return msg, fmt.Errorf("%w: checksum %#02x", ErrCorrupted, cs)
		}
		if len(raw) > 0 {
			raw = raw[:len(raw)-1]
		}
	}
	payload := make(map[string]interface{})
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Message{}, fmt.Errorf("failed to decode message payload: %w", err)
	}
	if msg.RSSI != nil {
		payload["rssi"] = *msg.RSSI
	} else {
		payload["rssi"] = nil
	}
	msg.Payload = payload
	return msg, nil
}
