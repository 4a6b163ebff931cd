package e22

import (
	"testing"
	"time"

	"github.com/matthias-bs/loraE22/pkg/hal"
)

// fakeClock counts requested sleeps instead of taking them.
type fakeClock struct {
	slept time.Duration
}

func (c *fakeClock) Sleep(d time.Duration) { c.slept += d }

// fakeHW emulates the chip end of the HAL. In config mode it answers
// register commands from its own image; in normal mode it hands data frames
// to the linked peer the way the radio would: the fixed mode routing prefix
// decides delivery and is stripped, and the peer appends its RSSI byte if it
// has RSSI reporting on.
type fakeHW struct {
	m0, m1  bool
	auxBusy bool

	serialOpen   bool
	baud         int
	parity       hal.Parity
	stagedBaud   int
	stagedParity hal.Parity

	image [regFrameLen]byte
	pid   [7]byte

	rx     [][]byte
	txData [][]byte
	cmdLog [][]byte

	peer     *fakeHW
	rssiByte byte

	failWrite error
	failRead  error
	failLines error
	respLen   int // when >0, command responses are truncated to this length
}

func newFakeHW() *fakeHW {
	return &fakeHW{
		rssiByte: 0xF0,
		pid:      [7]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD},
	}
}

func (obj *fakeHW) OpenSerial(baudRate int, parityBit hal.Parity) error {
	obj.serialOpen = true
	obj.baud = baudRate
	obj.parity = parityBit
	return nil
}

func (obj *fakeHW) CloseSerial() error {
	obj.serialOpen = false
	return nil
}

func (obj *fakeHW) StageSerialPortConfig(baudRate int, parityBit hal.Parity) error {
	if !obj.serialOpen {
		return hal.ErrPortClosed
	}
	obj.stagedBaud = baudRate
	obj.stagedParity = parityBit
	return nil
}

func (obj *fakeHW) SetModeLines(m0 bool, m1 bool) error {
	if obj.failLines != nil {
		return obj.failLines
	}
	obj.m0 = m0
	obj.m1 = m1
	return nil
}

func (obj *fakeHW) ReadAuxLine() (bool, error) {
	return !obj.auxBusy, nil
}

func (obj *fakeHW) ReadSerial() ([]byte, error) {
	if obj.failRead != nil {
		return nil, obj.failRead
	}
	if !obj.serialOpen {
		return nil, hal.ErrPortClosed
	}
	if len(obj.rx) == 0 {
		return nil, nil
	}
	head := obj.rx[0]
	obj.rx = obj.rx[1:]
	return head, nil
}

func (obj *fakeHW) WriteSerial(msg []byte) error {
	if obj.failWrite != nil {
		return obj.failWrite
	}
	if !obj.serialOpen {
		return hal.ErrPortClosed
	}
	if obj.configMode() {
		obj.cmdLog = append(obj.cmdLog, append([]byte(nil), msg...))
		obj.handleCommand(msg)
		return nil
	}
	obj.txData = append(obj.txData, append([]byte(nil), msg...))
	if obj.peer != nil {
		obj.deliver(msg)
	}
	return nil
}

func (obj *fakeHW) configMode() bool { return !obj.m0 && obj.m1 }

func (obj *fakeHW) handleCommand(frame []byte) {
	if len(frame) >= 2 && frame[0] == 0xCF && frame[1] == 0xCF {
		frame = frame[2:]
	}
	if len(frame) < 3 {
		return
	}
	var rsp []byte
	switch {
	case frame[0] == cmdWriteConfigSave || frame[0] == cmdWriteConfigNoSave:
		if len(frame) != regFrameLen {
			return
		}
		copy(obj.image[:], frame)
		obj.image[0] = cmdReadRegisters
		rsp = append([]byte(nil), obj.image[:]...)
	case frame[0] == cmdReadRegisters && frame[1] == regStartAddr:
		img := obj.image
		img[0] = cmdReadRegisters
		img[1] = regStartAddr
		img[2] = regParamCount
		rsp = append([]byte(nil), img[:]...)
	case frame[0] == cmdReadRegisters && frame[1] == pidStartAddr:
		rsp = append([]byte{cmdReadRegisters, pidStartAddr, regParamCount}, obj.pid[:]...)
	default:
		return
	}
	if obj.respLen > 0 && obj.respLen < len(rsp) {
		rsp = rsp[:obj.respLen]
	}
	obj.rx = append(obj.rx, rsp)
}

func (obj *fakeHW) deliver(frame []byte) {
	peer := obj.peer
	body := frame
	if obj.image[9]&reg3TransModeMask != 0 {
		// fixed mode: leading address and channel route the frame
		if len(frame) < 3 {
			return
		}
		addr := uint16(frame[0])<<8 | uint16(frame[1])
		channel := frame[2]
		body = frame[3:]
		if channel != peer.image[8] {
			return
		}
		peerAddr := uint16(peer.image[3])<<8 | uint16(peer.image[4])
		if addr != 0xFFFF && peerAddr != 0xFFFF && addr != peerAddr {
			return
		}
	} else {
		// transparent mode: both ends share address and channel
		if obj.image[8] != peer.image[8] || obj.image[3] != peer.image[3] || obj.image[4] != peer.image[4] {
			return
		}
	}
	out := append([]byte(nil), body...)
	if peer.image[9]&reg3RSSIMask != 0 {
		out = append(out, peer.rssiByte)
	}
	peer.rx = append(peer.rx, out)
}

func linkModules(a, b *fakeHW) {
	a.peer = b
	b.peer = a
}

func newTestModule(t *testing.T, cfg Config) (*Module, *fakeHW, *fakeClock) {
	t.Helper()
	hw := newFakeHW()
	clock := &fakeClock{}
	m := newModule(hw, clock, cfg)
	m.SetConfigFile("")
	return m, hw, clock
}

func startTestModule(t *testing.T, cfg Config) (*Module, *fakeHW, *fakeClock) {
	t.Helper()
	m, hw, clock := newTestModule(t, cfg)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m, hw, clock
}
