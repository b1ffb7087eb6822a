package emu

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/noll-dmg/gbcore/internal/bus"
	"github.com/noll-dmg/gbcore/internal/cart"
	"github.com/noll-dmg/gbcore/internal/cpu"
)

// Buttons mirrors the 8 physical Game Boy input lines.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// joypMask packs Buttons into the mask SetJoypadState expects: a set bit
// means pressed, using the bus.Joyp* bits (Right, Left, Up, Down in bits 0-3;
// A, B, Select, Start in bits 4-7). The bus turns this into JOYP's
// active-low reads according to the select lines.
func joypMask(bt Buttons) byte {
	var m byte
	if bt.Right {
		m |= bus.JoypRight
	}
	if bt.Left {
		m |= bus.JoypLeft
	}
	if bt.Up {
		m |= bus.JoypUp
	}
	if bt.Down {
		m |= bus.JoypDown
	}
	if bt.A {
		m |= bus.JoypA
	}
	if bt.B {
		m |= bus.JoypB
	}
	if bt.Select {
		m |= bus.JoypSelectBtn
	}
	if bt.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine wires together the cartridge, bus, CPU, PPU, timer, interrupt
// controller, and APU into a runnable DMG motherboard.
type Machine struct {
	cfg Config

	bus *bus.Bus
	cpu *cpu.CPU

	bootROM []byte
	romPath string

	w, h int
}

// New creates a Machine with no cartridge loaded. Call LoadCartridge or
// LoadROMFromFile before stepping.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, w: 160, h: 144}
}

// SetBootROM stages a DMG boot ROM to be mapped in on the next cartridge load.
func (m *Machine) SetBootROM(data []byte) {
	m.bootROM = append([]byte(nil), data...)
}

// LoadCartridge builds a fresh Bus and CPU around rom, optionally mapping a
// boot ROM image. If boot is non-empty it overrides any previously staged
// SetBootROM image for this load.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	b, err := bus.New(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	m.bus = b

	if len(boot) == 0 {
		boot = m.bootROM
	}
	c := cpu.New(b)
	if len(boot) >= 0x100 {
		b.SetBootROM(boot)
		c.SP, c.PC = 0xFFFE, 0x0000
	} else {
		c.ResetNoBoot()
		c.SetPC(0x0100)
		// DMG post-boot IO defaults, matching what the real boot ROM leaves behind.
		b.Write(0xFF00, 0xCF)
		b.Write(0xFF05, 0x00)
		b.Write(0xFF06, 0x00)
		b.Write(0xFF07, 0x00)
		b.Write(0xFF40, 0x91)
		b.Write(0xFF42, 0x00)
		b.Write(0xFF43, 0x00)
		b.Write(0xFF45, 0x00)
		b.Write(0xFF47, 0xFC)
		b.Write(0xFF48, 0xFF)
		b.Write(0xFF49, 0xFF)
		b.Write(0xFF4A, 0x00)
		b.Write(0xFF4B, 0x00)
		b.Write(0xFFFF, 0x00)
	}
	m.cpu = c
	return nil
}

// LoadROMFromFile reads rom from path and loads it, remembering the path for
// ROMPath()/battery persistence. It reuses whatever boot ROM was previously
// staged via SetBootROM.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}
	if err := m.LoadCartridge(rom, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path passed to LoadROMFromFile, or "" if the cartridge
// was loaded directly via LoadCartridge.
func (m *Machine) ROMPath() string { return m.romPath }

// SetSerialWriter attaches w as the destination for bytes shifted out over
// the serial port (SB/SC), e.g. to capture blargg test ROM output.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// SetButtons updates the joypad state consumed on the next CPU step.
func (m *Machine) SetButtons(b Buttons) {
	if m.bus != nil {
		m.bus.SetJoypadState(joypMask(b))
	}
}

// dotsPerFrame is the DMG dot count for one 154-line frame (456 dots/line).
const dotsPerFrame = 456 * 154

// StepFrame runs the machine for one frame's worth of dots and leaves the
// PPU framebuffer holding the rendered result.
func (m *Machine) StepFrame() {
	m.runDots(dotsPerFrame)
}

// StepFrameNoRender runs one frame's worth of dots without caring about the
// framebuffer; used by headless test-ROM harnesses that only watch serial
// output. Rendering always happens as a side effect of ticking the PPU, so
// this is identical to StepFrame but named for intent at call sites.
func (m *Machine) StepFrameNoRender() {
	m.runDots(dotsPerFrame)
}

func (m *Machine) runDots(dots int) {
	if m.cpu == nil || m.bus == nil {
		return
	}
	ran := 0
	for ran < dots {
		if m.cfg.Trace {
			fmt.Fprintf(os.Stderr, "PC=%04X OP=%02X\n", m.cpu.PC, m.bus.Read(m.cpu.PC))
		}
		ran += m.cpu.Step()
	}
}

// Framebuffer returns the PPU's RGBA (160x144x4) frame buffer.
func (m *Machine) Framebuffer() []byte {
	if m.bus == nil || m.bus.PPU() == nil {
		return make([]byte, m.w*m.h*4)
	}
	return m.bus.PPU().Framebuffer()
}

// APUBufferedStereo returns the number of stereo sample frames currently
// queued in the APU's ring buffer.
func (m *Machine) APUBufferedStereo() int {
	if m.bus == nil || m.bus.APU() == nil {
		return 0
	}
	return m.bus.APU().StereoAvailable()
}

// APUPullStereo drains up to max buffered stereo frames as an interleaved
// int16 slice [L0,R0,L1,R1,...].
func (m *Machine) APUPullStereo(max int) []int16 {
	if m.bus == nil || m.bus.APU() == nil {
		return nil
	}
	return m.bus.APU().PullStereo(max)
}

// LoadBattery restores external cartridge RAM from a prior SaveBattery blob.
// Returns false if the current cartridge has no battery-backed RAM.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil {
		return false
	}
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// SaveBattery returns a copy of the cartridge's external RAM for persistence.
// ok is false if the cartridge has no battery-backed RAM to save.
func (m *Machine) SaveBattery() (data []byte, ok bool) {
	if m.bus == nil {
		return nil, false
	}
	bb, isBattery := m.bus.Cart().(cart.BatteryBacked)
	if !isBattery {
		return nil, false
	}
	ram := bb.SaveRAM()
	if len(ram) == 0 {
		return nil, false
	}
	return ram, true
}

// machineState is the serializable snapshot of CPU registers and full save
// state, layered on top of Bus.SaveState/LoadState for the rest of the
// hardware.
type machineState struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    bool
	Bus                    []byte
}

// SaveStateToFile writes a full machine snapshot (CPU + bus + PPU + cart) to path.
func (m *Machine) SaveStateToFile(path string) error {
	if m.cpu == nil || m.bus == nil {
		return fmt.Errorf("no cartridge loaded")
	}
	s := machineState{
		A: m.cpu.A, F: m.cpu.F, B: m.cpu.B, C: m.cpu.C,
		D: m.cpu.D, E: m.cpu.E, H: m.cpu.H, L: m.cpu.L,
		SP: m.cpu.SP, PC: m.cpu.PC, IME: m.cpu.IME,
		Bus: m.bus.SaveState(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode save state: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadStateFromFile restores a snapshot previously written by SaveStateToFile.
func (m *Machine) LoadStateFromFile(path string) error {
	if m.cpu == nil || m.bus == nil {
		return fmt.Errorf("no cartridge loaded")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save state: %w", err)
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("decode save state: %w", err)
	}
	m.cpu.A, m.cpu.F, m.cpu.B, m.cpu.C = s.A, s.F, s.B, s.C
	m.cpu.D, m.cpu.E, m.cpu.H, m.cpu.L = s.D, s.E, s.H, s.L
	m.cpu.SP, m.cpu.PC, m.cpu.IME = s.SP, s.PC, s.IME
	m.bus.LoadState(s.Bus)
	return nil
}
