package ppu

import (
	"bytes"
	"encoding/gob"
)

// state is the serializable snapshot of PPU memory and registers for save
// states. The framebuffer and per-line register snapshots are presentation
// state, not emulated hardware state, so they are rebuilt by rendering
// rather than serialized.
type state struct {
	VRAM [0x2000]byte
	OAM  [0xA0]byte

	LCDC, STAT, SCY, SCX, LY, LYC, BGP, OBP0, OBP1, WY, WX byte

	Dot            int
	WinLine        int
	WinActiveFrame bool
}

// SaveState serializes VRAM/OAM and LCD registers into a gob-encoded blob.
func (p *PPU) SaveState() []byte {
	s := state{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx,
		LY: p.ly, LYC: p.lyc, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WY: p.wy, WX: p.wx,
		Dot: p.dot, WinLine: p.winLine, WinActiveFrame: p.winActiveFrame,
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a blob previously produced by SaveState.
func (p *PPU) LoadState(data []byte) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	p.vram, p.oam = s.VRAM, s.OAM
	p.lcdc, p.stat, p.scy, p.scx = s.LCDC, s.STAT, s.SCY, s.SCX
	p.ly, p.lyc, p.bgp, p.obp0, p.obp1 = s.LY, s.LYC, s.BGP, s.OBP0, s.OBP1
	p.wy, p.wx = s.WY, s.WX
	p.dot, p.winLine, p.winActiveFrame = s.Dot, s.WinLine, s.WinActiveFrame
}
