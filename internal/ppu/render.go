package ppu

// LineRegs is a per-scanline snapshot of the registers the renderer used to
// draw that line, captured at the start of mode 3 (pixel transfer).
type LineRegs struct {
	LCDC, STAT, SCX, SCY, WX, WY, BGP, OBP0, OBP1 byte
	WinLine                                       int
	WindowVisible                                 bool
}

// shadeRGBA maps a 2-bit DMG shade (0=lightest) to its display color.
var shadeRGBA = [4][4]byte{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
	{0x55, 0x55, 0x55, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// Read lets the PPU act as its own VRAMReader for the fetcher/scanline
// helpers and sprite composer; the PPU core can always see its own VRAM
// regardless of the mode-gating CPURead enforces for external access.
func (p *PPU) Read(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return p.vram[addr-0x8000]
	}
	return 0xFF
}

// LineRegs returns the captured register snapshot for scanline y (0..143).
func (p *PPU) LineRegs(y int) LineRegs {
	if y < 0 || y >= len(p.lineSnap) {
		return LineRegs{}
	}
	return p.lineSnap[y]
}

// Framebuffer returns the current RGBA (160x144x4) frame buffer. Rows are
// updated scanline by scanline as the PPU renders; a complete frame is ready
// once LY has wrapped past 153.
func (p *PPU) Framebuffer() []byte { return p.framebuf[:] }

// captureLine snapshots line-relevant registers and renders scanline ly. It
// runs once per line at the mode2->mode3 transition (start of pixel
// transfer), which is also where the window line counter advances.
func (p *PPU) captureLine(ly byte) {
	wxStart := int(p.wx) - 7
	windowVisible := (p.lcdc&0x20) != 0 && p.wy <= ly && wxStart < 160

	if windowVisible {
		if !p.winActiveFrame {
			p.winActiveFrame = true
			p.winLine = 0
		} else {
			p.winLine++
		}
	}

	if int(ly) < len(p.lineSnap) {
		p.lineSnap[ly] = LineRegs{
			LCDC: p.lcdc, STAT: p.stat, SCX: p.scx, SCY: p.scy,
			WX: p.wx, WY: p.wy, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
			WinLine: p.winLine, WindowVisible: windowVisible,
		}
	}

	p.renderScanline(ly, windowVisible, wxStart)
}

// renderScanline draws BG, window, and sprite layers for ly into framebuf.
func (p *PPU) renderScanline(ly byte, windowVisible bool, wxStart int) {
	if int(ly) >= 144 {
		return
	}

	bgMapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	winMapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		winMapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	var bg [160]byte
	if p.lcdc&0x01 != 0 {
		bg = RenderBGScanlineUsingFetcher(p, bgMapBase, tileData8000, p.scx, p.scy, ly)
		if windowVisible {
			win := RenderWindowScanlineUsingFetcher(p, winMapBase, tileData8000, wxStart, byte(p.winLine))
			for x := wxStart; x < 160; x++ {
				if x < 0 {
					continue
				}
				bg[x] = win[x]
			}
		}
	}

	tall := p.lcdc&0x04 != 0
	var sprCol [160]byte
	var sprPal1 [160]bool
	if p.lcdc&0x02 != 0 {
		sprites := p.scanOAMForLine(ly, tall)
		sprCol, sprPal1 = composeSpriteLineCore(p, sprites, ly, bg, tall)
	}

	rowOff := int(ly) * 160 * 4
	for x := 0; x < 160; x++ {
		var rgba [4]byte
		if sprCol[x] != 0 {
			pal := p.obp0
			if sprPal1[x] {
				pal = p.obp1
			}
			shade := (pal >> (2 * sprCol[x])) & 0x03
			rgba = shadeRGBA[shade]
		} else {
			shade := (p.bgp >> (2 * bg[x])) & 0x03
			rgba = shadeRGBA[shade]
		}
		off := rowOff + x*4
		p.framebuf[off+0] = rgba[0]
		p.framebuf[off+1] = rgba[1]
		p.framebuf[off+2] = rgba[2]
		p.framebuf[off+3] = rgba[3]
	}
}
