package ppu

import "testing"

func TestRenderScanline_SolidBGFillsShadeFromBGP(t *testing.T) {
	p := New(nil)
	// Tile 0, all rows color index 3 (lo=hi=0xFF)
	p.vram[0] = 0xFF // tile 0 row0 lo
	p.vram[1] = 0xFF // tile 0 row0 hi
	// BGP maps index 3 -> darkest shade (11 -> shade 3)
	p.CPUWrite(0xFF47, 0xFF) // every index maps to shade 3 (black)
	p.CPUWrite(0xFF40, 0x80|0x01) // LCD on, BG on, map 0x9800, tile data 0x8800 (default bit4=0)
	// Using signed addressing, tile number 0 means base 0x9000; put tile 0 there too.
	p.vram[0x1000] = 0xFF
	p.vram[0x1001] = 0xFF

	advanceLines(p, 0)
	p.Tick(80) // enter mode 3 for line 0, triggering render

	fb := p.Framebuffer()
	if fb[0] != 0x00 || fb[1] != 0x00 || fb[2] != 0x00 || fb[3] != 0xFF {
		t.Fatalf("expected black opaque pixel at (0,0), got %v", fb[0:4])
	}
}

func TestRenderScanline_SpriteOverBG(t *testing.T) {
	p := New(nil)
	// BG: tile 0 all zero (color index 0, lightest shade under any BGP)
	p.CPUWrite(0xFF47, 0xE4) // standard palette: 0->0,1->1,2->2,3->3
	p.CPUWrite(0xFF48, 0xE4) // OBP0 standard
	p.CPUWrite(0xFF40, 0x80|0x01|0x02) // LCD on, BG on, sprites on

	// Sprite 0 in OAM: Y=16 (screen row 0), X=8 (screen col 0), tile 1, attr 0
	p.oam[0] = 16
	p.oam[1] = 8
	p.oam[2] = 1
	p.oam[3] = 0
	// Tile 1 at 0x8000+16: opaque leftmost pixel (color index 1)
	p.vram[16] = 0x80
	p.vram[17] = 0x00

	p.Tick(80) // render line 0

	fb := p.Framebuffer()
	// Shade for BGP/OBP0 index1 under palette 0xE4 (binary 11100100): index1 -> bits [3:2] = 01 -> shade 1
	want := shadeRGBA[1]
	if fb[0] != want[0] || fb[1] != want[1] || fb[2] != want[2] || fb[3] != want[3] {
		t.Fatalf("expected sprite shade %v at (0,0), got %v", want, fb[0:4])
	}
}
