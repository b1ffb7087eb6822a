package ppu

import "testing"

// TestScanOAMForLine_ExcludesOffscreenXBeforeCap pins the spec's OAM scan
// selection rule: sprites whose raw X is 0 or >168 are fully off-screen and
// must be excluded from the scan *before* the 10-sprite cap is applied, not
// merely clipped later at draw time. Without this, an off-screen entry can
// consume a slot in the cap and crowd out a genuinely visible sprite later
// in OAM order.
func TestScanOAMForLine_ExcludesOffscreenXBeforeCap(t *testing.T) {
	p := New(nil)

	// 11 sprites overlap LY=10 (Y=0 -> screen rows 0..7 for 8px sprites... use
	// OAM Y=16+10=26 so screen Y=10, row 0 of an 8px sprite covers LY=10).
	// Entry 0 is off-screen (raw X=0); entries 1..10 are on-screen in OAM order.
	write := func(index int, rawY, rawX byte) {
		base := uint16(0xFE00) + uint16(index*4)
		p.CPUWrite(base+0, rawY)
		p.CPUWrite(base+1, rawX)
		p.CPUWrite(base+2, 0x00)
		p.CPUWrite(base+3, 0x00)
	}

	write(0, 26, 0) // raw X == 0: off-screen, must be excluded before the cap
	for i := 1; i <= 10; i++ {
		write(i, 26, byte(8+i)) // on-screen, distinct X per sprite
	}

	sprites := p.scanOAMForLine(10, false)
	if len(sprites) != 10 {
		t.Fatalf("got %d sprites, want 10", len(sprites))
	}
	for _, s := range sprites {
		if s.OAMIndex == 0 {
			t.Fatalf("off-screen sprite (raw X=0) at OAM index 0 should never be selected")
		}
	}
	// All ten on-screen sprites (indices 1..10) should have made it in since
	// the off-screen one didn't consume a slot.
	seen := make(map[int]bool)
	for _, s := range sprites {
		seen[s.OAMIndex] = true
	}
	for i := 1; i <= 10; i++ {
		if !seen[i] {
			t.Fatalf("expected on-screen sprite at OAM index %d to be selected", i)
		}
	}
}

// TestScanOAMForLine_ExcludesRawXAbove168 covers the other bound of the
// selection window: raw X > 168 is also fully off-screen (X would place the
// sprite entirely past column 159).
func TestScanOAMForLine_ExcludesRawXAbove168(t *testing.T) {
	p := New(nil)

	base := uint16(0xFE00)
	p.CPUWrite(base+0, 26)
	p.CPUWrite(base+1, 169) // raw X > 168: off-screen
	p.CPUWrite(base+2, 0x00)
	p.CPUWrite(base+3, 0x00)

	sprites := p.scanOAMForLine(10, false)
	if len(sprites) != 0 {
		t.Fatalf("got %d sprites, want 0 (raw X=169 is out of the (0,168] window)", len(sprites))
	}
}
