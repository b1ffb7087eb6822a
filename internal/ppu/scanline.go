package ppu

// tileRowFetcher drives a bgFetcher/fifo pair across a 32-tile-wide map row,
// refilling the fifo with the next tile whenever it runs dry. Both the
// background and window scanline renderers walk a map row exactly this way;
// only where they start reading (fineX vs. 0) and which row they read from
// (scrolled BG row vs. window's own line counter) differ.
type tileRowFetcher struct {
	fetcher *bgFetcher
	pixels  *fifo
	mapBase uint16
	tileX   uint16
	mapY    uint16
	fineY   byte
	signed  bool
}

func newTileRowFetcher(mem VRAMReader, pixels *fifo, mapBase uint16, tileData8000 bool, mapY uint16, fineY byte, startTileX uint16) *tileRowFetcher {
	tr := &tileRowFetcher{
		fetcher: newBGFetcher(mem, pixels),
		pixels:  pixels,
		mapBase: mapBase,
		tileX:   startTileX,
		mapY:    mapY,
		fineY:   fineY,
		signed:  !tileData8000,
	}
	tr.fetchCurrentTile()
	return tr
}

func (tr *tileRowFetcher) fetchCurrentTile() {
	addr := tr.mapBase + tr.mapY*32 + tr.tileX
	tr.fetcher.Configure(tr.mapBase, !tr.signed, addr, tr.fineY)
	tr.fetcher.Fetch()
}

// nextPixel returns the next color index, fetching the next map column
// (wrapping at 32 tiles) once the current tile's pixels are exhausted.
func (tr *tileRowFetcher) nextPixel() byte {
	if tr.pixels.Len() == 0 {
		tr.tileX = (tr.tileX + 1) & 31
		tr.fetchCurrentTile()
	}
	px, _ := tr.pixels.Pop()
	return px
}

// RenderBGScanlineUsingFetcher renders 160 background pixels for scanline ly,
// honoring SCX/SCY scrolling, via the isolated tile fetcher (§4.6).
func RenderBGScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	var pixels fifo
	tr := newTileRowFetcher(mem, &pixels, mapBase, tileData8000, mapY, fineY, tileX)
	for i := 0; i < fineX; i++ {
		_, _ = pixels.Pop() // discard SCX's fractional pixels from the first tile
	}

	for x := 0; x < 160; x++ {
		out[x] = tr.nextPixel()
	}
	return out
}

// RenderWindowScanlineUsingFetcher renders the window layer for a scanline.
// winLine is the window's own internal line counter (not LY). Pixels before
// wxStart (WX-7) are left at color index 0 so callers can blend against BG.
func RenderWindowScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}

	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7

	var pixels fifo
	tr := newTileRowFetcher(mem, &pixels, mapBase, tileData8000, mapY, fineY, 0)
	for x := wxStart; x < 160; x++ {
		out[x] = tr.nextPixel()
	}
	return out
}
