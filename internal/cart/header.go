package cart

import (
	"encoding/binary"
	"errors"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

var nintendoLogo = [48]byte{
	0xCE,0xED,0x66,0x66,0xCC,0x0D,0x00,0x0B,0x03,0x73,0x00,0x83,0x00,0x0C,0x00,0x0D,
	0x00,0x08,0x11,0x1F,0x88,0x89,0x00,0x0E,0xDC,0xCC,0x6E,0xE6,0xDD,0xDD,0xD9,0x99,
	0xBB,0xBB,0x67,0x63,0x6E,0x0E,0xEC,0xCC,0xDD,0xDC,0x99,0x9F,0xBB,0xB9,0x33,0x3E,
}

type Header struct {
	Title           string // (trimmed ASCII)
	CGBFlag         byte   // 0x0143
	NewLicensee     string // 0x0144-0x0145 (ASCII), if old==0x33
	SGBFlag         byte   // 0x0146
	CartType        byte   // 0x0147
	ROMSizeCode     byte   // 0x0148
	RAMSizeCode     byte   // 0x0149
	Destination     byte   // 0x014A
	OldLicensee     byte   // 0x014B
	ROMVersion      byte   // 0x014C
	HeaderChecksum  byte   // 0x014D
	GlobalChecksum  uint16 // 0x014E-0x014F

	// Decoded helpers (for logs)
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// logoMatches reports whether the ROM's boot-logo region (0x0104-0x0133)
// matches the real Nintendo logo. A mismatch is tolerated rather than
// rejected: homebrew and test ROMs routinely leave it blank or garbled.
func logoMatches(rom []byte) bool {
	for i, want := range nintendoLogo {
		if rom[0x0104+i] != want {
			return false
		}
	}
	return true
}

func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}
	_ = logoMatches(rom) // informational only; never blocks parsing

	title := strings.TrimRight(string(rom[0x0134:0x0144]), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	h.ROMSizeBytes, h.ROMBanks = romSizeTable.lookup(h.ROMSizeCode)
	h.RAMSizeBytes = ramSizeTable[h.RAMSizeCode]
	h.CartTypeStr = mapperFamily(h.CartType)

	return h, nil
}

func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte = 0
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

// romSize pairs a ROM size code's total byte count with its bank count.
type romSize struct {
	bytes, banks int
}

// romSizeEntries maps the 0x0148 ROM-size code to its decoded size, per the
// Pan Docs cartridge header table.
var romSizeEntries = map[byte]romSize{
	0x00: {32 * 1024, 2},
	0x01: {64 * 1024, 4},
	0x02: {128 * 1024, 8},
	0x03: {256 * 1024, 16},
	0x04: {512 * 1024, 32},
	0x05: {1 * 1024 * 1024, 64},
	0x06: {2 * 1024 * 1024, 128},
	0x07: {4 * 1024 * 1024, 256},
	0x08: {8 * 1024 * 1024, 512},
	0x52: {1152 * 1024, 72},
	0x53: {1280 * 1024, 80},
	0x54: {1536 * 1024, 96},
}

var romSizeTable = romSizeLookup{}

type romSizeLookup struct{}

func (romSizeLookup) lookup(code byte) (size, banks int) {
	if e, ok := romSizeEntries[code]; ok {
		return e.bytes, e.banks
	}
	return 0, 0
}

// ramSizeTable maps the 0x0149 RAM-size code to total external RAM bytes.
var ramSizeTable = map[byte]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// mapperRanges groups cartridge-type byte codes by the MBC family they select.
var mapperRanges = []struct {
	lo, hi byte
	name   string
}{
	{0x00, 0x00, "ROM ONLY"},
	{0x01, 0x03, "MBC1 (variants)"},
	{0x05, 0x06, "MBC2 (variants)"},
	{0x0F, 0x13, "MBC3 (variants)"},
	{0x19, 0x1E, "MBC5 (variants)"},
}

func mapperFamily(code byte) string {
	for _, r := range mapperRanges {
		if code >= r.lo && code <= r.hi {
			return r.name
		}
	}
	return "Other/unknown"
}
