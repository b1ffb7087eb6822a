package emu

import "testing"

// newTestROM builds a minimal ROM-only cartridge: an infinite JR loop at
// 0x0100 so StepFrame has something to execute without ever finishing.
func newTestROM() []byte {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x18 // JR -2 (jump to self)
	rom[0x0101] = 0xFE
	rom[0x0147] = 0x00 // cart type: ROM only
	rom[0x0148] = 0x00 // 32KB
	rom[0x0149] = 0x00 // no RAM
	return rom
}

func TestMachine_LoadAndStepFrame(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(), nil); err != nil {
		t.Fatalf("load cartridge: %v", err)
	}
	m.StepFrame()

	fb := m.Framebuffer()
	if len(fb) != 160*144*4 {
		t.Fatalf("framebuffer size = %d, want %d", len(fb), 160*144*4)
	}
}

func TestMachine_SetButtonsNoPanic(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(), nil); err != nil {
		t.Fatalf("load cartridge: %v", err)
	}
	m.SetButtons(Buttons{A: true, Up: true})
	m.StepFrame()
}

func TestMachine_SaveLoadStateRoundTrip(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(), nil); err != nil {
		t.Fatalf("load cartridge: %v", err)
	}
	m.StepFrame()

	path := t.TempDir() + "/state.sav"
	if err := m.SaveStateToFile(path); err != nil {
		t.Fatalf("save state: %v", err)
	}

	m2 := New(Config{})
	if err := m2.LoadCartridge(newTestROM(), nil); err != nil {
		t.Fatalf("load cartridge: %v", err)
	}
	if err := m2.LoadStateFromFile(path); err != nil {
		t.Fatalf("load state: %v", err)
	}
}

func TestMachine_BatteryRAMNoneForROMOnly(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(newTestROM(), nil); err != nil {
		t.Fatalf("load cartridge: %v", err)
	}
	if _, ok := m.SaveBattery(); ok {
		t.Fatalf("ROM-only cartridge should report no battery RAM")
	}
}
