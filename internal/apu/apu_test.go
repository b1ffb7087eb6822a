package apu

import "testing"

func TestNew_DefaultsToStereoUnmuted(t *testing.T) {
	a := New(48000)
	if a.CPURead(0xFF24) != 0x77 {
		t.Fatalf("NR50 default got %#02x want 0x77", a.CPURead(0xFF24))
	}
	if a.CPURead(0xFF25) != 0xFF {
		t.Fatalf("NR51 default got %#02x want 0xFF", a.CPURead(0xFF25))
	}
	if a.CPURead(0xFF26)&0x80 == 0 {
		t.Fatalf("power bit should be set on a fresh APU")
	}
}

func TestTriggerCh1_EnablesChannel(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0) // max volume, decreasing envelope: DAC on
	a.CPUWrite(0xFF11, 0x3F) // duty 0, length load = 63 -> length = 1
	a.CPUWrite(0xFF14, 0x80) // trigger, no length-enable

	if (a.CPURead(0xFF26) & (1 << 0)) == 0 {
		t.Fatalf("CH1 should report enabled in NR52 after trigger")
	}
}

func TestTriggerCh1_DACOffKeepsChannelDisabled(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0x00) // volume 0, decreasing: DAC off
	a.CPUWrite(0xFF14, 0x80) // trigger

	if (a.CPURead(0xFF26) & (1 << 0)) != 0 {
		t.Fatalf("CH1 must stay disabled when its DAC is off at trigger time")
	}
}

func TestSweepOverflow_DisablesCh1(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0) // DAC on
	a.CPUWrite(0xFF10, 0x11) // sweep period 1, shift 1, increase
	a.CPUWrite(0xFF13, 0x00) // freq lo = 0x400 & 0xFF
	a.CPUWrite(0xFF14, 0x84) // trigger, freq hi = (0x400>>8)&7 = 4

	if (a.CPURead(0xFF26) & (1 << 0)) == 0 {
		t.Fatalf("CH1 should be enabled right after trigger (shift doesn't overflow yet at freq 0x400)")
	}

	// One 128 Hz sweep clock compounds the shadow frequency enough to overflow past 2047.
	a.Tick(cpuHz / 128 * 2)

	if (a.CPURead(0xFF26) & (1 << 0)) != 0 {
		t.Fatalf("CH1 should have been disabled once its swept frequency overflowed past 2047")
	}
}

func TestWaveChannel_TriggerRequiresDAC(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF1A, 0x00) // DAC off
	a.CPUWrite(0xFF1E, 0x80) // trigger
	if (a.CPURead(0xFF26) & (1 << 2)) != 0 {
		t.Fatalf("CH3 must stay disabled when its DAC is off at trigger time")
	}

	a.CPUWrite(0xFF1A, 0x80) // DAC on
	a.CPUWrite(0xFF1E, 0x80) // trigger
	if (a.CPURead(0xFF26) & (1 << 2)) == 0 {
		t.Fatalf("CH3 should enable once its DAC is on and it is triggered")
	}
}

func TestNoiseChannel_TriggerReseedsLFSR(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF21, 0xF0) // max volume, decreasing: DAC on
	a.CPUWrite(0xFF23, 0x80) // trigger
	if (a.CPURead(0xFF26) & (1 << 3)) == 0 {
		t.Fatalf("CH4 should report enabled in NR52 after trigger")
	}
}

func TestTick_ProducesStereoSamples(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF11, 0x80) // duty 2
	a.CPUWrite(0xFF14, 0x87) // trigger, freq hi = 7

	a.Tick(cpuHz / 100) // a bit under a frame's worth of cycles

	if a.StereoAvailable() == 0 {
		t.Fatalf("expected Tick to have produced buffered stereo samples")
	}
	frames := a.PullStereo(4)
	if len(frames)%2 != 0 {
		t.Fatalf("PullStereo must return interleaved [L,R] pairs, got odd length %d", len(frames))
	}
}

func TestWaveRAM_ReadWriteRoundtrip(t *testing.T) {
	a := New(48000)
	for i := uint16(0xFF30); i <= 0xFF3F; i++ {
		a.CPUWrite(i, byte(i&0xFF))
	}
	for i := uint16(0xFF30); i <= 0xFF3F; i++ {
		if got := a.CPURead(i); got != byte(i&0xFF) {
			t.Fatalf("wave RAM at %#04x got %#02x want %#02x", i, got, byte(i&0xFF))
		}
	}
}

func TestPowerOff_ResetsRegisters(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF11, 0x3F)
	a.CPUWrite(0xFF24, 0x11)
	a.CPUWrite(0xFF26, 0x00) // power off

	if a.CPURead(0xFF24) != 0 {
		t.Fatalf("NR50 should reset to 0 on power-off, got %#02x", a.CPURead(0xFF24))
	}
	if a.CPURead(0xFF26)&0x80 != 0 {
		t.Fatalf("power bit should be clear after power-off")
	}
}

func TestSaveLoadState_RoundTripsChannelRegisters(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF11, 0x80)
	a.CPUWrite(0xFF14, 0x87)
	a.Tick(100)

	blob := a.SaveState()

	b := New(48000)
	b.LoadState(blob)

	if b.ch1.enabled != a.ch1.enabled || b.ch1.vol != a.ch1.vol || b.ch1.freq != a.ch1.freq {
		t.Fatalf("LoadState did not restore CH1 fields: got %+v want %+v", b.ch1, a.ch1)
	}
}
