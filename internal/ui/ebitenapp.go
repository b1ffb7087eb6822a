package ui

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/noll-dmg/gbcore/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App is a minimal ebiten.Game: each Update steps the Machine as many frames
// as wall-clock time calls for at the DMG rate (at most 10), draws the
// framebuffer scaled to the window, and streams APU PCM through an ebiten
// audio.Player.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image

	paused bool
	fast   bool // fast-forward while Tab is held

	audioMuted bool
	audioCtx   *audio.Context
	audioPlayer *audio.Player
	audioSrc    *apuStream

	lastTime time.Time
	frameAcc float64 // accumulated fractional frames, for 59.7275Hz pacing
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	a := &App{cfg: cfg, m: m, tex: ebiten.NewImage(160, 144)}
	a.lastTime = time.Now()
	a.audioCtx = audio.NewContext(48000)
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

// SaveSettings is kept as a no-op so cmd/gbemu's best-effort call succeeds;
// this minimal UI has no on-disk settings beyond the CLI flags it was built with.
func (a *App) SaveSettings() {}

func (a *App) ensureAudioPlayer() {
	if a.audioPlayer != nil || a.m == nil {
		return
	}
	a.audioMuted = true
	a.audioSrc = &apuStream{m: a.m, mono: !a.cfg.AudioStereo, muted: &a.audioMuted, lowLatency: a.cfg.AudioLowLatency}
	p, err := a.audioCtx.NewPlayer(a.audioSrc)
	if err != nil {
		return
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.audioPlayer.Play()
}

func (a *App) readButtons() emu.Buttons {
	return emu.Buttons{
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
	}
}

func (a *App) Update() error {
	a.ensureAudioPlayer()

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && a.paused && a.m != nil {
		a.m.StepFrame()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		_ = a.saveScreenshot()
	}

	prevFast := a.fast
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if prevFast != a.fast {
		a.applyPlayerBufferSize()
	}

	if a.m == nil {
		return nil
	}
	a.m.SetButtons(a.readButtons())

	if a.paused {
		a.lastTime = time.Now()
		a.frameAcc = 0
		return nil
	}

	// Pace at ~59.7275Hz (4194304/70224) independent of Ebiten's own tick rate.
	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	a.lastTime = now
	const gbFPS = 4194304.0 / 70224.0
	speed := 1.0
	if a.fast {
		speed = 4.0
	}
	a.frameAcc += dt * gbFPS * speed
	steps := 0
	for a.frameAcc >= 1.0 && steps < 10 { // cap to avoid a spiral of death after a stall
		a.m.StepFrame()
		a.frameAcc -= 1.0
		steps++
	}

	if a.audioMuted && a.m.APUBufferedStereo() > 1024 {
		a.audioMuted = false
	}
	return nil
}

// applyPlayerBufferSize keeps the ebiten audio player's internal buffer small
// during fast-forward or low-latency mode, larger otherwise.
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	bufMs := a.cfg.AudioBufferMs
	if a.cfg.AudioLowLatency || a.fast {
		bufMs = 20
	}
	a.audioPlayer.SetBufferSize(time.Duration(bufMs) * time.Millisecond)
}

// apuStream implements io.Reader by pulling PCM samples from the emulator
// APU and converting them to 16-bit little-endian stereo frames.
type apuStream struct {
	m          *emu.Machine
	mono       bool
	muted      *bool
	lowLatency bool
	underruns  int
}

func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) == 0 || s == nil || s.m == nil {
		return 0, nil
	}
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	if s.muted != nil && *s.muted {
		for i := range p {
			p[i] = 0
		}
		time.Sleep(5 * time.Millisecond)
		return len(p), nil
	}

	maxReq := len(p) / 4
	capFrames := 2048
	if s.lowLatency {
		capFrames = 1024
	}
	if maxReq > capFrames {
		maxReq = capFrames
	}

	waitDur := 15 * time.Millisecond
	if s.lowLatency {
		waitDur = 8 * time.Millisecond
	}
	deadline := time.Now().Add(waitDur)
	want := maxReq
	if buf := s.m.APUBufferedStereo(); buf > 0 {
		if buf < want {
			want = buf
		}
	} else {
		for time.Now().Before(deadline) {
			if b := s.m.APUBufferedStereo(); b > 0 {
				want = b
				if want > maxReq {
					want = maxReq
				}
				break
			}
			time.Sleep(1 * time.Millisecond)
		}
	}
	if want <= 0 {
		silenceFrames := 256
		if silenceFrames > maxReq {
			silenceFrames = maxReq
		}
		for i := 0; i < silenceFrames*4 && i+3 < len(p); i += 4 {
			binary.LittleEndian.PutUint16(p[i:], 0)
			binary.LittleEndian.PutUint16(p[i+2:], 0)
		}
		s.underruns++
		return silenceFrames * 4, nil
	}

	pulled := 0
	i := 0
	for pulled < want {
		frames := s.m.APUPullStereo(want - pulled)
		if len(frames) == 0 {
			break
		}
		for j := 0; j+1 < len(frames) && i+3 < len(p); j += 2 {
			l := frames[j]
			r := frames[j+1]
			if s.mono {
				mixed := int16((int32(l) + int32(r)) / 2)
				binary.LittleEndian.PutUint16(p[i:], uint16(mixed))
				binary.LittleEndian.PutUint16(p[i+2:], uint16(mixed))
			} else {
				binary.LittleEndian.PutUint16(p[i:], uint16(l))
				binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
			}
			i += 4
			pulled++
		}
	}
	if pulled == 0 {
		silenceFrames := 128
		if silenceFrames > maxReq {
			silenceFrames = maxReq
		}
		for k := 0; k < silenceFrames*4 && k+3 < len(p); k += 4 {
			binary.LittleEndian.PutUint16(p[k:], 0)
			binary.LittleEndian.PutUint16(p[k+2:], 0)
		}
		s.underruns++
		return silenceFrames * 4, nil
	}
	return pulled * 4, nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.m == nil {
		return
	}
	a.tex.WritePixels(a.m.Framebuffer())

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(sw)/160, float64(sh)/144)
	screen.DrawImage(a.tex, opts)

	if a.paused {
		ebitenutil.DebugPrint(screen, "PAUSED")
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (a *App) saveScreenshot() error {
	fb := a.m.Framebuffer()
	img := &image.RGBA{
		Pix:    make([]byte, len(fb)),
		Stride: 4 * 160,
		Rect:   image.Rect(0, 0, 160, 144),
	}
	copy(img.Pix, fb)
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
