package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voicerec/audio"
	"voicerec/config"
	"voicerec/hotkey"
	"voicerec/record"
	"voicerec/store"
)

const captureSeconds = 3

type Options struct {
	Config *config.Config
	// Fake replays this WAV file instead of opening a microphone.
	Fake string
	// SkipHotkey skips the interactive hotkey check.
	SkipHotkey bool
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("voicerec doctor - interactive system diagnostics")
	fmt.Println("================================================")

	allPass := true

	if !opts.SkipHotkey && !checkHotkey() {
		allPass = false
	}
	if allPass && !checkStorage(opts.Config) {
		allPass = false
	}
	if allPass && !checkCapture(opts) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[1/3] Hotkey detection")
	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)
	fmt.Printf("Press %s...\n", hotkey.Combo)

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// the key events may leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkStorage(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[2/3] Recording directory")

	root := cfg.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Printf("  FAIL: no home directory: %v\n", err)
			return false
		}
		root = home
	}
	dir := filepath.Join(root, cfg.RecordDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("  FAIL: cannot create %s: %v\n", dir, err)
		return false
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		fmt.Printf("  FAIL: %s is not writable: %v\n", dir, err)
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	fmt.Printf("  PASS: %s is writable\n", dir)
	return true
}

func checkCapture(opts Options) bool {
	fmt.Println()
	fmt.Println("[3/3] Microphone capture and persistence")

	actx, err := openContext(opts.Fake)
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device, ok := pickDevice(actx)
	if !ok {
		return false
	}

	tmp, err := os.MkdirTemp("", "voicerec-doctor-")
	if err != nil {
		fmt.Printf("  FAIL: temp dir: %v\n", err)
		return false
	}
	defer os.RemoveAll(tmp)

	fmt.Println()
	fmt.Printf("Press Enter and speak for %d seconds...", captureSeconds)
	bufio.NewReader(os.Stdin).ReadString('\n')

	res, err := captureOnce(actx, opts.Config, device, tmp, captureSeconds*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  Captured %d chunks, %.1f KB, peak level %.3f\n", res.chunks, float64(res.bytes)/1024, res.peak)
	if res.saved != res.bytes {
		fmt.Printf("  FAIL: saved %d bytes, captured %d\n", res.saved, res.bytes)
		return false
	}
	if res.peak < 0.01 {
		fmt.Println("  WARN: the signal is near silent, check the input volume")
	}
	fmt.Println("  PASS: capture and persistence round trip")
	return true
}

func openContext(fake string) (audio.Context, error) {
	if fake != "" {
		return audio.NewFakeContext(fake, true)
	}
	return audio.NewContext()
}

func pickDevice(actx audio.Context) (*audio.DeviceInfo, bool) {
	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return nil, false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return nil, false
	}
	if len(devices) == 1 {
		fmt.Printf("Using device: %s\n", devices[0].Name)
		return &devices[0], true
	}

	fmt.Println()
	fmt.Println("Select input device:")
	for i, d := range devices {
		fmt.Printf("  %d. %s\n", i+1, d.Name)
	}
	fmt.Printf("Choice [1-%d]: ", len(devices))

	choice, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	choice = strings.TrimSpace(choice)
	idx := 0
	if choice != "" {
		fmt.Sscanf(choice, "%d", &idx)
		idx--
	}
	if idx < 0 || idx >= len(devices) {
		fmt.Println("  FAIL: invalid choice")
		return nil, false
	}
	fmt.Printf("Selected: %s\n", devices[idx].Name)
	if audio.IsBluetooth(devices[idx].Name) {
		fmt.Println("  Note: bluetooth headsets usually capture at 8 or 16 kHz")
	}
	return &devices[idx], true
}

type captureResult struct {
	chunks int
	bytes  int
	saved  int
	peak   float64
}

// captureOnce records for d through a Recorder into a Writer rooted at dir
// and reports what was captured against what reached disk.
func captureOnce(actx audio.Context, cfg *config.Config, device *audio.DeviceInfo, dir string, d time.Duration) (captureResult, error) {
	var (
		mu        sync.Mutex
		res       captureResult
		createErr bool
	)
	w := store.New(store.Config{
		Root:       dir,
		Dir:        "doctor",
		CloseDelay: cfg.CloseDelay,
		OnSaved: func(_ string, n int) {
			mu.Lock()
			res.saved = n
			mu.Unlock()
		},
	})

	rec := record.New(actx, record.Funcs{
		Data: func(data []byte, n int) {
			w.Append(data[:n])
			level := audio.Level(data[:n])
			mu.Lock()
			res.chunks++
			res.bytes += n
			res.peak = max(res.peak, level)
			mu.Unlock()
		},
		CreateError: func() {
			mu.Lock()
			createErr = true
			mu.Unlock()
		},
	})
	if err := cfg.Apply(rec); err != nil {
		return res, err
	}
	recCfg := rec.Config()
	recCfg.Device = device
	rec.SetConfig(recCfg)

	w.Open("doctor")
	rec.Start()
	fmt.Print("  Recording")
	deadline := time.After(d)
	ticker := time.NewTicker(500 * time.Millisecond)
loop:
	for {
		select {
		case <-ticker.C:
			fmt.Print(".")
		case <-deadline:
			break loop
		case <-rec.Done():
			break loop
		}
	}
	ticker.Stop()
	rec.Stop()
	<-rec.Done()
	fmt.Println(" done")
	w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		return res, fmt.Errorf("writer did not drain: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if createErr {
		return res, fmt.Errorf("could not open the capture device: %w", rec.Err())
	}
	if err := rec.Err(); err != nil {
		return res, fmt.Errorf("capture aborted: %w", err)
	}
	if res.bytes == 0 {
		return res, fmt.Errorf("no audio captured")
	}
	return res, nil
}
