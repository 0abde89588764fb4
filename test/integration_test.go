//go:build integration

package test_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("VOICEREC_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "VOICEREC_TEST_BIN not set; build with: go build -o voicerec . && VOICEREC_TEST_BIN=$PWD/voicerec go test -tags integration ./test")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// writeToneWAV writes a 16 kHz mono PCM16 sine and returns its samples.
func writeToneWAV(t *testing.T, sampleRate int, durationS float64) (path string, pcm []byte) {
	t.Helper()
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i := 0; i < numSamples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(v))
	}

	path = filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path, buf[headerSize:]
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type run struct {
	logDir string
	root   string
	out    string
}

func runVoicerec(t *testing.T, stdin string, args ...string) run {
	t.Helper()
	r := run{logDir: t.TempDir(), root: t.TempDir()}
	cmdArgs := append([]string{"--logpath", r.logDir}, args...)
	if len(args) > 0 && args[0] == "record" {
		cmdArgs = append(cmdArgs, "--root", r.root)
	}

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "HOME="+cmd.Dir, "XDG_CONFIG_HOME="+cmd.Dir)

	out, err := cmd.CombinedOutput()
	r.out = string(out)
	if err != nil {
		t.Fatalf("voicerec exited with error: %v\noutput: %s", err, out)
	}
	return r
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func recordings(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.pcm"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestScriptedHold(t *testing.T) {
	wav, pcm := writeToneWAV(t, 16000, 0.5)
	r := runVoicerec(t, cmds("KEYDOWN", "WAIT_AUDIO_DONE", "KEYUP", "WAIT", "QUIT"),
		"record", "--fake", wav, "--script", "--prefix", "it", "--dir", "out")

	files := recordings(t, filepath.Join(r.root, "out"))
	if len(files) != 1 {
		t.Fatalf("expected 1 recording, got %d\noutput: %s", len(files), r.out)
	}
	if !strings.HasSuffix(files[0], "_it.pcm") {
		t.Errorf("unexpected name %s", files[0])
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, pcm) {
		t.Errorf("recording does not start with the replayed input (%d bytes)", len(data))
	}

	index := readLog(t, r.logDir, "recordings_log.txt")
	if !strings.Contains(index, files[0]) {
		t.Errorf("recordings_log.txt missing %s:\n%s", files[0], index)
	}
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, ev := range []string{"session_start", "session_end", "file_saved"} {
		if !strings.Contains(diag, ev) {
			t.Errorf("diagnostics_log.txt missing %s", ev)
		}
	}
}

func TestScriptedQuitWithoutRecording(t *testing.T) {
	wav, _ := writeToneWAV(t, 16000, 0.2)
	r := runVoicerec(t, cmds("QUIT"), "record", "--fake", wav, "--script")

	if files := recordings(t, filepath.Join(r.root, "voicerec", "record")); len(files) != 0 {
		t.Errorf("expected no recordings, got %v", files)
	}
	if index := readLog(t, r.logDir, "recordings_log.txt"); strings.TrimSpace(index) != "" {
		t.Errorf("recordings_log.txt not empty:\n%s", index)
	}
}

func TestContinuousDuration(t *testing.T) {
	wav, _ := writeToneWAV(t, 16000, 1.0)
	r := runVoicerec(t, "", "record", "--fake", wav, "--duration", "300ms")

	files := recordings(t, filepath.Join(r.root, "voicerec", "record"))
	if len(files) != 1 {
		t.Fatalf("expected 1 recording, got %d\noutput: %s", len(files), r.out)
	}
	if !strings.Contains(r.out, "saved ") {
		t.Errorf("no save line in output:\n%s", r.out)
	}
}

func TestParams(t *testing.T) {
	wav, _ := writeToneWAV(t, 16000, 0.1)
	r := runVoicerec(t, "", "params", "--fake", wav)
	for _, want := range []string{"sample_rate", "16000", "buffer_size", "1536", "effective"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("params output missing %q:\n%s", want, r.out)
		}
	}
}
