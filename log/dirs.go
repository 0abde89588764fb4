package log

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultDir is the per-OS log location used when neither the flag nor
// VOICEREC_LOG_PATH name one.
func defaultDir() (string, error) {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "voicerec", "logs"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "voicerec", "logs"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "voicerec"), nil
	}
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "voicerec", "logs"), nil
}
