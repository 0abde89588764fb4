package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	diagFileName       = "diagnostics_log.txt"
	recordingsFileName = "recordings_log.txt"
)

var (
	diagLog        zerolog.Logger
	diagWriter     *lumberjack.Logger
	recordingsFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: VOICEREC_LOG_PATH environment variable
	if envPath := os.Getenv("VOICEREC_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return defaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	recordingsFile, err = os.OpenFile(filepath.Join(dir, recordingsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	diagWriter = &lumberjack.Logger{
		Filename:   filepath.Join(dir, diagFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagWriter,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagWriter != nil {
		diagWriter.Close()
		diagWriter = nil
	}
	if recordingsFile != nil {
		recordingsFile.Close()
		recordingsFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

type SessionParams struct {
	Source     int
	SampleRate int
	Channels   int
	BitDepth   int
	BufferSize int
	Device     string
}

func SessionStart(id string, p SessionParams) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Int("source", p.Source).
		Int("rate", p.SampleRate).
		Int("channels", p.Channels).
		Int("bits", p.BitDepth).
		Int("buffer", p.BufferSize).
		Str("device", p.Device).
		Msg("session_start")
}

func SessionEnd(id string, chunks int, bytes int64, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Warn().Err(err)
	}
	ev.Str("session", id).
		Int("chunks", chunks).
		Int64("bytes", bytes).
		Msg("session_end")
}

// FileSaved records a finished recording in the diagnostics log and appends
// it to the recordings index.
func FileSaved(path string, bytes int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("path", path).
		Int("bytes", bytes).
		Msg("file_saved")

	logMu.Lock()
	defer logMu.Unlock()
	if recordingsFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%d\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, bytes, path)
	recordingsFile.WriteString(line)
}
