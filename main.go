package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voicerec/audio"
	"voicerec/beep"
	"voicerec/config"
	"voicerec/doctor"
	"voicerec/hotkey"
	"voicerec/log"
	"voicerec/record"
	"voicerec/shutdown"
)

var version = "dev"

var (
	cfgFile string
	logPath string
	cfg     *config.Config
)

type recordOptions struct {
	device    string
	setup     bool
	prefix    string
	duration  time.Duration
	ptt       bool
	hybrid    bool
	longPress time.Duration
	tui       bool
	beep      bool
	fake      string
	script    bool
	root      string
	dir       string
}

var recOpts recordOptions

var rootCmd = &cobra.Command{
	Use:           "voicerec",
	Short:         "Capture raw PCM from a microphone to disk",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return setupLogDir()
	},
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the capture device",
	Long: `Record raw headerless PCM to <root>/<dir>/<Y-M-D-h-m-s>_<prefix>.pcm.

Without --ptt or --hybrid one file is recorded until interrupted or until
--duration elapses. With --ptt a file is recorded while ` + hotkey.Combo + ` is held;
--hybrid additionally lets a short tap toggle recording on and off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecord(cmd.Context(), cmd, &recOpts)
	},
}

var fakeFlag string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, _, err := openAudio(fakeFlag)
		if err != nil {
			return err
		}
		defer actx.Close()
		devices, err := actx.Devices()
		if err != nil {
			return err
		}
		for i, d := range devices {
			mark := ""
			if audio.IsBluetooth(d.Name) {
				mark = " (bluetooth)"
			}
			fmt.Printf("%d. %s%s\n", i+1, d.Name, mark)
		}
		return nil
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective capture parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printParams(fakeFlag)
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Pick a capture device and save it to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, _, err := openAudio(fakeFlag)
		if err != nil {
			return err
		}
		defer actx.Close()
		dev, err := audio.SelectDevice(actx)
		if err != nil {
			return err
		}
		if dev == nil {
			return nil
		}
		cfg.Device = dev.Name
		path, err := config.SaveTo(cfg, cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %q to %s\n", dev.Name, path)
		return nil
	},
}

var doctorSkipHotkey bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run interactive system diagnostics",
	Run: func(cmd *cobra.Command, args []string) {
		initLogging()
		code := doctor.Run(doctor.Options{Config: cfg, Fake: fakeFlag, SkipHotkey: doctorSkipHotkey})
		log.Close()
		os.Exit(code)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voicerec %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/voicerec/voicerec.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")

	f := recordCmd.Flags()
	f.StringVar(&recOpts.device, "device", "", "use named capture device")
	f.BoolVar(&recOpts.setup, "setup", false, "select the capture device interactively")
	f.StringVar(&recOpts.prefix, "prefix", "", "file name prefix (default from config)")
	f.DurationVar(&recOpts.duration, "duration", 0, "stop after this long (0 = until interrupted)")
	f.BoolVar(&recOpts.ptt, "ptt", false, "record while "+hotkey.Combo+" is held")
	f.BoolVar(&recOpts.hybrid, "hybrid", false, "tap to toggle, hold to talk")
	f.DurationVar(&recOpts.longPress, "longpress", 350*time.Millisecond, "hold threshold for --hybrid")
	f.BoolVar(&recOpts.tui, "tui", false, "show the terminal status view")
	f.BoolVar(&recOpts.beep, "beep", false, "play a cue when recording starts and stops")
	f.StringVar(&recOpts.fake, "fake", "", "replay this WAV file instead of a microphone")
	f.BoolVar(&recOpts.script, "script", false, "with --fake, read KEYDOWN/KEYUP/WAIT/QUIT commands from stdin")
	f.StringVar(&recOpts.root, "root", "", "storage root (default: home directory)")
	f.StringVar(&recOpts.dir, "dir", "", "subdirectory under the root")

	for _, c := range []*cobra.Command{devicesCmd, paramsCmd, setupCmd, doctorCmd} {
		c.Flags().StringVar(&fakeFlag, "fake", "", "use a fake capture device replaying this WAV file")
	}
	doctorCmd.Flags().BoolVar(&doctorSkipHotkey, "skip-hotkey", false, "skip the hotkey check")

	rootCmd.AddCommand(recordCmd, devicesCmd, paramsCmd, setupCmd, doctorCmd, versionCmd)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogDir resolves the log directory and sends runtime crash output to
// crash_log.txt inside it.
func setupLogDir() error {
	flagPath := logPath
	if flagPath == "" {
		flagPath = cfg.LogPath
	}
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return nil
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
	return nil
}

func initLogging() {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

func openAudio(fakePath string) (audio.Context, *audio.FakeContext, error) {
	if fakePath != "" {
		fake, err := audio.NewFakeContext(fakePath, true)
		if err != nil {
			return nil, nil, fmt.Errorf("loading WAV: %w", err)
		}
		return fake, fake, nil
	}
	actx, err := audio.NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing audio: %w", err)
	}
	return actx, nil, nil
}

func resolveDevice(actx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		return audio.FindDevice(actx, name)
	}
	if setup {
		dev, err := audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\nFalling back to default device\n", err)
			return nil, nil
		}
		return dev, nil
	}
	return nil, nil
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func (o *recordOptions) validate() error {
	if o.script && o.fake == "" {
		return errors.New("--script needs --fake")
	}
	if o.script && (o.tui || o.ptt || o.hybrid) {
		return errors.New("--script cannot be combined with --tui, --ptt or --hybrid")
	}
	if o.ptt && o.hybrid {
		return errors.New("--ptt and --hybrid are exclusive")
	}
	return nil
}

func (o *recordOptions) applyTo(c *config.Config, cmd *cobra.Command) {
	if o.prefix != "" {
		c.Prefix = o.prefix
	}
	if o.root != "" {
		c.Root = o.root
	}
	if o.dir != "" {
		c.RecordDir = o.dir
	}
	if cmd.Flags().Changed("device") {
		c.Device = o.device
	}
}

func runRecord(parent context.Context, cmd *cobra.Command, o *recordOptions) error {
	if err := o.validate(); err != nil {
		return err
	}
	o.applyTo(cfg, cmd)

	initLogging()
	defer log.Close()
	if o.beep {
		beep.Enable()
	}

	actx, fake, err := openAudio(o.fake)
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		return err
	}
	defer actx.Close()

	device, err := resolveDevice(actx, cfg.Device, o.setup && cfg.Device == "")
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := shutdown.Context(parent)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var sink EventSink = newLineSink(os.Stdout)
	var prog *tea.Program
	if o.tui {
		prog, sink = NewTUIProgram(o.mode())
	}

	sess, err := newSession(actx, cfg, device, sink)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if prog != nil {
		g.Go(func() error {
			defer cancel()
			if _, err := prog.Run(); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		})
	}
	sink.DeviceLine(deviceLineText(device))

	g.Go(func() error {
		if prog != nil {
			defer prog.Quit()
		}
		switch {
		case o.script:
			return runScript(gctx, sess, fake, os.Stdin)
		case o.ptt, o.hybrid:
			hk := hotkey.New()
			if err := hk.Register(); err != nil {
				log.Errorf("hotkey register error: %v", err)
				return fmt.Errorf("registering hotkey: %w", err)
			}
			defer hk.Unregister()
			if o.hybrid {
				return runHybrid(gctx, sess, hk, o.longPress)
			}
			return runHold(gctx, sess, hk)
		default:
			return runContinuous(gctx, sess, o.duration)
		}
	})

	err = g.Wait()
	if serr := sess.shutdown(); serr != nil {
		log.Errorf("writer shutdown: %v", serr)
		if err == nil {
			err = serr
		}
	}
	return err
}

func (o *recordOptions) mode() string {
	switch {
	case o.hybrid:
		return hotkey.Combo + " tap or hold to record"
	case o.ptt:
		return "hold " + hotkey.Combo + " to record"
	}
	return "recording until ctrl+c"
}

func printParams(fakePath string) error {
	rec := record.New(nil, nil)
	if err := cfg.Apply(rec); err != nil {
		return err
	}
	for _, k := range record.Keys {
		fmt.Printf("%-13s %d\n", k.String(), rec.Param(k))
	}

	rc := rec.Config()
	actx, _, err := openAudio(fakePath)
	if err != nil {
		fmt.Printf("%-13s unavailable (%v)\n", "min_buffer", err)
		return nil
	}
	defer actx.Close()
	minSize, err := actx.MinBufferSize(rc.SampleRate, rc.Layout, rc.Encoding)
	if err != nil || minSize < 0 {
		fmt.Printf("%-13s rejected by the platform\n", "min_buffer")
		return nil
	}
	fmt.Printf("%-13s %d\n", "min_buffer", minSize)
	fmt.Printf("%-13s %d\n", "effective", max(rc.BufferSize, minSize))
	return nil
}
