package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/vsariola/polysynth"
	"github.com/vsariola/polysynth/config"
	"github.com/vsariola/polysynth/headless"
	"github.com/vsariola/polysynth/oto"
	"github.com/vsariola/polysynth/player"
	"github.com/vsariola/polysynth/portaudio"
	"github.com/vsariola/polysynth/synth"
	"github.com/vsariola/polysynth/version"
)

var (
	configFile  = flag.String("config", "", "read configuration from `file` (.yml, .yaml or .toml)")
	backend     = flag.String("backend", "", "audio backend: oto, portaudio or headless (overrides the config)")
	waveform    = flag.String("waveform", "", "initial waveform: sine, saw, square, triangle or noise (overrides the config)")
	transpose   = flag.Int("transpose", 0, "shift the keyboard by `semitones`, e.g. -12 for one octave down")
	versionFlag = flag.Bool("version", false, "print version and exit")
)

const shutdownTimeout = time.Second

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("failed to load config: %v", err)
	}
	if err := run(cfg); err != nil {
		glog.Exitf("failed to run: %v", err)
	}
	glog.Flush()
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return cfg, err
		}
	} else {
		c, exists, err := config.LoadUser()
		if err != nil {
			return c, err
		}
		if exists {
			glog.Infof("using user config")
		}
		cfg = c
	}
	if *backend != "" {
		cfg.Backend = config.Backend(*backend)
	}
	if *waveform != "" {
		w, err := polysynth.ParseWaveform(*waveform)
		if err != nil {
			return cfg, err
		}
		cfg.Patch.Waveform = w
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	pool, err := synth.NewPool(synth.PoolOptions{
		SampleRate: float64(cfg.SampleRate),
		MaxVoices:  cfg.MaxVoices,
		MaxChain:   cfg.MaxChain,
		Steal:      cfg.StealPolicy,
		Patch:      cfg.Patch,
	})
	if err != nil {
		return err
	}
	mixer := synth.NewMixer(cfg.MixMode)
	mixer.SetVolume(cfg.Volume)
	broker := player.NewBroker(player.BrokerOptions{
		QueueSize:  cfg.QueueSize,
		Overflow:   cfg.QueueOverflow,
		Channels:   cfg.Channels,
		BufferSize: cfg.BufferSize,
	})
	scope := player.NewScope(cfg.Channels, cfg.ScopeLength)
	clock := player.NewClock(broker, pool, mixer, scope, float64(cfg.SampleRate), cfg.BufferSize)
	monitor := player.NewMonitor(broker, player.DefaultLogInterval)
	go monitor.Run()
	defer func() {
		player.TrySend(broker.CloseMonitor, struct{}{})
		player.TimeoutReceive(broker.FinishedMonitor, shutdownTimeout)
	}()

	audioContext, err := newAudioContext(cfg)
	if err != nil {
		return err
	}
	defer audioContext.Close()
	output, err := audioContext.Play(clock.Process)
	if err != nil {
		return err
	}
	glog.Infof("polysynth %s: %s backend, %d Hz, %d samples per buffer", version.VersionOrHash, cfg.Backend, cfg.SampleRate, cfg.BufferSize)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			broker.RequestShutdown()
		}
	}()

	layout := polysynth.DefaultLayout().Transpose(*transpose)
	var src player.EventSource = idleSource{}
	if t, restore, err := openTerminal(layout); err == nil {
		fmt.Print("keys a-' play notes (press again to stop), b: waveform, +/-: volume, m: mute, space: release all, esc: quit\r\n")
		defer restore()
		src = t
	} else {
		glog.Infof("no keyboard input (%v); stop with SIGINT", err)
	}
	inputErr := player.RunInput(src, layout, broker)

	// let the clock finish the buffer it is rendering before the device stops
	player.TimeoutReceive(broker.FinishedClock, shutdownTimeout)
	if err := output.Close(); err != nil {
		glog.Warningf("closing audio output: %v", err)
	}
	return inputErr
}

func newAudioContext(cfg config.Config) (polysynth.AudioContext, error) {
	switch cfg.Backend {
	case config.BackendPortAudio:
		return portaudio.NewContext(cfg.SampleRate, cfg.Channels, cfg.BufferSize)
	case config.BackendHeadless:
		return headless.NewContext(cfg.SampleRate, cfg.Channels, cfg.BufferSize, nil)
	default:
		format := oto.Float32
		if cfg.SampleFormat == config.Int16 {
			format = oto.Int16
		}
		return oto.NewContext(oto.Options{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			BufferSize: cfg.BufferSize,
			Format:     format,
		})
	}
}
