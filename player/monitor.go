package player

import (
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/viterin/vek/vek32"
	"github.com/vsariola/polysynth"
)

type (
	// Monitor receives reports from the clock in its own goroutine, keeps the
	// latest status for whoever wants to display it, and does the logging the
	// audio thread is not allowed to do.
	Monitor struct {
		broker      *Broker
		logInterval time.Duration

		mu      sync.Mutex
		status  Status
		lastLog time.Time
		started bool
	}

	// MsgToMonitor is the message sent from the clock to the monitor.
	MsgToMonitor struct {
		HasStatus bool
		Status    Status

		HasAlert bool
		Alert    Alert

		Levels *AudioBuffer // borrowed from the broker, returned by the monitor
	}

	// Status is a snapshot of the synth.
	Status struct {
		Voices    int
		Waveform  polysynth.Waveform
		PatchName string
		Volume    float64
		Muted     bool
		Overruns  uint64  // buffers that took longer to render than to play
		Rejected  uint64  // key-downs ignored because all voices were in use
		Stolen    uint64  // voices released to make room for a new one
		Faults    uint64  // voices released because they produced NaN or infinity
		Dropped   uint64  // commands lost to a full queue
		CPULoad   float64 // render time of the last buffer relative to its duration
		Levels    Levels
	}

	// Levels of the left and right channel of the last buffer. Mono output
	// has the same levels in both.
	Levels struct {
		RMS  [2]float32
		Peak [2]float32
	}

	Alert struct {
		Name     string
		Priority AlertPriority
		Message  string
	}

	AlertPriority int
)

const (
	None AlertPriority = iota
	Info
	Warning
	Error
)

const DefaultLogInterval = 5 * time.Second

func NewMonitor(broker *Broker, logInterval time.Duration) *Monitor {
	return &Monitor{broker: broker, logInterval: logInterval}
}

// Run processes messages until CloseMonitor receives a value, then handles
// what is left in the queue and closes FinishedMonitor.
func (m *Monitor) Run() {
	for {
		select {
		case msg := <-m.broker.ToMonitor:
			m.handle(msg)
		case <-m.broker.CloseMonitor:
			m.drain()
			close(m.broker.FinishedMonitor)
			return
		}
	}
}

func (m *Monitor) drain() {
	for {
		select {
		case msg := <-m.broker.ToMonitor:
			m.handle(msg)
		default:
			return
		}
	}
}

// Status returns the latest status received from the clock.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) handle(msg MsgToMonitor) {
	if msg.HasAlert {
		logAlert(msg.Alert)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.Levels != nil {
		m.status.Levels = measureLevels(msg.Levels)
		m.broker.PutAudioBuffer(msg.Levels)
	}
	if !msg.HasStatus {
		return
	}
	prev := m.status
	levels := m.status.Levels
	m.status = msg.Status
	m.status.Levels = levels
	if !m.started {
		m.started = true
		glog.Infof("playing %q with %s, volume %.1f", m.status.PatchName, m.status.Waveform.DisplayName(), m.status.Volume)
		return
	}
	if prev.Waveform != m.status.Waveform {
		glog.Infof("waveform: %s", m.status.Waveform.DisplayName())
	}
	if prev.PatchName != m.status.PatchName {
		glog.Infof("patch: %q", m.status.PatchName)
	}
	if prev.Volume != m.status.Volume {
		glog.V(1).Infof("volume: %.1f", m.status.Volume)
	}
	if prev.Muted != m.status.Muted {
		glog.V(1).Infof("muted: %v", m.status.Muted)
	}
	if m.status.Faults > prev.Faults {
		glog.Warningf("%d voices stopped, their output was not a finite number", m.status.Faults-prev.Faults)
	}
	if m.status.Dropped > prev.Dropped {
		glog.Warningf("%d commands dropped, the command queue is full", m.status.Dropped-prev.Dropped)
	}
	if now := time.Now(); m.logInterval > 0 && now.Sub(m.lastLog) >= m.logInterval {
		m.lastLog = now
		s := m.status
		glog.V(1).Infof("voices %d, load %.0f%%, overruns %d, rejected %d, stolen %d, rms %.3f/%.3f, peak %.3f/%.3f",
			s.Voices, s.CPULoad*100, s.Overruns, s.Rejected, s.Stolen,
			s.Levels.RMS[0], s.Levels.RMS[1], s.Levels.Peak[0], s.Levels.Peak[1])
	}
}

func logAlert(a Alert) {
	switch a.Priority {
	case Error:
		glog.Errorf("%s: %s", a.Name, a.Message)
	case Warning:
		glog.Warningf("%s: %s", a.Name, a.Message)
	default:
		glog.Infof("%s: %s", a.Name, a.Message)
	}
}

func measureLevels(buf *AudioBuffer) (ret Levels) {
	if buf.Len == 0 || len(buf.Frame) == 0 {
		return
	}
	for i := range ret.RMS {
		row := buf.Frame[min(i, len(buf.Frame)-1)][:buf.Len]
		ret.RMS[i] = float32(math.Sqrt(float64(vek32.Dot(row, row) / float32(len(row)))))
		ret.Peak[i] = max(vek32.Max(row), -vek32.Min(row))
	}
	return
}
