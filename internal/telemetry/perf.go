package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Tick phases, in scheduler order.
const (
	PhaseRead      = "read"
	PhasePhysics   = "physics"
	PhaseProtocol  = "protocol"
	PhaseTelemetry = "telemetry"
)

var phases = []string{PhaseRead, PhasePhysics, PhaseProtocol, PhaseTelemetry}

type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector times ticks over a rolling window and counts ticks whose
// work overran the scheduler period.
type PerfCollector struct {
	windowSize    int
	period        time.Duration
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	ticks         int
	overruns      int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

func NewPerfCollector(windowSize int, period time.Duration) *PerfCollector {
	if windowSize < 1 {
		windowSize = 50
	}
	return &PerfCollector{
		windowSize:    windowSize,
		period:        period,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.record(PerfSample{TickDuration: now.Sub(p.tickStart), Phases: p.currentPhases})
}

func (p *PerfCollector) record(s PerfSample) {
	p.samples[p.writeIndex] = s
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.ticks++
	if p.period > 0 && s.TickDuration > p.period {
		p.overruns++
	}
}

type PerfStats struct {
	Ticks           int
	Overruns        int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	PhaseAvg        map[string]time.Duration
	PhasePct        map[string]float64
}

// Stats aggregates the current window. Ticks and Overruns cover the whole run.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Ticks:    p.ticks,
		Overruns: p.overruns,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		if s.TickDuration > stats.MaxTickDuration {
			stats.MaxTickDuration = s.TickDuration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	stats.AvgTickDuration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	return stats
}

func (s PerfStats) Log(log zerolog.Logger) {
	ev := log.Info().
		Int("ticks", s.Ticks).
		Int("overruns", s.Overruns).
		Int64("avg_tick_us", s.AvgTickDuration.Microseconds()).
		Int64("min_tick_us", s.MinTickDuration.Microseconds()).
		Int64("max_tick_us", s.MaxTickDuration.Microseconds())
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			ev = ev.Float64(phase+"_pct", float64(int(pct*10))/10)
		}
	}
	ev.Msg("perf")
}

// PerfStatsCSV is the flat CSV form of PerfStats.
type PerfStatsCSV struct {
	Ticks       int     `csv:"ticks"`
	Overruns    int     `csv:"overruns"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	ReadPct     float64 `csv:"read_pct"`
	PhysicsPct  float64 `csv:"physics_pct"`
	ProtocolPct float64 `csv:"protocol_pct"`
	TelemPct    float64 `csv:"telemetry_pct"`
}

func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Ticks:       s.Ticks,
		Overruns:    s.Overruns,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		MinTickUS:   s.MinTickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		ReadPct:     s.PhasePct[PhaseRead],
		PhysicsPct:  s.PhasePct[PhasePhysics],
		ProtocolPct: s.PhasePct[PhaseProtocol],
		TelemPct:    s.PhasePct[PhaseTelemetry],
	}
}
