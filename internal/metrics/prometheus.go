package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "tictactoe"

// Recorder counts game events. A nil *Recorder ignores every call.
type Recorder struct {
	moves          *prom.CounterVec
	outcomes       *prom.CounterVec
	sessions       prom.Counter
	staleComputer  prom.Counter
	activeSessions prom.Gauge
}

func NewRecorder(reg prom.Registerer) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{
		moves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Accepted moves by mark and player kind",
		}, []string{"mark", "player"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by outcome",
		}, []string{"outcome"}),
		sessions: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started",
		}),
		staleComputer: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "computer_moves_dropped_total",
			Help:      "Scheduled computer moves dropped because the game moved on",
		}),
		activeSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open websocket connections",
		}),
	}

	reg.MustRegister(r.moves, r.outcomes, r.sessions, r.staleComputer, r.activeSessions)

	return r
}

func (r *Recorder) IncMove(mark string, computer bool) {
	if r == nil {
		return
	}
	player := "human"
	if computer {
		player = "computer"
	}
	r.moves.WithLabelValues(mark, player).Inc()
}

// IncOutcome takes the winning mark or "draw".
func (r *Recorder) IncOutcome(outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) IncSession() {
	if r == nil {
		return
	}
	r.sessions.Inc()
}

func (r *Recorder) IncDroppedComputerMove() {
	if r == nil {
		return
	}
	r.staleComputer.Inc()
}

func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.activeSessions.Inc()
}

func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.activeSessions.Dec()
}
