package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CustodyMetrics tracks custody command outcomes and the cross-program calls
// they make.
type CustodyMetrics struct {
	commands *prometheus.CounterVec
	cpi      *prometheus.CounterVec
}

var (
	custodyOnce     sync.Once
	custodyRegistry *CustodyMetrics
)

func Custody() *CustodyMetrics {
	custodyOnce.Do(func() {
		custodyRegistry = &CustodyMetrics{
			commands: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rooster_commands_total",
				Help: "Count of processed custody commands by command and outcome.",
			}, []string{"command", "outcome"}),
			cpi: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rooster_cpi_total",
				Help: "Count of cross-program invocations issued by the custody program.",
			}, []string{"program", "outcome"}),
		}
		prometheus.MustRegister(
			custodyRegistry.commands,
			custodyRegistry.cpi,
		)
	})
	return custodyRegistry
}

func (m *CustodyMetrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	if command == "" {
		command = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

func (m *CustodyMetrics) ObserveCPI(program, outcome string) {
	if m == nil {
		return
	}
	if program == "" {
		program = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.cpi.WithLabelValues(program, outcome).Inc()
}

// CommandCount returns the counter behind one command/outcome pair.
func (m *CustodyMetrics) CommandCount(command, outcome string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.commands.WithLabelValues(command, outcome)
}

// InitCommand creates the ok, rejected and failed series for command at zero.
func (m *CustodyMetrics) InitCommand(command string) {
	if m == nil {
		return
	}
	for _, outcome := range []string{"ok", "rejected", "failed"} {
		m.commands.WithLabelValues(command, outcome).Add(0)
	}
}
