package quadsim

import (
	"io"

	kitlog "github.com/go-kit/log"
)

// NewStatusLogger builds a logfmt status logger in the teacher's style
// (level/subsys keys, one line per event), scoped to a named simulation.
// This is bookkeeping only: nothing in the physics or scheduling loop reads
// it back, so a Simulator with no status logger attached behaves identically.
func NewStatusLogger(w io.Writer, simulationID string) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	return kitlog.With(l, "simulation", simulationID)
}

// batteryWarnFraction is the fraction of charged capacity remaining below
// which the scheduler emits a one-time "battery low" notice, mirroring the
// teacher's fuel-running-low status lines (SPEC_FULL.md §6a).
const batteryWarnFraction = 0.15

// SetStatusLog attaches a structured status logger to the Simulator. It is
// entirely optional and never gates the simulation loop.
func (s *Simulator) SetStatusLog(logger kitlog.Logger) {
	s.statusLog = logger
}

// warnIfBatteryLow emits one "battery low" notice the first time remaining
// capacity drops below batteryWarnFraction of the pack's charged capacity.
func (s *Simulator) warnIfBatteryLow() {
	if s.statusLog == nil || s.batteryWarned {
		return
	}
	charged := s.drone.battery.ChargedCapacityMAh
	if charged <= 0 {
		return
	}
	remaining := s.drone.current.Battery.CapacityMAh / charged
	if remaining < batteryWarnFraction {
		s.statusLog.Log("level", "notice", "subsys", "battery", "remaining_fraction", remaining, "sim_time", s.simTime)
		s.batteryWarned = true
	}
}
