package quadsim

// MemoryLogger appends every Snapshot to an in-process FlightLog. Flush is a
// no-op: there is nothing to drain. Used by tests and the replay round-trip
// scenario, where the logged snapshots are fed straight back into a Replayer.
type MemoryLogger struct {
	log FlightLog
}

// NewMemoryLogger returns an empty MemoryLogger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(s Snapshot) error {
	l.log.Snapshots = append(l.log.Snapshots, s)
	return nil
}

func (l *MemoryLogger) Flush() error {
	return nil
}

func (l *MemoryLogger) SetSimulationID(id string) {
	l.log.SimulationID = id
}

// FlightLog returns a copy of the snapshots logged so far.
func (l *MemoryLogger) FlightLog() FlightLog {
	cp := make([]Snapshot, len(l.log.Snapshots))
	copy(cp, l.log.Snapshots)
	return FlightLog{SimulationID: l.log.SimulationID, Snapshots: cp}
}
