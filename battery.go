package quadsim

import "math"

// BatteryModel holds the parameters shared by the battery across every
// substep: discharge curve, pack geometry, and sag characteristics. It has
// no mutable state of its own — all state lives in BatteryState.
type BatteryModel struct {
	NominalCapacityMAh float64      // capacity the discharge curve is defined against
	VoltageCurve       *SampleCurve // open-circuit voltage vs. (1 - charge fraction)
	CellCount          int
	ChargedCapacityMAh float64 // capacity when fully charged
	MaxSagV            float64
}

// setNewState implements frameComponent. See SPEC_FULL.md §4.3.
func (m *BatteryModel) setNewState(current, next *SimulationFrame, dt float64, rng *prng) {
	state := current.Battery

	charge := state.CapacityMAh / m.NominalCapacityMAh
	openVoltage := math.Max(m.VoltageCurve.Sample(1-charge)*float64(m.CellCount), 0.1)

	var pwmSum float64
	for _, r := range current.Rotors {
		pwmSum += r.PWM
	}
	pwmAvg := pwmSum / 4
	powerFactorSq := math.Pow(math.Max(0, pwmAvg), 2)

	depletion := 1 - state.CapacityMAh/math.Max(m.ChargedCapacityMAh, 1)

	vSag := m.MaxSagV*powerFactorSq + m.MaxSagV*depletion*depletion*powerFactorSq
	sagVoltage := clamp(openVoltage-vSag-rng.floatRange(-0.01, 0.01), 0, 100)

	iMin := math.Min(0.2, rng.floatRange(-0.125, 0.375)) / math.Max(sagVoltage, 0.01)
	var currentSum float64
	for _, r := range current.Rotors {
		currentSum += r.CurrentA
	}
	currentMAs := math.Max(currentSum/3.6, iMin)

	capacity := state.CapacityMAh - currentMAs*dt

	next.Battery = BatteryState{
		CapacityMAh: capacity,
		OpenVoltage: openVoltage,
		SagVoltage:  sagVoltage,
		AmperageA:   currentMAs * 3.6,
		MAhDrawn:    m.ChargedCapacityMAh - capacity,
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
