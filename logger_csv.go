package quadsim

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVLogger streams snapshots as rows to a csv.Writer: one header row, one
// row per snapshot, motor PWMs and the gyro/battery fields as columns.
// Mirrors the teacher's orbital-elements CSV export (header line, then one
// row per state) without needing a full CgCatalog-style side file.
type CSVLogger struct {
	w            *csv.Writer
	simulationID string
	wroteHeader  bool
}

// NewCSVLogger wraps w in a csv.Writer. The header row is written lazily on
// the first Log call so SetSimulationID may still be called beforehand.
func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{w: csv.NewWriter(w)}
}

func (l *CSVLogger) SetSimulationID(id string) {
	l.simulationID = id
}

var csvHeader = []string{
	"simulation_id", "elapsed_time",
	"pwm_0", "pwm_1", "pwm_2", "pwm_3",
	"battery_sag_v", "battery_open_v", "battery_amperage_a", "battery_mah_drawn",
	"gyro_qw", "gyro_qx", "gyro_qy", "gyro_qz",
	"accel_x", "accel_y", "accel_z",
	"angvel_x", "angvel_y", "angvel_z",
	"throttle", "roll", "pitch", "yaw",
}

// Log writes one row. It does not flush; call Flush to force the underlying
// writer's buffer out.
func (l *CSVLogger) Log(s Snapshot) error {
	if !l.wroteHeader {
		if err := l.w.Write(csvHeader); err != nil {
			return fmt.Errorf("quadsim: csv logger header: %w", err)
		}
		l.wroteHeader = true
	}
	row := []string{
		l.simulationID,
		formatFloat(s.ElapsedTime),
		formatFloat(s.MotorPWMs[0]), formatFloat(s.MotorPWMs[1]), formatFloat(s.MotorPWMs[2]), formatFloat(s.MotorPWMs[3]),
		formatFloat(s.Battery.SagVoltage), formatFloat(s.Battery.OpenVoltage), formatFloat(s.Battery.AmperageA), formatFloat(s.Battery.MAhDrawn),
		formatFloat(s.Gyro.Rotation[3]), formatFloat(s.Gyro.Rotation[0]), formatFloat(s.Gyro.Rotation[1]), formatFloat(s.Gyro.Rotation[2]),
		formatFloat(s.Gyro.LinearAccel[0]), formatFloat(s.Gyro.LinearAccel[1]), formatFloat(s.Gyro.LinearAccel[2]),
		formatFloat(s.Gyro.AngularVelocity[0]), formatFloat(s.Gyro.AngularVelocity[1]), formatFloat(s.Gyro.AngularVelocity[2]),
		formatFloat(s.Channels.Throttle), formatFloat(s.Channels.Roll), formatFloat(s.Channels.Pitch), formatFloat(s.Channels.Yaw),
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("quadsim: csv logger row: %w", err)
	}
	return nil
}

func (l *CSVLogger) Flush() error {
	l.w.Flush()
	return l.w.Error()
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.9g", f)
}
