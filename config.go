package quadsim

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"quadsim/dynamics"
)

// DroneConfig is the loadable/savable document form of everything needed to
// construct a Drone: the four component models' parameters plus an initial
// SimulationFrame (SPEC_FULL.md §3a, §4.12). It round-trips losslessly
// through Save/LoadDroneConfig.
type DroneConfig struct {
	Battery      BatteryConfig   `yaml:"battery"`
	Rotor        RotorConfig     `yaml:"rotor"`
	Drone        DroneBodyConfig `yaml:"drone"`
	GyroCutoffHz float64         `yaml:"gyro_cutoff_hz"`

	Initial InitialFrameConfig `yaml:"initial"`
}

// BatteryConfig mirrors BatteryModel, with the voltage curve expanded to its
// point list for serialisation.
type BatteryConfig struct {
	NominalCapacityMAh float64       `yaml:"nominal_capacity_mah"`
	VoltageCurve       []SamplePoint `yaml:"voltage_curve"`
	CellCount          int           `yaml:"cell_count"`
	ChargedCapacityMAh float64       `yaml:"charged_capacity_mah"`
	MaxSagV            float64       `yaml:"max_sag_v"`
}

// RotorConfig mirrors RotorModel, shared by all four rotors.
type RotorConfig struct {
	MaxRPM            float64    `yaml:"max_rpm"`
	KV                float64    `yaml:"kv"`
	Resistance        float64    `yaml:"resistance"`
	IdleCurrentA      float64    `yaml:"idle_current_a"`
	ThrustCoeffs      [3]float64 `yaml:"thrust_coeffs"`
	TorqueCoefficient float64    `yaml:"torque_coefficient"`
	ACoefficient      float64    `yaml:"a_coefficient"`
	Inertia           float64    `yaml:"inertia"`
}

// DroneBodyConfig mirrors the rigid-body DroneModel. The inverse inertia
// tensor is stored row-major, 9 entries.
type DroneBodyConfig struct {
	FrameDragArea     [3]float64 `yaml:"frame_drag_area"`
	FrameDragConstant float64    `yaml:"frame_drag_constant"`
	Mass              float64    `yaml:"mass"`
	InvTensor         [9]float64 `yaml:"inv_tensor"`
}

// InitialFrameConfig is the starting SimulationFrame, flattened for YAML.
type InitialFrameConfig struct {
	Position           [3]float64    `yaml:"position"`
	Rotation           [9]float64    `yaml:"rotation"`
	LinearVelocity     [3]float64    `yaml:"linear_velocity"`
	AngularVelocity    [3]float64    `yaml:"angular_velocity"`
	RotorPositions     [4][3]float64 `yaml:"rotor_positions"`
	SpinDirections     [4]float64    `yaml:"spin_directions"`
	BatteryCapacityMAh float64       `yaml:"battery_capacity_mah"`
}

// LoadDroneConfig reads a YAML-encoded DroneConfig. Malformed YAML is
// surfaced as an error, never a panic (SPEC_FULL.md §7).
func LoadDroneConfig(r io.Reader) (*DroneConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("quadsim: reading drone config: %w", err)
	}
	var cfg DroneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("quadsim: parsing drone config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as a YAML document to w.
func (cfg *DroneConfig) Save(w io.Writer) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("quadsim: encoding drone config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Validate checks the invariants construction depends on: at least two
// voltage-curve points, positive drone mass, positive rotor inertia. The
// curve's discharge ordering is checked by NewSampleCurve in NewDrone, not
// here. Together they cover SPEC_FULL.md §7's "Configuration invalid" row.
func (cfg *DroneConfig) Validate() error {
	if len(cfg.Battery.VoltageCurve) < 2 {
		return fmt.Errorf("quadsim: drone config: battery voltage curve needs at least two points")
	}
	if cfg.Drone.Mass <= 0 {
		return fmt.Errorf("quadsim: drone config: drone mass must be positive, got %v", cfg.Drone.Mass)
	}
	if cfg.Rotor.Inertia <= 0 {
		return fmt.Errorf("quadsim: drone config: rotor inertia must be positive, got %v", cfg.Rotor.Inertia)
	}
	return nil
}

// NewDrone constructs a Drone from a validated DroneConfig and a PRNG seed.
// Construction fails without partial mutation exactly on cfg.Validate's
// conditions or a malformed voltage curve (SPEC_FULL.md §4.12).
func NewDrone(cfg *DroneConfig, seed uint64) (*Drone, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	curve, err := NewSampleCurve(cfg.Battery.VoltageCurve)
	if err != nil {
		return nil, fmt.Errorf("quadsim: drone config: %w", err)
	}

	battery := BatteryModel{
		NominalCapacityMAh: cfg.Battery.NominalCapacityMAh,
		VoltageCurve:       curve,
		CellCount:          cfg.Battery.CellCount,
		ChargedCapacityMAh: cfg.Battery.ChargedCapacityMAh,
		MaxSagV:            cfg.Battery.MaxSagV,
	}
	rotors := RotorModel{
		MaxRPM:            cfg.Rotor.MaxRPM,
		KV:                cfg.Rotor.KV,
		Resistance:        cfg.Rotor.Resistance,
		IdleCurrentA:      cfg.Rotor.IdleCurrentA,
		ThrustCoeffs:      cfg.Rotor.ThrustCoeffs,
		TorqueCoefficient: cfg.Rotor.TorqueCoefficient,
		ACoefficient:      cfg.Rotor.ACoefficient,
		Inertia:           cfg.Rotor.Inertia,
	}
	body := DroneModel{
		FrameDragArea:     Vec3{cfg.Drone.FrameDragArea[0], cfg.Drone.FrameDragArea[1], cfg.Drone.FrameDragArea[2]},
		FrameDragConstant: cfg.Drone.FrameDragConstant,
		Mass:              cfg.Drone.Mass,
		InvTensor:         dynamics.Matrix3(cfg.Drone.InvTensor),
	}
	gyro := GyroModel{CutoffHz: cfg.GyroCutoffHz}

	var rotorStates [4]RotorState
	for i := range rotorStates {
		p := cfg.Initial.RotorPositions[i]
		rotorStates[i] = RotorState{
			SpinDirection: cfg.Initial.SpinDirections[i],
			MotorPosition: Vec3{p[0], p[1], p[2]},
		}
	}
	initial := SimulationFrame{
		Battery: BatteryState{CapacityMAh: cfg.Initial.BatteryCapacityMAh},
		Rotors:  rotorStates,
		Drone: DroneFrameState{
			Position:        Vec3{cfg.Initial.Position[0], cfg.Initial.Position[1], cfg.Initial.Position[2]},
			Rotation:        dynamics.Matrix3(cfg.Initial.Rotation),
			LinearVelocity:  Vec3{cfg.Initial.LinearVelocity[0], cfg.Initial.LinearVelocity[1], cfg.Initial.LinearVelocity[2]},
			AngularVelocity: Vec3{cfg.Initial.AngularVelocity[0], cfg.Initial.AngularVelocity[1], cfg.Initial.AngularVelocity[2]},
		},
	}

	return newDroneFromModels(battery, rotors, body, gyro, initial, seed), nil
}

// ToConfig builds a DroneConfig document from a Drone's current state and
// models, the inverse of NewDrone (used by round-trip tests and any tool
// that wants to snapshot a running drone back to disk).
func (d *Drone) ToConfig() *DroneConfig {
	frame := d.current
	cfg := &DroneConfig{
		Battery: BatteryConfig{
			NominalCapacityMAh: d.battery.NominalCapacityMAh,
			VoltageCurve:       d.battery.VoltageCurve.Points(),
			CellCount:          d.battery.CellCount,
			ChargedCapacityMAh: d.battery.ChargedCapacityMAh,
			MaxSagV:            d.battery.MaxSagV,
		},
		Rotor: RotorConfig{
			MaxRPM:            d.rotors.MaxRPM,
			KV:                d.rotors.KV,
			Resistance:        d.rotors.Resistance,
			IdleCurrentA:      d.rotors.IdleCurrentA,
			ThrustCoeffs:      d.rotors.ThrustCoeffs,
			TorqueCoefficient: d.rotors.TorqueCoefficient,
			ACoefficient:      d.rotors.ACoefficient,
			Inertia:           d.rotors.Inertia,
		},
		Drone: DroneBodyConfig{
			FrameDragArea:     d.body.FrameDragArea.Array(),
			FrameDragConstant: d.body.FrameDragConstant,
			Mass:              d.body.Mass,
			InvTensor:         [9]float64(d.body.InvTensor),
		},
		GyroCutoffHz: d.gyro.CutoffHz,
		Initial: InitialFrameConfig{
			Position:           frame.Drone.Position.Array(),
			Rotation:           [9]float64(frame.Drone.Rotation),
			LinearVelocity:     frame.Drone.LinearVelocity.Array(),
			AngularVelocity:    frame.Drone.AngularVelocity.Array(),
			BatteryCapacityMAh: frame.Battery.CapacityMAh,
		},
	}
	for i, r := range frame.Rotors {
		cfg.Initial.RotorPositions[i] = r.MotorPosition.Array()
		cfg.Initial.SpinDirections[i] = r.SpinDirection
	}
	return cfg
}
