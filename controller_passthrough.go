package quadsim

// PassThroughController returns a fixed PWM vector on every tick, ignoring
// channels and sensor feedback entirely. It is the zero-config default and
// drives the end-to-end scenarios that assert exact physics behaviour
// (SPEC_FULL.md §4.10, §8).
type PassThroughController struct {
	PWMs  MotorPWMs
	DtFC  float64
}

// NewPassThroughController returns a controller that always commands pwms,
// ticking every dtFC seconds. PWMs defaults to DefaultMotorPWMs if the zero
// value is passed.
func NewPassThroughController(pwms MotorPWMs, dtFC float64) *PassThroughController {
	if pwms == (MotorPWMs{}) {
		pwms = DefaultMotorPWMs
	}
	return &PassThroughController{PWMs: pwms, DtFC: dtFC}
}

func (c *PassThroughController) Init() {}

func (c *PassThroughController) Update(dtFCSeconds float64, input ControllerInput) (MotorPWMs, error) {
	return c.PWMs, nil
}

func (c *PassThroughController) SchedulerDelta() float64 {
	return c.DtFC
}
