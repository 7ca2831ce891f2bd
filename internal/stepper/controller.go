package stepper

import "math"

// piController adapts the step size from the ratio of estimated local
// error to tolerance, with proportional-integral feedback on the error
// history (Söderlind 2002). Exponents suit the error estimate from
// step doubling.
type piController struct {
	kI       float64
	kP       float64
	safety   float64
	minScale float64
	maxScale float64
	prevErr  float64
}

func newPIController() piController {
	return piController{
		kI:       0.175,
		kP:       0.2,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (c *piController) reset() { c.prevErr = -1 }

// decide accepts or rejects a trial with error estimate errEst against
// cfg.Tol, returning the next step size either way. Rejection halves
// at least; acceptance grows by a bounded factor.
func (c *piController) decide(h, errEst float64, cfg Config) (bool, float64) {
	if errEst > cfg.Tol {
		return false, math.Max(h/2*math.Min(1, math.Pow(cfg.Tol/errEst, c.kI)), cfg.MinStep/2)
	}

	var scale float64
	if errEst <= 0 {
		scale = c.maxScale
	} else {
		scale = c.safety * math.Pow(cfg.Tol/errEst, c.kI)
		if c.prevErr > 0 {
			scale *= math.Pow(c.prevErr/errEst, c.kP)
		}
		scale = math.Min(c.maxScale, math.Max(c.minScale, scale))
	}
	c.prevErr = errEst

	hNext := h * scale
	if hNext > cfg.MaxStep {
		hNext = cfg.MaxStep
	}
	return true, hNext
}
