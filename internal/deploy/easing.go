package deploy

import (
	"fmt"
	"math"
)

// EasingFunc maps linear local progress in [0,1] onto eased progress in [0,1].
type EasingFunc func(t float64) float64

const (
	EasingSmoothstep = "smoothstep"
	EasingLinear     = "linear"
)

// Smoothstep is the cubic ease t²(3−2t).
func Smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// Linear returns t unchanged.
func Linear(t float64) float64 {
	return t
}

func lookupEasing(name string) (EasingFunc, error) {
	switch name {
	case "", EasingSmoothstep:
		return Smoothstep, nil
	case EasingLinear:
		return Linear, nil
	default:
		return nil, fmt.Errorf("schedule: unknown easing %q", name)
	}
}

// Clamp01 clamps v into [0,1]. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
