// Package viewport maps simulation space to screen space and animates the
// camera between views.
package viewport

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Scale limits applied at every mutation site.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// Transform is the affine camera map: screen = sim*Scale + (PanX, PanY).
type Transform struct {
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
	Scale float64 `json:"scale"`
}

// ClampScale bounds k to [MinScale, MaxScale].
func ClampScale(k float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, k))
}

// Pan returns the translation as a vector
func (t Transform) Pan() r2.Vec {
	return r2.Vec{X: t.PanX, Y: t.PanY}
}

// ToScreen maps a simulation point to screen coordinates.
func (t Transform) ToScreen(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(t.Scale, p), t.Pan())
}

// ToSim maps a screen point back into simulation space.
func (t Transform) ToSim(p r2.Vec) r2.Vec {
	if t.Scale == 0 {
		return r2.Sub(p, t.Pan())
	}
	return r2.Scale(1/t.Scale, r2.Sub(p, t.Pan()))
}

// Centering returns the transform at scale k that puts p at the center of a
// width x height viewport.
func Centering(p r2.Vec, k, width, height float64) Transform {
	return Transform{
		PanX:  width/2 - p.X*k,
		PanY:  height/2 - p.Y*k,
		Scale: k,
	}
}

// Lerp interpolates every field linearly; u is not clamped.
func Lerp(from, to Transform, u float64) Transform {
	return Transform{
		PanX:  from.PanX + (to.PanX-from.PanX)*u,
		PanY:  from.PanY + (to.PanY-from.PanY)*u,
		Scale: from.Scale + (to.Scale-from.Scale)*u,
	}
}

// EaseOutCubic is 1-(1-t)^3 with t clamped to [0, 1].
func EaseOutCubic(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	inv := 1 - t
	return 1 - inv*inv*inv
}

// valid reports whether every field is a finite number.
func (t Transform) valid() bool {
	for _, v := range []float64{t.PanX, t.PanY, t.Scale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
