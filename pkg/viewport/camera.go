package viewport

import (
	"math"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/scheduler"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// FlightTask is the scheduler name of the fly-to animation.
const FlightTask = "camera.fly"

// Settings tune the camera's programmatic moves.
type Settings struct {
	FlyDuration      time.Duration `yaml:"fly_duration"`
	ZoomStep         float64       `yaml:"zoom_step"`
	WheelSensitivity float64       `yaml:"wheel_sensitivity"`
	// FocusScale is the minimum scale a fly-to ends at
	FocusScale float64 `yaml:"focus_scale"`
	// NarrowWidth is the widest viewport that still starts at NarrowScale
	NarrowWidth float64 `yaml:"narrow_width"`
	NarrowScale float64 `yaml:"narrow_scale"`
	WideScale   float64 `yaml:"wide_scale"`
}

// DefaultSettings returns the stock camera settings.
func DefaultSettings() Settings {
	return Settings{
		FlyDuration:      time.Second,
		ZoomStep:         1.2,
		WheelSensitivity: 0.001,
		FocusScale:       1.5,
		NarrowWidth:      768,
		NarrowScale:      0.45,
		WideScale:        0.7,
	}
}

// Camera owns the viewport transform. Every explicit mutation cancels an
// in-flight fly-to, leaving the transform where the animation had got to.
type Camera struct {
	settings Settings
	logger   *zap.Logger
	sched    *scheduler.Scheduler

	t             Transform
	width, height float64
	flight        *scheduler.Handle
	dest          Transform
}

// NewCamera creates a camera whose animations run on sched.
func NewCamera(sched *scheduler.Scheduler, settings Settings, logger *zap.Logger) *Camera {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Camera{
		settings: settings,
		logger:   logger,
		sched:    sched,
		t:        Transform{Scale: 1},
	}
}

// Settings returns the camera settings
func (c *Camera) Settings() Settings {
	return c.settings
}

// Transform returns the current transform
func (c *Camera) Transform() Transform {
	return c.t
}

// Scale returns the current zoom factor
func (c *Camera) Scale() float64 {
	return c.t.Scale
}

// Size returns the viewport size in screen units
func (c *Camera) Size() (width, height float64) {
	return c.width, c.height
}

// Resize records a new viewport size without moving the camera.
func (c *Camera) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Initial returns the starting transform for the current viewport: the
// simulation origin at screen center, zoomed out further on narrow screens.
func (c *Camera) Initial() Transform {
	k := c.settings.WideScale
	if c.width <= c.settings.NarrowWidth {
		k = c.settings.NarrowScale
	}
	return Transform{PanX: c.width / 2, PanY: c.height / 2, Scale: ClampScale(k)}
}

// Reset cancels any animation and applies Initial.
func (c *Camera) Reset() {
	c.Cancel()
	c.t = c.Initial()
}

// SetTransform replaces the transform, clamping its scale.
func (c *Camera) SetTransform(t Transform) {
	c.Cancel()
	t.Scale = ClampScale(t.Scale)
	c.t = t
}

// ZoomBy multiplies the scale by factor. It does not recenter: the pan is
// left alone, so the zoom pivots on the simulation origin's screen position.
func (c *Camera) ZoomBy(factor float64) {
	c.Cancel()
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	c.t.Scale = ClampScale(c.t.Scale * factor)
}

// ZoomIn zooms by the configured step
func (c *Camera) ZoomIn() {
	c.ZoomBy(c.settings.ZoomStep)
}

// ZoomOut zooms by the inverse of the configured step
func (c *Camera) ZoomOut() {
	c.ZoomBy(1 / c.settings.ZoomStep)
}

// Wheel applies a scroll delta; positive deltaY zooms out.
func (c *Camera) Wheel(deltaY float64) {
	c.Cancel()
	c.t.Scale = ClampScale(c.t.Scale - deltaY*c.settings.WheelSensitivity)
}

// PanBy shifts the view by a screen-space delta. There are no bounds.
func (c *Camera) PanBy(dx, dy float64) {
	c.Cancel()
	c.t.PanX += dx
	c.t.PanY += dy
}

// Animating reports whether a fly-to is in flight
func (c *Camera) Animating() bool {
	return c.flight.Running()
}

// Cancel stops an in-flight fly-to where it is.
func (c *Camera) Cancel() {
	if c.flight != nil {
		c.flight.Stop()
		c.flight = nil
	}
}

// FlyTo animates toward centering target using the configured duration.
func (c *Camera) FlyTo(target r2.Vec) {
	c.FlyToDuration(target, c.settings.FlyDuration)
}

// FlyToDuration animates toward a transform that centers target at
// max(current scale, FocusScale). The animation clock starts on the first
// frame it runs.
func (c *Camera) FlyToDuration(target r2.Vec, d time.Duration) {
	c.Cancel()

	k := ClampScale(math.Max(c.t.Scale, c.settings.FocusScale))
	f := &flight{
		camera:   c,
		from:     c.t,
		to:       Centering(target, k, c.width, c.height),
		duration: d,
	}
	c.logger.Debug("fly-to started",
		zap.Float64("x", target.X),
		zap.Float64("y", target.Y),
		zap.Float64("scale", k),
		zap.Duration("duration", d))
	c.dest = f.to
	c.flight = c.sched.Start(FlightTask, f)
}

// Target returns the destination of the in-flight animation.
func (c *Camera) Target() (Transform, bool) {
	if !c.Animating() {
		return Transform{}, false
	}
	return c.dest, true
}

type flight struct {
	camera   *Camera
	from, to Transform
	duration time.Duration
	start    time.Time
	started  bool
}

func (f *flight) Tick(now time.Time) bool {
	if !f.started {
		f.start = now
		f.started = true
	}

	t := 1.0
	if f.duration > 0 {
		t = float64(now.Sub(f.start)) / float64(f.duration)
	}
	t = math.Max(0, math.Min(1, t))

	next := Lerp(f.from, f.to, EaseOutCubic(t))
	next.Scale = ClampScale(next.Scale)
	f.camera.t = next

	if t >= 1 {
		f.camera.flight = nil
		return false
	}
	return true
}
