// Package scheduler runs per-frame tasks cooperatively.
//
// A Scheduler has no clock of its own: the owner calls Frame(now) once per
// display refresh (or once per test step), and every live task runs in the
// order it was started. A task ends when its Tick returns false or when its
// Handle is stopped, so cancellation never depends on a refresh signal.
package scheduler

import "time"

// Task is a unit of per-frame work.
type Task interface {
	// Tick runs one frame. Returning false finishes the task.
	Tick(now time.Time) bool
}

// TaskFunc adapts a function to Task
type TaskFunc func(now time.Time) bool

// Tick implements Task
func (f TaskFunc) Tick(now time.Time) bool {
	return f(now)
}

// Handle controls one started task.
type Handle struct {
	name    string
	task    Task
	running bool
}

// Name returns the task name
func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Running reports whether the task will run on the next frame
func (h *Handle) Running() bool {
	return h != nil && h.running
}

// Stop cancels the task. It is safe to call more than once, on a nil
// handle, or from inside the task's own Tick.
func (h *Handle) Stop() {
	if h != nil {
		h.running = false
	}
}

// Scheduler owns the live tasks. It is not safe for concurrent use.
type Scheduler struct {
	tasks  []*Handle
	frames uint64
	last   time.Time
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{}
}

// Start registers a task to run from the next frame on.
func (s *Scheduler) Start(name string, task Task) *Handle {
	h := &Handle{name: name, task: task, running: true}
	s.tasks = append(s.tasks, h)
	return h
}

// Frame runs every live task once, in start order, then drops the ones that
// finished or were stopped. Tasks started during a frame run next frame.
func (s *Scheduler) Frame(now time.Time) {
	s.frames++
	s.last = now

	current := len(s.tasks)
	for i := 0; i < current; i++ {
		h := s.tasks[i]
		if !h.running {
			continue
		}
		if !h.task.Tick(now) {
			h.running = false
		}
	}

	live := s.tasks[:0]
	for _, h := range s.tasks {
		if h.running {
			live = append(live, h)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}

// Running reports whether a task with this name is live.
func (s *Scheduler) Running(name string) bool {
	for _, h := range s.tasks {
		if h.running && h.name == name {
			return true
		}
	}
	return false
}

// Len returns the number of live tasks
func (s *Scheduler) Len() int {
	n := 0
	for _, h := range s.tasks {
		if h.running {
			n++
		}
	}
	return n
}

// Frames returns how many frames have run
func (s *Scheduler) Frames() uint64 {
	return s.frames
}

// LastFrame returns the timestamp passed to the latest Frame
func (s *Scheduler) LastFrame() time.Time {
	return s.last
}

// StopAll cancels every task
func (s *Scheduler) StopAll() {
	for _, h := range s.tasks {
		h.running = false
	}
	s.tasks = nil
}
