package render

import (
	"slices"
)

// Queue collects draws for one frame and executes them in priority order.
// Draws with equal priority run in submission order.
type Queue struct {
	dev     Device
	items   []queued
	cleared bool
}

type queued struct {
	priority int
	draw     Drawable
	state    StateBlock

	clearStencil bool
	clearValue   uint32
}

// NewQueue creates an empty queue that executes on dev.
func NewQueue(dev Device) *Queue {
	return &Queue{dev: dev}
}

// Device returns the device the queue executes on.
func (q *Queue) Device() Device {
	return q.dev
}

// Submit records a draw in the given priority bin.
func (q *Queue) Submit(priority int, d Drawable, s StateBlock) {
	q.items = append(q.items, queued{priority: priority, draw: d, state: s})
}

// ClearStencil records a stencil clear in the given bin. Only the first
// clear of a frame is kept.
func (q *Queue) ClearStencil(priority int, value uint32) {
	if q.cleared {
		return
	}
	q.cleared = true
	q.items = append(q.items, queued{priority: priority, clearStencil: true, clearValue: value})
}

// Len returns the number of recorded commands.
func (q *Queue) Len() int {
	return len(q.items)
}

// Priorities returns the bin of every recorded command in execution order.
func (q *Queue) Priorities() []int {
	items := q.sorted()
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.priority
	}
	return out
}

func (q *Queue) sorted() []queued {
	items := slices.Clone(q.items)
	slices.SortStableFunc(items, func(a, b queued) int {
		return a.priority - b.priority
	})
	return items
}

// Execute runs every recorded command on the device and resets the queue
// for the next frame.
func (q *Queue) Execute() {
	for _, it := range q.sorted() {
		if it.clearStencil {
			q.dev.ClearStencil(it.clearValue)
			continue
		}
		q.dev.Draw(it.draw, it.state)
	}
	q.items = q.items[:0]
	q.cleared = false
}
