// Package schedule describes delayed actions as data.
package schedule

import (
	"sort"
	"time"
)

// Task is an action to run once Delay has elapsed after it was scheduled.
type Task struct {
	Name   string
	Delay  time.Duration
	Action func()
}

// Run invokes the task action if there is one.
func (t Task) Run() {
	if t.Action != nil {
		t.Action()
	}
}

type pending struct {
	task Task
	due  time.Duration
	seq  int
}

// Timeline runs tasks against simulated time.
type Timeline struct {
	now     time.Duration
	seq     int
	pending []pending
}

// Now returns the simulated time elapsed since the timeline was created.
func (tl *Timeline) Now() time.Duration {
	return tl.now
}

// Schedule queues tasks relative to the current simulated time.
func (tl *Timeline) Schedule(tasks ...Task) {
	for _, task := range tasks {
		tl.pending = append(tl.pending, pending{task: task, due: tl.now + task.Delay, seq: tl.seq})
		tl.seq++
	}
}

// Pending returns the names of queued tasks in due order.
func (tl *Timeline) Pending() []string {
	tl.sort()
	names := make([]string, 0, len(tl.pending))
	for _, p := range tl.pending {
		names = append(names, p.task.Name)
	}
	return names
}

// Advance moves simulated time forward by d and runs every task that falls
// due, in due order. Tasks scheduled by a running action are eligible in the
// same call. It returns the names of tasks that ran.
func (tl *Timeline) Advance(d time.Duration) []string {
	target := tl.now + d
	var ran []string
	for {
		tl.sort()
		if len(tl.pending) == 0 || tl.pending[0].due > target {
			break
		}
		next := tl.pending[0]
		tl.pending = tl.pending[1:]
		tl.now = next.due
		next.task.Run()
		ran = append(ran, next.task.Name)
	}
	tl.now = target
	return ran
}

func (tl *Timeline) sort() {
	sort.SliceStable(tl.pending, func(i, j int) bool {
		if tl.pending[i].due != tl.pending[j].due {
			return tl.pending[i].due < tl.pending[j].due
		}
		return tl.pending[i].seq < tl.pending[j].seq
	})
}
