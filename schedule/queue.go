/*
LICENSE
  Copyright (C) 2026 the Playout project.

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package schedule

import "container/heap"

// Queue is a stable min-heap of clip instances ordered by (StartAt,
// Priority, Seq) ascending — earliest start first, then strongest
// priority, then insertion order. The Seq tie-break guarantees
// deterministic draining regardless of push order, per §9's design note.
type Queue struct {
	items pqItems
}

// NewQueue returns an empty, ready-to-use Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

// Push inserts an instance into the queue.
func (q *Queue) Push(c *ClipInstance) {
	heap.Push(&q.items, c)
}

// Pop removes and returns the queue's least element, or nil if empty.
func (q *Queue) Pop() *ClipInstance {
	if q.items.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*ClipInstance)
}

// Len reports the number of pending instances.
func (q *Queue) Len() int {
	return q.items.Len()
}

type pqItems []*ClipInstance

func (p pqItems) Len() int { return len(p) }

func (p pqItems) Less(i, j int) bool {
	a, b := p[i], p[j]
	if !a.StartAt.Equal(b.StartAt) {
		return a.StartAt.Before(b.StartAt)
	}
	if a.Priority() != b.Priority() {
		return a.Priority() < b.Priority()
	}
	return a.Seq < b.Seq
}

func (p pqItems) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p *pqItems) Push(x interface{}) {
	*p = append(*p, x.(*ClipInstance))
}

func (p *pqItems) Pop() interface{} {
	old := *p
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*p = old[:n-1]
	return item
}
