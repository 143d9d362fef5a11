package path

import "container/heap"

// frontier is a min-heap of arena indices ordered by f, then by h, then by
// the sequence number a node got when it was first opened. Among equal f the
// node nearer the goal leaves first, so open plateaus are crossed instead of
// swept; remaining ties leave in insertion order and the search stays
// deterministic.
type frontier struct {
	items []int
	nodes []node
}

func newFrontier(nodes []node) *frontier {
	q := &frontier{nodes: nodes}
	heap.Init(q)
	return q
}

func (q *frontier) Len() int { return len(q.items) }

func (q *frontier) Less(i, j int) bool {
	a, b := &q.nodes[q.items[i]], &q.nodes[q.items[j]]
	if fa, fb := a.f(), b.f(); fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (q *frontier) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.nodes[q.items[i]].heapIdx = i
	q.nodes[q.items[j]].heapIdx = j
}

func (q *frontier) Push(x any) {
	i := x.(int)
	q.nodes[i].heapIdx = len(q.items)
	q.items = append(q.items, i)
}

func (q *frontier) Pop() any {
	old := q.items
	n := len(old)
	i := old[n-1]
	q.items = old[:n-1]
	q.nodes[i].heapIdx = -1
	return i
}

// push opens node i.
func (q *frontier) push(i int) { heap.Push(q, i) }

// popMin removes and returns the open node with the lowest f.
func (q *frontier) popMin() int { return heap.Pop(q).(int) }

// fix restores heap order after node i's g improved.
func (q *frontier) fix(i int) { heap.Fix(q, q.nodes[i].heapIdx) }
