// Implements the WaitQueue, which holds packets waiting for a service slot at a node.
// Packets are enqueued on arrival when every slot is busy.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue represents a FIFO queue of packet pool indices waiting to be served.
// The queue never grows past the node's QueueCapacity; admission enforces that bound.
type WaitQueue struct {
	queue []int // FIFO queue of pool indices
}

// Enqueue adds a packet to the back of the wait queue.
func (wq *WaitQueue) Enqueue(packet int) {
	wq.queue = append(wq.queue, packet)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of packets in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the packet at the front of the queue without removing it.
// Returns -1 if the queue is empty.
func (wq *WaitQueue) Peek() int {
	if len(wq.queue) == 0 {
		return -1
	}
	return wq.queue[0]
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (wq *WaitQueue) Items() []int {
	return wq.queue
}

// Dequeue removes the packet at the front of the queue (oldest first).
// Returns -1 if the queue is empty.
func (wq *WaitQueue) Dequeue() int {
	if len(wq.queue) == 0 {
		return -1
	}
	head := wq.queue[0]
	wq.queue = wq.queue[1:]
	return head
}
