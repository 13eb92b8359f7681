/*
Copyright (C) 2026  kvsd Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package pool

import (
	"fmt"
	"runtime/debug"
	"sync"
)

type sharedMsgKind int

const (
	msgRunJob sharedMsgKind = iota
	msgShutdown
)

type sharedMsg struct {
	kind sharedMsgKind
	job  func()
}

// SharedQueuePool is the bounded shared-queue pool of §4.5 variant 2: N
// long-lived workers pull from one channel of depth N; a panicking job is
// contained and logged; a worker that exits unexpectedly is replaced.
type SharedQueuePool struct {
	ch       chan sharedMsg
	n        int
	wg       sync.WaitGroup
	mu       sync.Mutex
	replaced bool
}

// NewSharedQueuePool starts n workers reading from a channel of capacity n.
func NewSharedQueuePool(n int) *SharedQueuePool {
	if n < 1 {
		n = 1
	}
	p := &SharedQueuePool{
		ch: make(chan sharedMsg, n),
		n:  n,
	}
	for i := 0; i < n; i++ {
		p.startWorker()
	}
	return p
}

func (p *SharedQueuePool) startWorker() {
	p.wg.Add(1)
	go p.worker()
}

// worker loops receiving messages. A RunJob whose task panics is recovered
// and logged in the same style as the teacher's scheduler.runTask; if the
// worker goroutine itself terminates from something runProtected did not
// catch (it shouldn't, but defense keeps the pool self-healing per spec),
// a replacement worker is started before this one's wg.Done fires.
func (p *SharedQueuePool) worker() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("pool: worker exited unexpectedly: %v\n", r)
			debug.PrintStack()
			p.startWorker()
		}
		p.wg.Done()
	}()
	for msg := range p.ch {
		switch msg.kind {
		case msgRunJob:
			runProtected(msg.job)
		case msgShutdown:
			return
		}
	}
}

// Spawn enqueues job for execution by some worker. Submission from a single
// goroutine is FIFO into the channel, matching §4.5's ordering guarantee.
func (p *SharedQueuePool) Spawn(job func()) {
	p.ch <- sharedMsg{kind: msgRunJob, job: job}
}

// Close sends one Shutdown message per worker and waits for them to exit.
func (p *SharedQueuePool) Close() error {
	p.mu.Lock()
	if p.replaced {
		p.mu.Unlock()
		return nil
	}
	p.replaced = true
	p.mu.Unlock()

	for i := 0; i < p.n; i++ {
		p.ch <- sharedMsg{kind: msgShutdown}
	}
	p.wg.Wait()
	close(p.ch)
	return nil
}

var _ ThreadPool = (*SharedQueuePool)(nil)
