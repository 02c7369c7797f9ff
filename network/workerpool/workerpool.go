// Package workerpool runs signaling cryptography off the connection event loops.
//
// Jobs are passed by message to a fixed set of goroutines. Every submission returns a channel
// that receives exactly one result. Submitted jobs are not cancellable: a caller that stops
// waiting simply discards the result, the job still runs to completion.
package workerpool

import (
	"errors"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/network/metrics"
	"git.gammaspectra.live/IronFish/network/utils"
	"runtime"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool is closed")

type BoxResult struct {
	Boxed identity.BoxedMessage
	Err   error
}

type UnboxResult struct {
	Message string
	// Ok is false when the message did not decrypt or authenticate
	Ok  bool
	Err error
}

type Pool struct {
	codec *identity.Codec
	jobs  chan func()

	// lock guards closed and sends on jobs
	lock   sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// New starts workers goroutines. workers <= 0 uses one per CPU.
func New(workers int, codec *identity.Codec) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if codec == nil {
		codec = identity.NewCodec(identity.DefaultSharedKeyCacheSize)
	}

	p := &Pool{
		codec: codec,
		jobs:  make(chan func(), workers*16),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	utils.Debugf("[WorkerPool] Started %d workers", workers)

	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
		metrics.WorkerPoolQueued.Dec()
	}
}

// submit queues job, blocking while the queue is full. It reports false if the pool is closed.
func (p *Pool) submit(job func()) bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.closed {
		return false
	}
	metrics.WorkerPoolQueued.Inc()
	p.jobs <- job
	return true
}

// BoxMessage encrypts plaintext from sender to recipient on a worker
func (p *Pool) BoxMessage(plaintext string, sender *identity.PrivateIdentity, recipient identity.Identity) <-chan BoxResult {
	result := make(chan BoxResult, 1)
	if !p.submit(func() {
		boxed, err := p.codec.BoxMessage(plaintext, sender, recipient)
		result <- BoxResult{Boxed: boxed, Err: err}
	}) {
		result <- BoxResult{Err: ErrPoolClosed}
	}
	return result
}

// UnboxMessage decrypts a message from sender addressed to recipient on a worker
func (p *Pool) UnboxMessage(boxedMessage, nonce string, sender identity.Identity, recipient *identity.PrivateIdentity) <-chan UnboxResult {
	result := make(chan UnboxResult, 1)
	if !p.submit(func() {
		message, ok := p.codec.UnboxMessage(boxedMessage, nonce, sender, recipient)
		result <- UnboxResult{Message: message, Ok: ok}
	}) {
		result <- UnboxResult{Err: ErrPoolClosed}
	}
	return result
}

// Close stops accepting jobs and waits for queued ones to finish
func (p *Pool) Close() {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.lock.Unlock()

	p.wg.Wait()
}
