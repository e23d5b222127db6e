// Copyright (c) 2014-2016 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

// Processor is implemented by anything that can run as a background
// goroutine. Run must return promptly after shutdown is closed.
type Processor interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// the shutdown and completed type for a background
type shutdown struct {
	shutdown chan struct{}
	finished chan struct{}
}

// handle type
type T struct {
	s []shutdown
}

// list of processes to start
type Processes []Processor

// start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := new(T)
	register.s = make([]shutdown, len(processes))

	// start each background
	for i, p := range processes {
		shutdown := make(chan struct{})
		finished := make(chan struct{})
		register.s[i].shutdown = shutdown
		register.s[i].finished = finished
		go func(p Processor, shutdown <-chan struct{}, finished chan<- struct{}) {
			defer close(finished)
			p.Run(args, shutdown)
		}(p, shutdown, finished)
	}
	return register
}

// Stop shuts down all background processes owned by t and waits for
// each of them to finish.
func (t *T) Stop() {

	// shutdown all background tasks
	for _, s := range t.s {
		close(s.shutdown)
	}

	// wait for finished
	for _, s := range t.s {
		<-s.finished
	}
}
