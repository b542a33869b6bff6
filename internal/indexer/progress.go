package indexer

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

const (
	// progressInterval is how often the observer samples the shared counter.
	progressInterval = 100 * time.Millisecond

	// progressJoinTimeout bounds the wait for the observer to exit.
	progressJoinTimeout = 2 * time.Second
)

// progress renders the terminal bar from the shared processed counter. It
// only ever reads the counter; workers own the writes.
type progress struct {
	bar     *progressbar.ProgressBar
	counter *atomic.Int64
	stop    chan struct{}
	done    chan struct{}
}

func newProgress(total int64, counter *atomic.Int64) *progress {
	return &progress{
		bar: progressbar.NewOptions64(total,
			progressbar.OptionSetDescription("Indexing blocks"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("block"),
		),
		counter: counter,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *progress) start() {
	go p.run()
}

func (p *progress) run() {
	defer close(p.done)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = p.bar.Set64(p.counter.Load())
		case <-p.stop:
			_ = p.bar.Set64(p.counter.Load())
			p.bar.Exit()
			return
		}
	}
}

// stopAndJoin signals the observer and waits for it with a bounded timeout.
func (p *progress) stopAndJoin() {
	close(p.stop)
	select {
	case <-p.done:
	case <-time.After(progressJoinTimeout):
	}
}
