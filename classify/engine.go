package classify

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/cloudlabel/labelkit/pointcloud"
	"github.com/cloudlabel/labelkit/spatialmath"
)

// Engine recomputes classification off the edit path. Rapid edit bursts are
// coalesced, an in-flight computation made stale by a newer edit is canceled,
// and only whole, up-to-date results are ever published (last edit wins).
type Engine struct {
	logger   golog.Logger
	publish  func(Result)
	debounce func(func())
	workers  int

	mu           sync.Mutex
	gen          uint64
	cancelActive context.CancelFunc
	cloud        *pointcloud.Cloud
	boxes        []spatialmath.Box

	// publishMu serializes deliveries so a superseded result can never land
	// after the one that replaced it. Held without mu, so a sink may call
	// Recompute from inside its publish callback.
	publishMu sync.Mutex

	wg sync.WaitGroup
}

// NewEngine returns an Engine that delivers results to publish. Recompute
// requests within interval of each other collapse into one run; an interval
// of zero disables coalescing. workers <= 0 uses one worker per CPU.
func NewEngine(publish func(Result), interval time.Duration, workers int, logger golog.Logger) *Engine {
	e := &Engine{
		logger:  logger,
		publish: publish,
		workers: workers,
	}
	if interval > 0 {
		e.debounce = debounce.New(interval)
	} else {
		e.debounce = func(f func()) { f() }
	}
	return e
}

// Recompute schedules a classification of the given cloud against the given
// box set, superseding any not-yet-published earlier request. The box slice
// is copied so later in-place edits cannot race the scan.
func (e *Engine) Recompute(cloud *pointcloud.Cloud, boxes []spatialmath.Box) {
	snapshot := make([]spatialmath.Box, len(boxes))
	copy(snapshot, boxes)

	e.mu.Lock()
	e.gen++
	if e.cancelActive != nil {
		e.cancelActive()
		e.cancelActive = nil
	}
	e.cloud = cloud
	e.boxes = snapshot
	e.mu.Unlock()

	e.debounce(func() {
		e.wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer e.wg.Done()
			e.run()
		})
	})
}

func (e *Engine) run() {
	e.mu.Lock()
	gen := e.gen
	cloud := e.cloud
	boxes := e.boxes
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelActive = cancel
	e.mu.Unlock()
	defer cancel()

	result, err := ClassifyParallel(ctx, cloud, boxes, e.workers)
	if err != nil {
		// canceled by a newer edit; that edit's run will publish instead
		e.logger.Debugw("discarding stale classification", "generation", gen)
		return
	}

	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	e.mu.Lock()
	current := e.gen
	e.mu.Unlock()
	if gen != current {
		e.logger.Debugw("dropping superseded classification result", "generation", gen, "current", current)
		return
	}
	e.publish(result)
}

// Wait blocks until all scheduled classification runs have finished. Intended
// for tests and shutdown.
func (e *Engine) Wait() {
	e.wg.Wait()
}
