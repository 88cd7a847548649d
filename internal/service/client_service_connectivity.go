package service

import (
	"context"
	"errors"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/models"
)

// latencyWindow is the number of probe samples averaged.
const latencyWindow = 5

type connectivityMonitor struct {
	debounce      time.Duration
	threshold     time.Duration
	probeInterval time.Duration
	pinger        Pinger
	metrics       *metrics.Metrics

	mu        sync.Mutex
	state     models.ConnectivityState
	reachable bool
	channelUp bool
	rtt       *movingaverage.MovingAverage
	samples   int
	confirm   *time.Timer
	gen       uint64
	subs      map[chan models.ConnectivityState]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewConnectivityMonitor creates a monitor starting in [models.Offline].
// When pinger is not nil and cfg.ProbeInterval is positive, Start also polls
// it as a reachability and latency probe.
func NewConnectivityMonitor(cfg config.ClientWorkers, pinger Pinger, m *metrics.Metrics, log *logger.Logger) ConnectivityMonitor {
	return &connectivityMonitor{
		debounce:      cfg.DebounceWindow,
		threshold:     cfg.LatencyThreshold,
		probeInterval: cfg.ProbeInterval,
		pinger:        pinger,
		metrics:       m,
		state:         models.Offline,
		rtt:           movingaverage.New(latencyWindow),
		subs:          make(map[chan models.ConnectivityState]struct{}),
		logger:        log,
	}
}

func (c *connectivityMonitor) State() models.ConnectivityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *connectivityMonitor) Subscribe() (<-chan models.ConnectivityState, func()) {
	ch := make(chan models.ConnectivityState, 1)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			close(ch)
			c.mu.Unlock()
		})
	}
}

func (c *connectivityMonitor) ReportReachability(reachable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reachable = reachable
	c.evaluate()
}

// ReportChannel implements [ConnectivityMonitor]. A working channel is proof
// of reachability; a broken one only degrades the link.
func (c *connectivityMonitor) ReportChannel(up bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.channelUp = up
	if up {
		c.reachable = true
	}
	c.evaluate()
}

func (c *connectivityMonitor) ReportLatency(rtt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rtt.Add(float64(rtt) / float64(time.Millisecond))
	c.samples++
	c.evaluate()
}

// Start implements [ConnectivityMonitor]. It launches the probe loop when one
// is configured; the first probe runs at once.
func (c *connectivityMonitor) Start(ctx context.Context) error {
	if c.pinger == nil || c.probeInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	probeCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		t := time.NewTicker(c.probeInterval)
		defer t.Stop()

		for {
			c.probe(probeCtx)
			select {
			case <-probeCtx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

// Stop implements [ConnectivityMonitor]. It ends the probe loop and drops a
// pending confirmation.
func (c *connectivityMonitor) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.gen++
	if c.confirm != nil {
		c.confirm.Stop()
		c.confirm = nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

func (c *connectivityMonitor) probe(ctx context.Context) {
	start := time.Now()
	err := c.pinger.Ping(ctx)
	if ctx.Err() != nil {
		return
	}

	switch {
	case err == nil:
		c.ReportReachability(true)
		c.ReportLatency(time.Since(start))
	case errors.Is(err, models.ErrTransportFailure):
		c.logger.Debug().Err(err).Str("func", "connectivityMonitor.probe").Msg("remote unreachable")
		c.ReportReachability(false)
	default:
		// the remote answered, just not with a 2xx
		c.ReportReachability(true)
	}
}

// target is the state the current signals point to.
func (c *connectivityMonitor) target() models.ConnectivityState {
	switch {
	case !c.reachable:
		return models.Offline
	case c.channelUp && c.latencyOK():
		return models.Online
	default:
		return models.OnlineDegraded
	}
}

func (c *connectivityMonitor) latencyOK() bool {
	if c.threshold <= 0 || c.samples == 0 {
		return true
	}
	return c.rtt.Avg() <= float64(c.threshold)/float64(time.Millisecond)
}

// evaluate moves towards the target state. Downgrades apply at once; an
// upgrade waits out the debounce window, counted from the first signal that
// allowed it. Any downgrade in between restarts the window.
// Caller holds c.mu.
func (c *connectivityMonitor) evaluate() {
	target := c.target()

	switch {
	case target == c.state:
		c.cancelConfirm()
	case !target.Usable():
		c.cancelConfirm()
		c.setState(target)
	case c.state.Usable() && target < c.state:
		c.cancelConfirm()
		c.setState(target)
	default:
		if !c.state.Usable() && c.state != models.Connecting {
			c.setState(models.Connecting)
		}
		c.scheduleConfirm()
	}
}

func (c *connectivityMonitor) scheduleConfirm() {
	if c.debounce <= 0 {
		c.setState(c.target())
		return
	}
	if c.confirm != nil {
		return
	}

	gen := c.gen
	c.confirm = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.gen {
			return
		}
		c.confirm = nil
		if target := c.target(); target.Usable() {
			c.setState(target)
		}
	})
}

func (c *connectivityMonitor) cancelConfirm() {
	c.gen++
	if c.confirm != nil {
		c.confirm.Stop()
		c.confirm = nil
	}
}

// setState publishes s to every subscriber, replacing an unread value.
// Caller holds c.mu.
func (c *connectivityMonitor) setState(s models.ConnectivityState) {
	if s == c.state {
		return
	}

	c.logger.Info().
		Str("func", "connectivityMonitor.setState").
		Str("from", c.state.String()).
		Str("state", s.String()).
		Msg("connectivity changed")

	c.state = s
	c.metrics.SetConnectivity(s)

	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
