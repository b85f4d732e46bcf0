// Package connectivity reports network reachability as a snapshot and as a
// stream of transitions. The sync engine subscribes to the stream and kicks
// off a pass whenever the device comes back online.
package connectivity

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Transport identifies what kind of link is up.
type Transport string

const (
	TransportWiFi     Transport = "WIFI"
	TransportCellular Transport = "CELLULAR"
	TransportEthernet Transport = "ETHERNET"
	TransportUnknown  Transport = "UNKNOWN"
)

// State is one reachability observation.
type State struct {
	Online    bool
	Transport Transport
}

// Observer reports network reachability.
type Observer interface {
	// IsConnected is the synchronous snapshot.
	IsConnected() bool

	// Stream delivers a State on every transition. The current state is
	// delivered first so late subscribers converge.
	Stream() <-chan State
}

// Prober is an Observer that checks reachability by probing an HTTP
// endpoint on a fixed interval. It cannot tell transports apart, so online
// states carry TransportUnknown.
type Prober struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *log.Logger

	mu    sync.RWMutex
	state State
	subs  []chan State

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ProberConfig holds prober settings.
type ProberConfig struct {
	// URL to probe with a HEAD request
	URL string
	// Interval between probes
	Interval time.Duration
	// Timeout per probe request
	Timeout time.Duration
	// Logger for probe activity
	Logger *log.Logger
}

// DefaultProberConfig returns sensible defaults.
func DefaultProberConfig() *ProberConfig {
	return &ProberConfig{
		URL:      "https://clients3.google.com/generate_204",
		Interval: 15 * time.Second,
		Timeout:  5 * time.Second,
		Logger:   log.New(os.Stderr, "[connectivity] ", log.LstdFlags),
	}
}

// NewProber creates a prober. Call Start to begin probing and Close to stop.
func NewProber(config *ProberConfig) *Prober {
	if config == nil {
		config = DefaultProberConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[connectivity] ", log.LstdFlags)
	}
	return &Prober{
		url:      config.URL,
		interval: config.Interval,
		client:   &http.Client{Timeout: config.Timeout},
		logger:   config.Logger,
	}
}

// Start probes once immediately, then on every interval tick until the
// context is cancelled or Close is called.
func (p *Prober) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.publish(p.probe(ctx))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.publish(p.probe(ctx))
			}
		}
	}()
}

// Close stops probing and waits for the probe loop to exit.
func (p *Prober) Close() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// IsConnected implements Observer.
func (p *Prober) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Online
}

// Stream implements Observer.
func (p *Prober) Stream() <-chan State {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State, 4)
	ch <- p.state
	p.subs = append(p.subs, ch)
	return ch
}

func (p *Prober) probe(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return State{}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return State{}
	}
	_ = resp.Body.Close()
	return State{Online: true, Transport: TransportUnknown}
}

// publish records the observation and notifies subscribers on transitions.
func (p *Prober) publish(next State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next.Online == p.state.Online {
		return
	}
	if next.Online {
		p.logger.Printf("network reachable (%s)", next.Transport)
	} else {
		p.logger.Printf("network unreachable")
	}
	p.state = next

	for _, ch := range p.subs {
		select {
		case ch <- next:
		default:
		}
	}
}
