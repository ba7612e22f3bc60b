package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"flashy/internal/config"
	"flashy/internal/logging"
	"flashy/internal/state"
	"flashy/internal/usb"
)

// EventKind distinguishes device transitions.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
)

// Event is one observed device transition.
type Event struct {
	Kind   EventKind
	Device usb.Device
	At     time.Time
}

// Lister enumerates devices. Satisfied by usb.Lister.
type Lister interface {
	List(ctx context.Context) ([]usb.Device, error)
}

// subscriberBuffer bounds each subscriber channel. Events beyond a stalled
// subscriber's buffer are dropped for that subscriber only.
const subscriberBuffer = 128

// Scanner owns the enumeration poll loop.
type Scanner struct {
	cfg    *config.Config
	store  *state.Store
	lister Lister
	logger *slog.Logger

	pollInterval time.Duration
	enumTimeout  time.Duration

	mu          sync.Mutex
	running     bool
	subscribers map[int]chan Event
	nextSubID   int

	kick chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Scanner.
func New(cfg *config.Config, store *state.Store, lister Lister, logger *slog.Logger) *Scanner {
	if lister == nil {
		lister = usb.NewLister(cfg.Scanner.LsusbBinary, cfg.Scanner.VendorIDs)
	}

	poll := time.Duration(cfg.Scanner.PollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	enumTimeout := time.Duration(cfg.Scanner.EnumerateTimeout) * time.Second

	return &Scanner{
		cfg:          cfg,
		store:        store,
		lister:       lister,
		logger:       logging.NewComponentLogger(logger, "scanner"),
		pollInterval: poll,
		enumTimeout:  enumTimeout,
		subscribers:  make(map[int]chan Event),
		kick:         make(chan struct{}, 1),
	}
}

// Start launches the poll loop. The first poll runs immediately.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scanner already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop halts the poll loop and waits for it to exit.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Kick requests an immediate poll ahead of the next tick. Used by the
// hotplug monitor so a freshly attached device shows up without waiting out
// the poll interval.
func (s *Scanner) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Subscribe registers an event channel. The returned function unsubscribes
// and closes the channel.
func (s *Scanner) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(existing)
		}
	}
}

func (s *Scanner) loop() {
	defer s.wg.Done()

	s.poll()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.poll()
		case <-s.kick:
			s.poll()
		}
	}
}

// poll runs one enumeration pass. Events derived from the snapshot diff are
// published before the store snapshot is swapped.
func (s *Scanner) poll() {
	ctx := s.ctx
	if ctx == nil {
		return
	}

	listCtx := ctx
	var cancel context.CancelFunc
	if s.enumTimeout > 0 {
		listCtx, cancel = context.WithTimeout(ctx, s.enumTimeout)
		defer cancel()
	}

	now := time.Now()
	devices, err := s.lister.List(listCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.store.ScanFailed(err, now)
		s.logger.Warn("device enumeration failed; keeping last snapshot",
			logging.Error(err),
			logging.String(logging.FieldEventType, "usb_scan_failed"),
			logging.String(logging.FieldErrorHint, "check that lsusb is installed and the daemon can run it"),
		)
		return
	}

	next := usb.NewSnapshot(devices, now)
	prev := s.store.Snapshot()
	connected, disconnected := usb.Diff(prev, next)

	for _, dev := range connected {
		s.publish(Event{Kind: EventConnected, Device: dev, At: now})
		s.logger.Info("device connected",
			logging.String(logging.FieldEventType, "device_connected"),
			logging.String(logging.FieldSerial, dev.Serial),
			logging.String("usb_id", dev.ID()),
			logging.String("mode", string(dev.Mode())),
		)
	}
	for _, dev := range disconnected {
		s.publish(Event{Kind: EventDisconnected, Device: dev, At: now})
		s.logger.Info("device disconnected",
			logging.String(logging.FieldEventType, "device_disconnected"),
			logging.String(logging.FieldSerial, dev.Serial),
			logging.String("usb_id", dev.ID()),
		)
	}

	s.store.SetSnapshot(next)
}

func (s *Scanner) publish(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Warn("subscriber event buffer full, dropping event",
				logging.Int("subscriber", id),
				logging.String("kind", string(event.Kind)),
			)
		}
	}
}
