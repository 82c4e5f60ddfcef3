package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chengwu26/heart-rate-monitor/internal/hrs"
	"github.com/chengwu26/heart-rate-monitor/internal/logger"
	"github.com/chengwu26/heart-rate-monitor/internal/store"
)

// Options configures the monitor's device selection and retry behavior.
type Options struct {
	DeviceAddress string        // pin a specific device; empty matches any HRS device
	DeviceName    string        // additionally filter by advertised name
	ScanTimeout   time.Duration // discovery window per attempt
	BackoffBase   time.Duration // first non-immediate retry delay
	BackoffMax    time.Duration // backoff ceiling
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ScanTimeout: 15 * time.Second,
		BackoffBase: 1 * time.Second,
		BackoffMax:  30 * time.Second,
	}
}

// Monitor maintains exactly one active or pending session to a heart rate
// device and keeps the store current. All radio failures stay inside the
// monitor; the rest of the program only ever sees store snapshots.
type Monitor struct {
	adapter Adapter
	store   *store.Store
	log     *logger.Logger
	opts    Options
	now     func() time.Time
}

// NewMonitor creates a monitor writing into st.
func NewMonitor(adapter Adapter, st *store.Store, log *logger.Logger, opts Options) *Monitor {
	def := DefaultOptions()
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = def.ScanTimeout
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = def.BackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = def.BackoffMax
	}
	return &Monitor{
		adapter: adapter,
		store:   st,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

// session is one established link: connection, subscribed characteristic,
// and a channel closed exactly once when the link drops.
type session struct {
	device   Device
	conn     Connection
	char     Characteristic
	lostOnce sync.Once
	lost     chan struct{}
}

func (s *session) markLost() {
	s.lostOnce.Do(func() { close(s.lost) })
}

// Run drives the session lifecycle until ctx is cancelled: scan, connect,
// subscribe, stream, and on link loss reconnect with capped backoff. It
// never gives up; the device is assumed intermittently available. On
// cancellation the characteristic is unsubscribed and the link released.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	attempt := 0
	for {
		if attempt > 0 {
			m.store.SetReconnecting(attempt)
			// The first retry is immediate; later ones back off.
			if attempt > 1 {
				delay := backoffDelay(attempt-2, m.opts.BackoffBase, m.opts.BackoffMax)
				m.log.Infow("reconnect backoff", "attempt", attempt, "delay", delay)
				if !sleep(ctx, delay) {
					return ctx.Err()
				}
			}
		}

		sess, err := m.establish(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			m.log.Warnw("session attempt failed", "err", err, "attempt", attempt)
			continue
		}
		attempt = 0

		m.log.Infow("subscribed", "device", sess.device.Name, "address", sess.device.Address)

		select {
		case <-ctx.Done():
			sess.char.Unsubscribe()
			sess.conn.Disconnect()
			return ctx.Err()
		case <-sess.lost:
			m.log.Warnw("link lost", "address", sess.device.Address)
			m.store.SetDisconnected("connection lost")
			attempt = 1
		}
	}
}

// establish walks one Scanning -> Connecting -> Subscribed pass, updating
// the store at each transition.
func (m *Monitor) establish(ctx context.Context) (*session, error) {
	m.store.SetStatus(store.StatusScanning)
	dev, err := m.discover(ctx)
	if err != nil {
		return nil, err
	}

	m.store.SetStatus(store.StatusConnecting)
	conn, err := m.adapter.Connect(ctx, dev.Address)
	if err != nil {
		return nil, err
	}

	char, err := conn.DiscoverCharacteristic(HeartRateServiceUUID, HeartRateMeasurementUUID)
	if err != nil {
		conn.Disconnect()
		return nil, err
	}

	sess := &session{device: dev, conn: conn, char: char, lost: make(chan struct{})}
	conn.OnDisconnect(sess.markLost)

	if err := char.Subscribe(m.handleNotification); err != nil {
		conn.Disconnect()
		return nil, fmt.Errorf("ble: subscribe: %w", err)
	}

	m.store.SetStatus(store.StatusSubscribed)
	return sess, nil
}

// discover scans for a matching device within the configured window.
func (m *Monitor) discover(ctx context.Context) (Device, error) {
	scanCtx, cancel := context.WithTimeout(ctx, m.opts.ScanTimeout)
	defer cancel()

	var (
		found Device
		ok    bool
	)
	err := m.adapter.Scan(scanCtx, HeartRateServiceUUID, func(d Device) bool {
		if !m.matches(d) {
			return false
		}
		found, ok = d, true
		return true
	})
	if ok {
		return found, nil
	}
	if ctx.Err() != nil {
		return Device{}, ctx.Err()
	}
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan: %w", err)
	}
	return Device{}, errors.New("ble: no heart rate device found before scan timeout")
}

func (m *Monitor) matches(d Device) bool {
	if m.opts.DeviceAddress != "" && !strings.EqualFold(d.Address, m.opts.DeviceAddress) {
		return false
	}
	if m.opts.DeviceName != "" && d.Name != m.opts.DeviceName {
		return false
	}
	return true
}

// handleNotification runs on the radio callback. A decode failure is
// logged and dropped; a single malformed packet is not a link failure.
func (m *Monitor) handleNotification(data []byte) {
	mmt, err := hrs.Decode(data, m.now())
	if err != nil {
		m.log.Warnw("dropping notification", "err", err, "len", len(data))
		return
	}
	m.store.SetReading(mmt)
}

// backoffDelay returns the delay before retry n (0-based), doubling from
// base and capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt > 30 {
		return max
	}
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}

// sleep waits d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
