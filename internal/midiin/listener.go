package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrNoPorts      = errors.New("no MIDI devices attached")
	ErrPortNotFound = errors.New("MIDI input port not found")
)

// Handler receives every raw message from the port on the driver's
// goroutine.
type Handler func(raw []byte)

// PortNames lists the input ports of the registered driver.
func PortNames() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// SelectPort picks the first input port when hint is empty, otherwise the
// first port whose name contains hint (case-insensitive).
func SelectPort(hint string) (drivers.In, error) {
	return selectFrom(midi.GetInPorts(), hint)
}

func selectFrom(ins []drivers.In, hint string) (drivers.In, error) {
	if len(ins) == 0 {
		return nil, ErrNoPorts
	}
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), hint) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, hint)
}

// Listener is an open MIDI input subscription.
type Listener struct {
	in     drivers.In
	stop   func()
	logger *slog.Logger
}

// Listen opens in and forwards every message to handle. Driver-level
// listen errors are logged; the subscription is not restarted.
func Listen(in drivers.In, handle Handler, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := in.String()
	logger.Info("opening MIDI connection", "port", name)
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("open MIDI port %q: %w", name, err)
		}
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		handle(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Error("MIDI listener error", "port", name, "err", listenErr)
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("listen on MIDI port %q: %w", name, err)
	}
	logger.Info("MIDI connection open", "port", name)
	return &Listener{in: in, stop: stop, logger: logger}, nil
}

func (l *Listener) Port() string { return l.in.String() }

// Close stops the subscription and closes the port.
func (l *Listener) Close() error {
	l.logger.Info("closing MIDI connection", "port", l.in.String())
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
	return l.in.Close()
}
