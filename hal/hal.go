// Package hal defines the capability interface the Driver consumes
// (spec.md §6). It is deliberately small and polymorphic, in the style of
// the teacher repo's I2CBusFactory/PinFactory capability interfaces
// (services/hal/types.go): platform integrators implement it once, and the
// Driver is parameterized over any implementation, real or fake.
package hal

import "context"

// InboundSink is where a HAL delivers raw wire messages (responses and
// notifications, still encoded) after Open. The Driver owns the channel
// and passes the send side to the HAL; the HAL closing it is the "HAL
// receiver closed" event of spec.md §4.4.1's transition table, surfaced to
// the Driver as a closed-channel read.
type InboundSink chan<- []byte

// EventSink carries HAL transport lifecycle events that are not
// protocol-level notifications: a chip-driven Error condition and the
// completion of an in-progress Close. spec.md §4.4.1 lists these as
// distinct transitions ("HAL Error event", "HAL close-complete event")
// alongside raw inbound messages; splitting them onto their own typed
// channel avoids requiring every HAL implementation to invent an
// out-of-band sentinel inside the wire byte stream that the codec would
// then have to special-case.
type EventSink chan<- Event

// EventKind enumerates HAL transport lifecycle events.
type EventKind uint8

const (
	EventError EventKind = iota
	EventCloseComplete
)

type Event struct {
	Kind EventKind
}

// HAL is the hardware abstraction layer consumed by the Driver (spec.md §6).
// All methods must be safe to call concurrently with an internal read pump
// delivering to the sinks passed to Open — the Driver only ever calls one
// HAL method at a time, but the HAL's own inbound pump runs independently.
type HAL interface {
	// Open opens the transport. Subsequent protocol messages flow to msgs
	// and transport lifecycle events flow to events until Close is called
	// or the HAL fails, at which point the HAL closes msgs. Open
	// corresponds to the HalState transition None -> WaitOpen's "hal_open"
	// side effect.
	Open(ctx context.Context, msgs InboundSink, events EventSink) error

	// Close tears down the transport. Corresponds to WaitClose's
	// "hal_close" side effect; on completion the HAL sends EventCloseComplete.
	Close(ctx context.Context) error

	// CoreInitialization performs the chip reset/handshake. Called once
	// after Open succeeds (HalState WaitOpen side effect) and again after
	// a Retryer exhausts its attempts (spec.md §4.4.2).
	CoreInitialization(ctx context.Context) error

	// SessionInitialization allocates per-session chip resources. Called
	// when a session-status notification with State=Init is observed
	// (spec.md §4.4.3).
	SessionInitialization(ctx context.Context, sessionID int32) error

	// SendCommand writes one packet. May fragment internally; the Driver
	// only ever calls this with bytes previously produced by a
	// Command.Encode call, and resends the identical bytes on retry.
	SendCommand(ctx context.Context, data []byte) error
}
