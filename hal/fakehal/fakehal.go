// Package fakehal is a scriptable in-memory hal.HAL implementation used by
// the driver/dispatcher test suites and by cmd/ucictl. It
// follows the teacher repo's fake-adaptor test style
// (services/hal/internal/worker/measure_worker_test.go's fakeAdaptor):
// a small struct the test configures with hooks, rather than a mock
// framework.
package fakehal

import (
	"context"
	"sync"

	"uwbuci/hal"
)

// SendFunc is called for every SendCommand, in order, once per attempt
// (including retries). Returning a nil raw slice means "drop this
// transmission silently" (simulating transport loss); a non-nil slice is
// delivered to the Driver's inbound channel as though the chip replied.
type SendFunc func(attempt int, data []byte) (raw []byte)

type HAL struct {
	mu sync.Mutex

	OpenErr                  error
	CloseErr                 error
	CoreInitErr              error
	SessionInitErr           error
	SendErr                  error
	CoreInitCount            int
	SessionInitCalls         []int32
	Sent                     [][]byte

	// Send is consulted for every SendCommand call. If nil, SendCommand
	// succeeds and delivers nothing (the test must push responses itself
	// via Deliver).
	Send SendFunc

	msgs   hal.InboundSink
	events hal.EventSink
	opened bool
}

func New() *HAL { return &HAL{} }

func (h *HAL) Open(ctx context.Context, msgs hal.InboundSink, events hal.EventSink) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return h.OpenErr
	}
	h.msgs = msgs
	h.events = events
	h.opened = true
	return nil
}

func (h *HAL) Close(ctx context.Context) error {
	h.mu.Lock()
	opened := h.opened
	h.opened = false
	closeErr := h.CloseErr
	events := h.events
	h.mu.Unlock()
	if !opened {
		return nil
	}
	if closeErr != nil {
		return closeErr
	}
	if events != nil {
		events <- hal.Event{Kind: hal.EventCloseComplete}
	}
	return nil
}

func (h *HAL) CoreInitialization(ctx context.Context) error {
	h.mu.Lock()
	h.CoreInitCount++
	err := h.CoreInitErr
	h.mu.Unlock()
	return err
}

func (h *HAL) SessionInitialization(ctx context.Context, sessionID int32) error {
	h.mu.Lock()
	h.SessionInitCalls = append(h.SessionInitCalls, sessionID)
	err := h.SessionInitErr
	h.mu.Unlock()
	return err
}

func (h *HAL) SendCommand(ctx context.Context, data []byte) error {
	h.mu.Lock()
	h.Sent = append(h.Sent, append([]byte(nil), data...))
	attempt := len(h.Sent)
	sendErr := h.SendErr
	sendFn := h.Send
	msgs := h.msgs
	h.mu.Unlock()
	if sendErr != nil {
		return sendErr
	}
	if sendFn != nil {
		if raw := sendFn(attempt, data); raw != nil && msgs != nil {
			msgs <- raw
		}
	}
	return nil
}

// Deliver pushes a raw wire message (already encoded) to the Driver as
// though it arrived from the chip, bypassing the Send hook. Used to
// deliver notifications at arbitrary times.
func (h *HAL) Deliver(raw []byte) {
	h.mu.Lock()
	msgs := h.msgs
	h.mu.Unlock()
	if msgs != nil {
		msgs <- raw
	}
}

// RaiseError simulates a chip-driven transport error (spec.md §4.4.1's
// "HAL Error event").
func (h *HAL) RaiseError() {
	h.mu.Lock()
	events := h.events
	h.mu.Unlock()
	if events != nil {
		events <- hal.Event{Kind: hal.EventError}
	}
}

// SendCount returns the number of SendCommand invocations observed so far.
func (h *HAL) SendCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Sent)
}
