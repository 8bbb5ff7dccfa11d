// Package channel carries requests between the page-resident content
// scripts, the background coordinator and the UI surfaces.
//
// Every exchange is one request and one response. Payloads cross the bus as
// JSON, so receivers never share memory with senders and malformed or
// unknown requests are rejected at the boundary with typed errors.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/logging"
)

// Address identifies a receiver.
type Address string

// Background is the coordinator's address.
const Background Address = "background"

// Tab returns the address of the content script resident in a tab.
func Tab(id int) Address {
	return Address(fmt.Sprintf("tab:%d", id))
}

// ErrNoReceiver is returned by Send when nothing listens at the address,
// e.g. a tab whose content script was never injected.
var ErrNoReceiver = errors.New("channel: could not establish connection: receiving end does not exist")

// Handler answers a request. It runs on its own goroutine and its return
// value is the one and only response.
type Handler func(ctx context.Context, req Request) Response

type registration struct {
	handler Handler
}

// Bus routes requests to registered handlers.
type Bus struct {
	logger logrus.FieldLogger

	mu       sync.RWMutex
	handlers map[Address]*registration
}

func NewBus(logger logrus.FieldLogger) *Bus {
	return &Bus{
		logger:   logging.Component(logger, "channel"),
		handlers: make(map[Address]*registration),
	}
}

// Listen installs h at addr, replacing any previous handler. The returned
// func removes it again.
func (b *Bus) Listen(addr Address, h Handler) (stop func()) {
	reg := &registration{handler: h}
	b.mu.Lock()
	b.handlers[addr] = reg
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.handlers[addr] == reg {
			delete(b.handlers, addr)
		}
	}
}

// Resident reports whether a handler listens at addr.
func (b *Bus) Resident(addr Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.handlers[addr]
	return ok
}

// Send delivers req to addr and waits for its response.
func (b *Bus) Send(ctx context.Context, to Address, req Request) (Response, error) {
	id := uuid.NewString()
	payload, err := Encode(id, req)
	if err != nil {
		return Response{}, err
	}

	b.mu.RLock()
	reg, ok := b.handlers[to]
	b.mu.RUnlock()
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrNoReceiver, to)
	}

	log := b.logger.WithFields(logrus.Fields{"id": id, "to": to})

	// Receiver side: decode and validate what arrived on the wire.
	_, decoded, err := Decode(payload)
	if err != nil {
		log.WithError(err).Warn("rejected request")
		return Response{}, err
	}
	log.WithField("action", decoded.Action()).Debug("request")

	done := make(chan []byte, 1)
	go func() {
		var resp Response
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("handler panicked")
				resp = Failure("%v", r)
			}
			data, err := json.Marshal(resp)
			if err != nil {
				data, _ = json.Marshal(Failure("encoding response: %v", err))
			}
			done <- data
		}()
		resp = reg.handler(ctx, decoded)
	}()

	select {
	case data := <-done:
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return Response{}, fmt.Errorf("channel: malformed response: %w", err)
		}
		log.WithField("success", resp.Success).Debug("response")
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Mux dispatches requests to per-action handlers and rejects the rest with
// an UnsupportedError.
type Mux struct {
	at       Address
	handlers map[Action]Handler
}

func NewMux(at Address) *Mux {
	return &Mux{at: at, handlers: make(map[Action]Handler)}
}

// Handle registers h for action.
func (m *Mux) Handle(action Action, h Handler) *Mux {
	m.handlers[action] = h
	return m
}

// Serve is a Handler.
func (m *Mux) Serve(ctx context.Context, req Request) Response {
	h, ok := m.handlers[req.Action()]
	if !ok {
		err := &UnsupportedError{Action: req.Action(), At: m.at}
		return Response{Error: err.Error()}
	}
	return h(ctx, req)
}
