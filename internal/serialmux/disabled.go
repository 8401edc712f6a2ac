package serialmux

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// ErrSensorDisabled is returned by commands sent while stepd runs without a
// sensor.
var ErrSensorDisabled = errors.New("sensor disabled")

// DisabledSerialMux stands in for the sensor when stepd runs with
// -disable-sensor, so the API and capture routes still work. Subscribers
// never receive lines; their channels close on Unsubscribe or Close.
type DisabledSerialMux struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closing     bool
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{subscribers: make(map[string]chan string)}
}

func (d *DisabledSerialMux) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		close(ch)
	} else {
		d.subscribers[id] = ch
	}
	return id, ch
}

func (d *DisabledSerialMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subscribers[id]; ok {
		close(ch)
		delete(d.subscribers, id)
	}
}

func (d *DisabledSerialMux) SendCommand(string) error { return ErrSensorDisabled }

// Initialize has nothing to start.
func (d *DisabledSerialMux) Initialize() error { return nil }

func (d *DisabledSerialMux) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (d *DisabledSerialMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closing {
		d.closing = true
		for id, ch := range d.subscribers {
			close(ch)
			delete(d.subscribers, id)
		}
	}
	return nil
}

// AttachAdminRoutes mounts the same console as a live sensor. Commands fail
// and the tail stays silent.
func (d *DisabledSerialMux) AttachAdminRoutes(mux *http.ServeMux) {
	attachAdminRoutes(mux, d)
}
