package serialmux

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDisabledSerialMux(t *testing.T) {
	d := NewDisabledSerialMux()

	id, ch := d.Subscribe()
	d.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Unsubscribe")
	}

	_, ch = d.Subscribe()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Close")
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	_, ch = d.Subscribe()
	if _, ok := <-ch; ok {
		t.Error("subscribing after Close should yield a closed channel")
	}

	if err := d.SendCommand("STOP"); !errors.Is(err, ErrSensorDisabled) {
		t.Errorf("SendCommand() = %v, want ErrSensorDisabled", err)
	}
	if err := d.Initialize(); err != nil {
		t.Error(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Monitor(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Monitor() = %v", err)
	}
}

func TestDisabledSerialMuxConsole(t *testing.T) {
	d := NewDisabledSerialMux()
	mux := http.NewServeMux()
	d.AttachAdminRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/send-command", nil))
	if w.Code != http.StatusOK {
		t.Errorf("console status = %d", w.Code)
	}

	req := localHostRequest(http.MethodPost, "/debug/send-command-api", strings.NewReader("command=STOP"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("send-command-api status = %d, want 500", w.Code)
	}
}
