//go:build !tinygo

package host

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

func request(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) State {
	t.Helper()
	var st State
	assert.NilError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func TestControlState(t *testing.T) {
	s, _ := newTestSim(t)
	h := ControlHandler(s, clockwork.NewFakeClock())

	rec := request(t, h, "GET", "/state")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	st := decodeState(t, rec)
	assert.Equal(t, st.Temperature, 21.5)
	assert.Equal(t, st.Light, uint8(100))
	assert.Equal(t, st.Sensor, SensorOK)
	assert.Equal(t, len(st.Panel), 8)
	assert.Equal(t, st.Panel[0], "........")
}

func TestControlInputs(t *testing.T) {
	s, _ := newTestSim(t)
	h := ControlHandler(s, clockwork.NewFakeClock())

	tests := []struct {
		method, path string
		code         int
		check        func(t *testing.T)
	}{
		{"PUT", "/gear/3", http.StatusOK, func(t *testing.T) { assert.Equal(t, s.Gear(), uint8(3)) }},
		{"PUT", "/gear/9", http.StatusBadRequest, func(t *testing.T) { assert.Equal(t, s.Gear(), uint8(3)) }},
		{"PUT", "/gear/x", http.StatusNotFound, nil},
		{"PUT", "/light/17", http.StatusOK, func(t *testing.T) { assert.Equal(t, s.Light(), uint8(17)) }},
		{"PUT", "/light/256", http.StatusBadRequest, nil},
		{"PUT", "/temperature/-3.25", http.StatusOK, func(t *testing.T) { assert.Equal(t, s.Temperature(), -33) }},
		{"PUT", "/temperature/200", http.StatusBadRequest, nil},
		{"PUT", "/sensor/absent", http.StatusOK, func(t *testing.T) { assert.Equal(t, s.SensorMode(), SensorAbsent) }},
		{"PUT", "/sensor/melted", http.StatusBadRequest, nil},
		{"POST", "/button/press", http.StatusOK, func(t *testing.T) { assert.Assert(t, s.Pressed()) }},
		{"POST", "/button/release", http.StatusOK, func(t *testing.T) { assert.Assert(t, !s.Pressed()) }},
		{"POST", "/button/wiggle", http.StatusBadRequest, nil},
		{"GET", "/gear/1", http.StatusMethodNotAllowed, nil},
	}
	for _, tt := range tests {
		rec := request(t, h, tt.method, tt.path)
		if rec.Code != tt.code {
			t.Fatalf("%s %s = %d, want %d: %s", tt.method, tt.path, rec.Code, tt.code, rec.Body)
		}
		if tt.check != nil {
			tt.check(t)
		}
	}
}

func TestControlScriptedPress(t *testing.T) {
	for _, tt := range []struct {
		action string
		hold   time.Duration
	}{
		{"short", ShortPress},
		{"long", LongPress},
	} {
		t.Run(tt.action, func(t *testing.T) {
			s, _ := newTestSim(t)
			clock := clockwork.NewFakeClock()
			h := ControlHandler(s, clock)

			rec := request(t, h, "POST", "/button/"+tt.action)
			assert.Equal(t, rec.Code, http.StatusOK)
			assert.Assert(t, decodeState(t, rec).Pressed)

			clock.BlockUntil(1)
			clock.Advance(tt.hold - time.Millisecond)
			assert.Assert(t, s.Pressed())
			clock.Advance(time.Millisecond)

			deadline := time.Now().Add(time.Second)
			for s.Pressed() {
				if time.Now().After(deadline) {
					t.Fatal("button still held after the scripted press")
				}
				time.Sleep(time.Millisecond)
			}
		})
	}
}
