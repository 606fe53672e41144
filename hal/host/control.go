//go:build !tinygo

package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
)

// Button hold times for the scripted presses.
const (
	ShortPress = 200 * time.Millisecond
	LongPress  = 3 * time.Second
)

type controlHandler struct {
	sim   *Sim
	clock clockwork.Clock
}

// ControlHandler returns the simulator control API:
//
//	GET  /state              inputs and panel picture as JSON
//	POST /button/{action}    press, release, short or long
//	PUT  /gear/{n}
//	PUT  /light/{v}
//	PUT  /temperature/{t}    degrees C, e.g. 21.5 or -3
//	PUT  /sensor/{mode}      ok, crc, short or absent
//
// Scripted presses are timed on clock.
func ControlHandler(s *Sim, clock clockwork.Clock) http.Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &controlHandler{sim: s, clock: clock}

	r := mux.NewRouter()
	r.HandleFunc("/state", h.state).Methods("GET")
	r.HandleFunc("/button/{action}", h.button).Methods("POST")
	r.HandleFunc("/gear/{n:[0-9]+}", h.gear).Methods("PUT")
	r.HandleFunc("/light/{v:[0-9]+}", h.light).Methods("PUT")
	r.HandleFunc("/temperature/{t}", h.temperature).Methods("PUT")
	r.HandleFunc("/sensor/{mode}", h.sensor).Methods("PUT")
	return r
}

// ServeControl serves the control API on addr until ctx is done.
func ServeControl(ctx context.Context, addr string, s *Sim) error {
	srv := &http.Server{Addr: addr, Handler: ControlHandler(s, nil)}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (h *controlHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sim.State())
}

func (h *controlHandler) button(w http.ResponseWriter, r *http.Request) {
	switch action := mux.Vars(r)["action"]; action {
	case "press":
		h.sim.Press(true)
	case "release":
		h.sim.Press(false)
	case "short":
		h.hold(ShortPress)
	case "long":
		h.hold(LongPress)
	default:
		http.Error(w, fmt.Sprintf("unknown button action %q", action), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.sim.inputs())
}

func (h *controlHandler) hold(d time.Duration) {
	h.sim.Press(true)
	go func() {
		h.clock.Sleep(d)
		h.sim.Press(false)
	}()
}

func (h *controlHandler) gear(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(mux.Vars(r)["n"], 10, 8)
	if err != nil || uint8(n) > h.sim.MaxGear() {
		http.Error(w, fmt.Sprintf("gear out of range 0..%d", h.sim.MaxGear()), http.StatusBadRequest)
		return
	}
	h.sim.SetGear(uint8(n))
	writeJSON(w, h.sim.inputs())
}

func (h *controlHandler) light(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.ParseUint(mux.Vars(r)["v"], 10, 8)
	if err != nil {
		http.Error(w, "light out of range 0..255", http.StatusBadRequest)
		return
	}
	h.sim.SetLight(uint8(v))
	writeJSON(w, h.sim.inputs())
}

func (h *controlHandler) temperature(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(mux.Vars(r)["t"], 64)
	if err != nil || t < -55 || t > 125 {
		http.Error(w, "temperature out of range -55..125", http.StatusBadRequest)
		return
	}
	h.sim.SetTemperature(int(math.Round(t * 10)))
	writeJSON(w, h.sim.inputs())
}

func (h *controlHandler) sensor(w http.ResponseWriter, r *http.Request) {
	m, err := ParseSensorMode(mux.Vars(r)["mode"])
	if err == nil {
		err = h.sim.SetSensorMode(m)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.sim.inputs())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
