package di718b

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bemasher/dataq/csv"
)

var (
	_ csv.Recorder = Frame{}
	_ csv.Headerer = Frame{}
)

// Frame is one calibrated sample per active channel, in channel order,
// stamped with the wall-clock time its bytes finished arriving and the
// session that produced it.
type Frame struct {
	Time    time.Time `json:"time"`
	Session uuid.UUID `json:"session"`
	Values  []float64 `json:"values"`
}

// String renders the frame in the classic one-line capture format:
// unix seconds and microseconds, then one 3-decimal value per channel.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%06d", f.Time.Unix(), f.Time.Nanosecond()/1000)
	for _, v := range f.Values {
		fmt.Fprintf(&b, " %.3f", v)
	}
	return b.String()
}

func (f Frame) Record() (r []string) {
	r = append(r, f.Time.Format(time.RFC3339Nano))
	r = append(r, f.Session.String())
	for _, v := range f.Values {
		r = append(r, strconv.FormatFloat(v, 'f', 3, 64))
	}
	return r
}

func (f Frame) Header() (h []string) {
	h = append(h, "time", "session")
	for ch := range f.Values {
		h = append(h, fmt.Sprintf("ch%d", ch))
	}
	return h
}
