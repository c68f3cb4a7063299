package trace

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/memory"
)

func newHost(t *testing.T, obs host.CallObserver) *host.Runtime {
	t.Helper()
	pins, err := hal.ESP32C3.PinMap()
	if err != nil {
		t.Fatal(err)
	}
	board := sim.New(pins, sim.WithSleep(func(time.Duration) {}))
	rt := host.New(board, host.WithCallObserver(obs), host.WithDiagnostics(io.Discard))
	rt.Bind(memory.NewBuffer(256))
	return rt
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	if err != nil {
		t.Fatal(err)
	}
	rt := newHost(t, rec)

	calls := []struct {
		idx   abi.Index
		stack []uint64
	}{
		{abi.GPIOInit, []uint64{0, 8, 0}},
		{abi.GPIOWrite, []uint64{0, 8, 1}},
		{abi.GPIORead, []uint64{0, 8, 16}},
		{abi.DelayMs, []uint64{5}},
	}
	for _, c := range calls {
		if err := rt.Dispatch(c.idx, c.stack); err != nil {
			t.Fatal(err)
		}
	}
	if rec.Count() != 4 {
		t.Errorf("Count() = %d", rec.Count())
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	h := r.Header()
	if h.Module != "env" || len(h.Funcs) != abi.Len() || h.Funcs[abi.DelayMs] != "delay_ms" {
		t.Errorf("header = %+v", h)
	}
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records", len(recs))
	}
	for i, rc := range recs {
		if rc.Seq != uint64(i+1) || abi.Index(rc.Index) != calls[i].idx {
			t.Errorf("record %d = %+v", i, rc)
		}
	}
	if recs[1].Name != "gpio_write" || len(recs[1].Args) != 3 || recs[1].Args[2] != 1 {
		t.Errorf("gpio_write record = %+v", recs[1])
	}
	if !recs[2].HasResult || recs[2].Code() != code.NotInput {
		t.Errorf("gpio_read on output = %s", recs[2])
	}
	if recs[3].HasResult {
		t.Error("delay_ms has no result")
	}
	if s := recs[0].String(); !strings.HasPrefix(s, "#1 gpio_init(0, 8, 0) = ok") {
		t.Errorf("String() = %q", s)
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.cbor")
	rec, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	rec.OnCall(host.Call{Index: abi.Println, Name: "println", Args: []uint32{0, 3}})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := r.ReadAll()
	if err != nil || len(recs) != 1 || recs[0].Name != "println" {
		t.Errorf("recs = %v err = %v", recs, err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, stderrors.New("disk full") }

func TestRecorder_WriteFailure(t *testing.T) {
	rec, err := NewRecorder(failWriter{})
	if err != nil {
		t.Fatal(err) // buffered, nothing written yet
	}
	if err := rec.Flush(); err == nil {
		t.Fatal("Flush succeeded on failing writer")
	}
	rec.OnCall(host.Call{Name: "print"})
	if rec.Count() != 0 {
		t.Error("recorded after failure")
	}
	if !stderrors.Is(rec.Err(), &errors.Error{Phase: errors.PhaseTrace, Kind: errors.KindInvalidData}) {
		t.Errorf("Err() = %v", rec.Err())
	}
}

func TestNewReader_Rejects(t *testing.T) {
	foreign, _ := cbor.Marshal(Header{Format: "other", Version: Version})
	future, _ := cbor.Marshal(Header{Format: Format, Version: 9})
	tests := []struct {
		name string
		data []byte
		kind errors.Kind
	}{
		{"empty", nil, errors.KindInvalidData},
		{"garbage", []byte{0xff, 0x00}, errors.KindInvalidData},
		{"foreign", foreign, errors.KindInvalidData},
		{"future", future, errors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data))
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTrace, Kind: tt.kind}) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	rec, _ := NewRecorder(&buf)
	rec.OnCall(host.Call{Index: abi.GPIOInit, Name: "gpio_init", Args: []uint32{0, 1, 1}, HasResult: true})
	_ = rec.Flush()
	data := buf.Bytes()[:buf.Len()-2]

	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("Next() err = %v, want decode error", err)
	}
}
