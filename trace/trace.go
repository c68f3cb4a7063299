// Package trace records dispatched host calls as a CBOR stream.
//
// A trace file is a header item followed by one item per call, in dispatch
// order. The Recorder plugs into a host runtime as a call observer:
//
//	rec, err := trace.Create("calls.cbor")
//	rt := host.New(board, host.WithCallObserver(rec))
//	...
//	rec.Close()
//
// and the Reader walks the file back:
//
//	r, err := trace.NewReader(f)
//	for {
//		rec, err := r.Next()
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package trace

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/host"
)

// Format identifies a trace stream.
const Format = "wasmhal-trace"

// Version is the current stream version.
const Version = 1

// Header opens every trace stream.
type Header struct {
	Format  string   `cbor:"1,keyasint"`
	Module  string   `cbor:"3,keyasint"`
	Funcs   []string `cbor:"4,keyasint"` // names by ABI index
	Start   int64    `cbor:"5,keyasint"` // unix nanoseconds
	Version uint     `cbor:"2,keyasint"`
}

// Record is one dispatched call.
type Record struct {
	Name      string   `cbor:"3,keyasint"`
	Args      []uint32 `cbor:"4,keyasint"`
	Seq       uint64   `cbor:"1,keyasint"`
	Time      int64    `cbor:"6,keyasint"` // unix nanoseconds
	Duration  int64    `cbor:"7,keyasint"` // nanoseconds
	Result    int32    `cbor:"5,keyasint,omitempty"`
	Index     uint32   `cbor:"2,keyasint"`
	HasResult bool     `cbor:"8,keyasint,omitempty"`
}

// Code returns the call's result code, OK for calls without one.
func (r Record) Code() code.Code { return code.Code(r.Result) }

// String renders the record like a call expression.
func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s(", r.Seq, r.Name)
	for i, a := range r.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, a)
	}
	b.WriteByte(')')
	if r.HasResult {
		fmt.Fprintf(&b, " = %s", r.Code())
	}
	fmt.Fprintf(&b, " [%s]", time.Duration(r.Duration))
	return b.String()
}

func fromCall(seq uint64, c host.Call) Record {
	return Record{
		Seq:       seq,
		Index:     uint32(c.Index),
		Name:      c.Name,
		Args:      c.Args,
		Result:    int32(c.Result),
		HasResult: c.HasResult,
		Time:      c.Start.UnixNano(),
		Duration:  int64(c.Duration),
	}
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder: %v", err))
	}
	encMode = em
}

// Recorder writes calls to a CBOR stream. It is safe for concurrent use.
type Recorder struct {
	buf    *bufio.Writer
	enc    *cbor.Encoder
	closer io.Closer
	err    error
	mu     sync.Mutex
	seq    uint64
}

// NewRecorder writes the header to w and returns a Recorder appending to it.
func NewRecorder(w io.Writer) (*Recorder, error) {
	buf := bufio.NewWriter(w)
	r := &Recorder{buf: buf, enc: encMode.NewEncoder(buf)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	funcs := make([]string, abi.Len())
	for i, fn := range abi.Funcs() {
		funcs[i] = fn.Name
	}
	h := Header{
		Format:  Format,
		Version: Version,
		Module:  abi.ModuleName,
		Funcs:   funcs,
		Start:   time.Now().UnixNano(),
	}
	if err := r.enc.Encode(h); err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "write header")
	}
	return r, nil
}

// Create opens path for writing and returns a Recorder that closes it.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindInvalidInput, err, "create "+path)
	}
	r, err := NewRecorder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// OnCall appends c. After the first write failure further calls are
// dropped and the failure is reported by Err and Close.
func (r *Recorder) OnCall(c host.Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.seq++
	if err := r.enc.Encode(fromCall(r.seq, c)); err != nil {
		r.err = errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "write record")
		Logger().Warn("trace disabled", zap.Error(err))
	}
}

// Count returns the number of calls recorded so far.
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Err returns the first write failure.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Flush writes buffered records to the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

func (r *Recorder) flush() error {
	if r.err != nil {
		return r.err
	}
	if err := r.buf.Flush(); err != nil {
		r.err = errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "flush")
	}
	return r.err
}

// Close flushes and closes the underlying writer when it is a Closer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.closer = nil
	}
	return err
}

// Reader decodes a trace stream.
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads and checks the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(bufio.NewReader(r))
	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "read header")
	}
	if h.Format != Format {
		return nil, errors.New(errors.PhaseTrace, errors.KindInvalidData).
			Detail("not a trace stream (format %q)", h.Format).
			Build()
	}
	if h.Version != Version {
		return nil, errors.Unsupported(errors.PhaseTrace, fmt.Sprintf("trace version %d", h.Version))
	}
	return &Reader{dec: dec, header: h}, nil
}

// Header returns the stream header.
func (r *Reader) Header() Header { return r.header }

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if stderrors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, errors.Wrap(errors.PhaseTrace, errors.KindInvalidData, err, "read record")
	}
	return rec, nil
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
