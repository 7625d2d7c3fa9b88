package log

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Capture stream identification.
const (
	// Magic opens every capture stream.
	Magic = "GLOG"

	// FormatVersion is the capture format written by this package.
	FormatVersion uint8 = 1
)

// Capture stream errors.
var (
	ErrBadMagic           = errors.New("not a grass capture stream")
	ErrUnsupportedVersion = errors.New("unsupported capture format version")
)

// Header is the first record of a capture stream. A file that was appended
// to by several runs carries one header per run.
type Header struct {
	// Magic is always the Magic constant. Key 0 is never used by Event,
	// which is how Decoder tells the two records apart.
	Magic string `cbor:"0,keyasint"`

	Version uint8     `cbor:"1,keyasint"`
	Created time.Time `cbor:"2,keyasint"`

	// Agent names the program that wrote the stream.
	Agent string `cbor:"3,keyasint,omitempty"`
}

// NewHeader returns a header for a stream written now by agent.
func NewHeader(agent string) Header {
	return Header{
		Magic:   Magic,
		Version: FormatVersion,
		Created: time.Now(),
		Agent:   agent,
	}
}

func (h Header) validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: magic %q", ErrBadMagic, h.Magic)
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// Timestamps are RFC 3339 text with nanoseconds.
var (
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture encoder options: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture decoder options: %v", err))
	}
	return m
}

// EncodeEvent encodes a single event record.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent decodes a single event record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// Encoder writes a capture stream.
type Encoder struct {
	enc *cbor.Encoder
}

// NewEncoder returns an Encoder writing to w. Callers starting a new stream
// write a Header first.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: encMode.NewEncoder(w)}
}

// WriteHeader writes a stream header record.
func (e *Encoder) WriteHeader(h Header) error {
	if err := h.validate(); err != nil {
		return err
	}
	return e.enc.Encode(h)
}

// Encode writes one event record.
func (e *Encoder) Encode(event Event) error {
	return e.enc.Encode(event)
}

// Decoder reads a capture stream. Header records are consumed
// transparently; the most recent one is available from Header.
type Decoder struct {
	dec    *cbor.Decoder
	header *Header
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r)}
}

// recordKind peeks at key 0 of a record.
type recordKind struct {
	Magic string `cbor:"0,keyasint,omitempty"`
}

// Decode reads the next event into event. It returns io.EOF at a clean end
// of stream and io.ErrUnexpectedEOF for a truncated record.
func (d *Decoder) Decode(event *Event) error {
	for {
		var raw cbor.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return err
		}

		var kind recordKind
		if err := decMode.Unmarshal(raw, &kind); err != nil {
			return err
		}
		if kind.Magic == "" {
			*event = Event{}
			return decMode.Unmarshal(raw, event)
		}

		var h Header
		if err := decMode.Unmarshal(raw, &h); err != nil {
			return err
		}
		if err := h.validate(); err != nil {
			return err
		}
		d.header = &h
	}
}

// Header returns the last stream header seen, if any. Files written before
// headers were introduced have none.
func (d *Decoder) Header() (Header, bool) {
	if d.header == nil {
		return Header{}, false
	}
	return *d.header, true
}
