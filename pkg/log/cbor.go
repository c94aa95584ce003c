package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// codec holds the CBOR modes of the event stream. Events are encoded
// canonically with nanosecond RFC 3339 timestamps.
type codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var eventCodec = mustCodec()

func mustCodec() codec {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: event encoder: %v", err))
	}

	// Unknown fields and duplicate keys are tolerated.
	dec, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		MaxNestedLevels:   16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: event decoder: %v", err))
	}
	return codec{enc: enc, dec: dec}
}

// EncodeEvent encodes one event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventCodec.enc.Marshal(event)
}

// DecodeEvent decodes one event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventCodec.dec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns an event stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventCodec.enc.NewEncoder(w)
}

// NewDecoder returns an event stream decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return eventCodec.dec.NewDecoder(r)
}
