package protocol

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/value"
)

// Args flattens a value into OSC arguments. Impulses have no arguments,
// vectors and lists are sent element by element and chars as one-letter
// strings.
func Args(v value.Value) []any {
	switch v.Type() {
	case value.TypeBool:
		b, _ := v.AsBool()
		return []any{b}
	case value.TypeChar:
		c, _ := v.AsChar()
		return []any{string([]byte{c})}
	case value.TypeInt:
		i, _ := v.AsInt()
		return []any{i}
	case value.TypeFloat:
		f, _ := v.AsFloat()
		return []any{f}
	case value.TypeString:
		s, _ := v.AsString()
		return []any{s}
	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f:
		fs := v.Floats()
		out := make([]any, len(fs))
		for i, f := range fs {
			out[i] = f
		}
		return out
	case value.TypeList:
		l, _ := v.AsList()
		var out []any
		for _, e := range l {
			out = append(out, Args(e)...)
		}
		return out
	}
	return nil
}

// FromArgs builds a value from OSC arguments. No argument is an impulse,
// one argument a scalar and several a list. The receiving parameter
// converts the result to its declared type.
func FromArgs(args []any) value.Value {
	switch len(args) {
	case 0:
		return value.Impulse()
	case 1:
		return fromArg(args[0])
	}
	elems := make([]value.Value, len(args))
	for i, a := range args {
		elems[i] = fromArg(a)
	}
	return value.List(elems...)
}

func fromArg(a any) value.Value {
	switch x := a.(type) {
	case bool:
		return value.Bool(x)
	case int32:
		return value.Int(x)
	case int64:
		return value.Int(int32(x))
	case float32:
		return value.Float(x)
	case float64:
		return value.Float(float32(x))
	case string:
		return value.String(x)
	case []byte:
		return value.String(string(x))
	case nil:
		return value.Impulse()
	}
	return value.String(fmt.Sprint(a))
}

// Encode returns the binary OSC message for address and args.
func Encode(address string, args ...any) ([]byte, error) {
	msg := osc.NewMessage(address, args...)
	return msg.MarshalBinary()
}

// EncodeValue returns the binary OSC message carrying v.
func EncodeValue(address string, v value.Value) ([]byte, error) {
	return Encode(address, Args(v)...)
}

// Decode parses a packet and returns its messages, bundles flattened.
func Decode(data []byte) ([]*osc.Message, error) {
	pkt, err := osc.ParsePacket(string(data))
	if err != nil {
		return nil, err
	}
	return flatten(pkt), nil
}

func flatten(pkt osc.Packet) []*osc.Message {
	switch p := pkt.(type) {
	case *osc.Message:
		return []*osc.Message{p}
	case *osc.Bundle:
		out := append([]*osc.Message(nil), p.Messages...)
		for _, b := range p.Bundles {
			out = append(out, flatten(b)...)
		}
		return out
	}
	return nil
}
