package log

import (
	"time"
)

// Event represents a log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the transport instance or websocket client (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Protocol names the transport ("osc", "minuit", "oscquery", "mirror").
	Protocol string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Device is the local device name.
	Device string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"` // Transport layer
	Callback    *CallbackEvent    `cbor:"11,keyasint,omitempty"` // Bridge layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Lifecycle
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerTransport is the network layer (OSC, OSCQuery, Minuit).
	LayerTransport Layer = 0
	// LayerBridge is the callback path into the interpreter.
	LayerBridge Layer = 1
	// LayerHost is the primitive surface called by the interpreter.
	LayerHost Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerBridge:
		return "BRIDGE"
	case LayerHost:
		return "HOST"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a network message.
	CategoryMessage Category = 0
	// CategoryCallback indicates a callback delivery.
	CategoryCallback Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryCallback:
		return "CALLBACK"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures a network message.
type MessageEvent struct {
	// Type distinguishes value updates from namespace traffic.
	Type MessageType `cbor:"1,keyasint"`

	// Address is the OSC address or HTTP path.
	Address string `cbor:"2,keyasint"`

	// Args are the decoded arguments (CBOR-compatible representation).
	Args []any `cbor:"3,keyasint,omitempty"`

	// Size is the encoded size in bytes.
	Size int `cbor:"4,keyasint,omitempty"`
}

// MessageType distinguishes network message kinds.
type MessageType uint8

const (
	// MessageTypeValue is a value update.
	MessageTypeValue MessageType = 0
	// MessageTypeNamespace is a namespace query or answer.
	MessageTypeNamespace MessageType = 1
	// MessageTypeGet is a value query.
	MessageTypeGet MessageType = 2
	// MessageTypeListen is a listen/ignore command.
	MessageTypeListen MessageType = 3
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeValue:
		return "VALUE"
	case MessageTypeNamespace:
		return "NAMESPACE"
	case MessageTypeGet:
		return "GET"
	case MessageTypeListen:
		return "LISTEN"
	default:
		return "UNKNOWN"
	}
}

// CallbackEvent captures a callback delivery to the interpreter.
type CallbackEvent struct {
	// Address is the full path of the parameter.
	Address string `cbor:"1,keyasint"`

	// Selector is the interpreter entry point.
	Selector string `cbor:"2,keyasint"`

	// Dropped is set when the interpreter was not ready.
	Dropped bool `cbor:"3,keyasint,omitempty"`

	// Duration spent inside the interpreter. Stored as nanoseconds.
	Duration *time.Duration `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityTransport indicates a transport was exposed or closed.
	StateEntityTransport StateEntity = 0
	// StateEntityClient indicates a websocket client connected or left.
	StateEntityClient StateEntity = 1
	// StateEntityDevice indicates a device was created or freed.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityTransport:
		return "TRANSPORT"
	case StateEntityClient:
		return "CLIENT"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Kind is the argument error kind (if applicable).
	Kind *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
