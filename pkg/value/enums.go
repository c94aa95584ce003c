package value

// AccessMode describes in which directions a parameter value flows.
type AccessMode uint8

const (
	// AccessBi allows both reading and writing.
	AccessBi AccessMode = iota

	// AccessGet allows reading only.
	AccessGet

	// AccessSet allows writing only.
	AccessSet
)

// String returns the access mode name.
func (a AccessMode) String() string {
	switch a {
	case AccessBi:
		return "BI"
	case AccessGet:
		return "GET"
	case AccessSet:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// CanGet returns true if the value may be read.
func (a AccessMode) CanGet() bool { return a == AccessBi || a == AccessGet }

// CanSet returns true if the value may be written.
func (a AccessMode) CanSet() bool { return a == AccessBi || a == AccessSet }

// BoundingMode is the policy applied to values outside a domain.
type BoundingMode uint8

const (
	// BoundFree leaves values untouched.
	BoundFree BoundingMode = iota

	// BoundClip clamps to [min, max].
	BoundClip

	// BoundWrap wraps around the range.
	BoundWrap

	// BoundFold reflects back into the range.
	BoundFold

	// BoundLow clamps to min only.
	BoundLow

	// BoundHigh clamps to max only.
	BoundHigh
)

// String returns the bounding mode name.
func (b BoundingMode) String() string {
	switch b {
	case BoundFree:
		return "FREE"
	case BoundClip:
		return "CLIP"
	case BoundWrap:
		return "WRAP"
	case BoundFold:
		return "FOLD"
	case BoundLow:
		return "LOW"
	case BoundHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}
