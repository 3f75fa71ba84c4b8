package requirement

import (
	"encoding/json"
	"fmt"
)

// NullPolicy governs what happens when a requirement has no value at
// component construction time.
type NullPolicy int

const (
	// New means the component instantiates the requirement itself.
	New NullPolicy = iota

	// Throw means an absent value is an error.
	Throw

	// Allow means an absent value is tolerated.
	Allow
)

func (p NullPolicy) String() string {
	switch p {
	case New:
		return "New"
	case Throw:
		return "Throw"
	case Allow:
		return "Allow"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsValid checks if the policy is one of the known values.
func (p NullPolicy) IsValid() bool {
	return p >= New && p <= Allow
}

// MarshalText implements encoding.TextMarshaler.
func (p NullPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *NullPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "New", "new":
		*p = New
	case "Throw", "throw":
		*p = Throw
	case "Allow", "allow":
		*p = Allow
	default:
		return fmt.Errorf("invalid null policy: %q", text)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p NullPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *NullPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}
