package types

import (
	"encoding/json"
	"fmt"
)

// Ec2Status is the simplified power state of an instance
type Ec2Status int

const (
	StatusUnknown Ec2Status = iota
	StatusOn
	StatusOff
	StatusPending
	StatusTerminated
)

// EC2 instance state codes as returned by the API (low byte only)
const (
	StateCodePending      int32 = 0
	StateCodeRunning      int32 = 16
	StateCodeShuttingDown int32 = 32
	StateCodeTerminated   int32 = 48
	StateCodeStopping     int32 = 64
	StateCodeStopped      int32 = 80
)

// StatusFromCode maps an EC2 state code to an Ec2Status. Codes without a
// mapping yield StatusUnknown rather than an error.
func StatusFromCode(code int32) Ec2Status {
	switch code {
	case StateCodePending, StateCodeShuttingDown, StateCodeStopping:
		return StatusPending
	case StateCodeRunning:
		return StatusOn
	case StateCodeTerminated:
		return StatusTerminated
	case StateCodeStopped:
		return StatusOff
	default:
		return StatusUnknown
	}
}

func (s Ec2Status) String() string {
	switch s {
	case StatusOn:
		return "On"
	case StatusOff:
		return "Off"
	case StatusPending:
		return "Pending"
	case StatusTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders the status by name
func (s Ec2Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON
func (s *Ec2Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	switch name {
	case "On":
		*s = StatusOn
	case "Off":
		*s = StatusOff
	case "Pending":
		*s = StatusPending
	case "Terminated":
		*s = StatusTerminated
	case "Unknown":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", name)
	}
	return nil
}

// Ec2CtrlRes is the result of an ec2-control operation. A missing public IP
// is serialized as null.
type Ec2CtrlRes struct {
	Status Ec2Status `json:"status"`
	IP     *string   `json:"ip"`
}
