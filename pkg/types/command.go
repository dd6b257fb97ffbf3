package types

// Command is the top-level action requested by a caller
type Command int

const (
	CommandInvalid Command = iota
	CommandGetToken
	CommandEc2Control
)

// ParseCommand maps a command string to its Command. Unknown strings map to
// CommandInvalid. "validate-token" is a legacy alias of "get-token".
func ParseCommand(s string) Command {
	switch s {
	case "get-token", "validate-token":
		return CommandGetToken
	case "ec2-control":
		return CommandEc2Control
	default:
		return CommandInvalid
	}
}

func (c Command) String() string {
	switch c {
	case CommandGetToken:
		return "get-token"
	case CommandEc2Control:
		return "ec2-control"
	default:
		return "invalid"
	}
}

// Ec2Op is the power operation requested through ec2-control
type Ec2Op int

const (
	Ec2OpInvalid Ec2Op = iota
	Ec2OpOn
	Ec2OpOff
	Ec2OpStatus
)

// ParseEc2Op maps the data.operation string to an Ec2Op
func ParseEc2Op(s string) Ec2Op {
	switch s {
	case "on":
		return Ec2OpOn
	case "off":
		return Ec2OpOff
	case "status":
		return Ec2OpStatus
	default:
		return Ec2OpInvalid
	}
}

func (o Ec2Op) String() string {
	switch o {
	case Ec2OpOn:
		return "on"
	case Ec2OpOff:
		return "off"
	case Ec2OpStatus:
		return "status"
	default:
		return "invalid"
	}
}
