package admin

import (
	"fmt"
)

// Kind classifies a pipeline failure
type Kind int

const (
	KindUnknown Kind = iota
	KindConfNone
	KindCmdNone
	KindInvdCmd
	KindTokenNone
	KindInvdToken
	KindDataNone
	KindTypeErr
	KindInvdEc2Op
	KindInvdCreds
	KindEc2None
	KindEc2Unknown
)

var kindNames = map[Kind]string{
	KindUnknown:    "Unknown",
	KindConfNone:   "ConfNone",
	KindCmdNone:    "CmdNone",
	KindInvdCmd:    "InvdCmd",
	KindTokenNone:  "TokenNone",
	KindInvdToken:  "InvdToken",
	KindDataNone:   "DataNone",
	KindTypeErr:    "TypeErr",
	KindInvdEc2Op:  "InvdEc2Op",
	KindInvdCreds:  "InvdCreds",
	KindEc2None:    "Ec2None",
	KindEc2Unknown: "Ec2Unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// TypeError describes a payload field of the wrong JSON type
type TypeError struct {
	Field    string
	Expected string
	Received string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("For the field %s, we were expecting type %s, but found %s instead. Try using the correct type",
		e.Field, e.Expected, e.Received)
}

// Error is the single error type produced by the admin pipeline.
// Value holds the kind's payload: the variable name for ConfNone, the raw
// string for InvdCmd and InvdEc2Op, the field for DataNone and the backend
// message for Ec2Unknown.
type Error struct {
	Kind  Kind
	Value string
	Type  *TypeError
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfNone:
		return fmt.Sprintf("%s was not configured", e.Value)
	case KindCmdNone:
		return "The command field is missing, add a valid command to it"
	case KindInvdCmd:
		return fmt.Sprintf("The given command %s is invalid, please enter a valid command", e.Value)
	case KindTokenNone:
		return "The auth token is missing"
	case KindInvdToken:
		return "The auth token is invalid"
	case KindDataNone:
		return fmt.Sprintf("%s is missing from the data field, please add it in the data object", e.Value)
	case KindTypeErr:
		if e.Type != nil {
			return e.Type.Error()
		}
	case KindInvdEc2Op:
		return fmt.Sprintf("The given operation %s is invalid, please use on, off or status", e.Value)
	case KindInvdCreds:
		return "The provided credentials are invalid"
	case KindEc2None:
		return "The EC2 instance does not exist"
	case KindEc2Unknown:
		return fmt.Sprintf("The EC2 request failed: %s", e.Value)
	}
	return "Unknown Error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and payload
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind || t.Value != e.Value {
		return false
	}
	if t.Type == nil || e.Type == nil {
		return t.Type == e.Type
	}
	return *t.Type == *e.Type
}

func ConfNone(name string) *Error { return &Error{Kind: KindConfNone, Value: name} }

func CmdNone() *Error { return &Error{Kind: KindCmdNone} }

func InvdCmd(raw string) *Error { return &Error{Kind: KindInvdCmd, Value: raw} }

func TokenNone() *Error { return &Error{Kind: KindTokenNone} }

func InvdToken() *Error { return &Error{Kind: KindInvdToken} }

func DataNone(field string) *Error { return &Error{Kind: KindDataNone, Value: field} }

func TypeErr(field, expected, received string) *Error {
	return &Error{Kind: KindTypeErr, Type: &TypeError{Field: field, Expected: expected, Received: received}}
}

func InvdEc2Op(raw string) *Error { return &Error{Kind: KindInvdEc2Op, Value: raw} }

func InvdCreds() *Error { return &Error{Kind: KindInvdCreds} }

func Ec2None() *Error { return &Error{Kind: KindEc2None} }

// Ec2Unknown wraps a backend failure, keeping its message as the payload
func Ec2Unknown(err error) *Error {
	return &Error{Kind: KindEc2Unknown, Value: err.Error(), Err: err}
}

func Unknown() *Error { return &Error{Kind: KindUnknown} }
