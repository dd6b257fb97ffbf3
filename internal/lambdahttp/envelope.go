package lambdahttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scttfrdmn/aws-ec2-admin/internal/admin"
)

// Response is the envelope returned to the Lambda runtime
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type event struct {
	Headers map[string]json.RawMessage `json:"headers"`
	Body    json.RawMessage            `json:"body"`
}

type requestBody struct {
	Command json.RawMessage `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// ParseEvent extracts the route arguments from a raw Lambda event. Fields
// that are missing or of the wrong type are left absent; parsing never fails.
// The body may be a JSON object or a string containing one.
func ParseEvent(raw []byte) admin.RouteArgs {
	var args admin.RouteArgs

	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return args
	}

	args.Token = tokenFromHeaders(ev.Headers)

	body, ok := decodeBody(ev.Body)
	if !ok {
		return args
	}

	args.Command = asString(body.Command)

	if len(body.Data) > 0 {
		var data interface{}
		if json.Unmarshal(body.Data, &data) == nil {
			args.Data = data
		}
	}

	return args
}

// tokenFromHeaders reads Authorization verbatim, falling back to the
// lower-case key used by HTTP API payloads
func tokenFromHeaders(headers map[string]json.RawMessage) *string {
	for _, key := range []string{"Authorization", "authorization"} {
		if token := asString(headers[key]); token != nil {
			return token
		}
	}
	return nil
}

// asString returns raw as a string if it holds a JSON string; null and
// other types yield nil
func asString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func decodeBody(raw json.RawMessage) (*requestBody, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	// API Gateway delivers the body as a string
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		raw = bytes.TrimSpace([]byte(s))
	}

	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}

	var body requestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, false
	}
	return &body, true
}

// Success wraps a result value in a 200 response
func Success(value interface{}) Response {
	body, err := json.Marshal(value)
	if err != nil {
		return Failure(&admin.Error{Kind: admin.KindUnknown, Err: err})
	}
	return respond(http.StatusOK, body)
}

// Failure wraps an error in a response carrying {"msg": ...}. Errors that
// are not *admin.Error are reported as Unknown.
func Failure(err error) Response {
	var adminErr *admin.Error
	if !errors.As(err, &adminErr) {
		adminErr = &admin.Error{Kind: admin.KindUnknown, Err: err}
	}

	body, _ := json.Marshal(map[string]string{"msg": adminErr.Error()})
	return respond(StatusCode(adminErr.Kind), body)
}

// StatusCode maps an error kind to its HTTP status
func StatusCode(kind admin.Kind) int {
	switch kind {
	case admin.KindConfNone, admin.KindEc2None, admin.KindEc2Unknown, admin.KindUnknown:
		return http.StatusInternalServerError
	case admin.KindInvdToken:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func respond(code int, body []byte) Response {
	return Response{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
