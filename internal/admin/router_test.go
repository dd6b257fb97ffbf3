package admin

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/scttfrdmn/aws-ec2-admin/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mockRunner records calls and returns canned results
type mockRunner struct {
	tokenValid bool
	token      string
	tokenErr   error
	ec2Res     *types.Ec2CtrlRes
	ec2Err     error

	checked  []string
	issued   []string
	ec2Calls []types.Ec2Op
}

func newMockRunner() *mockRunner {
	ip := "12.3.45.3"
	return &mockRunner{
		tokenValid: true,
		token:      "12345",
		ec2Res:     &types.Ec2CtrlRes{Status: types.StatusOn, IP: &ip},
	}
}

func (m *mockRunner) CheckToken(_ context.Context, token, _ string) bool {
	m.checked = append(m.checked, token)
	return m.tokenValid
}

func (m *mockRunner) GetToken(_ context.Context, password, _, _ string) (string, error) {
	m.issued = append(m.issued, password)
	return m.token, m.tokenErr
}

func (m *mockRunner) EC2Control(_ context.Context, _ string, op types.Ec2Op) (*types.Ec2CtrlRes, error) {
	m.ec2Calls = append(m.ec2Calls, op)
	return m.ec2Res, m.ec2Err
}

func strPtr(s string) *string { return &s }

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{"JWT_SECRET", "PASSWORD", "EC2_ID"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

var fullEnv = map[string]string{
	"JWT_SECRET": "12345",
	"PASSWORD":   "12345",
	"EC2_ID":     "12345",
}

func TestRouter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		args     RouteArgs
		runner   func(*mockRunner)
		expected *Error
	}{
		{
			name:     "missing jwt secret",
			env:      map[string]string{},
			expected: ConfNone("JWT_SECRET"),
		},
		{
			name: "missing jwt secret preempts everything",
			env:  map[string]string{"PASSWORD": "x", "EC2_ID": "x"},
			args: RouteArgs{
				Token:   strPtr("t"),
				Command: strPtr("ec2-control"),
				Data:    map[string]interface{}{"operation": "on"},
			},
			expected: ConfNone("JWT_SECRET"),
		},
		{
			name:     "missing password reported as PWD",
			env:      map[string]string{"JWT_SECRET": "12345"},
			expected: ConfNone("PWD"),
		},
		{
			name:     "missing instance id",
			env:      map[string]string{"JWT_SECRET": "12345", "PASSWORD": "12345"},
			expected: ConfNone("EC2_ID"),
		},
		{
			name:     "command absent",
			env:      fullEnv,
			expected: CmdNone(),
		},
		{
			name:     "command absent with token",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t")},
			expected: CmdNone(),
		},
		{
			name:     "unknown command",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("reboot")},
			expected: InvdCmd("reboot"),
		},
		{
			name:     "empty command is invalid not absent",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("")},
			expected: InvdCmd(""),
		},
		{
			name:     "invalid command preempts missing token",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("nope")},
			expected: InvdCmd("nope"),
		},
		{
			name:     "ec2-control without token",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("ec2-control")},
			expected: TokenNone(),
		},
		{
			name:     "invalid token",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("bad"), Command: strPtr("ec2-control")},
			runner:   func(m *mockRunner) { m.tokenValid = false },
			expected: InvdToken(),
		},
		{
			name:     "empty token is validated",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr(""), Command: strPtr("ec2-control")},
			runner:   func(m *mockRunner) { m.tokenValid = false },
			expected: InvdToken(),
		},
		{
			name: "invalid token preempts credential check on get-token",
			env:  fullEnv,
			args: RouteArgs{
				Token:   strPtr("bad"),
				Command: strPtr("get-token"),
				Data:    map[string]interface{}{"password": "12345"},
			},
			runner:   func(m *mockRunner) { m.tokenValid = false },
			expected: InvdToken(),
		},
		{
			name:     "get-token without data",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token")},
			expected: DataNone("password"),
		},
		{
			name:     "get-token with data that is not an object",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token"), Data: "12345"},
			expected: DataNone("password"),
		},
		{
			name:     "get-token without password",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token"), Data: map[string]interface{}{"pwd": "12345"}},
			expected: DataNone("password"),
		},
		{
			name:     "get-token with numeric password",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token"), Data: map[string]interface{}{"password": float64(12345)}},
			expected: TypeErr("password", "string", "number"),
		},
		{
			name:     "get-token with null password",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token"), Data: map[string]interface{}{"password": nil}},
			expected: TypeErr("password", "string", "null"),
		},
		{
			name:     "get-token with wrong password",
			env:      fullEnv,
			args:     RouteArgs{Command: strPtr("get-token"), Data: map[string]interface{}{"password": "nope"}},
			runner:   func(m *mockRunner) { m.tokenErr = errors.New("mismatch") },
			expected: InvdCreds(),
		},
		{
			name:     "ec2-control without data",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t"), Command: strPtr("ec2-control")},
			expected: DataNone("operation"),
		},
		{
			name:     "ec2-control with non-string operation",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t"), Command: strPtr("ec2-control"), Data: map[string]interface{}{"operation": true}},
			expected: TypeErr("operation", "string", "bool"),
		},
		{
			name:     "ec2-control with object operation",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t"), Command: strPtr("ec2-control"), Data: map[string]interface{}{"operation": map[string]interface{}{}}},
			expected: TypeErr("operation", "string", "object"),
		},
		{
			name:     "ec2-control with unknown operation",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t"), Command: strPtr("ec2-control"), Data: map[string]interface{}{"operation": "reboot"}},
			expected: InvdEc2Op("reboot"),
		},
		{
			name:     "instance missing surfaces unchanged",
			env:      fullEnv,
			args:     RouteArgs{Token: strPtr("t"), Command: strPtr("ec2-control"), Data: map[string]interface{}{"operation": "status"}},
			runner:   func(m *mockRunner) { m.ec2Res, m.ec2Err = nil, Ec2None() },
			expected: Ec2None(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			runner := newMockRunner()
			if tt.runner != nil {
				tt.runner(runner)
			}
			router := NewRouter(zaptest.NewLogger(t), runner)

			res, err := router.Route(context.Background(), tt.args)

			assert.Nil(t, res)
			var adminErr *Error
			require.ErrorAs(t, err, &adminErr)
			assert.Equal(t, tt.expected.Kind, adminErr.Kind)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, tt.expected.Error(), err.Error())
		})
	}
}

func TestRouter_MissingJWTSecretMessage(t *testing.T) {
	setEnv(t, map[string]string{})
	router := NewRouter(zaptest.NewLogger(t), newMockRunner())

	_, err := router.Route(context.Background(), RouteArgs{})
	require.Error(t, err)
	assert.Equal(t, "JWT_SECRET was not configured", err.Error())
}

func TestRouter_CommandMissingMessage(t *testing.T) {
	setEnv(t, fullEnv)
	router := NewRouter(zaptest.NewLogger(t), newMockRunner())

	_, err := router.Route(context.Background(), RouteArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command field is missing")
}

func TestRouter_GetToken(t *testing.T) {
	for _, command := range []string{"get-token", "validate-token"} {
		t.Run(command, func(t *testing.T) {
			setEnv(t, fullEnv)
			runner := newMockRunner()
			router := NewRouter(zaptest.NewLogger(t), runner)

			res, err := router.Route(context.Background(), RouteArgs{
				Command: strPtr(command),
				Data:    map[string]interface{}{"password": "12345"},
			})
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"token": "12345"}, res)

			// No token supplied, so none is checked
			assert.Empty(t, runner.checked)
			assert.Equal(t, []string{"12345"}, runner.issued)
			assert.Empty(t, runner.ec2Calls)
		})
	}
}

func TestRouter_GetTokenWithValidToken(t *testing.T) {
	setEnv(t, fullEnv)
	runner := newMockRunner()
	router := NewRouter(zaptest.NewLogger(t), runner)

	res, err := router.Route(context.Background(), RouteArgs{
		Token:   strPtr("existing"),
		Command: strPtr("get-token"),
		Data:    map[string]interface{}{"password": "12345"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "12345"}, res)
	assert.Equal(t, []string{"existing"}, runner.checked)
}

func TestRouter_EC2Control(t *testing.T) {
	tests := []struct {
		operation string
		expected  types.Ec2Op
	}{
		{"on", types.Ec2OpOn},
		{"off", types.Ec2OpOff},
		{"status", types.Ec2OpStatus},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			setEnv(t, fullEnv)
			runner := newMockRunner()
			router := NewRouter(zaptest.NewLogger(t), runner)

			res, err := router.Route(context.Background(), RouteArgs{
				Token:   strPtr("anything"),
				Command: strPtr("ec2-control"),
				Data:    map[string]interface{}{"operation": tt.operation},
			})
			require.NoError(t, err)

			ctrl, ok := res.(*types.Ec2CtrlRes)
			require.True(t, ok)
			assert.Equal(t, types.StatusOn, ctrl.Status)
			require.NotNil(t, ctrl.IP)
			assert.Equal(t, "12.3.45.3", *ctrl.IP)

			assert.Equal(t, []string{"anything"}, runner.checked)
			assert.Equal(t, []types.Ec2Op{tt.expected}, runner.ec2Calls)
			assert.Empty(t, runner.issued)
		})
	}
}

func TestRouter_NoCapabilityCallBeforeAuth(t *testing.T) {
	setEnv(t, fullEnv)
	runner := newMockRunner()
	runner.tokenValid = false
	router := NewRouter(zaptest.NewLogger(t), runner)

	_, err := router.Route(context.Background(), RouteArgs{
		Token:   strPtr("forged"),
		Command: strPtr("ec2-control"),
		Data:    map[string]interface{}{"operation": "off"},
	})
	assert.ErrorIs(t, err, InvdToken())
	assert.Empty(t, runner.ec2Calls)
	assert.Empty(t, runner.issued)
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err      *Error
		expected string
	}{
		{ConfNone("PWD"), "PWD was not configured"},
		{CmdNone(), "The command field is missing, add a valid command to it"},
		{InvdCmd("x"), "The given command x is invalid, please enter a valid command"},
		{TokenNone(), "The auth token is missing"},
		{InvdToken(), "The auth token is invalid"},
		{DataNone("password"), "password is missing from the data field, please add it in the data object"},
		{TypeErr("password", "string", "number"), "For the field password, we were expecting type string, but found number instead. Try using the correct type"},
		{InvdCreds(), "The provided credentials are invalid"},
		{Ec2None(), "The EC2 instance does not exist"},
		{Ec2Unknown(errors.New("throttled")), "The EC2 request failed: throttled"},
		{Unknown(), "Unknown Error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("throttled")
	err := Ec2Unknown(cause)
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, Ec2None()))
}
