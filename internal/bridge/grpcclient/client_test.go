// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package grpcclient

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"mathnb/cli/internal/bridge/model"
	apperrors "mathnb/cli/internal/errors"
)

type call struct {
	method string
	query  string
	sessID string
	auth   []string
}

// startServer serves the evaluator method with reply; every call is recorded.
func startServer(t *testing.T, reply func(query string) (map[string]any, error)) (*Client, *[]call) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	var calls []call

	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		md, _ := metadata.FromIncomingContext(stream.Context())
		q := req.GetFields()[model.FieldQuery].GetStringValue()
		calls = append(calls, call{
			method: method,
			query:  q,
			sessID: req.GetFields()[model.FieldSessionID].GetStringValue(),
			auth:   md.Get("authorization"),
		})
		out, err := reply(q)
		if err != nil {
			return err
		}
		resp, err := structpb.NewStruct(out)
		if err != nil {
			return err
		}
		return stream.SendMsg(resp)
	}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := New("passthrough:///bufnet", false,
		WithSessionID("s-1"),
		WithTokenSource(func() string { return "tok" }),
		WithDialOptions(
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, &calls
}

func TestEvaluate(t *testing.T) {
	c, calls := startServer(t, func(string) (map[string]any, error) {
		return map[string]any{"results": []any{
			map[string]any{
				"out":    []any{map[string]any{"message": true, "prefix": "Power::infy", "text": "Infinite expression 1 / 0 encountered."}},
				"result": "ComplexInfinity",
			},
		}}, nil
	})

	groups, err := c.Evaluate(context.Background(), "1 / 0")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "ComplexInfinity", groups[0].Result)
	assert.Equal(t, "Power::infy", groups[0].Out[0].Prefix)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, model.EvaluateMethod, got.method)
	assert.Equal(t, "1 / 0", got.query)
	assert.Equal(t, "s-1", got.sessID)
	assert.Equal(t, []string{"Bearer tok"}, got.auth)
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply func(string) (map[string]any, error)
		kind  apperrors.Kind
	}{
		{
			name:  "error field",
			reply: func(string) (map[string]any, error) { return map[string]any{"error": "Syntax::sntxf: bad"}, nil },
			kind:  apperrors.EvaluationFailed,
		},
		{
			name:  "unauthenticated",
			reply: func(string) (map[string]any, error) { return nil, status.Error(codes.Unauthenticated, "no token") },
			kind:  apperrors.AuthRequired,
		},
		{
			name:  "invalid argument",
			reply: func(string) (map[string]any, error) { return nil, status.Error(codes.InvalidArgument, "bad query") },
			kind:  apperrors.EvaluationFailed,
		},
		{
			name:  "malformed results",
			reply: func(string) (map[string]any, error) { return map[string]any{"results": "nope"}, nil },
			kind:  apperrors.EvaluationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := startServer(t, tt.reply)
			_, err := c.Evaluate(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	_, err := New("", true)
	assert.Error(t, err)
}
