// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient provides a gRPC-backed query evaluator.
// Requests and replies travel as google.protobuf.Struct messages over the unary
// method /mathnb.Evaluator/Evaluate; the access token is sent as bearer metadata.
package grpcclient

import (
	"context"
	"crypto/tls"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"mathnb/cli/internal/bridge/model"
	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// Option configures a Client.
type Option func(*Client)

// WithTokenSource attaches "authorization: Bearer <token>" metadata to every call.
func WithTokenSource(ts func() string) Option { return func(c *Client) { c.tokens = ts } }

// WithSessionID sets the evaluator session id.
func WithSessionID(id string) Option { return func(c *Client) { c.sessionID = id } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithDialOptions replaces the transport credentials chosen from the address.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOpts = opts }
}

// Client evaluates queries over gRPC.
type Client struct {
	conn      *grpc.ClientConn
	sessionID string
	tokens    func() string
	log       *zap.Logger
	dialOpts  []grpc.DialOption
}

// New creates a client for addr (host:port). TLS is used when secure is true;
// the connection itself is established lazily on the first call.
func New(addr string, secure bool, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("evaluator address is empty")
	}
	c := &Client{log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	dialOpts := c.dialOpts
	if dialOpts == nil {
		if secure {
			host := addr
			if h, _, err := net.SplitHostPort(addr); err == nil {
				host = h
			}
			creds := credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
			dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(creds)}
		} else {
			dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
		}
	}

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// Evaluate runs one query and decodes its result groups.
func (c *Client) Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error) {
	req, err := model.EvalRequest{Query: query, SessionID: c.sessionID}.Struct()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.EvaluationFailed, "encode request", err)
	}

	if c.tokens != nil {
		if tok := c.tokens(); tok != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
		}
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, model.EvaluateMethod, req, resp); err != nil {
		return nil, c.mapError(ctx, err)
	}

	out := model.ResponseFromStruct(resp)
	if out.HasError {
		return nil, apperrors.New(apperrors.EvaluationFailed, out.Error)
	}
	groups, err := worksheet.DecodeResults(out.Results)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.EvaluationFailed, "malformed evaluator response", err)
	}
	return groups, nil
}

func (c *Client) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	st, ok := status.FromError(err)
	if !ok {
		return apperrors.Wrap(apperrors.EvaluationFailed, "evaluator call failed", err)
	}
	c.log.Debug("evaluate rpc failed", zap.String("code", st.Code().String()), zap.String("message", st.Message()))

	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return apperrors.New(apperrors.AuthRequired, "the evaluator requires login")
	case codes.InvalidArgument, codes.FailedPrecondition:
		return apperrors.New(apperrors.EvaluationFailed, st.Message())
	case codes.Unavailable:
		return apperrors.Wrap(apperrors.EvaluationFailed, "evaluator unreachable", err)
	default:
		return apperrors.Wrap(apperrors.EvaluationFailed, "evaluator call failed", err)
	}
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
