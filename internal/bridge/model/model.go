// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the transport-agnostic messages exchanged with the
// evaluator. The gRPC transport carries them as google.protobuf.Struct values so
// that no generated stubs are needed on the client.
package model

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// EvaluateMethod is the full gRPC method name of the evaluator.
const EvaluateMethod = "/mathnb.Evaluator/Evaluate"

// Field names shared by the HTTP form and the gRPC struct.
const (
	FieldQuery     = "query"
	FieldSessionID = "session_id"
	FieldResults   = "results"
	FieldError     = "error"
)

// EvalRequest asks the evaluator to run one query in a session.
type EvalRequest struct {
	Query     string
	SessionID string
}

// Struct converts the request to its wire form.
func (r EvalRequest) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldQuery:     r.Query,
		FieldSessionID: r.SessionID,
	})
}

// EvalResponse is the decoded wire form of an evaluator reply. Results is left
// undecoded (JSON-shaped values) for the worksheet decoder.
type EvalResponse struct {
	Results any
	Error   string
	// HasError distinguishes {"error": ""} from a missing error field.
	HasError bool
}

// ResponseFromStruct reads an evaluator reply.
func ResponseFromStruct(s *structpb.Struct) EvalResponse {
	m := s.AsMap()
	var out EvalResponse
	out.Results = m[FieldResults]
	if v, ok := m[FieldError]; ok && v != nil {
		out.HasError = true
		if str, ok := v.(string); ok {
			out.Error = str
		}
	}
	return out
}
