// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// FuncBackendKind names the runtime a function executes on. Intrinsic
// kinds run in-process; JsAttribute and JsAction run in the external
// function runtime.
type FuncBackendKind string

const (
	FuncBackendKindIdentity      FuncBackendKind = "identity"
	FuncBackendKindUnset         FuncBackendKind = "unset"
	FuncBackendKindArray         FuncBackendKind = "array"
	FuncBackendKindBoolean       FuncBackendKind = "boolean"
	FuncBackendKindInteger       FuncBackendKind = "integer"
	FuncBackendKindMap           FuncBackendKind = "map"
	FuncBackendKindObject        FuncBackendKind = "object"
	FuncBackendKindString        FuncBackendKind = "string"
	FuncBackendKindJsAttribute   FuncBackendKind = "jsAttribute"
	FuncBackendKindJsAction      FuncBackendKind = "jsAction"
	FuncBackendKindJsAuth        FuncBackendKind = "jsAuthentication"
	FuncBackendKindJsValidation  FuncBackendKind = "jsValidation"
	FuncBackendKindJsReconcile   FuncBackendKind = "jsReconciliation"
)

// IsAction reports whether executions of this backend mutate the world
// and must never be served from the binding cache.
func (k FuncBackendKind) IsAction() bool {
	return k == FuncBackendKindJsAction
}

// FuncBackendResponseType is the declared shape of a function's result.
type FuncBackendResponseType string

const (
	FuncResponseTypeIdentity      FuncBackendResponseType = "identity"
	FuncResponseTypeUnset         FuncBackendResponseType = "unset"
	FuncResponseTypeArray         FuncBackendResponseType = "array"
	FuncResponseTypeBoolean       FuncBackendResponseType = "boolean"
	FuncResponseTypeInteger       FuncBackendResponseType = "integer"
	FuncResponseTypeMap           FuncBackendResponseType = "map"
	FuncResponseTypeObject        FuncBackendResponseType = "object"
	FuncResponseTypeString        FuncBackendResponseType = "string"
	FuncResponseTypeJson          FuncBackendResponseType = "json"
	FuncResponseTypeAction        FuncBackendResponseType = "action"
	FuncResponseTypeCodeGen       FuncBackendResponseType = "codeGeneration"
	FuncResponseTypeQualification FuncBackendResponseType = "qualification"
)

// Func is an executable unit: either an intrinsic or user code.
type Func struct {
	ID             ID                      `json:"id"`
	Tenancy        Tenancy                 `json:"tenancy"`
	Timestamp      Timestamp               `json:"timestamp"`
	Name           string                  `json:"name"`
	DisplayName    string                  `json:"display_name,omitempty"`
	Description    string                  `json:"description,omitempty"`
	Link           string                  `json:"link,omitempty"`
	Hidden         bool                    `json:"hidden"`
	Builtin        bool                    `json:"builtin"`
	BackendKind    FuncBackendKind         `json:"backend_kind"`
	ResponseType   FuncBackendResponseType `json:"response_type"`
	Handler        string                  `json:"handler,omitempty"`
	CodeBase64     string                  `json:"code_base64,omitempty"`
}

// IsIntrinsic reports whether the func runs in-process.
func (f Func) IsIntrinsic() bool {
	switch f.BackendKind {
	case FuncBackendKindIdentity, FuncBackendKindUnset,
		FuncBackendKindArray, FuncBackendKindBoolean, FuncBackendKindInteger,
		FuncBackendKindMap, FuncBackendKindObject, FuncBackendKindString:
		return true
	}
	return false
}

// FuncArgumentKind types a declared function argument.
type FuncArgumentKind string

const (
	FuncArgumentKindAny     FuncArgumentKind = "any"
	FuncArgumentKindArray   FuncArgumentKind = "array"
	FuncArgumentKindBoolean FuncArgumentKind = "boolean"
	FuncArgumentKindInteger FuncArgumentKind = "integer"
	FuncArgumentKindMap     FuncArgumentKind = "map"
	FuncArgumentKindObject  FuncArgumentKind = "object"
	FuncArgumentKindString  FuncArgumentKind = "string"
)

// FuncArgument declares a named input of a Func.
type FuncArgument struct {
	ID          ID               `json:"id"`
	Tenancy     Tenancy          `json:"tenancy"`
	Timestamp   Timestamp        `json:"timestamp"`
	FuncID      ID               `json:"func_id"`
	Name        string           `json:"name"`
	Kind        FuncArgumentKind `json:"kind"`
	ElementKind FuncArgumentKind `json:"element_kind,omitempty"`
}

// FuncBinding is one memoized execution request: a function plus the
// exact arguments it ran with, addressed by content hash.
type FuncBinding struct {
	ID          ID              `json:"id"`
	Tenancy     Tenancy         `json:"tenancy"`
	Timestamp   Timestamp       `json:"timestamp"`
	FuncID      ID              `json:"func_id"`
	BackendKind FuncBackendKind `json:"backend_kind"`
	Args        json.RawMessage `json:"args"`
	ContentHash string          `json:"content_hash"`
}

// FuncBindingReturnValue is the persisted result of a binding run.
type FuncBindingReturnValue struct {
	ID               ID              `json:"id"`
	Tenancy          Tenancy         `json:"tenancy"`
	Timestamp        Timestamp       `json:"timestamp"`
	FuncID           ID              `json:"func_id"`
	FuncBindingID    ID              `json:"func_binding_id"`
	UnprocessedValue json.RawMessage `json:"unprocessed_value,omitempty"`
	Value            json.RawMessage `json:"value,omitempty"`
}

// OutputLine is one log line captured from a function run.
type OutputLine struct {
	Stream    string    `json:"stream"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
