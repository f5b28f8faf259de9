// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package sipkg defines the portable package format: hash-addressed
// specs for functions, schemas, components and edges, and the
// compressed archive they travel in.
package sipkg

import (
	"time"

	json "github.com/goccy/go-json"
)

// PkgKind separates installable modules from workspace backups, which
// carry per-change-set content.
type PkgKind string

const (
	PkgKindModule          PkgKind = "module"
	PkgKindWorkspaceBackup PkgKind = "workspaceBackup"
)

// PkgMetadata describes the package as a whole. CreatedAt drives the
// builtin upgrade comparison.
type PkgMetadata struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Kind        PkgKind   `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// PkgSpec is the root document of a package.
type PkgSpec struct {
	Metadata   PkgMetadata     `json:"metadata"`
	Funcs      []FuncSpec      `json:"funcs,omitempty"`
	Schemas    []SchemaSpec    `json:"schemas,omitempty"`
	Components []ComponentSpec `json:"components,omitempty"`
	Edges      []EdgeSpec      `json:"edges,omitempty"`
	ChangeSets []ChangeSetSpec `json:"change_sets,omitempty"`
}

// FuncSpec describes one function. UniqueID is package-local and keys
// cross-references from other specs.
type FuncSpec struct {
	UniqueID      string             `json:"unique_id"`
	Name          string             `json:"name"`
	DisplayName   string             `json:"display_name,omitempty"`
	Description   string             `json:"description,omitempty"`
	Handler       string             `json:"handler,omitempty"`
	CodeBase64    string             `json:"code_base64,omitempty"`
	BackendKind   string             `json:"backend_kind"`
	ResponseType  string             `json:"response_type"`
	Hidden        bool               `json:"hidden,omitempty"`
	Link          string             `json:"link,omitempty"`
	IsFromBuiltin bool               `json:"is_from_builtin,omitempty"`
	Deleted       bool               `json:"deleted,omitempty"`
	Arguments     []FuncArgumentSpec `json:"arguments,omitempty"`
}

// FuncArgumentSpec declares one argument of a FuncSpec.
type FuncArgumentSpec struct {
	UniqueID    string `json:"unique_id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	ElementKind string `json:"element_kind,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// SchemaSpec describes a schema and its variants.
type SchemaSpec struct {
	UniqueID      string              `json:"unique_id"`
	Name          string              `json:"name"`
	Category      string              `json:"category,omitempty"`
	ComponentKind string              `json:"component_kind,omitempty"`
	UIHidden      bool                `json:"ui_hidden,omitempty"`
	IsBuiltin     bool                `json:"is_builtin,omitempty"`
	Deleted       bool                `json:"deleted,omitempty"`
	Variants      []SchemaVariantSpec `json:"variants,omitempty"`
}

// SchemaVariantSpec describes one variant: its prop trees below
// domain, secrets and resource_value, plus sockets and function
// attachments.
type SchemaVariantSpec struct {
	UniqueID      string             `json:"unique_id"`
	Name          string             `json:"name"`
	Color         string             `json:"color,omitempty"`
	Link          string             `json:"link,omitempty"`
	Deleted       bool               `json:"deleted,omitempty"`
	Domain        *PropSpec          `json:"domain,omitempty"`
	Secrets       *PropSpec          `json:"secrets,omitempty"`
	ResourceValue *PropSpec          `json:"resource_value,omitempty"`
	Sockets       []SocketSpec       `json:"sockets,omitempty"`
	ActionFuncs   []ActionFuncSpec   `json:"action_funcs,omitempty"`
	AuthFuncs     []AuthFuncSpec     `json:"auth_funcs,omitempty"`
	SiPropFuncs   []SiPropFuncSpec   `json:"si_prop_funcs,omitempty"`
	RootPropFuncs []RootPropFuncSpec `json:"root_prop_funcs,omitempty"`
}

// PropSpec is one node of a packaged prop tree. Entry describes the
// element of a map or array; Children the fields of an object.
type PropSpec struct {
	Name          string            `json:"name"`
	Kind          string            `json:"kind"`
	DefaultValue  json.RawMessage   `json:"default_value,omitempty"`
	WidgetKind    string            `json:"widget_kind,omitempty"`
	WidgetOptions json.RawMessage   `json:"widget_options,omitempty"`
	Hidden        bool              `json:"hidden,omitempty"`
	DocLink       string            `json:"doc_link,omitempty"`
	Documentation string            `json:"documentation,omitempty"`
	LooselyTyped  bool              `json:"loosely_typed,omitempty"`
	FuncUniqueID  string            `json:"func_unique_id,omitempty"`
	Inputs        []AttrFuncInput   `json:"inputs,omitempty"`
	MapKeyFuncs   []MapKeyFuncSpec  `json:"map_key_funcs,omitempty"`
	Entry         *PropSpec         `json:"entry,omitempty"`
	Children      []PropSpec        `json:"children,omitempty"`
}

// AttrFuncInputKind names where an attribute function input comes
// from.
type AttrFuncInputKind string

const (
	AttrFuncInputProp         AttrFuncInputKind = "prop"
	AttrFuncInputInputSocket  AttrFuncInputKind = "inputSocket"
	AttrFuncInputOutputSocket AttrFuncInputKind = "outputSocket"
)

// AttrFuncInput binds one function argument to a prop or socket.
type AttrFuncInput struct {
	Name       string            `json:"name"`
	Kind       AttrFuncInputKind `json:"kind"`
	PropPath   string            `json:"prop_path,omitempty"`
	SocketName string            `json:"socket_name,omitempty"`
	UniqueID   string            `json:"unique_id,omitempty"`
	Deleted    bool              `json:"deleted,omitempty"`
}

// MapKeyFuncSpec drives a single map entry with its own function.
type MapKeyFuncSpec struct {
	Key          string          `json:"key"`
	FuncUniqueID string          `json:"func_unique_id"`
	Inputs       []AttrFuncInput `json:"inputs,omitempty"`
}

// SocketKind separates input from output sockets.
type SocketKind string

const (
	SocketInput  SocketKind = "input"
	SocketOutput SocketKind = "output"
)

// SocketSpec describes one socket of a variant.
type SocketSpec struct {
	UniqueID     string          `json:"unique_id"`
	Name         string          `json:"name"`
	Kind         SocketKind      `json:"kind"`
	Arity        string          `json:"arity,omitempty"`
	UIHidden     bool            `json:"ui_hidden,omitempty"`
	FuncUniqueID string          `json:"func_unique_id,omitempty"`
	Inputs       []AttrFuncInput `json:"inputs,omitempty"`
}

// ActionFuncSpec attaches an action function to a variant.
type ActionFuncSpec struct {
	UniqueID     string `json:"unique_id,omitempty"`
	FuncUniqueID string `json:"func_unique_id"`
	Kind         string `json:"kind"`
	Name         string `json:"name,omitempty"`
	Deleted      bool   `json:"deleted,omitempty"`
}

// AuthFuncSpec attaches an authentication function to a variant.
type AuthFuncSpec struct {
	UniqueID     string `json:"unique_id,omitempty"`
	FuncUniqueID string `json:"func_unique_id"`
	Deleted      bool   `json:"deleted,omitempty"`
}

// SiPropFuncSpec drives one of the root/si children with a function.
type SiPropFuncSpec struct {
	Kind         string          `json:"kind"`
	FuncUniqueID string          `json:"func_unique_id"`
	Inputs       []AttrFuncInput `json:"inputs,omitempty"`
}

// RootPropFuncSpec drives a whole root child (domain, resource_value)
// with a function.
type RootPropFuncSpec struct {
	Prop         string          `json:"prop"`
	FuncUniqueID string          `json:"func_unique_id"`
	Inputs       []AttrFuncInput `json:"inputs,omitempty"`
}

// ComponentSpec captures a live component for transport.
type ComponentSpec struct {
	UniqueID        string               `json:"unique_id"`
	Name            string               `json:"name"`
	SchemaName      string               `json:"schema_name"`
	VariantName     string               `json:"variant_name"`
	NeedsDestroy    bool                 `json:"needs_destroy,omitempty"`
	Deleted         bool                 `json:"deleted,omitempty"`
	DeletionUser    string               `json:"deletion_user,omitempty"`
	Position        *ComponentPosition   `json:"position,omitempty"`
	ImplicitValue   json.RawMessage      `json:"implicit_value,omitempty"`
	Attributes      []AttributeValueSpec `json:"attributes,omitempty"`
}

// ComponentPosition is diagram placement.
type ComponentPosition struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// AttributeValueSpec captures one attribute write of a component: the
// prop path, the value, and the non-intrinsic function driving it if
// any.
type AttributeValueSpec struct {
	PropPath     string          `json:"prop_path"`
	Key          string          `json:"key,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	FuncUniqueID string          `json:"func_unique_id,omitempty"`
	Inputs       []AttrFuncInput `json:"inputs,omitempty"`
}

// EdgeSpec captures a connection between two packaged components.
type EdgeSpec struct {
	UniqueID              string `json:"unique_id"`
	FromComponentUniqueID string `json:"from_component_unique_id"`
	FromSocketName        string `json:"from_socket_name"`
	ToComponentUniqueID   string `json:"to_component_unique_id"`
	ToSocketName          string `json:"to_socket_name"`
	CreatedBy             string `json:"created_by,omitempty"`
	DeletedBy             string `json:"deleted_by,omitempty"`
	Deleted               bool   `json:"deleted,omitempty"`
}

// ChangeSetSpec is one overlay of a workspace backup.
type ChangeSetSpec struct {
	Name       string          `json:"name"`
	Funcs      []FuncSpec      `json:"funcs,omitempty"`
	Schemas    []SchemaSpec    `json:"schemas,omitempty"`
	Components []ComponentSpec `json:"components,omitempty"`
	Edges      []EdgeSpec      `json:"edges,omitempty"`
}
