// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

// SocketArity constrains how many edges a socket accepts.
type SocketArity string

const (
	SocketArityOne  SocketArity = "one"
	SocketArityMany SocketArity = "many"
)

// InternalProvider consumes values inside a component. Every prop gets
// an implicit one (PropID set, name empty) emitting the prop's value;
// explicit ones (PropID none) back input sockets.
type InternalProvider struct {
	ID              ID          `json:"id"`
	Tenancy         Tenancy     `json:"tenancy"`
	Timestamp       Timestamp   `json:"timestamp"`
	SchemaVariantID ID          `json:"schema_variant_id"`
	PropID          ID          `json:"prop_id"`
	Name            string      `json:"name"`
	Arity           SocketArity `json:"arity"`
	Hidden          bool        `json:"hidden"`
	// UIOptimizable marks sockets the diagram can collapse.
	UIOptimizable bool `json:"ui_optimizable"`
}

func (p InternalProvider) IsImplicit() bool {
	return p.PropID.IsSome()
}

// ExternalProvider emits values out of a component through an output
// socket.
type ExternalProvider struct {
	ID              ID          `json:"id"`
	Tenancy         Tenancy     `json:"tenancy"`
	Timestamp       Timestamp   `json:"timestamp"`
	SchemaVariantID ID          `json:"schema_variant_id"`
	Name            string      `json:"name"`
	Arity           SocketArity `json:"arity"`
	Hidden          bool        `json:"hidden"`
	UIOptimizable   bool        `json:"ui_optimizable"`
}
