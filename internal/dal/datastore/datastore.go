// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package datastore is the key-addressed row store behind the attribute
// graph. Every entity is stored as a JSON row keyed by (kind, id,
// change set); the change-set overlay is implemented here as a read
// predicate, never as tree copies. Nothing above this package inspects
// a Visibility.
package datastore

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.22.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rigzba21/si/internal/dal/model"
)

var tracer trace.Tracer

const otelDriverName = "sqlite3-otel"

func init() {
	tracer = otel.Tracer("si/dal/datastore")

	// Register otelsql-instrumented SQLite driver for automatic query tracing
	sql.Register(otelDriverName, otelsql.WrapDriver(&sqlite3.SQLiteDriver{},
		otelsql.WithAttributes(
			semconv.DBSystemSqlite,
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableErrSkip: true,
		}),
	))
}

// Kind names an entity table segment inside the object store.
type Kind string

const (
	KindChangeSet                  Kind = "change_set"
	KindProp                       Kind = "prop"
	KindSchema                     Kind = "schema"
	KindSchemaVariant              Kind = "schema_variant"
	KindInternalProvider           Kind = "internal_provider"
	KindExternalProvider           Kind = "external_provider"
	KindAttributePrototype         Kind = "attribute_prototype"
	KindAttributePrototypeArgument Kind = "attribute_prototype_argument"
	KindAttributeValue             Kind = "attribute_value"
	KindFunc                       Kind = "func"
	KindFuncArgument               Kind = "func_argument"
	KindFuncBinding                Kind = "func_binding"
	KindFuncBindingReturnValue     Kind = "func_binding_return_value"
	KindActionPrototype            Kind = "action_prototype"
	KindAuthPrototype              Kind = "auth_prototype"
	KindComponent                  Kind = "component"
	KindComponentPosition          Kind = "component_position"
	KindEdge                       Kind = "edge"
	KindInstalledPkg               Kind = "installed_pkg"
	KindInstalledPkgAsset          Kind = "installed_pkg_asset"
)

// Config selects the SQLite database backing a Store.
type Config struct {
	FilePath string `yaml:"file-path"`
}

// Store owns the database connection. Open it once per process.
type Store struct {
	conn *sql.DB
}

// Open connects, applies pragmas and runs pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path := cfg.FilePath
	if path == "" {
		path = ":memory:"
	}

	conn, err := sql.Open(otelDriverName, path)
	if err != nil {
		slog.Error("Failed to connect to sqlite database", "error", err)
		return nil, err
	}

	// WAL keeps readers unblocked while the single writer works.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		slog.Error("Failed to enable WAL mode", "error", err)
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		slog.Error("Failed to set busy timeout", "error", err)
		return nil, err
	}

	// One connection: sqlite has a single writer anyway, and this keeps
	// in-memory databases coherent across transactions.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := runMigrations(conn); err != nil {
		return nil, err
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Tx is a datastore transaction scoped to one tenancy and one
// visibility. All reads see the visibility's winning row versions; all
// writes land under the visibility's change set.
type Tx struct {
	tx         *sql.Tx
	tenancy    model.Tenancy
	visibility model.Visibility
}

// Begin opens a transaction for the given tenancy and visibility.
func (s *Store) Begin(ctx context.Context, tenancy model.Tenancy, visibility model.Visibility) (*Tx, error) {
	ctx, span := tracer.Start(ctx, "datastore.Begin")
	defer span.End()

	if tenancy.WorkspaceID.IsNone() {
		return nil, &MissingTenancyError{}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, tenancy: tenancy, visibility: visibility}, nil
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *Tx) Tenancy() model.Tenancy {
	return t.tenancy
}

func (t *Tx) Visibility() model.Visibility {
	return t.visibility
}

// WithVisibility returns a view of the same transaction under another
// visibility. The importer uses this to hop between head and a change
// set inside one atomic unit.
func (t *Tx) WithVisibility(v model.Visibility) *Tx {
	return &Tx{tx: t.tx, tenancy: t.tenancy, visibility: v}
}

func (t *Tx) changeSetColumn() string {
	return t.visibility.ChangeSetID.String()
}

func headColumn() string {
	return model.IDNone.String()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// normalizeJSONPath maps "context.prop_id" to the sqlite json_extract
// path "$.context.prop_id".
func normalizeJSONPath(p string) string {
	return "$." + strings.TrimPrefix(p, "$.")
}
