// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package events carries fire-and-forget notifications out of the
// attribute engine. Delivery failures never fail the producing
// transaction.
package events

import (
	"context"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rigzba21/si/internal/dal/model"
)

// Kind names an event type on the wire.
type Kind string

const (
	KindResourceRefreshed Kind = "resourceRefreshed"
	KindCodeGenerated     Kind = "codeGenerated"
	KindChangeSetImported Kind = "changeSetImported"
)

// Event is the envelope published to subscribers.
type Event struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	WorkspaceID model.ID        `json:"workspace_id"`
	ChangeSetID model.ID        `json:"change_set_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
}

// ResourceRefreshed is the payload for KindResourceRefreshed.
type ResourceRefreshed struct {
	ComponentID model.ID             `json:"component_id"`
	Status      model.ResourceStatus `json:"status"`
}

// CodeGenerated is the payload for KindCodeGenerated.
type CodeGenerated struct {
	ComponentID model.ID `json:"component_id"`
	Name        string   `json:"name"`
}

// Publisher delivers events to whoever listens. Implementations must
// tolerate being called inside open transactions.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Publish wraps a payload in an envelope and hands it to the
// publisher, logging instead of failing when delivery breaks.
func Publish(ctx context.Context, pub Publisher, kind Kind, tenancy model.Tenancy, visibility model.Visibility, payload any) {
	if pub == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode event payload", "kind", kind, "error", err)
		return
	}
	ev := Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		WorkspaceID: tenancy.WorkspaceID,
		ChangeSetID: visibility.ChangeSetID,
		Payload:     raw,
		PublishedAt: time.Now().UTC(),
	}
	if err := pub.Publish(ctx, ev); err != nil {
		slog.Error("Failed to publish event", "kind", kind, "error", err)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// LogPublisher writes events to the structured log. The CLI uses it as
// the default sink.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	slog.Info("event", "kind", ev.Kind, "workspace", ev.WorkspaceID, "changeSet", ev.ChangeSetID)
	return nil
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}
