// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigzba21/si/internal/dal/model"
)

func TestPublish_WrapsPayloadInEnvelope(t *testing.T) {
	rec := &Recorder{}
	tenancy := model.Tenancy{WorkspaceID: model.NewID()}
	visibility := model.NewChangeSetVisibility(model.NewID())

	before := time.Now().UTC()
	Publish(context.Background(), rec, KindResourceRefreshed, tenancy, visibility, ResourceRefreshed{
		ComponentID: model.NewID(),
		Status:      model.ResourceStatusOK,
	})

	require.Len(t, rec.Events, 1)
	ev := rec.Events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, KindResourceRefreshed, ev.Kind)
	assert.Equal(t, tenancy.WorkspaceID, ev.WorkspaceID)
	assert.Equal(t, visibility.ChangeSetID, ev.ChangeSetID)
	assert.Contains(t, string(ev.Payload), `"status":"ok"`)
	assert.False(t, ev.PublishedAt.Before(before))
}

func TestPublish_NilPublisherIsNoop(t *testing.T) {
	Publish(context.Background(), nil, KindCodeGenerated, model.Tenancy{}, model.NewHeadVisibility(), nil)
}

func TestPublish_DeliveryFailureDoesNotPanic(t *testing.T) {
	Publish(context.Background(), failingPublisher{}, KindCodeGenerated,
		model.Tenancy{WorkspaceID: model.NewID()}, model.NewHeadVisibility(), CodeGenerated{Name: "codegen"})
}

func TestRecorder_KeepsEveryEvent(t *testing.T) {
	rec := &Recorder{}
	tenancy := model.Tenancy{WorkspaceID: model.NewID()}
	for range 3 {
		Publish(context.Background(), rec, KindChangeSetImported, tenancy, model.NewHeadVisibility(), nil)
	}
	assert.Len(t, rec.Events, 3)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error {
	return errors.New("sink unavailable")
}
