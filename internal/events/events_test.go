// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package events

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
)

// fakeBackend records Watermill publishes without a broker.
type fakeBackend struct {
	mu       sync.Mutex
	topics   []string
	messages []*message.Message
	failWith error
	closed   bool
}

func (b *fakeBackend) Publish(topic string, msgs ...*message.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	for _, msg := range msgs {
		b.topics = append(b.topics, topic)
		b.messages = append(b.messages, msg)
	}
	return nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) published() ([]string, []*message.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...), append([]*message.Message(nil), b.messages...)
}

func newFakePublisher(backend *fakeBackend) *Publisher {
	return newPublisherWithBackend(backend, DefaultOptions("nats://unused:4222"))
}

func TestEventValidate(t *testing.T) {
	valid := NewEvent(TopicBackupCompleted, nil)

	tests := []struct {
		name    string
		mutate  func(e *Event)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Event) {}, wantErr: false},
		{name: "missing event id", mutate: func(e *Event) { e.EventID = "" }, wantErr: true},
		{name: "missing type", mutate: func(e *Event) { e.Type = "" }, wantErr: true},
		{name: "missing service", mutate: func(e *Event) { e.Service = "" }, wantErr: true},
		{name: "zero timestamp", mutate: func(e *Event) { e.Timestamp = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := *valid
			tt.mutate(&e)
			if err := e.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventSubject(t *testing.T) {
	e := &Event{Type: TopicDRExecuted}
	if got := e.Subject("vcdr"); got != "vcdr.dr.executed" {
		t.Errorf("Subject() = %q, want vcdr.dr.executed", got)
	}
	if got := e.Subject(""); got != "dr.executed" {
		t.Errorf("Subject() with empty prefix = %q, want dr.executed", got)
	}
}

func TestEventRoundTrip(t *testing.T) {
	payload, err := json.Marshal(BackupEvent{BackupID: "b-1", Status: "completed"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	original := NewEvent(TopicBackupCompleted, payload)
	data, err := MarshalEvent(original)
	if err != nil {
		t.Fatalf("MarshalEvent() error = %v", err)
	}

	decoded, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent() error = %v", err)
	}
	if decoded.EventID != original.EventID || decoded.Type != original.Type {
		t.Errorf("decoded = %+v, want id %s type %s", decoded, original.EventID, original.Type)
	}
	if decoded.Service != ServiceName || decoded.SchemaVersion != SchemaVersion {
		t.Errorf("decoded service/version = %s/%d", decoded.Service, decoded.SchemaVersion)
	}

	var body BackupEvent
	if err := json.Unmarshal(decoded.Payload, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if body.BackupID != "b-1" {
		t.Errorf("payload backup_id = %q, want b-1", body.BackupID)
	}
}

func TestUnmarshalEventDefaultsSchemaVersion(t *testing.T) {
	decoded, err := UnmarshalEvent([]byte(`{"event_id":"e-1","type":"backup.completed"}`))
	if err != nil {
		t.Fatalf("UnmarshalEvent() error = %v", err)
	}
	if decoded.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want 1 for legacy events", decoded.SchemaVersion)
	}
}

func TestMarshalEventRejectsInvalid(t *testing.T) {
	if _, err := MarshalEvent(&Event{}); err == nil {
		t.Error("MarshalEvent() should reject an empty envelope")
	}
}

func TestPublisherWrapsPayloadInEnvelope(t *testing.T) {
	backend := &fakeBackend{}
	pub := newFakePublisher(backend)

	err := pub.Publish(context.Background(), TopicBackupCompleted, BackupEvent{
		BackupID: "b-42",
		Type:     "full",
		Status:   "completed",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	topics, msgs := backend.published()
	if !reflect.DeepEqual(topics, []string{"vcdr.backup.completed"}) {
		t.Fatalf("published subjects = %v, want [vcdr.backup.completed]", topics)
	}

	msg := msgs[0]
	envelope, err := UnmarshalEvent(msg.Payload)
	if err != nil {
		t.Fatalf("UnmarshalEvent() error = %v", err)
	}
	if envelope.Type != TopicBackupCompleted || envelope.Service != ServiceName {
		t.Errorf("envelope = %+v", envelope)
	}
	if msg.UUID != envelope.EventID {
		t.Errorf("message UUID %q != envelope event id %q", msg.UUID, envelope.EventID)
	}
	if got := msg.Metadata.Get("Nats-Msg-Id"); got != envelope.EventID {
		t.Errorf("Nats-Msg-Id = %q, want %q", got, envelope.EventID)
	}
	if got := msg.Metadata.Get("type"); got != TopicBackupCompleted {
		t.Errorf("type metadata = %q", got)
	}

	var body BackupEvent
	if err := json.Unmarshal(envelope.Payload, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if body.BackupID != "b-42" || body.Status != "completed" {
		t.Errorf("payload = %+v", body)
	}
}

func TestPublisherClosed(t *testing.T) {
	backend := &fakeBackend{}
	pub := newFakePublisher(backend)

	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !backend.closed {
		t.Error("Close() should close the backend")
	}

	err := pub.Publish(context.Background(), TopicBackupCompleted, BackupEvent{})
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrPublisherClosed", err)
	}
}

func TestPublisherBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	backend := &fakeBackend{failWith: errors.New("broker down")}
	pub := newFakePublisher(backend)

	for i := 0; i < 5; i++ {
		err := pub.Publish(context.Background(), TopicBackupFailed, BackupEvent{})
		if err == nil {
			t.Fatalf("Publish() %d should fail while the broker is down", i)
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened early on attempt %d", i)
		}
	}

	err := pub.Publish(context.Background(), TopicBackupFailed, BackupEvent{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Publish() after 5 consecutive failures error = %v, want ErrOpenState", err)
	}

	topics, _ := backend.published()
	if len(topics) != 0 {
		t.Errorf("failed publishes recorded %d sends, want 0", len(topics))
	}
}

func TestAnnouncerPublishesTerminalBackupEvents(t *testing.T) {
	tests := []struct {
		name      string
		status    backup.BackupStatus
		wantTopic string
	}{
		{name: "completed", status: backup.StatusCompleted, wantTopic: "vcdr.backup.completed"},
		{name: "failed", status: backup.StatusFailed, wantTopic: "vcdr.backup.failed"},
		{name: "in progress is ignored", status: backup.StatusInProgress, wantTopic: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			a := NewAnnouncer(newFakePublisher(backend), time.Second)

			a.BackupFinished(&backup.Metadata{
				ID:            "b-7",
				Type:          backup.TypeFull,
				Status:        tt.status,
				Trigger:       backup.TriggerScheduled,
				SizeBytes:     2048,
				DocumentCount: 12,
				Collections:   []string{"users", "trips"},
				Duration:      1500 * time.Millisecond,
			})
			a.Wait()

			topics, msgs := backend.published()
			if tt.wantTopic == "" {
				if len(topics) != 0 {
					t.Fatalf("published %v, want nothing", topics)
				}
				return
			}
			if !reflect.DeepEqual(topics, []string{tt.wantTopic}) {
				t.Fatalf("published %v, want [%s]", topics, tt.wantTopic)
			}

			envelope, err := UnmarshalEvent(msgs[0].Payload)
			if err != nil {
				t.Fatalf("UnmarshalEvent() error = %v", err)
			}
			var body BackupEvent
			if err := json.Unmarshal(envelope.Payload, &body); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}
			if body.BackupID != "b-7" || body.DocumentCount != 12 || body.Collections != 2 {
				t.Errorf("payload = %+v", body)
			}
			if body.DurationMS != 1500 {
				t.Errorf("duration_ms = %d, want 1500", body.DurationMS)
			}
		})
	}
}

func TestAnnouncerPublishesRestoreAndDR(t *testing.T) {
	backend := &fakeBackend{}
	a := NewAnnouncer(newFakePublisher(backend), time.Second)

	a.RestoreFinished(&backup.RestoreResult{
		BackupID:          "b-9",
		DocumentsRestored: 40,
		DocumentsSkipped:  2,
		Duration:          2 * time.Second,
		Warnings:          []string{"2 documents skipped in vcarpool.users"},
	})
	a.DRExecuted(DREvent{Plan: "vcarpool-prod", Status: "completed", StepsExecuted: 4, StepsTotal: 4})
	a.Wait()

	topics, _ := backend.published()
	want := map[string]bool{
		"vcdr.restore.completed": true,
		"vcdr.dr.executed":       true,
	}
	if len(topics) != 2 {
		t.Fatalf("published %v, want 2 topics", topics)
	}
	for _, topic := range topics {
		if !want[topic] {
			t.Errorf("unexpected topic %q", topic)
		}
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	cfg := DefaultStreamConfig("VCDR_EVENTS", "vcdr")
	if !reflect.DeepEqual(cfg.Subjects, []string{"vcdr.>"}) {
		t.Errorf("Subjects = %v, want [vcdr.>]", cfg.Subjects)
	}
	if cfg.Name != "VCDR_EVENTS" || cfg.Replicas != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}
