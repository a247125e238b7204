// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// defaultAnnounceTimeout bounds one lifecycle publish.
const defaultAnnounceTimeout = 5 * time.Second

// Announcer adapts service completion hooks into background event
// publishes. Hooks run on the backup and recovery paths, so announcements
// are detached: a slow or dead broker costs a warning log, never latency
// on the operation itself.
type Announcer struct {
	pub     *Publisher
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAnnouncer returns an Announcer publishing through pub. A timeout of
// zero selects the 5 second default.
func NewAnnouncer(pub *Publisher, timeout time.Duration) *Announcer {
	if timeout <= 0 {
		timeout = defaultAnnounceTimeout
	}
	return &Announcer{
		pub:     pub,
		timeout: timeout,
		log:     logging.Component("events"),
	}
}

// BackupFinished publishes backup.completed or backup.failed for a
// terminal backup record. Wired to backup.Service.SetOnBackupFinished.
func (a *Announcer) BackupFinished(md *backup.Metadata) {
	var topic string
	switch md.Status {
	case backup.StatusCompleted:
		topic = TopicBackupCompleted
	case backup.StatusFailed:
		topic = TopicBackupFailed
	default:
		return
	}

	a.publish(topic, BackupEvent{
		BackupID:      md.ID,
		Type:          string(md.Type),
		Status:        string(md.Status),
		Trigger:       string(md.Trigger),
		SizeBytes:     md.SizeBytes,
		DocumentCount: md.DocumentCount,
		Collections:   len(md.Collections),
		DurationMS:    md.Duration.Milliseconds(),
		Error:         md.Error,
	})
}

// RestoreFinished publishes restore.completed. Wired to
// backup.Service.SetOnRestoreFinished.
func (a *Announcer) RestoreFinished(res *backup.RestoreResult) {
	a.publish(TopicRestoreCompleted, RestoreEvent{
		BackupID:            res.BackupID,
		ValidateOnly:        res.ValidateOnly,
		CollectionsRestored: res.CollectionsRestored,
		DocumentsRestored:   res.DocumentsRestored,
		DocumentsSkipped:    res.DocumentsSkipped,
		DurationMS:          res.Duration.Milliseconds(),
		Warnings:            len(res.Warnings),
	})
}

// DRExecuted publishes dr.executed after a recovery run, successful or
// not.
func (a *Announcer) DRExecuted(ev DREvent) {
	a.publish(TopicDRExecuted, ev)
}

// Wait blocks until in-flight announcements finish. Called on shutdown.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

func (a *Announcer) publish(topic string, payload interface{}) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.pub.Publish(ctx, topic, payload); err != nil {
			a.log.Warn().Err(err).Str("topic", topic).Msg("Lifecycle event publish failed")
		}
	}()
}
