// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package events publishes DR lifecycle events to NATS JetStream so the
carpool platform and external tooling can react to backup outcomes
without polling the ops API.

Topics (prefixed with the configured subject prefix, default "vcdr"):

	backup.completed    a backup run reached completed
	backup.failed       a backup run reached failed
	restore.completed   a restore or validation finished
	dr.executed         a disaster-recovery plan finished executing
	notification        contact notifications relayed by the events channel

Every message carries the Event envelope (schema version, event ID,
type, timestamp, service name) with the domain payload nested inside.

The Publisher wraps a Watermill NATS JetStream publisher with an
optional circuit breaker. The Announcer adapts backup and DR completion
hooks into background publishes so a slow broker cannot delay a backup
or recovery path. EmbeddedServer runs an in-process JetStream server for
standalone deployments.

Event publishing is optional: when disabled in configuration nothing in
this package is constructed and all hook fields stay nil.
*/
package events
