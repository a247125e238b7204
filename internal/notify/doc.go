// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package notify delivers operator-facing alerts over pluggable channels.

Disaster recovery broadcasts a critical Message to every contact on the
recovery plan; backup and restore lifecycle hooks may announce terminal
outcomes the same way. Three channels ship with the service:

  - log:     structured log entry per contact (always registered)
  - webhook: JSON POST to an operator endpoint
  - events:  republish onto the NATS lifecycle stream

Delivery is fire-and-forget. Broadcast returns before any send happens,
attempts run in contact order on a single background goroutine, and a
failed send costs one error log and one counter increment. Nothing here
can block or fail a recovery.
*/
package notify
