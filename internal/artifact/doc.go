// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package artifact stores backup artifacts under opaque slash-separated
keys ("<backupID>/<database>/<collection>" plus the "<backupID>" manifest).

Store implementations compose:

  - Local: the primary store, files under a root directory.
  - S3: an S3-compatible object store for the optional mirror.
  - Encrypted: wraps any Store with AES-256-GCM, transparent to callers.
  - Mirrored: a primary plus a best-effort secondary behind a circuit
    breaker. Mirror failures never fail a backup; reads fall back to the
    mirror when the primary has lost an artifact.

Checksums recorded in backup metadata are computed over plaintext, so the
Encrypted wrapper sits below the engine and above the physical stores.
*/
package artifact
