// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package docstore abstracts the document store that backups read from and
restores write to.

Two implementations are provided:

  - Mongo: the production client, backed by the official MongoDB driver.
    It works against MongoDB and MongoDB-compatible APIs (the VCarpool
    platform runs on Cosmos DB's Mongo API). Store calls can be throttled
    with a token-bucket limiter so backup traffic never starves the
    production request budget.

  - MemoryStore: an in-memory store used in standalone mode and by tests.
    It implements the same Client interface with deterministic ordering.

Enumeration always excludes the system databases (admin, config, local)
and can be narrowed to an allowlist via docstore.databases.
*/
package docstore
