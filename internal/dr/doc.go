// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package dr orchestrates disaster-recovery plan execution.

A Plan is loaded once at startup from a YAML or JSON file: recovery time
and point objectives, critical component names, an ordered step list,
and the contacts to alert. The Orchestrator executes the plan:

 1. Broadcast a critical notification to every contact, fire and forget.
 2. Visit the steps in their configured order. Step dependencies are
    advisory metadata for the operator reading the plan; they are never
    used to reorder or gate execution. Automated steps with a script run
    through the command runner; automated steps without one are skipped;
    manual steps log a warning and execution proceeds without waiting
    for a human.
 3. A failing step aborts everything after it and the error propagates.
    This is deliberate fail-fast orchestration, in contrast to the
    restore path's best-effort per-document recovery.
 4. After a clean pass, the post-recovery health check runs and its
    failure propagates the same way.

Elapsed time is compared against the plan RTO; exceeding it is a warning
on the result, not a failure.
*/
package dr
