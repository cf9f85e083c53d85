// Package queue persists image-generation work items in SQLite and exposes
// the conditional-update claim, requeue, and maintenance operations the
// scheduler is built on. The store is the single source of truth: all
// coordination is expressed as status transitions in the database, never as
// in-process locks.
package queue
