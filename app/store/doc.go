// Package store provides durable storage of ardora activities and their job records.
// It is backed by SQLite (pure Go driver) in WAL mode, accessed through sqlx. Every public
// method runs as a single statement or a single transaction, so partial writes are never visible.
package store
