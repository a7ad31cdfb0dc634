// Package queue provides the durable ingestion job queue. Jobs are
// persisted to BadgerDB on enqueue and deleted only on acknowledgement,
// giving at-least-once delivery across process restarts.
package queue
