// Copyright 2025 The Research Platform Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/storage/badger"
)

const jobKeyPrefix = "job:"

// IngestionJob is a persisted request to process one document.
type IngestionJob struct {
	DocumentID core.ID   `json:"document_id"`
	Attempt    int       `json:"attempt"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Delivery is a job handed to a worker. The job stays persisted until
// the worker calls Ack; Nack makes it available again with the attempt
// counter bumped. Exactly one of Ack or Nack must be called.
type Delivery struct {
	Job IngestionJob

	key   string
	queue *Queue
}

// Queue is a durable at-least-once job queue on BadgerDB. Jobs survive
// restarts: anything enqueued but not yet acknowledged is redelivered
// when the queue reopens.
type Queue struct {
	backend *badger.Backend
	seq     *badgerdb.Sequence
	logger  *slog.Logger

	mu       sync.Mutex
	ready    []string
	inflight map[string]struct{}
	notify   chan struct{}
	done     chan struct{}
	closed   bool
}

// NewQueue opens the queue on the backend and recovers any jobs left
// over from a previous run.
func NewQueue(backend *badger.Backend) (*Queue, error) {
	seq, err := backend.GetSequence("queue")
	if err != nil {
		return nil, fmt.Errorf("acquiring queue sequence: %w", err)
	}

	q := &Queue{
		backend:  backend,
		seq:      seq,
		logger:   slog.Default().With("component", "queue"),
		inflight: make(map[string]struct{}),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if err := q.recover(); err != nil {
		seq.Release()
		return nil, err
	}
	return q, nil
}

// recover loads the keys of all persisted jobs into the ready list.
func (q *Queue) recover() error {
	var keys []string
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(jobKeyPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	}, false)
	if err != nil {
		return fmt.Errorf("recovering persisted jobs: %w", err)
	}

	sort.Strings(keys)
	q.ready = keys
	if len(keys) > 0 {
		q.logger.Info("recovered persisted jobs", "count", len(keys))
		q.wake()
	}
	return nil
}

// Enqueue persists a job for the document and makes it available to
// workers. Returns after the job is durable.
func (q *Queue) Enqueue(ctx context.Context, documentID core.ID) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.mu.Unlock()

	seq, err := q.seq.Next()
	if err != nil {
		return fmt.Errorf("allocating job id: %w", err)
	}

	job := IngestionJob{
		DocumentID: documentID,
		EnqueuedAt: time.Now().UTC(),
	}
	key := fmt.Sprintf("%s%020d", jobKeyPrefix, seq)
	if err := q.writeJob(key, job); err != nil {
		return err
	}

	q.mu.Lock()
	q.ready = append(q.ready, key)
	q.mu.Unlock()
	q.wake()

	q.logger.Debug("enqueued job", "document_id", documentID, "key", key)
	return nil
}

// Dequeue blocks until a job is available or the context is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		if len(q.ready) > 0 {
			key := q.ready[0]
			q.ready = q.ready[1:]
			q.inflight[key] = struct{}{}
			q.mu.Unlock()

			job, err := q.readJob(key)
			if err != nil {
				return nil, err
			}
			return &Delivery{Job: job, key: key, queue: q}, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
			return nil, ErrQueueClosed
		case <-q.notify:
		}
	}
}

// Len reports the number of jobs waiting for a worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready)
}

// Close stops the queue. In-flight and ready jobs stay persisted and
// are redelivered on the next open.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	close(q.done)
	return q.seq.Release()
}

// Ack removes the job from the queue permanently.
func (d *Delivery) Ack(ctx context.Context) error {
	q := d.queue
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Delete([]byte(d.key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("acknowledging job: %w", err)
	}

	q.mu.Lock()
	delete(q.inflight, d.key)
	q.mu.Unlock()
	return nil
}

// Nack returns the job to the queue with the attempt counter bumped and
// the failure recorded, so it is delivered again.
func (d *Delivery) Nack(ctx context.Context, cause error) error {
	q := d.queue

	job := d.Job
	job.Attempt++
	if cause != nil {
		job.LastError = cause.Error()
	}
	if err := q.writeJob(d.key, job); err != nil {
		return err
	}

	q.mu.Lock()
	delete(q.inflight, d.key)
	q.ready = append(q.ready, d.key)
	q.mu.Unlock()
	q.wake()

	q.logger.Warn("job returned to queue",
		"document_id", job.DocumentID, "attempt", job.Attempt, "error", job.LastError)
	return nil
}

func (q *Queue) writeJob(key string, job IngestionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	err = q.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set([]byte(key), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("persisting job: %w", err)
	}
	return nil
}

func (q *Queue) readJob(key string) (IngestionJob, error) {
	var job IngestionJob
	err := q.backend.WithTx(func(tx *badgerdb.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &job)
	}, false)
	if err != nil {
		return IngestionJob{}, fmt.Errorf("reading job %s: %w", key, err)
	}
	return job, nil
}

// wake nudges one blocked Dequeue without blocking the caller.
func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
