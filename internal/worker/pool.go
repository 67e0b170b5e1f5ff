package worker

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/harborscm/csvsift/internal/database"
)

// Job is one batch of projected rows, numbered in submission order.
type Job struct {
	BatchNum int
	Rows     [][]string
}

// Result reports the outcome of one batch insert.
type Result struct {
	BatchNum int
	RowCount int
	Err      error
}

// Pool runs batch inserts on a fixed set of goroutines. Submit feeds it,
// Done closes the intake, and Results yields one Result per submitted Job.
type Pool struct {
	db          *sql.DB
	schemaTable string
	columns     []string
	keyColumns  []string
	mapping     []database.ColumnMapping
	hasIdentity bool

	workers int
	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
}

func NewPool(db *sql.DB, schemaTable string, columns, keyColumns []string, mapping []database.ColumnMapping, hasIdentity bool, workers int) *Pool {
	p := &Pool{
		db:          db,
		schemaTable: schemaTable,
		columns:     columns,
		keyColumns:  keyColumns,
		mapping:     mapping,
		hasIdentity: hasIdentity,
		workers:     workers,
	}
	p.jobs = make(chan Job, workers*2)
	p.results = make(chan Result, workers*2)
	return p
}

// Start launches the workers and a closer that shuts the results channel
// once every worker has drained the job queue.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		// Once the import is canceled, fail remaining batches without
		// touching the database.
		if err := ctx.Err(); err != nil {
			p.results <- Result{BatchNum: job.BatchNum, RowCount: len(job.Rows), Err: err}
			continue
		}
		rows := ConvertBatch(job.Rows, p.mapping)
		err := database.InsertBatch(ctx, p.db, p.schemaTable, p.columns, p.keyColumns, p.hasIdentity, rows)
		if err != nil {
			err = fmt.Errorf("worker %d, batch %d: %w", id, job.BatchNum, err)
		}
		p.results <- Result{BatchNum: job.BatchNum, RowCount: len(job.Rows), Err: err}
	}
}

// Submit queues a batch. It blocks when all workers are busy and the queue
// is full.
func (p *Pool) Submit(job Job) {
	p.jobs <- job
}

// Done signals that no more batches will be submitted.
func (p *Pool) Done() {
	close(p.jobs)
}

// Results returns the channel batch outcomes arrive on. It closes after
// Done once the last batch finishes.
func (p *Pool) Results() <-chan Result {
	return p.results
}
