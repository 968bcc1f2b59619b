package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgallion1/recipegest/internal/store"
)

// JobStatus represents the state of a structuring run.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusReading     JobStatus = "reading"
	StatusAggregating JobStatus = "aggregating"
	StatusExtracting  JobStatus = "extracting"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Job tracks one structuring run over a page source.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	source  store.PageSource
	results []RecordResult
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalFiles    int      `json:"total_files"`
	TotalPages    int      `json:"total_pages"`
	TotalBundles  int      `json:"total_bundles"`
	Processed     int      `json:"processed"`
	RecipesStored int      `json:"recipes_stored"`
	Errors        []string `json:"errors"`
}

// RecordResult is the outcome for one bundle, or for one unreadable file.
type RecordResult struct {
	Title        string   `json:"title"`
	Pages        []string `json:"pages"`
	Complete     bool     `json:"complete"`
	Key          string   `json:"key,omitempty"`
	Name         string   `json:"name,omitempty"`
	Ingredients  int      `json:"ingredients"`
	Instructions int      `json:"instructions"`
	Tags         int      `json:"tags"`
	Error        string   `json:"error,omitempty"`
}

func (r RecordResult) Failed() bool { return r.Error != "" }

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewJobID returns a lexically sortable run identifier.
func NewJobID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}

// NewJob creates a queued job reading from src.
func NewJob(src store.PageSource) *Job {
	now := time.Now()
	return &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		source:    src,
	}
}

// Source returns the page source the job reads from.
func (j *Job) Source() store.PageSource {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.source
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotals records the file, page and bundle counts once known. Negative
// values leave a count unchanged.
func (j *Job) SetTotals(files, pages, bundles int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if files >= 0 {
		j.Progress.TotalFiles = files
	}
	if pages >= 0 {
		j.Progress.TotalPages = pages
	}
	if bundles >= 0 {
		j.Progress.TotalBundles = bundles
	}
	j.UpdatedAt = time.Now()
}

// MarkProcessed bumps the live counters for one finished bundle.
func (j *Job) MarkProcessed(stored bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Processed++
	if stored {
		j.Progress.RecipesStored++
	}
	j.UpdatedAt = time.Now()
}

// AddResults appends per-record outcomes in the order given.
func (j *Job) AddResults(rs ...RecordResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, rs...)
	j.UpdatedAt = time.Now()
}

// Results returns a copy of the per-record outcomes recorded so far.
func (j *Job) Results() []RecordResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]RecordResult, len(j.results))
	copy(out, j.results)
	return out
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string         `json:"job_id"`
	Status      JobStatus      `json:"status"`
	Phase       string         `json:"phase"`
	ContentHash string         `json:"content_hash,omitempty"`
	Progress    Progress       `json:"progress"`
	Results     []RecordResult `json:"results"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	results := make([]RecordResult, len(j.results))
	copy(results, j.results)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Progress:    p,
		Results:     results,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
