package domain

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunStatus is the externally visible status of a search run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// FetchStatus classifies the outcome of fetching one page.
type FetchStatus string

const (
	FetchOK      FetchStatus = "ok"
	FetchTimeout FetchStatus = "timeout"
	FetchError   FetchStatus = "fetch_error"
	FetchEmpty   FetchStatus = "empty"
)

// Candidate is a URL returned by search, pending acquisition.
// Rank is the position in the search results (0 = most relevant) and is
// used as a selection tie-break.
type Candidate struct {
	URL  string `json:"url"`
	Rank int    `json:"rank"`
}

// PageContent holds one candidate's fetched text. It is owned by the
// fetch/normalize stage and discarded after extraction.
type PageContent struct {
	URL       string      `json:"url"`
	RawText   string      `json:"-"`
	CleanText string      `json:"-"`
	Status    FetchStatus `json:"status"`
	Rendered  bool        `json:"rendered,omitempty"` // true when the browser fallback produced the text
}

// VerdictPayload is what the answer extractor returns for one page.
// Source attribution is never part of the payload; the orchestrator
// attaches the candidate's own URL.
type VerdictPayload struct {
	IsRelevant bool    `json:"is_relevant"`
	AnswerText string  `json:"answer_text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Verdict is the outcome of attempting to extract an answer from one
// candidate's content. Immutable once created.
type Verdict struct {
	URL        string  `json:"url"`
	Rank       int     `json:"rank"`
	IsRelevant bool    `json:"is_relevant"`
	AnswerText string  `json:"answer_text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Answer is the selected final answer with its source.
type Answer struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// PageOutcome describes how one candidate's pipeline ended, for progress
// reporting and the final result. One of: "answered", "irrelevant",
// "empty", "timeout", "error", "skipped".
type PageOutcome string

const (
	OutcomeAnswered   PageOutcome = "answered"
	OutcomeIrrelevant PageOutcome = "irrelevant"
	OutcomeEmpty      PageOutcome = "empty"
	OutcomeTimeout    PageOutcome = "timeout"
	OutcomeError      PageOutcome = "error"
	OutcomeSkipped    PageOutcome = "skipped"
)

// RunResult is returned to the caller when a run reaches a terminal state.
type RunResult struct {
	RunID      string                 `json:"run_id"`
	Query      string                 `json:"query"`
	Status     RunStatus              `json:"status"`
	Answer     *Answer                `json:"answer,omitempty"`
	TriedURLs  []string               `json:"tried_urls,omitempty"`
	Outcomes   map[string]PageOutcome `json:"outcomes,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// HasAnswer reports whether the run produced a selected answer.
func (r *RunResult) HasAnswer() bool { return r.Answer != nil }

// entropy for run IDs; ulid requires a monotonic-ish source but run IDs
// only need uniqueness within a process.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewRunID returns a fresh ULID for a search run.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// SearchRun is the aggregate state for one query. It is owned by the
// orchestrator for the run's lifetime; the verdict set is the only part
// mutated concurrently by worker tasks.
type SearchRun struct {
	ID        string
	Query     string
	StartedAt time.Time

	mu         sync.Mutex
	status     RunStatus
	candidates []Candidate
	verdicts   map[string]Verdict
	answer     *Answer
}

// NewSearchRun creates a run in the Running state.
func NewSearchRun(query string) *SearchRun {
	return &SearchRun{
		ID:        NewRunID(),
		Query:     query,
		StartedAt: time.Now(),
		status:    RunRunning,
		verdicts:  make(map[string]Verdict),
	}
}

// Status returns the run's current status.
func (r *SearchRun) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SetCandidates records the search results, preserving provider order as
// rank and discarding duplicate URLs (the first occurrence wins).
func (r *SearchRun) SetCandidates(urls []string) []Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(urls))
	r.candidates = r.candidates[:0]
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		r.candidates = append(r.candidates, Candidate{URL: u, Rank: len(r.candidates)})
	}
	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Candidates returns a copy of the candidate list.
func (r *SearchRun) Candidates() []Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// AddVerdict inserts a verdict unless one already exists for the URL or
// the run has left the Running state. Duplicate insertion is a no-op, not
// an error: it guards against a search provider returning the same URL
// twice. Returns true when the verdict was recorded.
func (r *SearchRun) AddVerdict(v Verdict) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunRunning {
		return false
	}
	if _, exists := r.verdicts[v.URL]; exists {
		return false
	}
	r.verdicts[v.URL] = v
	return true
}

// Verdicts returns a snapshot of the verdict set, ordered by rank for
// stable iteration.
func (r *SearchRun) Verdicts() []Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Verdict, 0, len(r.verdicts))
	for _, v := range r.verdicts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Complete transitions Running → Completed and records the selected
// answer (nil for a legitimate "no answer found" outcome). Returns false
// if the run already reached a terminal state.
func (r *SearchRun) Complete(answer *Answer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != RunRunning {
		return false
	}
	r.status = RunCompleted
	r.answer = answer
	return true
}

// Fail transitions Running → Failed. Returns false if already terminal.
func (r *SearchRun) Fail() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != RunRunning {
		return false
	}
	r.status = RunFailed
	return true
}

// Cancel transitions Running → Cancelled. Verdicts from tasks that finish
// after cancellation are discarded by AddVerdict's status guard. Returns
// false if already terminal.
func (r *SearchRun) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != RunRunning {
		return false
	}
	r.status = RunCancelled
	r.answer = nil
	return true
}

// Answer returns the selected answer, if any.
func (r *SearchRun) Answer() *Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer
}
