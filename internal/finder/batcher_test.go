package finder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type recordingChecker struct {
	calls    [][]string
	started  []time.Time
	ended    []time.Time
	latency  time.Duration
	failOn   map[int]error // 1-based call index
	taken    map[string]bool
	extra    []string // answered on every call without being asked
	onCancel bool
}

func (c *recordingChecker) CheckDomains(ctx context.Context, domains []string) ([]AvailabilityResult, error) {
	c.calls = append(c.calls, append([]string(nil), domains...))
	c.started = append(c.started, time.Now())
	if c.latency > 0 {
		time.Sleep(c.latency)
	}
	defer func() { c.ended = append(c.ended, time.Now()) }()
	if c.onCancel && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.failOn[len(c.calls)]; err != nil {
		return nil, err
	}
	out := make([]AvailabilityResult, len(domains))
	for i, d := range domains {
		out[i] = AvailabilityResult{Domain: d, Available: !c.taken[d]}
	}
	for _, d := range c.extra {
		out = append(out, AvailabilityResult{Domain: d, Available: true})
	}
	return out, nil
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return nil
}

func makeCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Label: fmt.Sprintf("brand%03d", i), Suffix: "com"}
	}
	return out
}

func TestBatcherChunksAndPaces(t *testing.T) {
	checker := &recordingChecker{}
	pacer := &countingPacer{}
	b := NewBatcher(checker, 50, time.Second)
	b.newPacer = func() Pacer { return pacer }

	candidates := makeCandidates(120)
	results, err := b.Check(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if len(checker.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(checker.calls))
	}
	for i, want := range []int{50, 50, 20} {
		if got := len(checker.calls[i]); got != want {
			t.Errorf("call %d size = %d, want %d", i+1, got, want)
		}
	}
	if pacer.waits != 2 {
		t.Errorf("pacer waits = %d, want 2", pacer.waits)
	}
	if len(results) != 120 {
		t.Fatalf("results = %d, want 120", len(results))
	}
	for i, r := range results {
		if r.Domain != candidates[i].Domain() {
			t.Fatalf("result %d = %s, want %s", i, r.Domain, candidates[i].Domain())
		}
	}
}

// The pause runs from the end of one call to the start of the next, so a
// registrar call slower than the delay still gets the full pause after it.
func TestBatcherPausesAfterSlowChunks(t *testing.T) {
	const delay = 40 * time.Millisecond
	checker := &recordingChecker{latency: 60 * time.Millisecond}
	b := NewBatcher(checker, 2, delay)

	if _, err := b.Check(context.Background(), makeCandidates(5)); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(checker.started) != 3 || len(checker.ended) != 3 {
		t.Fatalf("calls = %d, want 3", len(checker.started))
	}
	for i := 1; i < len(checker.started); i++ {
		if idle := checker.started[i].Sub(checker.ended[i-1]); idle < delay-5*time.Millisecond {
			t.Errorf("idle time before call %d = %v, want at least ~%v", i+1, idle, delay)
		}
	}
}

func TestBatcherDropsUnrequestedDomains(t *testing.T) {
	checker := &recordingChecker{extra: []string{"unrequested.com"}}
	b := NewBatcher(checker, 2, 0)
	candidates := makeCandidates(3)

	results, err := b.Check(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(results) != len(candidates) {
		t.Fatalf("results = %d, want %d", len(results), len(candidates))
	}
	for i, r := range results {
		if r.Domain != candidates[i].Domain() {
			t.Fatalf("result %d = %s, want %s", i, r.Domain, candidates[i].Domain())
		}
	}

	resp := Assemble(SearchRequest{Keyword: "brand", TLD: "com"}, candidates, results)
	if len(resp.Domains) > resp.TotalGenerated {
		t.Fatalf("len(domains) = %d exceeds totalGenerated = %d", len(resp.Domains), resp.TotalGenerated)
	}
}

func TestBatcherKeepsCaseVariantsOfRequestedDomains(t *testing.T) {
	got := onlyRequested([]string{"nestpro.com"}, []AvailabilityResult{{Domain: "NestPro.com", Available: true}}, 1)
	if len(got) != 1 {
		t.Fatalf("case variant dropped: %+v", got)
	}
}

func TestBatcherSingleChunkDoesNotWait(t *testing.T) {
	checker := &recordingChecker{}
	pacer := &countingPacer{}
	b := NewBatcher(checker, 50, time.Hour)
	b.newPacer = func() Pacer { return pacer }

	if _, err := b.Check(context.Background(), makeCandidates(50)); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pacer.waits != 0 {
		t.Fatalf("pacer waits = %d, want 0", pacer.waits)
	}
}

func TestBatcherEmptyInput(t *testing.T) {
	checker := &recordingChecker{}
	results, err := NewBatcher(checker, 50, time.Second).Check(context.Background(), nil)
	if err != nil || len(results) != 0 || results == nil {
		t.Fatalf("Check(nil) = (%v, %v), want empty non-nil slice", results, err)
	}
	if len(checker.calls) != 0 {
		t.Fatalf("checker called %d times", len(checker.calls))
	}
}

func TestBatcherUpstreamErrorAborts(t *testing.T) {
	checker := &recordingChecker{failOn: map[int]error{
		2: UpstreamError(ReasonParse, "bad xml", errors.New("EOF")),
	}}
	b := NewBatcher(checker, 50, 0)

	results, err := b.Check(context.Background(), makeCandidates(120))
	if results != nil {
		t.Fatalf("results = %d entries, want nil", len(results))
	}
	fe, ok := AsError(err)
	if !ok || fe.Kind != KindUpstreamProtocol || fe.Reason != ReasonParse || fe.Chunk != 2 {
		t.Fatalf("err = %#v, want upstream parse error on chunk 2", err)
	}
	if len(checker.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(checker.calls))
	}
}

func TestBatcherSkipsTransientChunks(t *testing.T) {
	checker := &recordingChecker{failOn: map[int]error{
		2: ChunkError(ReasonHTTPStatus, "status 502", nil),
		3: errors.New("something odd"),
	}}
	b := NewBatcher(checker, 10, 0)

	results, err := b.Check(context.Background(), makeCandidates(35))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(checker.calls) != 4 {
		t.Fatalf("calls = %d, want 4", len(checker.calls))
	}
	if len(results) != 15 {
		t.Fatalf("results = %d, want 15 (chunks 1 and 4)", len(results))
	}
	if results[0].Domain != "brand000.com" || results[10].Domain != "brand030.com" {
		t.Fatalf("unexpected order: %s, %s", results[0].Domain, results[10].Domain)
	}
}

func TestBatcherCancelledContextIsHard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker := &recordingChecker{onCancel: true}
	b := NewBatcher(checker, 50, 0)

	_, err := b.Check(ctx, makeCandidates(3))
	fe, ok := AsError(err)
	if !ok || fe.Kind != KindUpstreamProtocol || fe.Reason != ReasonTimeout {
		t.Fatalf("err = %v, want hard timeout", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err does not wrap context.Canceled: %v", err)
	}
}

func TestNewBatcherClampsChunkSize(t *testing.T) {
	for _, size := range []int{0, -1, 51, 500} {
		if b := NewBatcher(nil, size, 0); b.chunkSize != MaxChunkSize {
			t.Errorf("NewBatcher(size=%d).chunkSize = %d, want %d", size, b.chunkSize, MaxChunkSize)
		}
	}
}

func TestChunk(t *testing.T) {
	got := Chunk([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[0]) != 2 || len(got[2]) != 1 || got[2][0] != "e" {
		t.Fatalf("Chunk = %v", got)
	}
	if len(Chunk(nil, 50)) != 0 {
		t.Fatal("Chunk(nil) should be empty")
	}
}
