package finder

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// MaxChunkSize is the registrar's per-call ceiling.
const MaxChunkSize = 50

// Checker asks the registrar about up to MaxChunkSize domains in one call.
// Failures must be *Error values; KindUpstreamProtocol aborts the batch run.
type Checker interface {
	CheckDomains(ctx context.Context, domains []string) ([]AvailabilityResult, error)
}

// Pacer blocks until the next chunk may start.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Batcher runs chunked availability checks one chunk at a time.
type Batcher struct {
	checker   Checker
	chunkSize int
	delay     time.Duration
	newPacer  func() Pacer
}

// NewBatcher returns a Batcher with chunkSize clamped to [1, MaxChunkSize] and
// at least delay between the start of consecutive chunks.
func NewBatcher(checker Checker, chunkSize int, delay time.Duration) *Batcher {
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	b := &Batcher{checker: checker, chunkSize: chunkSize, delay: delay}
	b.newPacer = b.limiterPacer
	return b
}

// limiterPacer is built when a chunk finishes. Its only token is already spent,
// so Wait blocks a full delay from that moment regardless of how long the
// previous registrar call took.
func (b *Batcher) limiterPacer() Pacer {
	if b.delay <= 0 {
		return noPause{}
	}
	lim := rate.NewLimiter(rate.Every(b.delay), 1)
	lim.Allow()
	return lim
}

type noPause struct{}

func (noPause) Wait(context.Context) error { return nil }

// Chunk splits domains into consecutive slices of at most size.
func Chunk(domains []string, size int) [][]string {
	if size <= 0 {
		size = MaxChunkSize
	}
	chunks := make([][]string, 0, (len(domains)+size-1)/size)
	for start := 0; start < len(domains); start += size {
		end := start + size
		if end > len(domains) {
			end = len(domains)
		}
		chunks = append(chunks, domains[start:end])
	}
	return chunks
}

// Check returns results in chunk order, then upstream order within a chunk.
// An upstream protocol error or cancellation discards everything collected so
// far; other chunk failures are logged and skipped.
func (b *Batcher) Check(ctx context.Context, candidates []Candidate) ([]AvailabilityResult, error) {
	chunks := Chunk(Domains(candidates), b.chunkSize)
	if len(chunks) == 0 {
		return []AvailabilityResult{}, nil
	}

	results := make([]AvailabilityResult, 0, len(candidates))
	for i, chunk := range chunks {
		idx := i + 1
		if i > 0 {
			if err := b.newPacer().Wait(ctx); err != nil {
				return nil, &Error{Kind: KindUpstreamProtocol, Reason: ReasonTimeout, Stage: StageAvailCheck, Chunk: idx, Message: "pacing interrupted", Err: err}
			}
		}
		log.Printf("Batcher: checking chunk %d/%d (%d domains)", idx, len(chunks), len(chunk))

		chunkResults, err := b.checker.CheckDomains(ctx, chunk)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Printf("Batcher: chunk %d/%d aborted: %v", idx, len(chunks), ctxErr)
				return nil, &Error{Kind: KindUpstreamProtocol, Reason: ReasonTimeout, Stage: StageAvailCheck, Chunk: idx, Message: "search cancelled", Err: err}
			}
			if KindOf(err) == KindUpstreamProtocol {
				log.Printf("Batcher: chunk %d/%d hit an upstream protocol error, aborting run: %v", idx, len(chunks), err)
				return nil, withChunk(err, idx, KindUpstreamProtocol)
			}
			log.Printf("Batcher: chunk %d/%d failed, skipping %d domains: %v", idx, len(chunks), len(chunk), withChunk(err, idx, KindTransientChunk))
			continue
		}
		results = append(results, onlyRequested(chunk, chunkResults, idx)...)
	}
	return results, nil
}

// onlyRequested drops answers for domains the chunk did not ask about.
func onlyRequested(requested []string, got []AvailabilityResult, chunk int) []AvailabilityResult {
	asked := make(map[string]struct{}, len(requested))
	for _, d := range requested {
		asked[strings.ToLower(d)] = struct{}{}
	}
	kept := make([]AvailabilityResult, 0, len(got))
	for _, r := range got {
		if _, ok := asked[strings.ToLower(r.Domain)]; !ok {
			log.Printf("Batcher: chunk %d returned unrequested domain %q, dropping it", chunk, r.Domain)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// withChunk stamps the chunk index on err, wrapping foreign errors in kind.
func withChunk(err error, chunk int, kind Kind) error {
	if fe, ok := AsError(err); ok {
		stamped := *fe
		stamped.Chunk = chunk
		return &stamped
	}
	return &Error{Kind: kind, Stage: StageAvailCheck, Chunk: chunk, Err: err}
}
