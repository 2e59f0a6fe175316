package finder

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/textclean"
)

// Generator returns free text for a system instruction and prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// AvailabilityCache remembers recent registrar answers.
type AvailabilityCache interface {
	Get(ctx context.Context, domain string) (available bool, found bool, err error)
	Put(ctx context.Context, domain string, available bool) error
}

// DelegationProbe reports which domains already have NS delegation.
type DelegationProbe interface {
	Delegated(ctx context.Context, domains []string) map[string]bool
}

// Service runs the search pipeline against the injected collaborators.
type Service struct {
	cfg       *config.AppConfig
	generator Generator
	batcher   *Batcher
	cache     AvailabilityCache
	probe     DelegationProbe
}

type Option func(*Service)

func WithCache(c AvailabilityCache) Option { return func(s *Service) { s.cache = c } }

func WithDelegationProbe(p DelegationProbe) Option { return func(s *Service) { s.probe = p } }

func NewService(cfg *config.AppConfig, generator Generator, batcher *Batcher, opts ...Option) *Service {
	s := &Service{cfg: cfg, generator: generator, batcher: batcher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxCount is the largest accepted per-search count.
func (s *Service) MaxCount() int { return s.cfg.Search.MaxCount }

// DefaultCount is used when the request omits count.
func (s *Service) DefaultCount() int { return s.cfg.Search.DefaultCount }

// CheckCredentials fails with a configuration error when the generator key or
// any registrar value is missing or still a placeholder. It makes no calls.
func (s *Service) CheckCredentials() error {
	switch s.cfg.Generator.GeneratorKeyIssue() {
	case "missing":
		return &Error{Kind: KindConfiguration, Reason: ReasonGeneratorKey, Stage: StageConfig,
			Message: "Please configure your OpenAI API key in the .env file. Required: " + config.EnvGeneratorKey}
	case "placeholder":
		return &Error{Kind: KindConfiguration, Reason: ReasonGeneratorKey, Stage: StageConfig,
			Message: "Please replace the placeholder " + config.EnvGeneratorKey + " in the .env file with a real API key"}
	}
	if missing := s.cfg.Registrar.MissingCredentials(); len(missing) > 0 {
		return &Error{Kind: KindConfiguration, Reason: ReasonRegistrarMissing, Stage: StageConfig,
			Message: "Please configure your Namecheap API credentials in the .env file. Required: " +
				strings.Join([]string{config.EnvRegistrarAPIUser, config.EnvRegistrarAPIKey, config.EnvRegistrarUser, config.EnvRegistrarIP}, ", ") +
				" (missing: " + strings.Join(missing, ", ") + ")"}
	}
	if placeholders := s.cfg.Registrar.PlaceholderCredentials(); len(placeholders) > 0 {
		return &Error{Kind: KindConfiguration, Reason: ReasonRegistrarPlaceholder, Stage: StageConfig,
			Message: "Please update your .env file with actual Namecheap API credentials (not placeholder values): " + strings.Join(placeholders, ", ")}
	}
	return nil
}

// Search generates, normalizes, checks and assembles one search.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := req.Validate(s.cfg.Search.MaxCount); err != nil {
		return nil, err
	}
	if err := s.CheckCredentials(); err != nil {
		log.Printf("Finder: configuration check failed: %v", err)
		return nil, err
	}

	candidates, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := s.resolve(ctx, candidates)
	if err != nil {
		log.Printf("Finder: availability check failed for '%s' (.%s): %v", req.Keyword, req.TLD, err)
		return nil, err
	}

	resp := Assemble(req, candidates, results)
	log.Printf("Finder: %d available out of %d checked for '%s' (.%s)", resp.Available, resp.TotalGenerated, req.Keyword, req.TLD)
	return &resp, nil
}

func (s *Service) generate(ctx context.Context, req SearchRequest) ([]Candidate, error) {
	log.Printf("Finder: generating %d names for '%s' (.%s)", req.Count, req.Keyword, req.TLD)
	raw, err := s.generator.Generate(ctx, SystemInstruction, BuildPrompt(req.Keyword, req.TLD, req.Count))
	if err != nil {
		if fe, ok := AsError(err); ok && fe.Kind == KindConfiguration {
			return nil, err
		}
		log.Printf("Finder: generation failed: %v", err)
		return nil, &Error{Kind: KindGeneration, Stage: StageGenerate, Message: "Failed to generate domain suggestions", Err: err}
	}

	candidates, rejected := NormalizeWithReport(textclean.PlainLines(raw), req.TLD, req.Count)
	if len(rejected) > 0 {
		log.Printf("Finder: discarded %d tokens (%s)", len(rejected), summarizeRejections(rejected))
	}
	if len(candidates) == 0 {
		log.Printf("Finder: no usable candidates in generator output")
		return nil, &Error{Kind: KindGeneration, Stage: StageNormalize, Message: "No domain suggestions generated. Please try again."}
	}
	log.Printf("Finder: %d candidates after normalization", len(candidates))
	return candidates, nil
}

// resolve answers from cache and DNS delegation where possible and sends the
// rest to the registrar.
func (s *Service) resolve(ctx context.Context, candidates []Candidate) ([]AvailabilityResult, error) {
	known := make(map[string]AvailabilityResult)

	if s.cache != nil {
		for _, c := range candidates {
			d := c.Domain()
			available, found, err := s.cache.Get(ctx, d)
			if err != nil {
				log.Printf("Finder: cache lookup for %s failed: %v", d, err)
				continue
			}
			if found {
				known[d] = AvailabilityResult{Domain: d, Available: available}
			}
		}
	}

	if s.probe != nil {
		var unresolved []string
		for _, c := range candidates {
			if _, ok := known[c.Domain()]; !ok {
				unresolved = append(unresolved, c.Domain())
			}
		}
		for d, delegated := range s.probe.Delegated(ctx, unresolved) {
			if delegated {
				known[d] = AvailabilityResult{Domain: d, Available: false}
			}
		}
	}

	pending := candidates
	if len(known) > 0 {
		pending = make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if _, ok := known[c.Domain()]; !ok {
				pending = append(pending, c)
			}
		}
		log.Printf("Finder: %d of %d candidates resolved without the registrar", len(known), len(candidates))
	}

	checked, err := s.batcher.Check(ctx, pending)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, r := range checked {
			if err := s.cache.Put(ctx, strings.ToLower(r.Domain), r.Available); err != nil {
				log.Printf("Finder: cache store for %s failed: %v", r.Domain, err)
			}
		}
	}

	if len(known) == 0 {
		return checked, nil
	}
	return mergeInCandidateOrder(candidates, known, checked), nil
}

// mergeInCandidateOrder interleaves pre-resolved and registrar answers by the
// generation order. Only candidates are ever emitted.
func mergeInCandidateOrder(candidates []Candidate, known map[string]AvailabilityResult, checked []AvailabilityResult) []AvailabilityResult {
	byDomain := make(map[string]AvailabilityResult, len(checked))
	for _, r := range checked {
		key := strings.ToLower(r.Domain)
		if _, dup := byDomain[key]; !dup {
			byDomain[key] = r
		}
	}
	merged := make([]AvailabilityResult, 0, len(candidates))
	for _, c := range candidates {
		d := c.Domain()
		if r, ok := known[d]; ok {
			merged = append(merged, r)
			continue
		}
		if r, ok := byDomain[d]; ok {
			merged = append(merged, r)
		}
	}
	return merged
}

func summarizeRejections(rejected []Rejection) string {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[r.Reason]++
	}
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = reason + ": " + itoa(counts[reason])
	}
	return strings.Join(parts, ", ")
}
