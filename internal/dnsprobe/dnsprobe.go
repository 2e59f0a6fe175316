// File: backend/internal/dnsprobe/dnsprobe.go
package dnsprobe

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/miekg/dns"
)

// Status of a single NS probe.
type Status string

const (
	StatusDelegated Status = "Delegated"
	StatusNotFound  Status = "Not Found"
	StatusNoData    Status = "No Data"
	StatusError     Status = "Error"
)

type ProbeResult struct {
	Domain   string
	Status   Status
	Resolver string
	Error    string
}

// Prober asks recursive resolvers for NS records. A domain with delegation is
// registered; anything else is left to the registrar.
type Prober struct {
	resolvers     []string
	maxConcurrent int
	client        *dns.Client
	mu            sync.Mutex
	rotationIdx   int
}

func New(cfg config.DNSProbeConfig) *Prober {
	var resolvers []string
	if cfg.UseSystemResolvers {
		sysConfig, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err == nil && len(sysConfig.Servers) > 0 {
			for _, serverIP := range sysConfig.Servers {
				resolvers = append(resolvers, net.JoinHostPort(serverIP, sysConfig.Port))
			}
		} else if err != nil {
			log.Printf("DNSProbe: Warning - Could not load system resolvers: %v", err)
		}
	}
	for _, r := range cfg.Resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			r = net.JoinHostPort(r, "53")
		}
		resolvers = append(resolvers, r)
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultDNSMaxConcurrent
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = config.DefaultDNSQueryTimeoutSecs * time.Second
	}
	return &Prober{
		resolvers:     resolvers,
		maxConcurrent: maxConcurrent,
		client:        &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (p *Prober) nextResolver() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.resolvers) == 0 {
		return "", fmt.Errorf("no DNS resolvers configured")
	}
	r := p.resolvers[p.rotationIdx%len(p.resolvers)]
	p.rotationIdx++
	return r, nil
}

// Probe queries NS for one domain, retrying over TCP when the UDP answer is
// truncated.
func (p *Prober) Probe(ctx context.Context, domain string) ProbeResult {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if _, ok := dns.IsDomainName(domain); !ok || !strings.Contains(domain, ".") {
		return ProbeResult{Domain: domain, Status: StatusError, Error: "Invalid domain format"}
	}
	resolver, err := p.nextResolver()
	if err != nil {
		return ProbeResult{Domain: domain, Status: StatusError, Error: err.Error()}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeNS)
	msg.RecursionDesired = true

	in, _, err := p.client.ExchangeContext(ctx, msg, resolver)
	if err == nil && in != nil && in.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: p.client.Timeout}
		in, _, err = tcp.ExchangeContext(ctx, msg, resolver)
	}
	if err != nil {
		return ProbeResult{Domain: domain, Status: StatusError, Resolver: resolver, Error: err.Error()}
	}

	switch in.Rcode {
	case dns.RcodeNameError:
		return ProbeResult{Domain: domain, Status: StatusNotFound, Resolver: resolver}
	case dns.RcodeSuccess:
		for _, rr := range in.Answer {
			if ns, ok := rr.(*dns.NS); ok && strings.EqualFold(ns.Hdr.Name, dns.Fqdn(domain)) {
				return ProbeResult{Domain: domain, Status: StatusDelegated, Resolver: resolver}
			}
		}
		return ProbeResult{Domain: domain, Status: StatusNoData, Resolver: resolver}
	default:
		return ProbeResult{Domain: domain, Status: StatusError, Resolver: resolver,
			Error: fmt.Sprintf("resolver returned RCODE %d (%s)", in.Rcode, dns.RcodeToString[in.Rcode])}
	}
}

// ProbeAll probes domains with at most maxConcurrent queries in flight.
// Results keep input order.
func (p *Prober) ProbeAll(ctx context.Context, domains []string) []ProbeResult {
	results := make([]ProbeResult, len(domains))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.maxConcurrent)
	for i, domain := range domains {
		select {
		case <-ctx.Done():
			results[i] = ProbeResult{Domain: domain, Status: StatusError, Error: ctx.Err().Error()}
			continue
		case semaphore <- struct{}{}:
		}
		wg.Add(1)
		go func(idx int, d string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = p.Probe(ctx, d)
		}(i, domain)
	}
	wg.Wait()
	return results
}

// Delegated implements finder.DelegationProbe. Errors and NXDOMAIN map to
// false so the registrar still decides.
func (p *Prober) Delegated(ctx context.Context, domains []string) map[string]bool {
	out := make(map[string]bool, len(domains))
	errCount := 0
	for _, r := range p.ProbeAll(ctx, domains) {
		out[r.Domain] = r.Status == StatusDelegated
		if r.Status == StatusError {
			errCount++
		}
	}
	if errCount > 0 {
		log.Printf("DNSProbe: %d of %d probes failed; those domains go to the registrar", errCount, len(domains))
	}
	return out
}
