// Package namecheap implements the namecheap.domains.check XML call.
package namecheap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
	"golang.org/x/net/html/charset"
)

const (
	checkCommand   = "namecheap.domains.check"
	previewLen     = 500
	defaultTimeout = 30 * time.Second
)

var utf8BOM = []byte("\xef\xbb\xbf")

// APIResponse is the envelope of every Namecheap XML reply.
type APIResponse struct {
	XMLName         xml.Name         `xml:"ApiResponse"`
	Status          string           `xml:"Status,attr"`
	Errors          ErrorsContainer  `xml:"Errors"`
	CommandResponse *CommandResponse `xml:"CommandResponse"`
}

type ErrorsContainer struct {
	ErrorList []APIError `xml:"Error"`
}

type APIError struct {
	Number  string `xml:"Number,attr"`
	Message string `xml:",chardata"`
}

type CommandResponse struct {
	Type              string              `xml:"Type,attr"`
	DomainCheckResult []DomainCheckResult `xml:"DomainCheckResult"`
}

type DomainCheckResult struct {
	Domain        string `xml:"Domain,attr"`
	Available     string `xml:"Available,attr"`
	IsPremiumName string `xml:"IsPremiumName,attr"`
}

// Doer is the part of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client checks availability for up to finder.MaxChunkSize domains per call.
type Client struct {
	apiUser  string
	apiKey   string
	username string
	clientIP string
	baseURL  string
	timeout  time.Duration
	http     Doer

	previewOnce sync.Once
}

func NewClient(cfg config.RegistrarConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.RegistrarProductionURL
	}
	return &Client{
		apiUser:  cfg.APIUser,
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		clientIP: cfg.ClientIP,
		baseURL:  baseURL,
		timeout:  timeout,
		http:     &http.Client{},
	}
}

// WithHTTPClient replaces the transport; used by tests.
func (c *Client) WithHTTPClient(d Doer) *Client {
	c.http = d
	return c
}

func (c *Client) requestURL(domains []string) string {
	params := url.Values{}
	params.Set("ApiUser", c.apiUser)
	params.Set("ApiKey", c.apiKey)
	params.Set("UserName", c.username)
	params.Set("ClientIp", c.clientIP)
	params.Set("Command", checkCommand)
	params.Set("DomainList", strings.Join(domains, ","))
	return c.baseURL + "?" + params.Encode()
}

// CheckDomains implements finder.Checker. Timeouts, connection failures, empty
// or unparsable bodies, API error payloads and a missing CommandResponse are
// upstream protocol errors; a bad HTTP status or a malformed record only
// fails this chunk.
func (c *Client) CheckDomains(ctx context.Context, domains []string) ([]finder.AvailabilityResult, error) {
	if len(domains) == 0 {
		return []finder.AvailabilityResult{}, nil
	}
	if len(domains) > finder.MaxChunkSize {
		return nil, finder.ChunkError(finder.ReasonNone, fmt.Sprintf("chunk of %d exceeds the %d domain limit", len(domains), finder.MaxChunkSize), nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.requestURL(domains), nil)
	if err != nil {
		return nil, finder.ChunkError(finder.ReasonNone, "build request", err)
	}
	req.Header.Set("Accept", "application/xml")

	log.Printf("Namecheap: checking batch of %d domains", len(domains))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(callCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if callCtx.Err() != nil {
			return nil, classifyTransportError(callCtx, err)
		}
		return nil, finder.ChunkError(finder.ReasonNone, "read response body", err)
	}
	c.previewOnce.Do(func() {
		log.Printf("Namecheap: API response (first %d bytes): %s", previewLen, preview(body, previewLen))
	})

	body = bytes.TrimPrefix(body, utf8BOM)
	if len(bytes.TrimSpace(body)) == 0 {
		if resp.StatusCode >= 300 {
			return nil, finder.ChunkError(finder.ReasonHTTPStatus, fmt.Sprintf("HTTP status %d with empty body", resp.StatusCode), nil)
		}
		return nil, finder.UpstreamError(finder.ReasonEmptyBody, "Empty response from Namecheap API", nil)
	}

	var apiResp APIResponse
	if err := decodeXML(body, &apiResp); err != nil {
		if resp.StatusCode >= 300 {
			return nil, finder.ChunkError(finder.ReasonHTTPStatus, fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, preview(body, 200)), nil)
		}
		log.Printf("Namecheap: XML parse error, response (first 1000 bytes): %s", preview(body, 1000))
		return nil, finder.UpstreamError(finder.ReasonParse, "Failed to parse XML response", err)
	}

	if msgs := apiResp.errorMessages(); len(msgs) > 0 {
		return nil, finder.UpstreamError(finder.ReasonAPIError, "Namecheap API Error: "+strings.Join(msgs, ", "), nil)
	}
	if strings.EqualFold(apiResp.Status, "ERROR") {
		return nil, finder.UpstreamError(finder.ReasonAPIError, "Namecheap API Error: status ERROR without details", nil)
	}
	if resp.StatusCode >= 300 {
		return nil, finder.ChunkError(finder.ReasonHTTPStatus, fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
	}
	if apiResp.CommandResponse == nil {
		return nil, finder.UpstreamError(finder.ReasonUnexpectedShape, "Unexpected API response structure", nil)
	}
	if len(apiResp.CommandResponse.DomainCheckResult) == 0 {
		log.Printf("Namecheap: Warning - no DomainCheckResult in response for %d domains", len(domains))
		return []finder.AvailabilityResult{}, nil
	}

	results := make([]finder.AvailabilityResult, 0, len(apiResp.CommandResponse.DomainCheckResult))
	for _, r := range apiResp.CommandResponse.DomainCheckResult {
		res, err := r.toResult()
		if err != nil {
			return nil, finder.ChunkError(finder.ReasonMalformedRecord, "malformed DomainCheckResult", err)
		}
		results = append(results, res)
	}
	return results, nil
}

// decodeXML accepts any encoding the prolog declares, not only UTF-8.
func decodeXML(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

func (r APIResponse) errorMessages() []string {
	var msgs []string
	for _, e := range r.Errors.ErrorList {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			msg = "error " + e.Number
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (r DomainCheckResult) toResult() (finder.AvailabilityResult, error) {
	domain := strings.ToLower(strings.TrimSpace(r.Domain))
	if domain == "" {
		return finder.AvailabilityResult{}, errors.New("missing Domain attribute")
	}
	available, err := parseXMLBool(r.Available)
	if err != nil {
		return finder.AvailabilityResult{}, fmt.Errorf("%s: Available: %w", domain, err)
	}
	premium, _ := parseXMLBool(r.IsPremiumName)
	return finder.AvailabilityResult{Domain: domain, Available: available, Premium: premium}, nil
}

func parseXMLBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return finder.UpstreamError(finder.ReasonTimeout, "Namecheap request timeout", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return finder.UpstreamError(finder.ReasonTimeout, "Namecheap request timeout", err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return finder.UpstreamError(finder.ReasonTimeout, "Namecheap request cancelled", err)
	}
	return finder.UpstreamError(finder.ReasonConnection, "Unable to reach Namecheap API", err)
}

func preview(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
