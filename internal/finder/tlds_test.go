package finder

import (
	"strings"
	"testing"
)

func TestIsSupportedTLD(t *testing.T) {
	tests := map[string]bool{
		"com":         true,
		"ai":          true,
		"museum":      true,
		"co.uk":       false,
		"notarealtld": false,
		"COM":         false,
		"xn--p1ai":    false,
		"":            false,
	}
	for tld, want := range tests {
		if got := IsSupportedTLD(tld); got != want {
			t.Errorf("IsSupportedTLD(%q) = %v, want %v", tld, got, want)
		}
	}
}

func TestValidateNormalizesTLD(t *testing.T) {
	req := SearchRequest{Keyword: "  home  ", TLD: " .COM", Count: 3}
	if err := req.Validate(100); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if req.Keyword != "home" || req.TLD != "com" {
		t.Fatalf("req = %+v", req)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("home warranty", ".net", 25)
	for _, want := range []string{"exactly 25", `"home warranty"`, "MUST end with .net", "HomeShieldPro.net"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "..net") {
		t.Error("suffix dot doubled")
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindUpstreamProtocol, Stage: StageAvailCheck, Chunk: 2, Message: "bad xml", Err: errString("EOF")}
	if got := err.Error(); got != "availability chunk 2: bad xml: EOF" {
		t.Fatalf("Error() = %q", got)
	}
	if got := (&Error{Kind: KindGeneration, Stage: StageGenerate}).Error(); got != "generate: generation" {
		t.Fatalf("Error() = %q", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
