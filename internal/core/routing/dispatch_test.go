package routing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

func mustBuild(t *testing.T, entries []Entry) *RuleSet {
	t.Helper()
	rs, err := Build(entries)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return rs
}

func TestMatch_LongestPrefixWins(t *testing.T) {
	rs := mustBuild(t, []Entry{
		{Prefix: "/a", Descriptor: domain.RuleDescriptor{}},
		{Prefix: "/ab", Descriptor: domain.ProxyDescriptor("http://ab.example/")},
	})

	out := Match(rs, "/abc", "")
	fwd, ok := out.(Forward)
	if !ok {
		t.Fatalf("Match() = %T, want Forward", out)
	}
	if fwd.Prefix != "/ab" {
		t.Errorf("matched prefix = %q, want /ab", fwd.Prefix)
	}
	if fwd.TargetURL != "http://ab.example/c" {
		t.Errorf("TargetURL = %q", fwd.TargetURL)
	}
}

func TestMatch_ProxyURLReconstruction(t *testing.T) {
	rs := mustBuild(t, []Entry{
		{Prefix: "/api", Descriptor: domain.ProxyDescriptor("https://example.com/v1")},
	})

	tests := []struct {
		name  string
		path  string
		query string
		want  string
	}{
		{"with query", "/api/get", "ans=42", "https://example.com/v1/get?ans=42"},
		{"without query", "/api/get", "", "https://example.com/v1/get"},
		{"exact prefix", "/api", "", "https://example.com/v1"},
		{"raw prefix match", "/api2/x", "", "https://example.com/v12/x"},
		{"query passed verbatim", "/api/s", "q=a%20b&q=c+d&flag", "https://example.com/v1/s?q=a%20b&q=c+d&flag"},
		{"encoded path kept", "/api/a%2Fb", "", "https://example.com/v1/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Match(rs, tt.path, tt.query)
			fwd, ok := out.(Forward)
			if !ok {
				t.Fatalf("Match() = %T, want Forward", out)
			}
			if fwd.TargetURL != tt.want {
				t.Errorf("TargetURL = %q, want %q", fwd.TargetURL, tt.want)
			}
		})
	}
}

func TestMatch_FileServe(t *testing.T) {
	listing := false
	index := "home.html"
	rs := mustBuild(t, []Entry{
		{Prefix: "/", Descriptor: domain.DirectoryDescriptor("/srv/www")},
		{Prefix: "/docs", Descriptor: domain.RuleDescriptor{Index: &index, Dir: &listing}},
	})

	tests := []struct {
		path string
		want FileServe
	}{
		{"/index.html", FileServe{Prefix: "/", LocalPath: "/srv/www", IndexFile: "index.html", AllowListing: true}},
		{"/docs/guide", FileServe{Prefix: "/docs", LocalPath: "/docs", IndexFile: "home.html", AllowListing: false}},
		{"/docsify", FileServe{Prefix: "/docs", LocalPath: "/docs", IndexFile: "home.html", AllowListing: false}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := Match(rs, tt.path, "ignored=1")
			fs, ok := out.(FileServe)
			if !ok {
				t.Fatalf("Match() = %T, want FileServe", out)
			}
			if fs != tt.want {
				t.Errorf("FileServe = %+v, want %+v", fs, tt.want)
			}
			if fs.Kind() != OutcomeFileServe || fs.Rule() != tt.want.Prefix {
				t.Errorf("Kind/Rule = %q/%q", fs.Kind(), fs.Rule())
			}
		})
	}
}

func TestMatch_NoMatch(t *testing.T) {
	rs := mustBuild(t, []Entry{
		{Prefix: "/a", Descriptor: domain.RuleDescriptor{}},
		{Prefix: "/b", Descriptor: domain.RuleDescriptor{}},
	})

	out := Match(rs, "/zzz", "")
	if _, ok := out.(NoMatch); !ok {
		t.Fatalf("Match() = %T, want NoMatch", out)
	}
	if out.Kind() != OutcomeNoMatch || out.Rule() != "" {
		t.Errorf("Kind/Rule = %q/%q", out.Kind(), out.Rule())
	}

	empty := mustBuild(t, nil)
	if _, ok := Match(empty, "/", "").(NoMatch); !ok {
		t.Error("empty rule set should never match")
	}
}

func TestDispatcher_ConcurrentMatchesAreConsistent(t *testing.T) {
	rs := mustBuild(t, []Entry{
		{Prefix: "/", Descriptor: domain.DirectoryDescriptor("/srv")},
		{Prefix: "/api", Descriptor: domain.ProxyDescriptor("http://api.example")},
		{Prefix: "/api/v2", Descriptor: domain.ProxyDescriptor("http://v2.example")},
		{Prefix: "/static", Descriptor: domain.RuleDescriptor{}},
	})
	d := NewDispatcher(rs)

	paths := []string{"/", "/api/x", "/api/v2/y", "/static/app.js", "/other"}
	expected := make(map[string]Outcome, len(paths))
	for _, p := range paths {
		expected[p] = d.Match(p, "k=v")
	}
	before := fmt.Sprint(rs.Rules())

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				p := paths[(g+i)%len(paths)]
				if got := d.Match(p, "k=v"); got != expected[p] {
					select {
					case errs <- fmt.Sprintf("Match(%q) = %#v, want %#v", p, got, expected[p]):
					default:
					}
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
	if after := fmt.Sprint(rs.Rules()); after != before {
		t.Errorf("rule set changed under concurrent dispatch:\n%s\n%s", before, after)
	}
}

func TestTargetURL(t *testing.T) {
	if got := TargetURL("http://h", "/p", ""); got != "http://h/p" {
		t.Errorf("TargetURL() = %q", got)
	}
	if got := TargetURL("http://h", "", "a=1"); got != "http://h?a=1" {
		t.Errorf("TargetURL() = %q", got)
	}
}

func TestDispatcher_MatchRequestDecodedMounts(t *testing.T) {
	d := NewDispatcher(mustBuild(t, []Entry{
		{Prefix: "/", Descriptor: domain.ProxyDescriptor("http://origin.example")},
		{Prefix: "/my docs", Descriptor: domain.DirectoryDescriptor("/srv/docs")},
		{Prefix: "/文档", Descriptor: domain.DirectoryDescriptor("/srv/zh")},
		{Prefix: "/x y", Descriptor: domain.ProxyDescriptor("http://xy.example")},
	}))

	tests := []struct {
		name    string
		escaped string
		decoded string
		rule    string
		kind    OutcomeKind
	}{
		{"space mount", "/my%20docs/a.txt", "/my docs/a.txt", "/my docs", OutcomeFileServe},
		{"non-ascii mount", "/%E6%96%87%E6%A1%A3/a.txt", "/文档/a.txt", "/文档", OutcomeFileServe},
		{"proxy sees escaped only", "/x%20y/z", "/x y/z", "/", OutcomeForward},
		{"plain path", "/other", "/other", "/", OutcomeForward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.MatchRequest(tt.escaped, tt.decoded, "")
			if out.Kind() != tt.kind || out.Rule() != tt.rule {
				t.Errorf("MatchRequest() = %s %q, want %s %q", out.Kind(), out.Rule(), tt.kind, tt.rule)
			}
		})
	}

	fwd, ok := d.MatchRequest("/x%20y/z", "/x y/z", "q=1").(Forward)
	if !ok || fwd.TargetURL != "http://origin.example/x%20y/z?q=1" {
		t.Errorf("forward = %#v", fwd)
	}
}
