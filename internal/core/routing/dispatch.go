package routing

import (
	"github.com/yndnr/statichost-go/internal/core/domain"
)

// OutcomeKind names the dispatch outcome variants.
type OutcomeKind string

const (
	OutcomeFileServe OutcomeKind = "file"
	OutcomeForward   OutcomeKind = "proxy"
	OutcomeNoMatch   OutcomeKind = "no_match"
)

// Outcome is the resolved action for one request.
//
// The interface is sealed: FileServe, Forward and NoMatch are the only
// implementations. The handler branches on the concrete type, so a proxy
// match can never reach the file-serving branch or vice versa.
type Outcome interface {
	Kind() OutcomeKind
	// Rule returns the matched prefix, or "" for NoMatch.
	Rule() string
	isOutcome()
}

// FileServe instructs the file backend to resolve the request under LocalPath.
//
// The remainder of the path after Prefix is left to the file backend.
type FileServe struct {
	Prefix       string `json:"rule"`
	LocalPath    string `json:"local_path"`
	IndexFile    string `json:"index"`
	AllowListing bool   `json:"listing"`
}

// Forward instructs the forwarder to call TargetURL.
type Forward struct {
	Prefix    string `json:"rule"`
	TargetURL string `json:"target_url"`
}

// NoMatch means no rule prefix matched the request path.
type NoMatch struct{}

func (FileServe) Kind() OutcomeKind { return OutcomeFileServe }
func (Forward) Kind() OutcomeKind   { return OutcomeForward }
func (NoMatch) Kind() OutcomeKind   { return OutcomeNoMatch }

func (o FileServe) Rule() string { return o.Prefix }
func (o Forward) Rule() string   { return o.Prefix }
func (NoMatch) Rule() string     { return "" }

func (FileServe) isOutcome() {}
func (Forward) isOutcome()   {}
func (NoMatch) isOutcome()   {}

// Dispatcher turns request paths into outcomes against a shared RuleSet.
// It holds no mutable state and is safe for concurrent use.
type Dispatcher struct {
	rules *RuleSet
}

// NewDispatcher creates a Dispatcher over rules.
func NewDispatcher(rules *RuleSet) *Dispatcher {
	return &Dispatcher{rules: rules}
}

// RuleSet returns the rule set the dispatcher matches against.
func (d *Dispatcher) RuleSet() *RuleSet {
	return d.rules
}

// Match resolves path and query to an outcome.
func (d *Dispatcher) Match(path, query string) Outcome {
	return Match(d.rules, path, query)
}

// MatchRequest resolves a request path given in both escaped and decoded
// form. Proxy rules match the escaped path only, so the forwarded suffix
// keeps the client's encoding. Directory rules also match the decoded path,
// which lets a mount such as "/my docs" answer "/my%20docs/a.txt". The
// longer matching prefix wins.
func (d *Dispatcher) MatchRequest(escaped, decoded, query string) Outcome {
	out := Match(d.rules, escaped, query)
	if decoded == escaped {
		return out
	}
	rule, ok := d.rules.lookupDirectory(decoded)
	if !ok || len(rule.Prefix) <= len(out.Rule()) {
		return out
	}
	return fileServe(rule.Prefix, rule.Target.(domain.Directory))
}

func fileServe(prefix string, dir domain.Directory) FileServe {
	return FileServe{
		Prefix:       prefix,
		LocalPath:    dir.Path,
		IndexFile:    dir.Index,
		AllowListing: dir.Listing,
	}
}

// Match resolves path and query to an outcome against rules.
//
// For proxy rules the target URL is the rule's base followed by the part of
// path after the matched prefix, plus "?query" when query is non-empty.
// The query is passed through verbatim.
func Match(rules *RuleSet, path, query string) Outcome {
	rule, ok := rules.Lookup(path)
	if !ok {
		return NoMatch{}
	}

	switch t := rule.Target.(type) {
	case domain.Directory:
		return fileServe(rule.Prefix, t)
	case domain.Proxy:
		return Forward{
			Prefix:    rule.Prefix,
			TargetURL: TargetURL(t.Base, path[len(rule.Prefix):], query),
		}
	default:
		// Resolve only produces the two variants above.
		return NoMatch{}
	}
}

// TargetURL concatenates base, suffix and the optional raw query.
func TargetURL(base, suffix, query string) string {
	if query == "" {
		return base + suffix
	}
	return base + suffix + "?" + query
}
