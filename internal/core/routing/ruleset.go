package routing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yndnr/statichost-go/internal/core/domain"
)

// RootPrefix is the prefix used when a bare directory is served.
const RootPrefix = "/"

// Entry is one prefix → descriptor pair in source order.
type Entry struct {
	Prefix     string
	Descriptor domain.RuleDescriptor
}

// DirectoryEntries returns the single-rule table serving dir at "/".
func DirectoryEntries(dir string) []Entry {
	return []Entry{{Prefix: RootPrefix, Descriptor: domain.DirectoryDescriptor(dir)}}
}

// RuleSet is an immutable, ordered collection of rules.
type RuleSet struct {
	rules []domain.Rule
}

// Build materializes one rule per entry and orders them by descending
// prefix length. Rules with equal prefix length keep their entry order.
func Build(entries []Entry) (*RuleSet, error) {
	rules := make([]domain.Rule, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if _, dup := seen[e.Prefix]; dup {
			return nil, domain.ErrDuplicatePrefix.WithDetails(fmt.Sprintf("route %q", e.Prefix))
		}
		seen[e.Prefix] = struct{}{}

		rule, err := e.Descriptor.Resolve(e.Prefix)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Prefix) > len(rules[j].Prefix)
	})

	return &RuleSet{rules: rules}, nil
}

// BuildFromMap builds a RuleSet from an unordered mapping. Keys are
// visited in lexicographic order so equal-length prefixes tie-break
// the same way on every run.
func BuildFromMap(m map[string]domain.RuleDescriptor) (*RuleSet, error) {
	prefixes := make([]string, 0, len(m))
	for p := range m {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	entries := make([]Entry, 0, len(prefixes))
	for _, p := range prefixes {
		entries = append(entries, Entry{Prefix: p, Descriptor: m[p]})
	}
	return Build(entries)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the rules in match order.
func (s *RuleSet) Rules() []domain.Rule {
	out := make([]domain.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Views returns the flat form of every rule in match order.
func (s *RuleSet) Views() []domain.RuleView {
	out := make([]domain.RuleView, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.View()
	}
	return out
}

// CountByKind returns the number of rules of each kind.
func (s *RuleSet) CountByKind() map[domain.Kind]int {
	counts := map[domain.Kind]int{
		domain.KindDirectory: 0,
		domain.KindProxy:     0,
	}
	for _, r := range s.rules {
		counts[r.Kind()]++
	}
	return counts
}

// Lookup returns the first rule, in match order, whose prefix is a string
// prefix of path.
func (s *RuleSet) Lookup(path string) (domain.Rule, bool) {
	for _, r := range s.rules {
		if strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return domain.Rule{}, false
}

// lookupDirectory is Lookup restricted to directory rules.
func (s *RuleSet) lookupDirectory(path string) (domain.Rule, bool) {
	for _, r := range s.rules {
		if _, ok := r.Target.(domain.Directory); ok && strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return domain.Rule{}, false
}
