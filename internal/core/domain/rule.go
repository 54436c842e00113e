package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultIndexFile is served for directory requests when a rule names none.
const DefaultIndexFile = "index.html"

// Kind discriminates the two rule variants.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindProxy     Kind = "proxy"
)

// Target is the action half of a Rule.
//
// The interface is sealed: Directory and Proxy are the only implementations,
// so a type switch over a Target is exhaustive.
type Target interface {
	Kind() Kind
	isTarget()
}

// Directory serves files from a local directory.
type Directory struct {
	// Path is the local directory. Defaults to the rule prefix.
	Path string `json:"path"`
	// Index is the file served for directory requests.
	Index string `json:"index"`
	// Listing enables directory listings (and hidden files) when no index exists.
	Listing bool `json:"listing"`
}

// Kind implements Target.
func (Directory) Kind() Kind { return KindDirectory }

func (Directory) isTarget() {}

// Proxy forwards requests to an origin. The matched prefix is replaced by Base.
type Proxy struct {
	Base string `json:"proxy_to"`
}

// Kind implements Target.
func (Proxy) Kind() Kind { return KindProxy }

func (Proxy) isTarget() {}

// Rule binds a URL path prefix to a Target.
type Rule struct {
	Prefix string
	Target Target
}

// Kind returns the kind of the rule's target.
func (r Rule) Kind() Kind {
	if r.Target == nil {
		return ""
	}
	return r.Target.Kind()
}

// RuleView is the flat, serializable form of a Rule used by the
// admin listener and the CLI.
type RuleView struct {
	Prefix  string `json:"prefix" yaml:"prefix"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Target  string `json:"target" yaml:"target"`
	Index   string `json:"index,omitempty" yaml:"index,omitempty" table:"wide"`
	Listing *bool  `json:"listing,omitempty" yaml:"listing,omitempty" table:"wide"`
}

// View returns the flat form of r.
func (r Rule) View() RuleView {
	v := RuleView{Prefix: r.Prefix, Kind: r.Kind()}
	switch t := r.Target.(type) {
	case Directory:
		listing := t.Listing
		v.Target = t.Path
		v.Index = t.Index
		v.Listing = &listing
	case Proxy:
		v.Target = t.Base
	}
	return v
}

// RuleDescriptor is a route entry as decoded from a configuration source,
// before validation. A nil field was absent from the source.
//
// The proxy shape is {proxy_to}; the directory shape is any subset of
// {path, index, dir}, including the empty object.
type RuleDescriptor struct {
	ProxyTo *string `json:"proxy_to,omitempty" yaml:"proxy_to,omitempty"`
	Path    *string `json:"path,omitempty" yaml:"path,omitempty"`
	Index   *string `json:"index,omitempty" yaml:"index,omitempty"`
	Dir     *bool   `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// DirectoryDescriptor returns a descriptor serving dir.
func DirectoryDescriptor(dir string) RuleDescriptor {
	return RuleDescriptor{Path: &dir}
}

// ProxyDescriptor returns a descriptor forwarding to base.
func ProxyDescriptor(base string) RuleDescriptor {
	return RuleDescriptor{ProxyTo: &base}
}

func (d RuleDescriptor) hasDirectoryFields() bool {
	return d.Path != nil || d.Index != nil || d.Dir != nil
}

// Resolve validates d and materializes the Rule for prefix.
func (d RuleDescriptor) Resolve(prefix string) (Rule, error) {
	if prefix == "" {
		return Rule{}, ErrEmptyPrefix
	}

	if d.ProxyTo != nil {
		if d.hasDirectoryFields() {
			return Rule{}, ErrMalformedDescriptor.WithDetails(
				fmt.Sprintf("route %q mixes proxy_to with directory fields", prefix))
		}
		if err := validateProxyBase(*d.ProxyTo); err != nil {
			return Rule{}, ErrInvalidProxyTarget.WithDetails(fmt.Sprintf("route %q", prefix)).WithCause(err)
		}
		return Rule{Prefix: prefix, Target: Proxy{Base: *d.ProxyTo}}, nil
	}

	dir := Directory{
		Path:    prefix,
		Index:   DefaultIndexFile,
		Listing: true,
	}
	if d.Path != nil && *d.Path != "" {
		dir.Path = *d.Path
	}
	if d.Index != nil && *d.Index != "" {
		if strings.ContainsAny(*d.Index, `/\`) {
			return Rule{}, ErrMalformedDescriptor.WithDetails(
				fmt.Sprintf("route %q: index must be a file name, got %q", prefix, *d.Index))
		}
		dir.Index = *d.Index
	}
	if d.Dir != nil {
		dir.Listing = *d.Dir
	}
	return Rule{Prefix: prefix, Target: dir}, nil
}

func validateProxyBase(base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", base)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("query and fragment are not allowed in %q", base)
	}
	return nil
}
