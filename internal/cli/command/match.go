package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statichost-go/internal/core/routing"
)

// MatchResult describes the dispatch outcome for one request path.
type MatchResult struct {
	Path    string `json:"path" yaml:"path"`
	Query   string `json:"query,omitempty" yaml:"query,omitempty"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Rule    string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Index   string `json:"index,omitempty" yaml:"index,omitempty"`
	Listing *bool  `json:"listing,omitempty" yaml:"listing,omitempty"`
}

// MatchCommand reports how a request path would be dispatched.
func MatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Show which rule a request path selects and where it goes",
		ArgsUsage: "PATH[?QUERY] [QUERY]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "routes",
				Aliases: []string{"r"},
				Usage:   "Route source file or directory (default: ./static_host.json, else the working directory)",
			},
		}, outputFlags()...),
		Action: matchAction,
	}
}

func matchAction(c *cli.Context) error {
	if c.NArg() == 0 || c.NArg() > 2 {
		return cli.Exit("match: expected PATH[?QUERY] [QUERY]", 2)
	}

	f, err := formatterFor(c)
	if err != nil {
		return err
	}

	rules, _, err := compileRoutes(c.String("routes"))
	if err != nil {
		return err
	}

	path, query := splitTarget(c.Args().Get(0))
	if c.NArg() == 2 {
		query = c.Args().Get(1)
	}
	return f.Format(c.App.Writer, Describe(routing.Match(rules, path, query), path, query))
}

// splitTarget splits a request target at the first '?'.
func splitTarget(target string) (path, query string) {
	path, query, _ = strings.Cut(target, "?")
	if path == "" {
		path = "/"
	}
	return path, query
}

// Describe flattens an outcome into a MatchResult.
func Describe(o routing.Outcome, path, query string) MatchResult {
	res := MatchResult{
		Path:    path,
		Query:   query,
		Outcome: string(o.Kind()),
		Rule:    o.Rule(),
	}
	switch v := o.(type) {
	case routing.FileServe:
		listing := v.AllowListing
		res.Target = v.LocalPath
		res.Index = v.IndexFile
		res.Listing = &listing
	case routing.Forward:
		res.Target = v.TargetURL
	}
	return res
}
