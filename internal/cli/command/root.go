package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statichost-go/internal/cli/output"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/infra/buildinfo"
	"github.com/yndnr/statichost-go/internal/server/config"
)

// App creates the CLI application. Without a subcommand it serves.
func App() *cli.App {
	return &cli.App{
		Name:      buildinfo.Program,
		Usage:     "serve static directories and reverse-proxy path prefixes",
		UsageText: buildinfo.Program + " [flags] [ROUTES]\n" + buildinfo.Program + " command [command flags] [arguments...]",
		ArgsUsage: "[ROUTES]",
		Version:   buildinfo.String(),
		Flags:     serveFlags(),
		Action:    serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			RoutesCommand(),
			MatchCommand(),
			VersionCommand(),
		},
	}
}

// outputFlags returns the flags shared by commands that print results.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// formatterFor builds the formatter selected by the output flags.
func formatterFor(c *cli.Context) (output.Formatter, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, c.Bool("wide")), nil
}

// compileRoutes resolves the route source named by arg and builds the
// rule set from it.
func compileRoutes(arg string) (*routing.RuleSet, config.RouteSource, error) {
	entries, src, err := config.LoadRoutes(arg)
	if err != nil {
		return nil, src, err
	}
	rules, err := routing.Build(entries)
	if err != nil {
		return nil, src, err
	}
	return rules, src, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
