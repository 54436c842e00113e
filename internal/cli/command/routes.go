package command

import (
	"github.com/urfave/cli/v2"
)

// RoutesCommand prints the compiled routing table in match order.
func RoutesCommand() *cli.Command {
	return &cli.Command{
		Name:      "routes",
		Usage:     "Print the compiled routing table, longest prefix first",
		ArgsUsage: "[ROUTES]",
		Flags:     outputFlags(),
		Action:    routesAction,
	}
}

func routesAction(c *cli.Context) error {
	f, err := formatterFor(c)
	if err != nil {
		return err
	}

	rules, _, err := compileRoutes(c.Args().First())
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, rules.Views())
}
