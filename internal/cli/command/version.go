package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/statichost-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Flags:  outputFlags(),
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	f, err := formatterFor(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, buildinfo.Get())
}
