package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/warpcookie/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "warpcookie",
		HelpName:              "warpcookie",
		Usage:                 "Extract and decrypt browser cookies.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "warpcookie <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Writer:                common.Stdout,
		Commands: []cli.Command{
			{
				Name:               "extract",
				Aliases:            []string{"e"},
				Usage:              "write browser cookies as a Netscape cookie file",
				Action:             extract,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        ExtractDescription,
				Flags:              extractFlags,
			},
			{
				Name:               "header",
				Usage:              "print the Cookie header for a url",
				UsageText:          "[command options] <url>",
				Action:             header,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        HeaderDescription,
				Flags:              headerFlags,
			},
			{
				Name:               "import",
				Aliases:            []string{"i"},
				Usage:              "read a cookie store file of any supported format",
				UsageText:          "[command options] <file>",
				Action:             importFile,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        ImportDescription,
				Flags:              importFlags,
			},
			{
				Name:               "browsers",
				Aliases:            []string{"b"},
				Usage:              "list supported browsers",
				UsageText:          " ",
				Action:             browsers,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        BrowsersDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of warpcookie",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      extract,
		Flags:       extractFlags,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
