// Package common holds the helpers shared by the warpcookie commands: error
// and help printing, usage callbacks, and the terminal progress reporter.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
)

// VersionCmdStr is printed by the version command. Execute fills it in from
// the build arguments.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp

	// Stdout receives command output. Tests swap it for a buffer.
	Stdout io.Writer = os.Stdout
)

// Help prints the application help, or the help of the command named by the
// first argument.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Fprintf(Stdout, "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	if err := showCommandHelp(ctx, arg); err != nil {
		return PrintErrWithHelp(ctx, err)
	}
	return nil
}

// GetVersion prints VersionCmdStr.
func GetVersion(ctx *cli.Context) error {
	fmt.Fprintln(Stdout, VersionCmdStr)
	return nil
}

// PrintRuntimeErr prints err tagged with the command and the step that
// failed. ctx may be nil, the program name then comes from os.Args.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		fmt.Fprintln(Stdout, "err is nil", "[", cmd, "|", action, "]")
		return
	}
	name := os.Args[0]
	if ctx != nil && ctx.App != nil {
		name = ctx.App.HelpName
	}
	fmt.Fprintf(Stdout, "%s: %s[%s]: %s\n", name, cmd, action, err.Error())
}

// PrintErrWithCmdHelp prints err followed by the help of the running command.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		if err := showCommandHelp(ctx, ctx.Command.Name); err != nil {
			fmt.Fprintln(Stdout, err.Error())
		}
	})
}

// PrintErrWithHelp prints err followed by the application help and exits
// with status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		showAppHelpAndExit(ctx, 1)
	})
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	switch {
	case estr == "flag: help requested":
		return Help(ctx)
	case strings.Contains(estr, "-version"):
		return GetVersion(ctx)
	}
	fmt.Fprintf(Stdout, "%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

// UsageErrorCallback is the OnUsageError hook of the app and its commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}

// Beaut centers s in a field n wide. An odd remainder goes to the right.
func Beaut(s string, n int) string {
	pad := n - len(s)
	if pad <= 0 {
		return s
	}
	left := string(replic(' ', pad/2))
	return left + s + left + string(replic(' ', pad%2))
}

func replic[T any](v T, n int) []T {
	a := make([]T, n)
	for i := range a {
		a[i] = v
	}
	return a
}
