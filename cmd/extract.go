package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/warpdl/warpcookie/cmd/common"
	"github.com/warpdl/warpcookie/internal/cookies"
	"github.com/warpdl/warpcookie/pkg/credman"
	"github.com/warpdl/warpcookie/pkg/credman/keyring"
	"github.com/warpdl/warpcookie/pkg/logger"
)

var (
	cookieFile  string
	outputFile  string
	keyringName string
	targetURL   string
	keepSession bool
	keepExpired bool
	verbose     bool
	noProgress  bool

	sourceFlags = []cli.Flag{
		cli.StringSliceFlag{
			Name:  "cookies-from-browser, b",
			Usage: "load cookies from BROWSER[+KEYRING][:PROFILE][::CONTAINER], may be repeated",
		},
		cli.StringFlag{
			Name:        "cookies, c",
			Usage:       "Netscape cookie file read before extraction",
			Destination: &cookieFile,
		},
	}

	commonFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "keyring",
			Usage:       "Linux keyring used when a browser argument names none",
			EnvVar:      KeyringEnv,
			Destination: &keyringName,
		},
		cli.BoolFlag{
			Name:        "verbose",
			Usage:       "print debug messages",
			Destination: &verbose,
		},
		cli.BoolFlag{
			Name:        "no-progress",
			Usage:       "do not draw progress bars",
			Destination: &noProgress,
		},
	}

	saveFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "output, o",
			Usage:       "write cookies to FILE instead of stdout",
			Destination: &outputFile,
		},
		cli.BoolTFlag{
			Name:        "keep-session-cookies",
			Usage:       "keep cookies without an expiry (default: true)",
			Destination: &keepSession,
		},
		cli.BoolFlag{
			Name:        "keep-expired",
			Usage:       "keep cookies whose expiry has passed",
			Destination: &keepExpired,
		},
	}

	extractFlags = concatFlags(sourceFlags, saveFlags, commonFlags)
	importFlags  = concatFlags(saveFlags, commonFlags)
	headerFlags  = concatFlags(sourceFlags, []cli.Flag{
		cli.StringFlag{
			Name:        "url, u",
			Usage:       "url the Cookie header is built for",
			Destination: &targetURL,
		},
	}, commonFlags)
)

// ErrReported is returned once a runtime error has been printed, so the
// caller only has to set the exit status.
var ErrReported = errors.New("error already reported")

var (
	loadCookies   = cookies.LoadCookies
	importCookies = cookies.ImportCookies
	newProgress   = common.NewProgress
)

func concatFlags(sets ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func newLogger() logger.Logger {
	l := log.New(os.Stderr, "", 0)
	if verbose {
		return logger.NewVerboseLogger(l)
	}
	return logger.NewStandardLogger(l)
}

// baseOptions builds the options shared by every browser argument. The
// returned func waits for the progress bars and must be called once loading
// is over.
func baseOptions() (cookies.ExtractOptions, func(), error) {
	kr, err := keyring.ParseKeyring(keyringName)
	if err != nil {
		return cookies.ExtractOptions{}, nil, err
	}
	progress, wait := newProgress(!noProgress)
	return cookies.ExtractOptions{
		Keyring:  kr,
		Logger:   newLogger(),
		Progress: progress,
	}, wait, nil
}

// usageErr reports err with the help of the running command, or of the app
// when extract runs as the default action.
func usageErr(ctx *cli.Context, err error) error {
	return common.UsageErrorCallback(ctx, err, false)
}

func parseSpecs(args []string) ([]cookies.BrowserSpec, error) {
	specs := make([]cookies.BrowserSpec, 0, len(args))
	for _, arg := range args {
		spec, err := cookies.ParseBrowserSpec(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// loadJar runs the cookie sources of ctx. Usage problems are reported with
// the command help and yield a nil jar and nil error.
func loadJar(ctx *cli.Context) (*credman.Jar, error) {
	specs, err := parseSpecs(ctx.StringSlice("cookies-from-browser"))
	if err != nil {
		return nil, usageErr(ctx, err)
	}
	if len(specs) == 0 && cookieFile == "" {
		return nil, usageErr(ctx, errors.New("no cookie source provided, use --cookies-from-browser or --cookies"))
	}
	opts, wait, err := baseOptions()
	if err != nil {
		return nil, usageErr(ctx, err)
	}
	jar, err := loadCookies(context.Background(), cookieFile, specs, opts)
	wait()
	if err != nil {
		common.PrintRuntimeErr(ctx, ctx.Command.Name, "load_cookies", err)
		return nil, ErrReported
	}
	return jar, nil
}

func saveJar(jar *credman.Jar) error {
	opts := credman.SaveOptions{
		KeepSessionCookies: keepSession,
		KeepExpired:        keepExpired,
	}
	if outputFile == "" || outputFile == "-" {
		return jar.Write(common.Stdout, opts)
	}
	return jar.Save(outputFile, opts)
}

func extract(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	jar, err := loadJar(ctx)
	if jar == nil {
		return err
	}
	if err := saveJar(jar); err != nil {
		common.PrintRuntimeErr(ctx, "extract", "save", err)
		return ErrReported
	}
	return nil
}

func header(ctx *cli.Context) error {
	u := targetURL
	if u == "" {
		u = ctx.Args().First()
	}
	switch u {
	case "":
		return usageErr(ctx, errors.New("no url provided"))
	case "help":
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	jar, err := loadJar(ctx)
	if jar == nil {
		return err
	}
	value, err := jar.CookieHeader(u)
	if err != nil {
		common.PrintRuntimeErr(ctx, "header", "cookie_header", err)
		return ErrReported
	}
	fmt.Fprintln(common.Stdout, value)
	return nil
}

func importFile(ctx *cli.Context) error {
	path := ctx.Args().First()
	switch path {
	case "":
		return usageErr(ctx, errors.New("no cookie file provided"))
	case "help":
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, wait, err := baseOptions()
	if err != nil {
		return usageErr(ctx, err)
	}
	jar, _, err := importCookies(context.Background(), path, opts)
	wait()
	if err != nil {
		common.PrintRuntimeErr(ctx, "import", "import_cookies", err)
		return ErrReported
	}
	if err := saveJar(jar); err != nil {
		common.PrintRuntimeErr(ctx, "import", "save", err)
		return ErrReported
	}
	return nil
}

func browsers(ctx *cli.Context) error {
	const width = 12
	fmt.Fprintf(common.Stdout, "%s|%s\n", common.Beaut("BROWSER", width), common.Beaut("ENGINE", width))
	fmt.Fprintln(common.Stdout, strings.Repeat("-", 2*width+1))
	for _, b := range cookies.SupportedBrowsers {
		engine := "chromium"
		switch b {
		case cookies.BrowserFirefox:
			engine = "gecko"
		case cookies.BrowserSafari:
			engine = "webkit"
		}
		fmt.Fprintf(common.Stdout, "%s|%s\n", common.Beaut(b, width), common.Beaut(engine, width))
	}
	return nil
}
