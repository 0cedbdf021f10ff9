package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pitabwire/util"
	_ "go.uber.org/automaxprocs" // Automatically set GOMAXPROCS to match Linux container CPU quota.

	"github.com/pitabwire/lingo"
	"github.com/pitabwire/lingo/browser"
	"github.com/pitabwire/lingo/devproxy"
	"github.com/pitabwire/lingo/locale"
	"github.com/pitabwire/lingo/page"
	"github.com/pitabwire/lingo/version"
)

const (
	minArgsCommand = 2
	argsCompare    = 3
	argsFormatDate = 2
	serviceName    = "lingo"
)

var errNoUserConfig = errors.New("document has no embedded user config")

func main() {
	if len(os.Args) < minArgsCommand {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		exitOnErr(cmdServe(os.Args[2:]))
	case "compare":
		exitOnErr(cmdCompare(os.Args[2:]))
	case "sort":
		exitOnErr(cmdSort(os.Args[2:]))
	case "format-date":
		exitOnErr(cmdFormatDate(os.Args[2:]))
	case "read-config":
		exitOnErr(cmdReadConfig(os.Args[2:]))
	case "open":
		exitOnErr(cmdOpen(os.Args[2:]))
	case "version":
		fmt.Fprintln(os.Stdout, serviceName, version.String())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stdout, "lingo <command> [args]")
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintln(os.Stdout, "Commands:")
	fmt.Fprintln(os.Stdout, "  serve [--addr :8080] [--shell FILE] [--user-config FILE] [--proxy URL] [--open]")
	fmt.Fprintln(os.Stdout, "  compare <locale> <a> <b>")
	fmt.Fprintln(os.Stdout, "  sort <locale> <value>...")
	fmt.Fprintln(os.Stdout, "  format-date <locale> <timestamp>")
	fmt.Fprintln(os.Stdout, "  read-config <html file>")
	fmt.Fprintln(os.Stdout, "  open <uri>")
	fmt.Fprintln(os.Stdout, "  version")
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address, defaults to HTTP_PORT")
	shell := fs.String("shell", "", "application shell html file")
	userConfig := fs.String("user-config", "", "json, yaml or toml file embedded into the shell")
	proxy := fs.String("proxy", "", "forward /api and /download to this backend")
	open := fs.Bool("open", false, "open the application in a browser tab once listening")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []lingo.Option
	if *shell != "" {
		opts = append(opts, lingo.WithShellFile(*shell))
	}
	if *userConfig != "" {
		opts = append(opts, lingo.WithUserConfigFile(*userConfig))
	}
	if *proxy != "" {
		cfg := devproxy.DefaultConfig()
		cfg.Target = *proxy
		opts = append(opts, lingo.WithDevProxy(cfg))
	}
	if *open {
		opts = append(opts, lingo.WithOpenBrowser(true))
	}

	ctx, svc := lingo.NewService(serviceName, opts...)
	defer svc.Stop(ctx)

	err := svc.Run(ctx, *addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < argsCompare {
		return errors.New("locale and two strings are required")
	}

	result, err := locale.Compare(fs.Arg(0), fs.Arg(1), fs.Arg(2))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, result)
	return nil
}

func cmdSort(args []string) error {
	fs := flag.NewFlagSet("sort", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("locale is required")
	}

	values := fs.Args()[1:]
	if err := locale.Default.Sort(fs.Arg(0), values); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, strings.Join(values, "\n"))
	return nil
}

func cmdFormatDate(args []string) error {
	fs := flag.NewFlagSet("format-date", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < argsFormatDate {
		return errors.New("locale and timestamp are required")
	}

	ts, err := locale.ParseTimestamp(fs.Arg(1))
	if err != nil {
		return err
	}

	formatted, err := locale.FormatDate(fs.Arg(0), ts)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, formatted)
	return nil
}

func cmdReadConfig(args []string) error {
	fs := flag.NewFlagSet("read-config", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("html file is required")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(context.Background(), f)

	text, ok := page.ReadUserConfig(f)
	if !ok {
		return errNoUserConfig
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}

func cmdOpen(args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("uri is required")
	}
	return browser.OpenNewTab(context.Background(), fs.Arg(0))
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
