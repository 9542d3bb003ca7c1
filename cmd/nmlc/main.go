// Command nmlc compiles NML source into a self-contained HTML document.
//
// Usage:
//
//	nmlc [flags] [file]
//
// With no file, the source is read from stdin. With -watch, the file is recompiled after every
// change. With -serve, the playground is served over HTTP, starting with the file if given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	playground "github.com/dpotapov/go-nml"
	"github.com/dpotapov/go-nml/nml"

	"github.com/rjeczalik/notify"
)

// errDiagnostics is returned in strict mode when the compiler reported anything.
var errDiagnostics = errors.New("diagnostics reported")

func main() {
	flag.Usage = func() {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: nmlc [flags] [file]")
		_, _ = fmt.Fprintln(os.Stderr, "")
		_, _ = fmt.Fprintln(os.Stderr, "Compiles an NML file (or stdin) into an HTML document.")
		_, _ = fmt.Fprintln(os.Stderr, "")
		flag.PrintDefaults()
	}
	out := flag.String("o", "", "write the document to `file` instead of stdout")
	tree := flag.Bool("tree", false, "print the parsed element tree instead of the document")
	strict := flag.Bool("strict", false, "exit with status 1 if any diagnostic is reported")
	watch := flag.Bool("watch", false, "recompile the file whenever it changes")
	quiet := flag.Duration("quiet", 800*time.Millisecond, "quiet period before recompiling after a change")
	addr := flag.String("serve", "", "serve the playground on `address`, e.g. :8080")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	if flag.NArg() > 1 || (*watch && flag.NArg() == 0) || (*watch && *addr != "") {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &compiler{
		out:    *out,
		tree:   *tree,
		strict: *strict,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	var err error
	switch {
	case *addr != "":
		var src []byte
		if path != "" {
			if src, err = os.ReadFile(path); err != nil {
				fatal(err)
			}
		}
		err = serve(ctx, *addr, string(src), *quiet, logger)
	case *watch:
		if err = c.buildFile(path); err != nil {
			logger.Error("Compile file", "path", path, "error", err)
		}
		err = c.watch(ctx, path, *quiet, logger)
	case path == "":
		var src []byte
		if src, err = io.ReadAll(os.Stdin); err == nil {
			err = c.build("<stdin>", src)
		}
	default:
		err = c.buildFile(path)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

// compiler holds the output options shared by single builds and watch mode.
type compiler struct {
	out    string
	tree   bool
	strict bool
	stdout io.Writer
	stderr io.Writer
}

func (c *compiler) buildFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.build(path, src)
}

// build compiles src, prints its diagnostics and writes the result.
func (c *compiler) build(name string, src []byte) error {
	t := nml.Parse(string(src))
	printDiagnostics(c.stderr, name, string(src), t.Diagnostics)

	var doc string
	if c.tree {
		doc = nml.Dump(t.Root)
	} else {
		doc = nml.Generate(t)
	}

	if c.out == "" || c.out == "-" {
		if _, err := io.WriteString(c.stdout, doc); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	} else if err := os.WriteFile(c.out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if c.strict && len(t.Diagnostics) > 0 {
		return fmt.Errorf("%s: %d %w", name, len(t.Diagnostics), errDiagnostics)
	}
	return nil
}

// safeBuild keeps the watcher alive if the compiler panics.
func (c *compiler) safeBuild(path string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("compile %s: panic: %v", path, v)
		}
	}()
	return c.buildFile(path)
}

// watch recompiles path after each burst of changes, once the quiet period has passed.
// The directory is watched rather than the file, so editors replacing the file are noticed.
func (c *compiler) watch(ctx context.Context, path string, quiet time.Duration, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	events := make(chan notify.EventInfo, 1)
	if err := notify.Watch(filepath.Dir(abs), events, notify.Write|notify.Create|notify.Rename); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer notify.Stop(events)

	logger.Info("Watching file", "path", path)

	changes := make(chan string)
	go func() {
		defer close(changes)
		for {
			select {
			case ei := <-events:
				if filepath.Base(ei.Path()) != filepath.Base(abs) {
					continue
				}
				logger.Debug("File changed", "path", ei.Path(), "event", ei.Event())
				select {
				case changes <- ei.Path():
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return playground.Debounce(ctx, changes, quiet, func(string) error {
		logger.Info("Recompile file", "path", path)
		if err := c.safeBuild(path); err != nil {
			logger.Error("Compile file", "path", path, "error", err)
		}
		return nil
	})
}

// printDiagnostics writes each diagnostic with the source line it refers to.
func printDiagnostics(w io.Writer, name, src string, diags nml.Diagnostics) {
	for _, d := range diags {
		_, _ = fmt.Fprintf(w, "%s:%s: %s: %s\n", name, d.Pos, d.Severity, d.Msg)
		if sc := d.SourceContext(src, 0); sc != nil {
			_, _ = fmt.Fprint(w, sc.String())
		}
	}
}

func serve(ctx context.Context, addr, src string, quiet time.Duration, logger *slog.Logger) error {
	h := &playground.Handler{
		Source:      src,
		QuietPeriod: quiet,
		Logger:      logger,
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: loggerMiddleware(h, logger),
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("Starting HTTP server", "address", addr)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}
	return nil
}

func loggerMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request", "method", r.Method, "url", r.URL)
		next.ServeHTTP(w, r)
	})
}

func fatal(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
