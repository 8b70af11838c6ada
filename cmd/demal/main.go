// Command demal translates between MAL source text and its JSON document
// wire format, in either direction.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mal-lang/demal-go/internal/clicolor"
	"github.com/mal-lang/demal-go/mal"
)

// version is printed by -v/--version, mirroring the original's __version__.
const version = mal.EmitterVersion

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pal := clicolor.New(os.Stderr)
		fmt.Fprintln(os.Stderr, pal.Error.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var reverse bool
	var showVersion bool

	cmd := &cobra.Command{
		Use:           "demal <input> [<output>] [debug]",
		Short:         "Translate between MAL source text and its JSON document form",
		Args:          cobra.RangeArgs(0, 3),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			input, output, debug := parsePositional(args)
			if input == "" {
				return cmd.Help()
			}
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), input, output, reverse, debug)
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "emit MAL from a JSON document")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
	cmd.SetHelpTemplate(helpTemplate)

	return cmd
}

const helpTemplate = `Usage:
  demal <input> [<output>] [-r|--reverse] [debug] [-v|--version]

Read from stdin when input is - and write to stdout when output is -.

By default the output filename is the input filename with .mal or .json
appended, depending on the direction, else output.mal or output.json
when reading from stdin.

Append debug to print parser trace messages.
`

// parsePositional separates the freeform positional arguments cobra leaves
// after flag parsing into an input path, an optional output path, and
// whether the bare "debug" token was present — mirroring the original's
// `'debug' in arg` scan rather than treating debug as a flag.
func parsePositional(args []string) (input, output string, debug bool) {
	var rest []string
	for _, a := range args {
		if a == "debug" {
			debug = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) > 0 {
		input = rest[0]
	}
	if len(rest) > 1 {
		output = rest[1]
	}
	return input, output, debug
}

func run(stdout, stderr io.Writer, input, output string, reverse, debug bool) error {
	cfg := mal.New()
	if debug {
		cfg.Log = log.New(stderr, "demal: ", 0)
	} else {
		cfg = cfg.Silent()
	}
	cfg.Debug = debug

	if reverse {
		return runReverse(cfg, stdout, input, output)
	}
	return runForward(cfg, stdout, input, output)
}

func runForward(cfg *mal.Configuration, stdout io.Writer, input, output string) error {
	var src string
	var path string
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		src = string(data)
		path = "<stdin>"
	} else {
		data, err := cfg.ReadFile(input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", input, err)
		}
		src = string(data)
		path = input
	}

	doc, err := mal.ParseString(cfg, src, path)
	if err != nil {
		return err
	}

	return writeOutput(stdout, output, input, ".json", func(w io.Writer) error {
		return doc.WriteJSON(w, true)
	})
}

func runReverse(cfg *mal.Configuration, stdout io.Writer, input, output string) error {
	var r io.Reader
	if input == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", input, err)
		}
		defer f.Close()
		r = f
	}

	doc, err := mal.ReadJSON(r)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", input, err)
	}

	return writeOutput(stdout, output, input, ".mal", func(w io.Writer) error {
		return mal.Emit(w, doc)
	})
}

// writeOutput resolves the destination path per spec §6's default-naming
// rule (append defaultExt to the input path, or "output"+defaultExt when
// input is stdin) and writes through write. For a file destination,
// writeFile collects write's whole output in memory first, so a failing
// write never touches an existing file: os.Create truncates only after
// write has succeeded. For "-", write goes straight to stdout.
func writeOutput(stdout io.Writer, output, input, defaultExt string, write func(io.Writer) error) error {
	if output == "-" {
		return write(stdout)
	}
	if output != "" {
		return writeFile(output, write)
	}
	if input == "-" || input == "<stdin>" {
		return writeFile("output"+defaultExt, write)
	}
	return writeFile(input+defaultExt, write)
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("output directory %s: %w", dir, err)
		}
	}
	var buf strings.Builder
	if err := write(&buf); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	_, err = io.WriteString(f, buf.String())
	return err
}
