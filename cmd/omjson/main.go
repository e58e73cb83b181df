// omjson reads JSON documents and writes them back reformatted. Member order
// and number text are kept as they appear in the input.
//
// Usage:
//
//	omjson [flags] [file ...]
//
// With no files, or with "-", standard input is read. Each input holds one
// JSON value, which is written followed by a newline.
package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/acolita/ommjson/internal/textio"
	"github.com/acolita/ommjson/pkg/json"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "omjson: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	indent   int
	compact  bool
	comments bool
	jsonc    bool
	utf16    bool
	utf16Out bool
	check    bool
	verbose  bool
	config   string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("omjson", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVar(&opts.indent, "indent", 2, "spaces per nesting level")
	flagSet.BoolVar(&opts.compact, "compact", false, "write without any whitespace")
	flagSet.BoolVar(&opts.comments, "comments", true, "accept /* */ comments")
	flagSet.BoolVar(&opts.jsonc, "jsonc", false, "strip // comments and trailing commas before reading")
	flagSet.BoolVar(&opts.utf16, "utf16", false, "read UTF-16LE input")
	flagSet.BoolVar(&opts.utf16Out, "utf16-out", false, "write UTF-16LE output")
	flagSet.BoolVar(&opts.check, "check", false, "validate the input and write nothing")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug records to stderr")
	flagSet.StringVar(&opts.config, "config", "", "YAML configuration `file`")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.jsonc && opts.utf16 {
		return errors.New("--jsonc cannot be combined with --utf16")
	}

	cfg, err := loadConfig(flagSet, &opts)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	reg := json.New(json.WithConfig(cfg), json.WithLogger(logger))

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, name := range inputs {
		data, err := readInput(name, stdin)
		if err != nil {
			return err
		}
		if err := process(reg, &opts, data, stdout); err != nil {
			return fmt.Errorf("%s: %w", displayName(name), err)
		}
		logger.Debug("input processed", "input", displayName(name), "bytes", len(data), "check", opts.check)
	}
	return nil
}

// loadConfig starts from the configuration file, if any, and applies the
// flags given explicitly on top of it.
func loadConfig(flagSet *pflag.FlagSet, opts *options) (json.Config, error) {
	cfg := json.DefaultConfig()
	cfg.PrettyPrint = true
	if opts.config != "" {
		loaded, err := json.LoadConfig(opts.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if flagSet.Changed("indent") {
		cfg.Indent = opts.indent
		cfg.PrettyPrint = true
	}
	if opts.compact {
		cfg.PrettyPrint = false
	}
	if flagSet.Changed("comments") {
		cfg.Comments = opts.comments
	}
	return cfg, cfg.Validate()
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func displayName(name string) string {
	if name == "-" {
		return "<stdin>"
	}
	return name
}

// process reads the single value of data and writes it to out, or only
// validates it in check mode.
func process(reg *json.Registry, opts *options, data []byte, out io.Writer) error {
	var in io.RuneReader
	switch {
	case opts.utf16:
		in = textio.NewUTF16Reader(bytes.NewReader(data), binary.LittleEndian)
	case opts.jsonc:
		in = bytes.NewReader(jsonc.ToJSON(data))
	default:
		in = bytes.NewReader(data)
	}
	r := reg.NewReader(in)

	if opts.check {
		var v interface{}
		if err := reg.Decode(r, &v); err != nil {
			return err
		}
		return r.AssertFullConsumption()
	}

	w := reg.NewWriter(nil)
	if err := json.Copy(w, r); err != nil {
		return err
	}
	if err := r.AssertFullConsumption(); err != nil {
		return err
	}
	if err := w.Finish(); err != nil {
		return err
	}
	text := w.String() + "\n"
	if opts.utf16Out {
		_, err := out.Write(textio.AppendUTF16(nil, text, binary.LittleEndian))
		return err
	}
	_, err := io.WriteString(out, text)
	return err
}
