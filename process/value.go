package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fluidcss/fluid"
	"fluidcss/state"
	"fluidcss/transform"
)

// Value is the action of value subcommand: declaration values from command
// line (or standard input, one per line) are transformed and printed.
func Value(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("value")

	cfg := env.Cfg.Fluid
	if cmd.IsSet("logical") {
		cfg.UseLogicalUnits = cmd.Bool("logical")
	}
	if cmd.IsSet("precision") {
		cfg.Precision = cmd.Int("precision")
		if cfg.Precision < 0 || cfg.Precision > fluid.MaxPrecision {
			return fmt.Errorf("precision must be between 0 and %d", fluid.MaxPrecision)
		}
	}
	if cmd.IsSet("root-font-size") {
		cfg.RootFontSize = cmd.Float("root-font-size")
		if !(cfg.RootFontSize > 0) {
			return fmt.Errorf("root font size must be positive")
		}
	}

	tr := transform.New(&cfg, env.Log, transform.WithCacheSize(0))

	var in io.Reader
	if cmd.Args().Len() == 0 {
		if in = cmd.Root().Reader; in == nil {
			in = os.Stdin
		}
	}
	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	return transformValues(ctx, tr, cmd.Args().Slice(), in, out, log)
}

func transformValues(ctx context.Context, tr *transform.Transformer, args []string, in io.Reader, out io.Writer, log *zap.Logger) error {
	emit := func(value string) error {
		result, changed := tr.Value(value)
		if !changed {
			log.Debug("Value left unchanged", zap.String("value", value))
		}
		if _, err := fmt.Fprintln(out, result); err != nil {
			return fmt.Errorf("unable to output value: %w", err)
		}
		return nil
	}

	for _, arg := range args {
		if err := emit(arg); err != nil {
			return err
		}
	}
	if in == nil {
		return nil
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("unable to read values: %w", err)
	}
	return nil
}
