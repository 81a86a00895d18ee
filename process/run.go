// Package process implements stylesheet processing subcommands.
package process

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fluidcss/archive"
	"fluidcss/common"
	"fluidcss/config"
	"fluidcss/state"
	"fluidcss/transform"
)

// job is a single stylesheet to be processed.
type job struct {
	// rel is the path relative to the source root, used to name results.
	rel string
	// file is the stylesheet on disk, empty for archive entries.
	file string
	// data is already loaded content (archive entries).
	data []byte
}

func (j job) read() ([]byte, error) {
	if len(j.file) == 0 {
		return j.data, nil
	}
	return os.ReadFile(j.file)
}

func (j job) name() string {
	if len(j.file) != 0 {
		return j.file
	}
	return j.rel
}

// summary accumulates results of all processed stylesheets.
type summary struct {
	transform.Stats
	Files   int
	Changed int
	Failed  int
	Read    int64
	Written int64
}

func (s summary) log(log *zap.Logger, elapsed time.Duration) {
	log.Info("Processing completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("files", s.Files),
		zap.Int("changed", s.Changed),
		zap.Int("failed", s.Failed),
		zap.Int("declarations", s.Declarations),
		zap.Int("rewritten", s.Rewritten),
		zap.Int("declined", s.Declined),
		zap.String("read", humanize.Bytes(uint64(s.Read))),
		zap.String("written", humanize.Bytes(uint64(s.Written))))
}

// processor runs jobs, it is shared by transform and watch subcommands.
type processor struct {
	env *state.LocalEnv
	tr  *transform.Transformer
	log *zap.Logger
	dst string
	out io.Writer

	mu  sync.Mutex // protects out and sum
	sum summary
}

func newProcessor(env *state.LocalEnv, dst string, out io.Writer, log *zap.Logger) *processor {
	return &processor{
		env: env,
		tr:  transform.New(&env.Cfg.Fluid, env.Log),
		log: log,
		dst: dst,
		out: out,
	}
}

// Run is the action of transform subcommand.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src, dst, err := sourceAndDestination(cmd, log)
	if err != nil {
		return err
	}
	if err := applyFlags(env, cmd); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("mode", env.Mode))

	p := newProcessor(env, dst, cmd.Root().Writer, log)
	defer func(start time.Time) {
		p.sum.log(log, time.Since(start))
	}(time.Now())

	return p.process(ctx, src)
}

func sourceAndDestination(cmd *cli.Command, log *zap.Logger) (src, dst string, err error) {
	src = cmd.Args().Get(0)
	if len(src) == 0 {
		return "", "", errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return "", "", err
	}

	dst = cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	return src, dst, nil
}

// applyFlags overwrites configured processing parameters with ones from
// command line.
func applyFlags(env *state.LocalEnv, cmd *cli.Command) error {
	if cmd.IsSet("mode") {
		mode, err := common.ParseOutputMode(cmd.String("mode"))
		if err != nil {
			return fmt.Errorf("unable to use requested mode: %w", err)
		}
		env.Mode = mode
	}
	if cmd.IsSet("jobs") {
		if jobs := cmd.Int("jobs"); jobs > 0 {
			env.Jobs = jobs
		}
	}
	env.Overwrite = cmd.Bool("overwrite")
	return nil
}

// process determines the input type (directory, archive, or single file) and
// processes it accordingly. Source could point inside of zip archive.
func (p *processor) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			jobs, err := p.collectDir(ctx, head)
			if err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			if err := p.env.Rpt.StoreCopy("source", head); err != nil {
				p.log.Warn("Unable to store source in the report", zap.Error(err))
			}
			return p.run(ctx, jobs)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := archive.IsArchive(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			if p.env.Mode == common.OutputModeInplace {
				return errors.New("archives could not be modified in place")
			}
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			jobs, err := p.collectArchive(ctx, head, filepath.ToSlash(tail))
			if err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			p.env.Rpt.Store("source.zip", head)
			return p.run(ctx, jobs)
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		if err := p.env.Rpt.StoreCopy("source", head); err != nil {
			p.log.Warn("Unable to store source in the report", zap.Error(err))
		}
		return p.run(ctx, []job{{rel: filepath.Base(head), file: head}})
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

func (p *processor) isStylesheet(name string) bool {
	return slices.ContainsFunc(p.env.Cfg.Processing.Extensions, func(ext string) bool {
		return strings.EqualFold(filepath.Ext(name), ext)
	})
}

// collectDir walks directory tree finding stylesheets. Symbolic links are
// not followed.
func (p *processor) collectDir(ctx context.Context, dir string) ([]job, error) {
	var jobs []job
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			p.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() && p.env.Mode == common.OutputModeWrite && path != dir && path == p.dst {
			// results of previous runs
			return filepath.SkipDir
		}
		if !d.Type().IsRegular() || !p.isStylesheet(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{rel: rel, file: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		p.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	sortJobs(jobs)
	return jobs, nil
}

// sortJobs orders jobs naturally by relative path so results and logs are
// stable between runs.
func sortJobs(jobs []job) {
	slices.SortFunc(jobs, func(a, b job) int {
		switch {
		case natural.Less(a.rel, b.rel):
			return -1
		case natural.Less(b.rel, a.rel):
			return 1
		}
		return 0
	})
}

// collectArchive loads all stylesheets inside archive under "pathIn".
func (p *processor) collectArchive(ctx context.Context, path, pathIn string) ([]job, error) {
	var jobs []job
	err := archive.Walk(path, pathIn, p.isStylesheet, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := archive.ReadFile(f)
		if err != nil {
			p.log.Error("Unable to read file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		jobs = append(jobs, job{rel: cleanArchivePath(f.Name), data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		p.log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
	}
	return jobs, nil
}

// cleanArchivePath converts name of archive entry to relative file path
// usable on any OS.
func cleanArchivePath(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, `\`, "/"), "/")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(part) == 0 || part == "." {
			continue
		}
		cleaned = append(cleaned, config.SafeFileName(part))
	}
	return filepath.Join(cleaned...)
}

// run processes jobs in parallel. Failure of a single stylesheet does not
// stop processing, all failures are returned together.
func (p *processor) run(ctx context.Context, jobs []job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.env.Jobs, 1))

	var (
		mu   sync.Mutex
		errs error
	)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.processStylesheet(j); err != nil {
				p.log.Error("Unable to process stylesheet", zap.String("file", j.name()), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}
