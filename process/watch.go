package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fluidcss/archive"
	"fluidcss/common"
	"fluidcss/state"
)

// settleDelay is how long watcher waits for more events before processing
// changed stylesheets. Editors often write files in several steps.
const settleDelay = 200 * time.Millisecond

// Watch is the action of watch subcommand: source is processed once and
// then again every time stylesheets under it change.
func Watch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("watch")

	src, dst, err := sourceAndDestination(cmd, log)
	if err != nil {
		return err
	}
	if err := applyFlags(env, cmd); err != nil {
		return err
	}
	// results are refreshed on every change
	env.Overwrite = true

	p := newProcessor(env, dst, cmd.Root().Writer, log)
	return p.watch(ctx, src)
}

func (p *processor) watch(ctx context.Context, src string) error {
	if p.env.Mode == common.OutputModeInplace {
		return errors.New("in place mode could not be used when watching")
	}

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("unable to watch source: %w", err)
	}
	root, single := src, false
	switch {
	case fi.Mode().IsDir():
	case fi.Mode().IsRegular():
		if isArchive, err := archive.IsArchive(src); err != nil || isArchive {
			return fmt.Errorf("unable to watch (%s), only directories and stylesheets are supported", src)
		}
		root, single = filepath.Dir(src), true
	default:
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	if p.isDestination(root) {
		return fmt.Errorf("destination (%s) could not contain source being watched", p.dst)
	}

	if err := p.process(ctx, src); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.log.Warn("Initial processing was not complete", zap.Error(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	if single {
		err = watcher.Add(root)
	} else {
		err = p.addDirs(watcher, root)
	}
	if err != nil {
		return fmt.Errorf("unable to watch (%s): %w", root, err)
	}

	p.log.Info("Watching for changes, interrupt to stop", zap.String("source", src))

	pending := make(map[string]struct{})
	timer := time.NewTimer(settleDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Watching stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p.log.Debug("Watched path changed", zap.Stringer("event", event))

			if !single && event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !p.isDestination(event.Name) {
					// new directory may already have stylesheets
					if err := p.addDirs(watcher, event.Name); err != nil {
						p.log.Warn("Unable to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					jobs, _ := p.collectDir(ctx, event.Name)
					for _, j := range jobs {
						pending[j.file] = struct{}{}
					}
					timer.Reset(settleDelay)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if (single && event.Name != src) || (!single && (!p.isStylesheet(event.Name) || p.isDestination(event.Name))) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(settleDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("Watcher reported problem", zap.Error(err))

		case <-timer.C:
			jobs := pendingJobs(root, pending)
			clear(pending)
			if len(jobs) == 0 {
				continue
			}
			p.log.Info("Stylesheets changed", zap.Int("count", len(jobs)))
			if err := p.run(ctx, jobs); err != nil && ctx.Err() == nil {
				p.log.Warn("Some stylesheets were not processed", zap.Error(err))
			}
		}
	}
}

// addDirs adds dir and all directories under it to watcher.
func (p *processor) addDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p.isDestination(path) {
			return filepath.SkipDir
		}
		p.log.Debug("Watching directory", zap.String("dir", path))
		return watcher.Add(path)
	})
}

// isDestination reports whether path is where results are written, we do not
// want to process our own output.
func (p *processor) isDestination(path string) bool {
	if p.env.Mode != common.OutputModeWrite {
		return false
	}
	rel, err := filepath.Rel(p.dst, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func pendingJobs(root string, pending map[string]struct{}) []job {
	jobs := make([]job, 0, len(pending))
	for name := range pending {
		fi, err := os.Stat(name)
		if err != nil || !fi.Mode().IsRegular() {
			// removed or renamed before we got to it
			continue
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			continue
		}
		jobs = append(jobs, job{rel: rel, file: name})
	}
	sortJobs(jobs)
	return jobs
}
