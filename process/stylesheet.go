package process

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"fluidcss/common"
	"fluidcss/transform"
)

// processStylesheet transforms single stylesheet and delivers result
// according to requested output mode.
func (p *processor) processStylesheet(j job) (rerr error) {
	var (
		stats   transform.Stats
		in, out int
		changed bool
		outName string
	)

	p.log.Debug("Processing starting", zap.String("from", j.name()))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			p.log.Error("Processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("from", j.name()), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		p.sum.Files++
		if rerr != nil {
			p.sum.Failed++
			return
		}
		p.sum.Add(stats)
		p.sum.Read += int64(in)
		p.sum.Written += int64(out)
		if changed {
			p.sum.Changed++
		}
		p.log.Debug("Processing completed", zap.Duration("elapsed", time.Since(start)),
			zap.String("from", j.name()), zap.String("to", outName), zap.Any("stats", stats))
	}(time.Now())

	data, err := j.read()
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	in = len(data)

	result, stats := p.tr.Stylesheet(data, j.name())
	changed = string(result) != string(data)

	switch p.env.Mode {
	case common.OutputModeWrite:
		outName = filepath.Join(p.dst, j.rel)
		if err := p.writeResult(outName, result); err != nil {
			return err
		}
		out = len(result)
		p.env.Rpt.Store("result/"+filepath.ToSlash(j.rel), outName)

	case common.OutputModeInplace:
		if !changed {
			return nil
		}
		outName = j.file
		if err := replaceFile(outName, result); err != nil {
			return fmt.Errorf("unable to replace stylesheet: %w", err)
		}
		out = len(result)
		p.env.Rpt.Store("result/"+filepath.ToSlash(j.rel), outName)

	case common.OutputModeDiff:
		if !changed {
			return nil
		}
		text := unifiedDiff(filepath.ToSlash(j.rel), string(data), string(result))
		p.mu.Lock()
		_, err = p.out.Write([]byte(text))
		p.mu.Unlock()
		if err != nil {
			return fmt.Errorf("unable to output difference: %w", err)
		}
		out = len(text)
		p.env.Rpt.StoreData("diff/"+filepath.ToSlash(j.rel)+".diff", []byte(text))

	default:
		return fmt.Errorf("unsupported output mode %s", p.env.Mode)
	}
	return nil
}

// writeResult saves stylesheet to destination, existing files are replaced
// only when overwrite was requested.
func (p *processor) writeResult(outName string, data []byte) error {
	if _, err := os.Stat(outName); err == nil {
		if !p.env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outName)
		}
		p.log.Debug("Overwriting existing file", zap.String("file", outName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outName, data, 0644); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	return nil
}

// replaceFile atomically replaces content of existing file keeping its
// permissions.
func replaceFile(name string, data []byte) (err error) {
	fi, err := os.Stat(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), fi.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}
