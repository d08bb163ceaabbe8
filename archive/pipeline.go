package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/transform"
)

// Kind classifies an entry.
type Kind string

const (
	KindClass    Kind = "class"
	KindResource Kind = "resource"
)

// Result is one processed entry.
type Result struct {
	Time   time.Time
	Source string
	Name   string
	Kind   Kind
	Data   []byte
}

// Pipeline runs every entry of a jar through a processor.
type Pipeline struct {
	Processor transform.Processor

	// Workers bounds concurrent entries. Zero means GOMAXPROCS.
	Workers int

	// StripSignatures drops META-INF signature files.
	StripSignatures bool
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Process transforms the entries of in. Results keep archive order.
// Directory entries are dropped. Two entries mapping to the same output
// name is an error.
func (p *Pipeline) Process(ctx context.Context, in *Jar) ([]Result, error) {
	files := in.Files()
	results := make([]Result, len(files))
	keep := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, f := range files {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if p.StripSignatures && IsSignature(f.Name) {
			Logger().Debug("dropping signature", zap.String("entry", f.Name))
			continue
		}
		keep[i] = true
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readFile(f)
			if err != nil {
				return errors.New(errors.PhaseArchive, errors.KindInvalidData).
					Path(in.Path(), f.Name).
					Detail("read entry").
					Cause(err).
					Build()
			}
			r, err := p.processEntry(ctx, f.Name, f.Modified, data)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	seen := make(map[string]string, len(results))
	for i, r := range results {
		if !keep[i] {
			continue
		}
		if prev, dup := seen[r.Name]; dup {
			e := errors.Duplicate(errors.PhaseArchive, "output entry", r.Name)
			e.Path = []string{prev, r.Source}
			return nil, e
		}
		seen[r.Name] = r.Source
		out = append(out, r)
	}
	return out, nil
}

func (p *Pipeline) processEntry(ctx context.Context, name string, mod time.Time, data []byte) (Result, error) {
	if strings.HasSuffix(name, ClassSuffix) {
		e, err := p.Processor.ProcessClass(ctx, transform.ClassEntry{Name: name, Time: mod, Data: data})
		if err != nil {
			return Result{}, err
		}
		return Result{Source: name, Name: e.Name, Kind: KindClass, Time: e.Time, Data: e.Data}, nil
	}
	e, err := p.Processor.ProcessResource(ctx, transform.ResourceEntry{Name: name, Time: mod, Data: data})
	if err != nil {
		return Result{}, err
	}
	return Result{Source: name, Name: e.Name, Kind: KindResource, Time: e.Time, Data: e.Data}, nil
}

// Write stores results as a deflated jar in order.
func Write(w io.Writer, results []Result) error {
	zw := zip.NewWriter(w)
	for _, r := range results {
		hdr := &zip.FileHeader{
			Name:     r.Name,
			Method:   zip.Deflate,
			Modified: r.Time,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "create entry "+r.Name)
		}
		if _, err := fw.Write(r.Data); err != nil {
			return errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "write entry "+r.Name)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "finish jar")
	}
	return nil
}

// Run transforms the jar at inPath into outPath. The output is written
// to a temporary file next to outPath and renamed into place, so a
// failed run leaves no partial jar.
func (p *Pipeline) Run(ctx context.Context, inPath, outPath string) ([]Result, error) {
	start := time.Now()
	in, err := Open(inPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	results, err := p.Process(ctx, in)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), "."+filepath.Base(outPath)+".*")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "create output")
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, results); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "close output")
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return nil, errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "move output into place")
	}

	var classes int
	for _, r := range results {
		if r.Kind == KindClass {
			classes++
		}
	}
	Logger().Info("remapped jar",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("classes", classes),
		zap.Int("resources", len(results)-classes),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
