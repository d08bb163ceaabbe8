package jarremapper

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/jar-remapper/archive"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/config"
	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/mixin"
	"github.com/wippyai/jar-remapper/report"
	"github.com/wippyai/jar-remapper/transform"
)

// Remapper holds the loaded inputs of one run: mappings, relocations and
// the open class path.
type Remapper struct {
	config      *config.Config
	logger      *zap.Logger
	transformer *transform.Transformer
	jars        []*archive.Jar
}

// Open loads everything c names. The input jar is part of the class path.
// A nil logger discards output.
func Open(c *config.Config, logger *zap.Logger) (_ *Remapper, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.Input == "" || c.Mappings == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, "input jar and mapping file are required")
	}
	table, err := mapping.LoadFile(c.Mappings)
	if err != nil {
		return nil, err
	}
	flats := make([]mapping.Flat, 0, len(c.FlatMappings))
	for _, path := range c.FlatMappings {
		flat, err := mapping.LoadFlat(path)
		if err != nil {
			return nil, err
		}
		flats = append(flats, flat)
	}
	rules, err := c.RelocationTable()
	if err != nil {
		return nil, err
	}

	r := &Remapper{config: c, logger: logger}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()
	for _, path := range append([]string{c.Input}, c.Classpath...) {
		jar, err := archive.Open(path)
		if err != nil {
			return nil, err
		}
		r.jars = append(r.jars, jar)
	}

	logger.Debug("loaded inputs",
		zap.Int("classes", table.Len()),
		zap.Int("flat_tables", len(flats)),
		zap.Int("relocations", rules.Len()),
		zap.Int("jars", len(r.jars)))

	r.transformer = transform.New(
		archive.NewProvider(r.jars...),
		table,
		mapping.Merge(flats...),
		rules,
		transform.WithAnalyzer(mixin.NewAnalyzer(c.Mixin.Annotations...)),
	)
	return r, nil
}

// Run writes the remapped jar and, when configured, the report.
func (r *Remapper) Run(ctx context.Context) ([]archive.Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	p := &archive.Pipeline{
		Processor:       r.transformer,
		Workers:         r.config.Workers,
		StripSignatures: r.config.StripSignatures,
	}
	results, err := p.Run(ctx, r.config.Input, r.config.Output)
	if err != nil {
		return nil, err
	}
	if r.config.Report != "" {
		rep := report.Build(r.config.Input, r.config.Output, results)
		if err := report.WriteFile(r.config.Report, rep); err != nil {
			return nil, err
		}
		r.logger.Info("wrote report", zap.String("path", r.config.Report))
	}
	return results, nil
}

// Inspect returns the class info computed for a class under its original
// name.
func (r *Remapper) Inspect(ctx context.Context, name string) (classinfo.ClassInfo, error) {
	ci, ok, err := r.transformer.Classes().ClassInfo(ctx, name)
	if err != nil {
		return classinfo.ClassInfo{}, err
	}
	if !ok {
		return classinfo.ClassInfo{}, errors.NotFound(errors.PhaseRemap, "class", name)
	}
	return ci, nil
}

// Close releases the class path.
func (r *Remapper) Close() error {
	var errs []error
	for _, jar := range r.jars {
		errs = append(errs, jar.Close())
	}
	r.jars = nil
	return errors.Join(errs...)
}
