// Package transform rewrites archive entries: classes are renamed and
// relocated, and text resources that name relocated packages are
// rewritten to match.
package transform

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/mixin"
	"github.com/wippyai/jar-remapper/provider"
	"github.com/wippyai/jar-remapper/relocate"
	"github.com/wippyai/jar-remapper/remap"
)

// ServicesDir holds service provider descriptors.
const ServicesDir = "META-INF/services/"

// Transformer post-processes the output of a Renamer. Class entries the
// renamer did not rename are relocated by path. Service descriptors and
// JSON resources have the dotted form of relocated packages rewritten.
type Transformer struct {
	base    *Renamer
	classes *provider.Renaming
	rules   relocate.Table
}

var _ Processor = (*Transformer)(nil)

type options struct {
	analyzer *mixin.Analyzer
}

// Option configures New.
type Option func(*options)

// WithAnalyzer sets the mixin analyzer used to inspect classes.
func WithAnalyzer(a *mixin.Analyzer) Option {
	return func(o *options) {
		o.analyzer = a
	}
}

// New wires the full rewrite: a renaming provider over upstream, a base
// remapper over table, and a relocating remapper with flat and rules on
// top.
//
// upstream holds classes under mapped names, as produced by table.
func New(upstream classinfo.Provider, table *mapping.Table, flat mapping.Flat, rules relocate.Table, opts ...Option) *Transformer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	classes := provider.NewRenaming(upstream, table, o.analyzer)
	base := remap.NewBase(classes, table)
	r := remap.NewRelocating(base, classes, flat, rules)
	return &Transformer{
		base:    NewRenamer(r),
		classes: classes,
		rules:   rules,
	}
}

// Wrap post-processes an existing renamer.
func Wrap(base *Renamer, rules relocate.Table) *Transformer {
	return &Transformer{base: base, rules: rules}
}

// Classes returns the provider the transformer resolves classes through,
// or nil for a wrapped renamer.
func (t *Transformer) Classes() *provider.Renaming {
	return t.classes
}

// ProcessClass remaps the class body and names the output entry by
// relocating the input path. A rename done by the base processor does not
// carry over to the entry name.
func (t *Transformer) ProcessClass(ctx context.Context, e ClassEntry) (ClassEntry, error) {
	out, err := t.base.ProcessClass(ctx, e)
	if err != nil {
		return ClassEntry{}, err
	}
	out.Name = t.rules.Name(e.Name)
	return out, nil
}

// ProcessResource relocates text resources and defers the rest to the
// renamer.
func (t *Transformer) ProcessResource(ctx context.Context, e ResourceEntry) (ResourceEntry, error) {
	if !IsRelocatedText(e.Name) {
		return t.base.ProcessResource(ctx, e)
	}
	if !utf8.Valid(e.Data) {
		return ResourceEntry{}, errors.InvalidUTF8(errors.PhaseRelocate, []string{e.Name}, e.Data)
	}
	content := t.rules.Text(string(e.Data))
	if len(content) != len(e.Data) {
		Logger().Debug("relocated resource", zap.String("entry", e.Name))
	}
	return ResourceEntry{Name: e.Name, Time: e.Time, Data: []byte(content)}, nil
}

// IsRelocatedText reports whether a resource's content is relocated.
func IsRelocatedText(name string) bool {
	return strings.HasPrefix(name, ServicesDir) || strings.HasSuffix(name, ".json")
}
