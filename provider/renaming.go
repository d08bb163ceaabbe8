// Package provider resolves class structure for the classes being
// transformed.
package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/internal/memo"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/mixin"
	"github.com/wippyai/jar-remapper/remap"
)

// Renaming answers class lookups in the source namespace of a mapping
// from an upstream provider that holds classes in the target namespace.
//
// A lookup fetches the upstream class under its forward-mapped name,
// renames its structure back through the reverse mapping and tags it as
// a mixin when the analyzer finds targets. Each name is computed at most
// once per Renaming, found or not. Names without upstream bytes fall
// back to upstream's own ClassInfo on every call.
type Renaming struct {
	upstream classinfo.Provider
	forward  *mapping.Table
	inspect  *remap.Base
	analyzer *mixin.Analyzer
	cache    memo.Cache[classinfo.ClassInfo]
}

var _ classinfo.Provider = (*Renaming)(nil)

// NewRenaming returns a provider over upstream. A nil analyzer matches
// every annotation type.
func NewRenaming(upstream classinfo.Provider, forward *mapping.Table, analyzer *mixin.Analyzer) *Renaming {
	if analyzer == nil {
		analyzer = mixin.NewAnalyzer()
	}
	return &Renaming{
		upstream: upstream,
		forward:  forward,
		inspect:  remap.NewBase(upstream, forward.Reverse()),
		analyzer: analyzer,
	}
}

// ClassBytes fetches the upstream bytes of the class name maps to.
func (r *Renaming) ClassBytes(ctx context.Context, name string) ([]byte, bool, error) {
	return r.upstream.ClassBytes(ctx, r.forward.RemapClass(name))
}

// ClassInfo implements classinfo.Provider.
func (r *Renaming) ClassInfo(ctx context.Context, name string) (classinfo.ClassInfo, bool, error) {
	ci, ok, err := r.cache.Get(ctx, name, func(ctx context.Context) (classinfo.ClassInfo, bool, error) {
		return r.compute(ctx, name)
	})
	if err != nil || ok {
		return ci, ok, err
	}
	return r.upstream.ClassInfo(ctx, name)
}

// Cached reports whether name has been computed, and whether it was
// found.
func (r *Renaming) Cached(name string) (found, cached bool) {
	_, found, cached = r.cache.Peek(name)
	return found, cached
}

func (r *Renaming) compute(ctx context.Context, name string) (classinfo.ClassInfo, bool, error) {
	data, ok, err := r.ClassBytes(ctx, name)
	if err != nil {
		return classinfo.ClassInfo{}, false, err
	}
	if !ok {
		Logger().Debug("no upstream bytes", zap.String("class", name))
		return classinfo.ClassInfo{}, false, nil
	}

	cf, err := classfile.Parse(data)
	if err != nil {
		return classinfo.ClassInfo{}, false, errors.ParseFailed(name, err)
	}
	targets, err := r.analyzer.Targets(cf)
	if err != nil {
		return classinfo.ClassInfo{}, false, errors.ParseFailed(name, err)
	}
	renamed, err := classfile.Remap(ctx, cf, r.inspect, classfile.Options{SkipCode: true})
	if err != nil {
		return classinfo.ClassInfo{}, false, err
	}
	info, err := classinfo.FromClassFile(renamed)
	if err != nil {
		return classinfo.ClassInfo{}, false, errors.ParseFailed(name, err)
	}

	if len(targets) > 0 {
		Logger().Debug("mixin",
			zap.String("class", name),
			zap.Strings("targets", targets))
		return classinfo.Mixin(info, targets), true, nil
	}
	return classinfo.Plain(info), true, nil
}
