package transform

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/errors"
)

// Renamer rewrites classes through a remapper and renames their entries
// to match. Resources pass through unchanged.
type Renamer struct {
	remapper classfile.Remapper
}

var _ Processor = (*Renamer)(nil)

// NewRenamer returns a renamer over r.
func NewRenamer(r classfile.Remapper) *Renamer {
	return &Renamer{remapper: r}
}

// ProcessClass remaps the class. An entry named after its class, with or
// without the .class suffix, is renamed to the mapped class.
func (r *Renamer) ProcessClass(ctx context.Context, e ClassEntry) (ClassEntry, error) {
	cf, err := classfile.Parse(e.Data)
	if err != nil {
		return ClassEntry{}, errors.ParseFailed(e.Name, err)
	}
	name, err := cf.Name()
	if err != nil {
		return ClassEntry{}, errors.ParseFailed(e.Name, err)
	}

	out, err := classfile.Remap(ctx, cf, r.remapper, classfile.Options{})
	if err != nil {
		return ClassEntry{}, err
	}
	data, err := out.Encode()
	if err != nil {
		return ClassEntry{}, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Class(name).
			Path(e.Name).
			Cause(err).
			Build()
	}

	entryName := e.Name
	if mapped, _ := out.Name(); mapped != name {
		switch {
		case e.Name == name+".class":
			entryName = mapped + ".class"
		case e.Name == name:
			entryName = mapped
		case strings.HasSuffix(e.Name, "/"+name+".class"):
			// multi-release and shaded layouts keep their prefix
			entryName = strings.TrimSuffix(e.Name, name+".class") + mapped + ".class"
		}
		Logger().Debug("renamed class",
			zap.String("class", name),
			zap.String("mapped", mapped),
			zap.String("entry", entryName))
	}

	return ClassEntry{Name: entryName, Time: e.Time, Data: data}, nil
}

// ProcessResource returns e unchanged.
func (r *Renamer) ProcessResource(_ context.Context, e ResourceEntry) (ResourceEntry, error) {
	return e, nil
}
