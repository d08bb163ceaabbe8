// Package mixin recognizes classes that are applied onto other classes
// and computes the classes they target.
//
// Recognition is by annotation shape: any class-level annotation with an
// array attribute named "value" holding class literals marks the class,
// and those literals are its targets. The shape match has false
// positives for unrelated annotations of the same form; an allowlist of
// annotation types narrows it.
package mixin

import (
	"slices"
	"strings"

	"github.com/wippyai/jar-remapper/classfile"
)

// TargetAttribute is the annotation attribute that lists targets.
const TargetAttribute = "value"

// Analyzer extracts mixin targets from class annotations. It is safe for
// concurrent use.
type Analyzer struct {
	allow map[string]struct{}
}

// NewAnalyzer returns an analyzer. With no annotation types every
// annotation is inspected. Types may be given as descriptors
// ("Lorg/spongepowered/asm/mixin/Mixin;") or internal names.
func NewAnalyzer(annotations ...string) *Analyzer {
	a := &Analyzer{}
	if len(annotations) == 0 {
		return a
	}
	a.allow = make(map[string]struct{}, len(annotations))
	for _, t := range annotations {
		if !strings.HasPrefix(t, "L") || !strings.HasSuffix(t, ";") {
			t = classfile.Descriptor(strings.ReplaceAll(t, ".", "/"))
		}
		a.allow[t] = struct{}{}
	}
	return a
}

// Targets returns the sorted internal names of the classes cf is applied
// to. An empty result means cf is not a mixin.
func (a *Analyzer) Targets(cf *classfile.ClassFile) ([]string, error) {
	set := make(map[string]struct{})
	err := cf.AcceptAnnotations(func(desc string, _ bool) classfile.AnnotationVisitor {
		if a.allow != nil {
			if _, ok := a.allow[desc]; !ok {
				return nil
			}
		}
		return targetVisitor{targets: set}
	})
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

// targetVisitor collects class literals found in arrays under
// TargetAttribute. attr is the name of the enclosing array attribute.
type targetVisitor struct {
	targets map[string]struct{}
	attr    string
}

func (v targetVisitor) Visit(_ string, value classfile.ElementValue) {
	if v.attr == TargetAttribute && value.Tag == 'c' {
		v.targets[classfile.InternalName(value.Class)] = struct{}{}
	}
}

func (v targetVisitor) VisitArray(name string) classfile.AnnotationVisitor {
	return targetVisitor{targets: v.targets, attr: name}
}

func (targetVisitor) VisitAnnotation(string, string) classfile.AnnotationVisitor {
	return nil
}
