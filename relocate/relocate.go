// Package relocate moves a fixed set of package prefixes into a private
// sub-namespace. The same table drives class names, resource text and
// string constants.
package relocate

import (
	"fmt"
	"strings"

	"github.com/wippyai/jar-remapper/errors"
)

// Rule moves every name under From to the same name under To. Both are
// slash-separated internal prefixes ending in '/'.
type Rule struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

func (r Rule) dotted() (from, to string) {
	return strings.ReplaceAll(r.From, "/", "."), strings.ReplaceAll(r.To, "/", ".")
}

// Table is an ordered, immutable list of rules. The zero value relocates
// nothing.
type Table struct {
	rules []Rule
}

// Default returns the table used when no relocations are configured.
func Default() Table {
	return Table{rules: []Rule{
		{From: "org/spongepowered/", To: "org/spongepowered/reloc/"},
		{From: "com/llamalad7/mixinextras/", To: "com/llamalad7/mixinextras/reloc/"},
	}}
}

// New validates rules and returns a table over a copy of them.
func New(rules ...Rule) (Table, error) {
	for i, r := range rules {
		if r.From == "" || r.To == "" {
			return Table{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("relocations", fmt.Sprint(i)).
				Detail("rule needs both from and to").
				Build()
		}
		if !strings.HasSuffix(r.From, "/") || !strings.HasSuffix(r.To, "/") {
			return Table{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("relocations", fmt.Sprint(i)).
				Value(r).
				Detail("prefixes must end in '/'").
				Build()
		}
		if r.From == r.To {
			return Table{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("relocations", fmt.Sprint(i)).
				Value(r).
				Detail("rule maps %q onto itself", r.From).
				Build()
		}
	}
	return Table{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns a copy of the rules in order.
func (t Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Len returns the number of rules.
func (t Table) Len() int {
	return len(t.rules)
}

// Name relocates an internal class name or entry path. The first rule
// whose From is a prefix of name wins and only the prefix is replaced.
func (t Table) Name(name string) string {
	for _, r := range t.rules {
		if strings.HasPrefix(name, r.From) {
			return r.To + name[len(r.From):]
		}
	}
	return name
}

// Text relocates the dotted form of every rule anywhere in content.
// Rules are applied in order.
func (t Table) Text(content string) string {
	for _, r := range t.rules {
		from, to := r.dotted()
		content = strings.ReplaceAll(content, from, to)
	}
	return content
}

// Value relocates a string constant that may name a class or package
// reflectively. Only a string starting with a rule's dotted From is
// touched; the first such rule is applied to every occurrence.
func (t Table) Value(s string) string {
	for _, r := range t.rules {
		from, to := r.dotted()
		if strings.HasPrefix(s, from) {
			return strings.ReplaceAll(s, from, to)
		}
	}
	return s
}
