package classinfo

import (
	"context"
)

// Provider looks classes up by internal name. A missing class is
// reported as found == false with a nil error.
type Provider interface {
	ClassBytes(ctx context.Context, name string) ([]byte, bool, error)
	ClassInfo(ctx context.Context, name string) (ClassInfo, bool, error)
}

// Static serves classes from memory, parsing on every lookup.
type Static map[string][]byte

// ClassBytes implements Provider.
func (s Static) ClassBytes(_ context.Context, name string) ([]byte, bool, error) {
	data, ok := s[name]
	return data, ok, nil
}

// ClassInfo implements Provider.
func (s Static) ClassInfo(ctx context.Context, name string) (ClassInfo, bool, error) {
	data, ok, err := s.ClassBytes(ctx, name)
	if err != nil || !ok {
		return ClassInfo{}, false, err
	}
	info, err := Parse(name, data)
	if err != nil {
		return ClassInfo{}, false, err
	}
	return Plain(info), true, nil
}

// Chain asks each provider in turn. The first that has the class wins.
type Chain []Provider

// ClassBytes implements Provider.
func (c Chain) ClassBytes(ctx context.Context, name string) ([]byte, bool, error) {
	for _, p := range c {
		data, ok, err := p.ClassBytes(ctx, name)
		if err != nil || ok {
			return data, ok, err
		}
	}
	return nil, false, nil
}

// ClassInfo implements Provider.
func (c Chain) ClassInfo(ctx context.Context, name string) (ClassInfo, bool, error) {
	for _, p := range c {
		info, ok, err := p.ClassInfo(ctx, name)
		if err != nil || ok {
			return info, ok, err
		}
	}
	return ClassInfo{}, false, nil
}
