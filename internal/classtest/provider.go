package classtest

import (
	"context"
	"sync"

	"github.com/wippyai/jar-remapper/classinfo"
)

// Provider serves fixture classes and counts lookups per name.
type Provider struct {
	mu         sync.Mutex
	classes    map[string][]byte
	byteCalls  map[string]int
	infoCalls  map[string]int
	extraInfos map[string]classinfo.ClassInfo
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{
		classes:    make(map[string][]byte),
		byteCalls:  make(map[string]int),
		infoCalls:  make(map[string]int),
		extraInfos: make(map[string]classinfo.ClassInfo),
	}
}

// Add registers the built class under its own name.
func (p *Provider) Add(builders ...*Builder) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range builders {
		cf := b.Build()
		name, err := cf.Name()
		if err != nil {
			panic(err)
		}
		data, err := cf.Encode()
		if err != nil {
			panic(err)
		}
		p.classes[name] = data
	}
	return p
}

// AddRaw registers bytes under name.
func (p *Provider) AddRaw(name string, data []byte) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classes[name] = data
	return p
}

// AddInfo registers a ClassInfo that has no bytes.
func (p *Provider) AddInfo(ci classinfo.ClassInfo) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extraInfos[ci.Name()] = ci
	return p
}

// ByteCalls returns how often ClassBytes was asked for name.
func (p *Provider) ByteCalls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byteCalls[name]
}

// InfoCalls returns how often ClassInfo was asked for name.
func (p *Provider) InfoCalls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.infoCalls[name]
}

// ClassBytes implements classinfo.Provider.
func (p *Provider) ClassBytes(_ context.Context, name string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byteCalls[name]++
	data, ok := p.classes[name]
	return data, ok, nil
}

// ClassInfo implements classinfo.Provider.
func (p *Provider) ClassInfo(_ context.Context, name string) (classinfo.ClassInfo, bool, error) {
	p.mu.Lock()
	p.infoCalls[name]++
	data, ok := p.classes[name]
	extra, hasExtra := p.extraInfos[name]
	p.mu.Unlock()

	if !ok {
		return extra, hasExtra, nil
	}
	info, err := classinfo.Parse(name, data)
	if err != nil {
		return classinfo.ClassInfo{}, false, err
	}
	return classinfo.Plain(info), true, nil
}
