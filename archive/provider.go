package archive

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wippyai/jar-remapper/classinfo"
)

// Provider serves classes out of jars. The first jar holding a class
// wins. Parsed classes are kept for the life of the provider.
type Provider struct {
	infos sync.Map // name -> infoResult
	group singleflight.Group
	jars  []*Jar
}

type infoResult struct {
	ci classinfo.ClassInfo
	ok bool
}

var _ classinfo.Provider = (*Provider)(nil)

// NewProvider returns a provider over jars, searched in order.
func NewProvider(jars ...*Jar) *Provider {
	return &Provider{jars: jars}
}

// ClassBytes implements classinfo.Provider.
func (p *Provider) ClassBytes(ctx context.Context, name string) ([]byte, bool, error) {
	for _, j := range p.jars {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		data, ok, err := j.Read(name + ClassSuffix)
		if err != nil || ok {
			return data, ok, err
		}
	}
	return nil, false, nil
}

// ClassInfo implements classinfo.Provider. Concurrent lookups of one class
// share a single parse that is not tied to any caller's context; each
// caller stops waiting when its own context ends.
func (p *Provider) ClassInfo(ctx context.Context, name string) (classinfo.ClassInfo, bool, error) {
	if v, ok := p.infos.Load(name); ok {
		r := v.(infoResult)
		return r.ci, r.ok, nil
	}
	if err := ctx.Err(); err != nil {
		return classinfo.ClassInfo{}, false, err
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(name, func() (any, error) {
		if v, ok := p.infos.Load(name); ok {
			return v, nil
		}
		data, ok, err := p.ClassBytes(fetchCtx, name)
		if err != nil {
			return nil, err
		}
		r := infoResult{}
		if ok {
			info, err := classinfo.Parse(name, data)
			if err != nil {
				return nil, err
			}
			r = infoResult{ci: classinfo.Plain(info), ok: true}
		}
		p.infos.Store(name, r)
		return r, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return classinfo.ClassInfo{}, false, res.Err
		}
		r := res.Val.(infoResult)
		return r.ci, r.ok, nil
	case <-ctx.Done():
		return classinfo.ClassInfo{}, false, ctx.Err()
	}
}
