package provider_test

import (
	"context"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/internal/classtest"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/mixin"
	"github.com/wippyai/jar-remapper/provider"
)

const mixinDesc = "Lorg/spongepowered/asm/mixin/Mixin;"

func TestMissingClassIsCachedNegatively(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider()
	r := provider.NewRenaming(up, mapping.New(), nil)

	for range 2 {
		_, ok, err := r.ClassInfo(ctx, "a/Missing")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	assert.Equal(t, 1, up.ByteCalls("a/Missing"), "byte fetch must not repeat")
	assert.Equal(t, 2, up.InfoCalls("a/Missing"), "upstream info is asked on every miss")

	found, cached := r.Cached("a/Missing")
	assert.True(t, cached)
	assert.False(t, found)
}

func TestMissingBytesFallBackToUpstreamInfo(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().AddInfo(classinfo.Plain(&classinfo.Info{Name: "j/Lib", Super: "java/lang/Object"}))
	r := provider.NewRenaming(up, mapping.New(), nil)

	ci, ok, err := r.ClassInfo(ctx, "j/Lib")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j/Lib", ci.Name())
}

func TestClassIsRenamedBackIntoSourceNames(t *testing.T) {
	ctx := context.Background()
	tbl := mapping.New()
	c := tbl.AddClass("a/b", "net/Widget")
	c.AddField("a", "counter")
	c.AddMethod("b", "(La/c;)V", "attach")
	tbl.AddClass("a/c", "net/Part")

	up := classtest.NewProvider().Add(
		classtest.New("net/Widget").
			Interfaces("net/Part").
			Field(classfile.AccPrivate, "counter", "I").
			Method(classfile.AccPublic, "attach", "(Lnet/Part;)V", classtest.Return()),
	)
	r := provider.NewRenaming(up, tbl, nil)

	ci, ok, err := r.ClassInfo(ctx, "a/b")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "a/b", ci.Name(), spew.Sdump(ci.Info()))
	assert.Equal(t, []string{"a/c"}, ci.Interfaces())
	_, ok = ci.Field("a")
	assert.True(t, ok, "field renamed back: %s", spew.Sdump(ci.Fields()))
	_, ok = ci.Method("b", "(La/c;)V")
	assert.True(t, ok, "method renamed back: %s", spew.Sdump(ci.Methods()))

	assert.Equal(t, 1, up.ByteCalls("net/Widget"))
	assert.Equal(t, 0, up.ByteCalls("a/b"))
}

func TestMixinIsTagged(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().Add(
		classtest.New("m/M").
			Interfaces("m/Marker").
			Annotation(false, mixinDesc, classtest.Element("value",
				classtest.ArrayValue(classtest.ClassValue("t/T2"), classtest.ClassValue("t/T1")))),
	)
	r := provider.NewRenaming(up, mapping.New(), nil)

	ci, ok, err := r.ClassInfo(ctx, "m/M")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, classinfo.KindMixin, ci.Kind())
	assert.Equal(t, []string{"t/T1", "t/T2"}, ci.Targets())
	assert.Equal(t, []string{"m/Marker", "t/T1", "t/T2"}, ci.Interfaces())
}

func TestAllowlistRejectsLookalikes(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().Add(
		classtest.New("m/NotMixin").
			Annotation(true, "Lx/Lookalike;", classtest.Element("value",
				classtest.ArrayValue(classtest.ClassValue("t/T")))),
	)
	r := provider.NewRenaming(up, mapping.New(), mixin.NewAnalyzer(mixinDesc))

	ci, ok, err := r.ClassInfo(ctx, "m/NotMixin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, classinfo.KindPlain, ci.Kind())
}

func TestPlainClassKeepsDeclaredInterfaces(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().Add(
		classtest.New("p/Plain").Interfaces("p/I1", "p/I2"),
	)
	r := provider.NewRenaming(up, mapping.New(), nil)

	ci, ok, err := r.ClassInfo(ctx, "p/Plain")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, classinfo.KindPlain, ci.Kind())
	assert.Equal(t, []string{"p/I1", "p/I2"}, ci.Interfaces())
}

func TestParseFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().AddRaw("bad/Class", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00})
	r := provider.NewRenaming(up, mapping.New(), nil)

	for range 2 {
		_, _, err := r.ClassInfo(ctx, "bad/Class")
		require.Error(t, err)
		assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindInvalidData})
	}
	assert.Equal(t, 2, up.ByteCalls("bad/Class"))

	_, cached := r.Cached("bad/Class")
	assert.False(t, cached)
}

func TestConcurrentLookupsComputeOnce(t *testing.T) {
	ctx := context.Background()
	up := classtest.NewProvider().Add(classtest.New("c/Shared").Field(0, "x", "I"))
	r := provider.NewRenaming(up, mapping.New(), nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ci, ok, err := r.ClassInfo(ctx, "c/Shared")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "c/Shared", ci.Name())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, up.ByteCalls("c/Shared"))
}
