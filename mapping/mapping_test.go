package mapping_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/mapping"
)

const sampleTSRG = `# obfuscated -> named
a/b net/example/Widget
	a counter
	b (La/c;)V attach
	c ()La/b; self
a/c net/example/Part
a/b$d net/example/Widget$Inner
a/ net/example/
`

func loadSample(t *testing.T) *mapping.Table {
	t.Helper()
	tbl, err := mapping.ParseTSRG(strings.NewReader(sampleTSRG))
	require.NoError(t, err)
	return tbl
}

func TestParseTSRG(t *testing.T) {
	tbl := loadSample(t)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "net/example/Widget", tbl.RemapClass("a/b"))
	assert.Equal(t, "net/example/Part", tbl.RemapClass("a/c"))
	assert.Equal(t, "counter", tbl.RemapField("a/b", "a"))
	assert.Equal(t, "attach", tbl.RemapMethod("a/b", "b", "(La/c;)V"))
	assert.Equal(t, "self", tbl.RemapMethod("a/b", "c", "()La/b;"))
	assert.Equal(t, "net/example", tbl.RemapPackage("a"))

	c, ok := tbl.Class("a/b")
	require.True(t, ok)
	assert.Equal(t, 1, c.FieldCount())
	assert.Equal(t, 2, c.MethodCount())
}

func TestUnmappedNamesPassThrough(t *testing.T) {
	tbl := loadSample(t)

	assert.Equal(t, "java/lang/Object", tbl.RemapClass("java/lang/Object"))
	assert.Equal(t, "z", tbl.RemapField("a/b", "z"))
	assert.Equal(t, "b", tbl.RemapMethod("a/b", "b", "()V"), "descriptor is part of the key")
	assert.Equal(t, "a", tbl.RemapField("java/lang/Object", "a"))
	assert.Equal(t, "q", tbl.RemapPackage("q"))
}

func TestInnerClassFallback(t *testing.T) {
	tbl := loadSample(t)

	assert.Equal(t, "net/example/Widget$Inner", tbl.RemapClass("a/b$d"), "explicit entry wins")
	assert.Equal(t, "net/example/Widget$1", tbl.RemapClass("a/b$1"))
	assert.Equal(t, "net/example/Widget$Inner$e", tbl.RemapClass("a/b$d$e"))
	assert.Equal(t, "x/Y$1", tbl.RemapClass("x/Y$1"))
}

func TestRemapDescriptor(t *testing.T) {
	tbl := loadSample(t)

	assert.Equal(t, "(Lnet/example/Part;I)Lnet/example/Widget;", tbl.RemapDescriptor("(La/c;I)La/b;"))
}

func TestReverse(t *testing.T) {
	rev := loadSample(t).Reverse()

	assert.Equal(t, "a/b", rev.RemapClass("net/example/Widget"))
	assert.Equal(t, "a", rev.RemapField("net/example/Widget", "counter"))
	assert.Equal(t, "b", rev.RemapMethod("net/example/Widget", "attach", "(Lnet/example/Part;)V"))
	assert.Equal(t, "c", rev.RemapMethod("net/example/Widget", "self", "()Lnet/example/Widget;"))
	assert.Equal(t, "a", rev.RemapPackage("net/example"))

	back := rev.Reverse()
	assert.Equal(t, "attach", back.RemapMethod("a/b", "b", "(La/c;)V"))
}

func TestNilTable(t *testing.T) {
	var tbl *mapping.Table

	assert.Equal(t, "a/b", tbl.RemapClass("a/b"))
	assert.Equal(t, "f", tbl.RemapField("a/b", "f"))
	assert.Equal(t, "m", tbl.RemapMethod("a/b", "m", "()V"))
	assert.Equal(t, 0, tbl.Reverse().Len())
}

func TestParseTSRGErrors(t *testing.T) {
	cases := map[string]string{
		"orphan member":    "\ta b\n",
		"short class line": "a/b\n",
		"wide member line": "a/b c/d\n\ta b c d\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mapping.ParseTSRG(strings.NewReader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData})
		})
	}

	_, err := mapping.ParseTSRG(strings.NewReader("tsrg2 left right\n"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindUnsupported})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.tsrg")
	require.NoError(t, os.WriteFile(path, []byte(sampleTSRG), 0o644))

	tbl, err := mapping.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "net/example/Widget", tbl.RemapClass("a/b"))

	bad := filepath.Join(dir, "bad.tsrg")
	require.NoError(t, os.WriteFile(bad, []byte("\torphan x\n"), 0o644))
	_, err = mapping.LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	_, err = mapping.LoadFile(filepath.Join(dir, "missing.tsrg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFlat(t *testing.T) {
	yml := "field_1234_a: maxHealth\nmethod_5678_b: tick\n"
	f, err := mapping.ParseFlat([]byte(yml), mapping.FlatYAML)
	require.NoError(t, err)
	assert.Equal(t, mapping.Flat{"field_1234_a": "maxHealth", "method_5678_b": "tick"}, f)

	jsn := `{
		// generated
		"field_1234_a": "maxHealth",
		"method_5678_b": "tick",
	}`
	f2, err := mapping.ParseFlat([]byte(jsn), mapping.FlatJSON)
	require.NoError(t, err)
	assert.Equal(t, f, f2)

	empty, err := mapping.ParseFlat(nil, mapping.FlatYAML)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, err = mapping.ParseFlat([]byte(`{"a": ""}`), mapping.FlatJSON)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData})
}

func TestLoadFlat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "b" /* c */}`), 0o644))

	f, err := mapping.LoadFlat(path)
	require.NoError(t, err)
	v, ok := f.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, err = mapping.LoadFlat(filepath.Join(dir, "flat.txt"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindUnsupported})
}

func TestFlatLookupAndMerge(t *testing.T) {
	var nilFlat mapping.Flat
	_, ok := nilFlat.Lookup("x")
	assert.False(t, ok)

	merged := mapping.Merge(mapping.Flat{"a": "1", "b": "2"}, mapping.Flat{"b": "3"})
	assert.Equal(t, mapping.Flat{"a": "1", "b": "3"}, merged)
}
