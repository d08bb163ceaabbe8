package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/jar-remapper/archive"
	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/errors"
	"github.com/wippyai/jar-remapper/internal/classtest"
	"github.com/wippyai/jar-remapper/mapping"
	"github.com/wippyai/jar-remapper/relocate"
	"github.com/wippyai/jar-remapper/transform"
)

var stamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type file struct {
	name string
	data []byte
}

func writeJar(t *testing.T, path string, files ...file) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: stamp})
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func readJar(t *testing.T, path string) ([]string, map[string][]byte, map[string]time.Time) {
	t.Helper()
	j, err := archive.Open(path)
	require.NoError(t, err)
	defer j.Close()

	var names []string
	contents := make(map[string][]byte)
	times := make(map[string]time.Time)
	for _, f := range j.Files() {
		names = append(names, f.Name)
		data, ok, err := j.Read(f.Name)
		require.NoError(t, err)
		require.True(t, ok)
		contents[f.Name] = data
		times[f.Name] = f.Modified
	}
	return names, contents, times
}

func sampleJar(t *testing.T, dir string) string {
	path := filepath.Join(dir, "in.jar")
	writeJar(t, path,
		file{"META-INF/MANIFEST.MF", []byte("Manifest-Version: 1.0\n")},
		file{"META-INF/SIGNER.SF", []byte("sig")},
		file{"META-INF/services/org.spongepowered.Svc", []byte("org.spongepowered.Example\n")},
		file{"com/", nil},
		file{"com/llamalad7/mixinextras/Foo.class", classtest.New("com/llamalad7/mixinextras/Foo").Bytes()},
		file{"a/b.class", classtest.New("a/b").Field(0, "a", "I").Bytes()},
		file{"assets/icon.png", []byte{0x89, 'P', 'N', 'G'}},
	)
	return path
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	in := sampleJar(t, dir)
	out := filepath.Join(dir, "out.jar")

	src, err := archive.Open(in)
	require.NoError(t, err)
	defer src.Close()

	tbl := mapping.New()
	tbl.AddClass("a/b", "net/Widget").AddField("a", "counter")

	p := &archive.Pipeline{
		Processor:       transform.New(archive.NewProvider(src), tbl, nil, relocate.Default()),
		Workers:         3,
		StripSignatures: true,
	}
	results, err := p.Run(context.Background(), in, out)
	require.NoError(t, err)
	require.Len(t, results, 5)

	names, contents, times := readJar(t, out)
	assert.Equal(t, []string{
		"META-INF/MANIFEST.MF",
		"META-INF/services/org.spongepowered.Svc",
		"com/llamalad7/mixinextras/reloc/Foo.class",
		"a/b.class",
		"assets/icon.png",
	}, names)

	assert.Equal(t, "org.spongepowered.reloc.Example\n", string(contents["META-INF/services/org.spongepowered.Svc"]))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, contents["assets/icon.png"])
	for name, ts := range times {
		assert.True(t, stamp.Equal(ts), "%s modified %v", name, ts)
	}

	cf, err := classfile.Parse(contents["a/b.class"])
	require.NoError(t, err)
	this, err := cf.Name()
	require.NoError(t, err)
	assert.Equal(t, "net/Widget", this)
	field, _, err := cf.Fields[0].NameAndDescriptor(cf.Pool)
	require.NoError(t, err)
	assert.Equal(t, "counter", field)

	assert.Equal(t, archive.KindClass, results[2].Kind)
	assert.Equal(t, "com/llamalad7/mixinextras/Foo.class", results[2].Source)
	assert.Equal(t, archive.KindResource, results[4].Kind)
}

func TestSignaturesKeptByDefault(t *testing.T) {
	dir := t.TempDir()
	src, err := archive.Open(sampleJar(t, dir))
	require.NoError(t, err)
	defer src.Close()

	p := &archive.Pipeline{Processor: transform.New(archive.NewProvider(src), mapping.New(), nil, relocate.Table{})}
	results, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "META-INF/SIGNER.SF")
	assert.Contains(t, names, "com/llamalad7/mixinextras/Foo.class", "empty table relocates nothing")
}

func TestDuplicateOutputNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.jar")
	writeJar(t, path,
		file{"a/Y.class", classtest.New("a/Y").Bytes()},
		file{"x/Y.class", classtest.New("x/Y").Bytes()},
	)
	src, err := archive.Open(path)
	require.NoError(t, err)
	defer src.Close()

	rules, err := relocate.New(relocate.Rule{From: "a/", To: "x/"})
	require.NoError(t, err)
	p := &archive.Pipeline{
		Processor: transform.New(archive.NewProvider(src), mapping.New(), nil, rules),
	}
	_, err = p.Process(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseArchive, Kind: errors.KindDuplicate})
}

func TestEntryErrorFailsRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.jar")
	writeJar(t, in,
		file{"ok.txt", []byte("fine")},
		file{"x/Broken.class", []byte("not a class")},
	)
	out := filepath.Join(dir, "out.jar")

	src, err := archive.Open(in)
	require.NoError(t, err)
	defer src.Close()

	p := &archive.Pipeline{Processor: transform.New(archive.NewProvider(src), mapping.New(), nil, relocate.Default())}
	_, err = p.Run(context.Background(), in, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindInvalidData})

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial output")
}

func TestOpenMissing(t *testing.T) {
	_, err := archive.Open(filepath.Join(t.TempDir(), "nope.jar"))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseArchive, Kind: errors.KindInvalidData})
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.jar")
	second := filepath.Join(dir, "second.jar")
	writeJar(t, first, file{"p/A.class", classtest.New("p/A").Bytes()})
	writeJar(t, second,
		file{"p/A.class", classtest.New("p/A").Super("p/Other").Bytes()},
		file{"p/B.class", classtest.New("p/B").Interfaces("p/I").Bytes()},
	)
	j1, err := archive.Open(first)
	require.NoError(t, err)
	defer j1.Close()
	j2, err := archive.Open(second)
	require.NoError(t, err)
	defer j2.Close()

	p := archive.NewProvider(j1, j2)

	ci, ok, err := p.ClassInfo(ctx, "p/A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "java/lang/Object", ci.Super(), "first jar wins")

	ci, ok, err = p.ClassInfo(ctx, "p/B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"p/I"}, ci.Interfaces())

	again, ok, err := p.ClassInfo(ctx, "p/B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, ci.Info(), again.Info(), "parsed once")

	_, ok, err = p.ClassInfo(ctx, "p/Missing")
	require.NoError(t, err)
	assert.False(t, ok)

	data, ok, err := p.ClassBytes(ctx, "p/B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, data)
}

func TestProviderCancelledCallerDoesNotPoisonClass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.jar")
	writeJar(t, path, file{"p/A.class", classtest.New("p/A").Super("p/Base").Bytes()})
	j, err := archive.Open(path)
	require.NoError(t, err)
	defer j.Close()

	p := archive.NewProvider(j)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = p.ClassInfo(cancelled, "p/A")
	require.ErrorIs(t, err, context.Canceled)

	ci, ok, err := p.ClassInfo(context.Background(), "p/A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p/Base", ci.Super())

	// a finished parse is served even to a cancelled caller
	again, ok, err := p.ClassInfo(cancelled, "p/A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, ci.Info(), again.Info())
}

func TestIsSignature(t *testing.T) {
	for name, want := range map[string]bool{
		"META-INF/MOJANG.SF":      true,
		"META-INF/mojang.rsa":     true,
		"META-INF/KEY.DSA":        true,
		"META-INF/KEY.EC":         true,
		"META-INF/SIG-FOO":        true,
		"META-INF/MANIFEST.MF":    false,
		"META-INF/services/a.SF":  false,
		"com/example/Thing.class": false,
	} {
		assert.Equal(t, want, archive.IsSignature(name), name)
	}
}

func TestRunLogsSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	archive.SetLogger(zap.New(core))
	t.Cleanup(func() { archive.SetLogger(nil) })

	dir := t.TempDir()
	in := sampleJar(t, dir)
	src, err := archive.Open(in)
	require.NoError(t, err)
	defer src.Close()

	p := &archive.Pipeline{Processor: transform.New(archive.NewProvider(src), mapping.New(), nil, relocate.Default())}
	_, err = p.Run(context.Background(), in, filepath.Join(dir, "out.jar"))
	require.NoError(t, err)

	entries := logs.FilterMessage("remapped jar").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, in, fields["input"])
	assert.EqualValues(t, 2, fields["classes"])
}
