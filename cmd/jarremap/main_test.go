package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jar-remapper/archive"
	"github.com/wippyai/jar-remapper/classinfo"
	"github.com/wippyai/jar-remapper/internal/classtest"
	"github.com/wippyai/jar-remapper/report"
)

const tsrg = "a/Foo b/Foo\n\tcount counter\n"

func writeJar(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// fixture lays out an input jar in original names and a class path jar
// in mapped names.
func fixture(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	foo := classtest.New("a/Foo").
		Field(0, "count", "I").
		Method(0, "read", "()I", classtest.ALoad0(), classtest.GetField("a/Foo", "count", "I"), classtest.Pop(), classtest.Return())
	writeJar(t, filepath.Join(dir, "in.jar"), map[string][]byte{
		"a/Foo.class": foo.Bytes(),
		"META-INF/services/org.spongepowered.asm.Service": []byte("org.spongepowered.asm.Impl\n"),
	})

	mapped := classtest.New("b/Foo").Field(0, "counter", "I")
	writeJar(t, filepath.Join(dir, "game.jar"), map[string][]byte{
		"b/Foo.class": mapped.Bytes(),
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.tsrg"), []byte(tsrg), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JARREMAP_CONFIG", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRemapCommand(t *testing.T) {
	dir := fixture(t)
	in := filepath.Join(dir, "in.jar")
	out := filepath.Join(dir, "out.jar")
	rep := filepath.Join(dir, "report.yaml")

	_, err := execute(t, "remap",
		"-i", in, "-o", out,
		"-m", filepath.Join(dir, "m.tsrg"),
		"-c", filepath.Join(dir, "game.jar"),
		"--report", rep,
		"--log-level", "warn")
	require.NoError(t, err)

	j, err := archive.Open(out)
	require.NoError(t, err)
	defer j.Close()

	data, ok, err := j.Read("a/Foo.class")
	require.NoError(t, err)
	require.True(t, ok, "entry keeps its path")
	info, err := classinfo.Parse("b/Foo", data)
	require.NoError(t, err)
	assert.Equal(t, "b/Foo", info.Name)
	_, ok = info.Field("counter")
	assert.True(t, ok)

	svc, ok, err := j.Read("META-INF/services/org.spongepowered.asm.Service")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "org.spongepowered.reloc.asm.Impl\n", string(svc))

	r, err := report.ReadFile(rep)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Classes)
	assert.Equal(t, 1, r.Resources)
	assert.Equal(t, 0, r.Renamed)
}

func TestRemapCommandFromRunFile(t *testing.T) {
	dir := fixture(t)
	run := "input: in.jar\noutput: out.jar\nmappings: m.tsrg\nclasspath: [game.jar]\nrelocations: []\nworkers: 1\n"
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(run), 0o644))

	_, err := execute(t, "remap", "--config", path)
	require.NoError(t, err)

	j, err := archive.Open(filepath.Join(dir, "out.jar"))
	require.NoError(t, err)
	defer j.Close()

	svc, ok, err := j.Read("META-INF/services/org.spongepowered.asm.Service")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "org.spongepowered.asm.Impl\n", string(svc), "relocation disabled by the run file")
}

func TestRemapCommandValidates(t *testing.T) {
	_, err := execute(t, "remap", "-i", "in.jar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}

func TestInspectCommand(t *testing.T) {
	dir := fixture(t)

	out, err := execute(t, "inspect", "a/Foo",
		"-i", filepath.Join(dir, "in.jar"),
		"-m", filepath.Join(dir, "m.tsrg"),
		"-c", filepath.Join(dir, "game.jar"),
		"--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: plain")
	assert.Contains(t, out, "name: a/Foo")
	assert.Contains(t, out, "name: count")
	assert.NotContains(t, out, "counter")
}

func TestInspectCommandMissingClass(t *testing.T) {
	dir := fixture(t)

	_, err := execute(t, "inspect", "a/Missing",
		"-i", filepath.Join(dir, "in.jar"),
		"-m", filepath.Join(dir, "m.tsrg"),
		"--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a/Missing")
}
