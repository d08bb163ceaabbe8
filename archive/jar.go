// Package archive reads and writes jar files and runs entries through a
// transform.Processor.
package archive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/wippyai/jar-remapper/errors"
)

// ClassSuffix marks class entries.
const ClassSuffix = ".class"

// Jar is an open jar file. It is safe for concurrent reads.
type Jar struct {
	rc    *zip.ReadCloser
	index map[string]*zip.File
	path  string
}

// Open opens a jar for reading.
func Open(path string) (*Jar, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.New(errors.PhaseArchive, errors.KindInvalidData).
			Path(path).
			Detail("open jar").
			Cause(err).
			Build()
	}
	j := &Jar{rc: rc, path: path, index: make(map[string]*zip.File, len(rc.File))}
	for _, f := range rc.File {
		if _, dup := j.index[f.Name]; !dup {
			j.index[f.Name] = f
		}
	}
	return j, nil
}

// Path returns the file the jar was opened from.
func (j *Jar) Path() string {
	return j.path
}

// Files returns the entries in archive order.
func (j *Jar) Files() []*zip.File {
	return j.rc.File
}

// Read returns the contents of an entry.
func (j *Jar) Read(name string) ([]byte, bool, error) {
	f, ok := j.index[name]
	if !ok {
		return nil, false, nil
	}
	data, err := readFile(f)
	if err != nil {
		return nil, false, errors.New(errors.PhaseArchive, errors.KindInvalidData).
			Path(j.path, name).
			Detail("read entry").
			Cause(err).
			Build()
	}
	return data, true, nil
}

// Close releases the underlying file.
func (j *Jar) Close() error {
	return j.rc.Close()
}

func readFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	size := f.UncompressedSize64
	if size > 1<<31 {
		return nil, fmt.Errorf("entry too large: %d bytes", size)
	}
	var buf bytes.Buffer
	buf.Grow(int(size))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsSignature reports whether name is a jar signature file. Signatures
// no longer verify once classes are rewritten.
func IsSignature(name string) bool {
	if !strings.HasPrefix(name, "META-INF/") || strings.Count(name, "/") != 1 {
		return false
	}
	upper := strings.ToUpper(name)
	for _, ext := range []string{".SF", ".RSA", ".DSA", ".EC"} {
		if strings.HasSuffix(upper, ext) {
			return true
		}
	}
	return strings.HasPrefix(upper, "META-INF/SIG-")
}
