// Package report records what a remapping run produced: every output
// entry with its source, kind, size and BLAKE3 digest.
package report

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/wippyai/jar-remapper/archive"
)

// Entry describes one output entry.
type Entry struct {
	Source string `yaml:"source" cbor:"source"`
	Name   string `yaml:"name" cbor:"name"`
	Kind   string `yaml:"kind" cbor:"kind"`
	Digest string `yaml:"digest" cbor:"digest"`
	Size   int    `yaml:"size" cbor:"size"`
}

// Renamed reports whether the entry moved.
func (e Entry) Renamed() bool {
	return e.Source != e.Name
}

// Report is the record of one run.
type Report struct {
	Generated time.Time `yaml:"generated" cbor:"generated"`
	Input     string    `yaml:"input" cbor:"input"`
	Output    string    `yaml:"output" cbor:"output"`
	Entries   []Entry   `yaml:"entries" cbor:"entries"`
	Classes   int       `yaml:"classes" cbor:"classes"`
	Resources int       `yaml:"resources" cbor:"resources"`
	Renamed   int       `yaml:"renamed" cbor:"renamed"`
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Build summarizes pipeline results.
func Build(input, output string, results []archive.Result) *Report {
	r := &Report{
		Generated: time.Now().UTC(),
		Input:     input,
		Output:    output,
		Entries:   make([]Entry, 0, len(results)),
	}
	for _, res := range results {
		e := Entry{
			Source: res.Source,
			Name:   res.Name,
			Kind:   string(res.Kind),
			Size:   len(res.Data),
			Digest: Digest(res.Data),
		}
		switch res.Kind {
		case archive.KindClass:
			r.Classes++
		default:
			r.Resources++
		}
		if e.Renamed() {
			r.Renamed++
		}
		r.Entries = append(r.Entries, e)
	}
	return r
}
