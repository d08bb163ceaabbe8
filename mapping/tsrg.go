package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wippyai/jar-remapper/errors"
)

// ParseTSRG reads a TSRG v1 mapping:
//
//	a/b/C net/example/Foo
//		a counter
//		b (La/b/C;)V start
//	a/b/ net/example/
//
// Member lines are indented under their class. Top-level lines whose
// names end in '/' map packages. Blank lines and '#' comments are skipped.
func ParseTSRG(r io.Reader) (*Table, error) {
	t := New()
	var cur *Class

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields := strings.Fields(raw)
		indented := raw[0] == '\t' || raw[0] == ' '

		if line == 1 && strings.HasPrefix(fields[0], "tsrg2") {
			return nil, errors.Unsupported(errors.PhaseLoad, "tsrg2 mappings")
		}

		if indented {
			if cur == nil {
				return nil, tsrgError(line, "member line before any class")
			}
			switch len(fields) {
			case 2:
				cur.AddField(fields[0], fields[1])
			case 3:
				cur.AddMethod(fields[0], fields[1], fields[2])
			default:
				return nil, tsrgError(line, "member line needs 2 or 3 columns, got %d", len(fields))
			}
			continue
		}

		if len(fields) != 2 {
			return nil, tsrgError(line, "class line needs 2 columns, got %d", len(fields))
		}
		if strings.HasSuffix(fields[0], "/") {
			t.AddPackage(strings.TrimSuffix(fields[0], "/"), strings.TrimSuffix(fields[1], "/"))
			cur = nil
			continue
		}
		cur = t.AddClass(fields[0], fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Load("read tsrg", err)
	}
	return t, nil
}

// LoadFile reads a TSRG mapping from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("open mapping %s", path), err)
	}
	defer f.Close()

	t, err := ParseTSRG(f)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			e.Path = append([]string{path}, e.Path...)
			return nil, e
		}
		return nil, err
	}
	return t, nil
}

func tsrgError(line int, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Path(fmt.Sprintf("line %d", line)).
		Detail(format, args...).
		Build()
}
