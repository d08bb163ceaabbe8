package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/jar-remapper/errors"
)

// Format is a report encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// deterministic output so identical runs produce identical reports
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	if encMode, err = encOptions.EncMode(); err != nil {
		panic("report: CBOR encoder initialization failed: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("report: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("report: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("report: zstd decoder initialization failed: " + err.Error())
	}
}

// FormatOf picks the encoding from a path. A trailing .zst adds zstd
// compression.
func FormatOf(path string) (format Format, compressed bool, err error) {
	if strings.HasSuffix(path, ".zst") {
		compressed = true
		path = strings.TrimSuffix(path, ".zst")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	case ".cbor":
		return FormatCBOR, compressed, nil
	}
	return "", false, errors.New(errors.PhaseConfig, errors.KindUnsupported).
		Path(path).
		Detail("report must be .yaml, .yml or .cbor, optionally with .zst").
		Build()
}

// Marshal encodes r.
func Marshal(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatCBOR:
		return encMode.Marshal(r)
	}
	return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("report format %q", format))
}

// Unmarshal decodes a report.
func Unmarshal(data []byte, format Format) (*Report, error) {
	var r Report
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, err
		}
	case FormatCBOR:
		if err := decMode.Unmarshal(data, &r); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("report format %q", format))
	}
	return &r, nil
}

// WriteFile writes r to path in the format its extension names.
func WriteFile(path string, r *Report) error {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Marshal(r, format)
	if err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "encode report")
	}
	if compressed {
		data = zstdEncoder.EncodeAll(data, nil)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.PhaseArchive, errors.KindInvalidData, err, "write report "+path)
	}
	return nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read report "+path, err)
	}
	if compressed {
		if data, err = zstdDecoder.DecodeAll(data, nil); err != nil {
			return nil, errors.Load("decompress report "+path, err)
		}
	}
	r, err := Unmarshal(data, format)
	if err != nil {
		return nil, errors.Load("decode report "+path, err)
	}
	return r, nil
}
