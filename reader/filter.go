package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
)

// decodeStream applies the stream's filter chain. An unfiltered payload that
// starts with a zlib header is inflated as well; if that fails the bytes are
// returned unchanged.
func decodeStream(s Stream) ([]byte, error) {
	filters, params, err := filterChain(s.Dict)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return inflateIfZlib(s.Data), nil
	}

	data := s.Data
	for i, f := range filters {
		data, err = applyFilter(f, data, params[i])
		if err != nil {
			return nil, fmt.Errorf("reader: filter %s: %w", f, err)
		}
	}
	return data, nil
}

// filterChain returns /Filter names with their /DecodeParms dictionaries.
func filterChain(d Dict) ([]Name, []Dict, error) {
	var filters []Name
	switch f := d["Filter"].(type) {
	case nil:
		return nil, nil, nil
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("reader: %w: filter array holds %T", pdfcli.ErrFormat, item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, nil, fmt.Errorf("reader: %w: filter of type %T", pdfcli.ErrFormat, f)
	}

	params := make([]Dict, len(filters))
	switch p := d["DecodeParms"].(type) {
	case Dict:
		params[0] = p
	case Array:
		for i, item := range p {
			if dp, ok := item.(Dict); ok && i < len(params) {
				params[i] = dp
			}
		}
	}
	return filters, params, nil
}

func applyFilter(name Name, data []byte, params Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		out, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return unpredict(out, params)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	default:
		return nil, fmt.Errorf("%w: filter %s", pdfcli.ErrUnsupported, name)
	}
}

func isZlib(data []byte) bool {
	return len(data) > 2 && data[0] == 0x78 && (data[1] == 0x9C || data[1] == 0xDA || data[1] == 0x01 || data[1] == 0x5E)
}

func inflateIfZlib(data []byte) []byte {
	if !isZlib(data) {
		return data
	}
	out, err := flateDecode(data)
	if err != nil {
		logger.Debug("stream looked compressed but did not inflate", "err", err)
		return data
	}
	return out
}

// flateDecode inflates zlib data. A truncated stream keeps what was decoded.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", pdfcli.ErrFormat, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		if buf.Len() > 0 && (err == io.ErrUnexpectedEOF || err == zlib.ErrChecksum) {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("%w: zlib: %v", pdfcli.ErrFormat, err)
	}
	return buf.Bytes(), nil
}

// unpredict reverses a /Predictor 10..15 (PNG) row filter.
func unpredict(data []byte, params Dict) ([]byte, error) {
	pred, _ := params.GetInt("Predictor")
	if pred < 10 {
		if pred == 2 {
			return nil, fmt.Errorf("%w: TIFF predictor", pdfcli.ErrUnsupported)
		}
		return data, nil
	}
	colors, bpc, columns := int64(1), int64(8), int64(1)
	if v, ok := params.GetInt("Colors"); ok && v > 0 {
		colors = v
	}
	if v, ok := params.GetInt("BitsPerComponent"); ok && v > 0 {
		bpc = v
	}
	if v, ok := params.GetInt("Columns"); ok && v > 0 {
		columns = v
	}
	bpp := int(max((colors*bpc+7)/8, 1))
	rowLen := int((colors*bpc*columns + 7) / 8)

	var out []byte
	prev := make([]byte, rowLen)
	for pos := 0; pos < len(data); pos += rowLen + 1 {
		if pos+1 > len(data) {
			break
		}
		ft := data[pos]
		end := min(pos+1+rowLen, len(data))
		row := make([]byte, rowLen)
		copy(row, data[pos+1:end])
		for i := range row {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch ft {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: png filter type %d", pdfcli.ErrFormat, ft)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes hex digits up to '>'; an odd final digit is padded
// with 0.
func asciiHexDecode(data []byte) ([]byte, error) {
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean.WriteByte(b)
		}
	}
	src := clean.Bytes()
	if len(src)%2 != 0 {
		src = append(src, '0')
	}
	dst := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(dst, src); err != nil {
		return nil, fmt.Errorf("%w: ascii hex: %v", pdfcli.ErrFormat, err)
	}
	return dst, nil
}

// ascii85Decode decodes data up to the "~>" end marker.
func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, ascii85.NewDecoder(bytes.NewReader(data))); err != nil {
		return nil, fmt.Errorf("%w: ascii85: %v", pdfcli.ErrFormat, err)
	}
	return buf.Bytes(), nil
}
