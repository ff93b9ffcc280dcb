package reader

import (
	"bytes"
	"fmt"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
)

type entryKind int

const (
	entryFree entryKind = iota
	entryOffset
	entryCompressed
)

// xrefEntry locates one object: a byte offset, or a slot in an object
// stream.
type xrefEntry struct {
	Kind       entryKind
	Offset     int64
	Generation int
	Stream     int
	Index      int
}

type xrefTable map[int]xrefEntry

// merge adds the entries of older that t does not define yet.
func (t xrefTable) merge(older xrefTable) {
	for num, e := range older {
		if _, ok := t[num]; !ok {
			t[num] = e
		}
	}
}

// XRefEntry is one row of a cross-reference stream. Field2 and Field3 mean
// offset and generation for type 1, stream number and index for type 2.
type XRefEntry struct {
	Number int
	Type   uint64
	Field2 uint64
	Field3 uint64
}

// ParseXRefStream reads big-endian (type, field2, field3) triples with the
// given byte widths until size rows are read or data runs out. A zero width
// field reads as 0. Rows are numbered from 0.
func ParseXRefStream(data []byte, widths [3]int, size int) []XRefEntry {
	row := widths[0] + widths[1] + widths[2]
	if row <= 0 {
		return nil
	}
	var out []XRefEntry
	for pos := 0; pos+row <= len(data) && len(out) < size; pos += row {
		e := XRefEntry{Number: len(out)}
		e.Type = readField(data, pos, widths[0])
		e.Field2 = readField(data, pos+widths[0], widths[1])
		e.Field3 = readField(data, pos+widths[0]+widths[1], widths[2])
		out = append(out, e)
	}
	return out
}

func readField(data []byte, pos, width int) uint64 {
	var v uint64
	for i := 0; i < width && pos+i < len(data); i++ {
		v = v<<8 | uint64(data[pos+i])
	}
	return v
}

// findStartXRef locates the offset named by the last startxref keyword.
func findStartXRef(data []byte) (int64, error) {
	tail := data[max(0, len(data)-2048):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: %w: startxref not found", pdfcli.ErrFormat)
	}
	p := newParser(tail[idx+len("startxref"):])
	tok := p.readToken()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reader: %w: invalid startxref offset %q", pdfcli.ErrFormat, tok)
	}
	return offset, nil
}

// loadXRef reads the cross-reference section at offset and every section it
// chains to through /Prev and /XRefStm. Later sections win.
func loadXRef(data []byte, offset int64, seen map[int64]bool) (xrefTable, Dict, error) {
	if offset < 0 || int(offset) >= len(data) {
		return nil, nil, fmt.Errorf("reader: %w: xref offset %d out of bounds", pdfcli.ErrFormat, offset)
	}
	if seen[offset] {
		return nil, nil, fmt.Errorf("reader: %w: xref chain loops at %d", pdfcli.ErrFormat, offset)
	}
	seen[offset] = true

	p := newParser(data[offset:])
	var (
		table   xrefTable
		trailer Dict
		err     error
	)
	if p.readToken() == "xref" {
		table, trailer, err = parseXRefTable(p)
	} else {
		table, trailer, err = parseXRefStreamAt(data, offset)
	}
	if err != nil {
		return nil, nil, err
	}

	if stm, ok := trailer.GetInt("XRefStm"); ok && !seen[stm] {
		if hybrid, _, err := loadXRef(data, stm, seen); err == nil {
			table.merge(hybrid)
		}
	}
	if prev, ok := trailer.GetInt("Prev"); ok {
		older, olderTrailer, err := loadXRef(data, prev, seen)
		if err != nil {
			return nil, nil, fmt.Errorf("reader: previous xref: %w", err)
		}
		table.merge(older)
		for k, v := range olderTrailer {
			if _, ok := trailer[k]; !ok && k != "Prev" {
				trailer[k] = v
			}
		}
	}
	return table, trailer, nil
}

// parseXRefTable reads a classic table; p is positioned after "xref".
func parseXRefTable(p *parser) (xrefTable, Dict, error) {
	table := make(xrefTable)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, nil, fmt.Errorf("reader: %w: xref table without trailer", pdfcli.ErrFormat)
		}
		if p.hasPrefix("trailer") {
			p.pos += len("trailer")
			break
		}

		first, err1 := strconv.Atoi(p.readToken())
		count, err2 := strconv.Atoi(p.readToken())
		if err1 != nil || err2 != nil {
			return nil, nil, p.errorf("bad xref subsection header")
		}
		for i := 0; i < count; i++ {
			off, err1 := strconv.ParseInt(p.readToken(), 10, 64)
			gen, err2 := strconv.Atoi(p.readToken())
			if err1 != nil || err2 != nil {
				return nil, nil, p.errorf("bad xref entry")
			}
			kind := entryFree
			if p.readToken() == "n" {
				kind = entryOffset
			}
			if _, exists := table[first+i]; !exists {
				table[first+i] = xrefEntry{Kind: kind, Offset: off, Generation: gen}
			}
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: %w: trailer is not a dictionary", pdfcli.ErrFormat)
	}
	return table, trailer, nil
}

// parseXRefStreamAt reads a cross-reference stream object at offset.
func parseXRefStreamAt(data []byte, offset int64) (xrefTable, Dict, error) {
	obj, err := newParser(data[offset:]).ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: xref stream: %w", err)
	}
	stream, ok := obj.Value.(Stream)
	if !ok || stream.Dict.GetName("Type") != "XRef" {
		return nil, nil, fmt.Errorf("reader: %w: no xref table or stream at %d", pdfcli.ErrFormat, offset)
	}
	decoded, err := decodeStream(stream)
	if err != nil {
		return nil, nil, fmt.Errorf("reader: decoding xref stream: %w", err)
	}

	w := stream.Dict.GetArray("W")
	if len(w) != 3 {
		return nil, nil, fmt.Errorf("reader: %w: xref stream /W must have 3 elements", pdfcli.ErrFormat)
	}
	var widths [3]int
	for i, v := range w {
		n, _ := number(v)
		widths[i] = int(n)
	}

	size, _ := stream.Dict.GetInt("Size")
	sections := []int{0, int(size)}
	if idx := stream.Dict.GetArray("Index"); len(idx) >= 2 {
		sections = sections[:0]
		for _, v := range idx {
			n, _ := number(v)
			sections = append(sections, int(n))
		}
	}
	total := 0
	for i := 1; i < len(sections); i += 2 {
		total += sections[i]
	}

	rows := ParseXRefStream(decoded, widths, total)
	table := make(xrefTable, len(rows))
	r := 0
	for i := 0; i+1 < len(sections); i += 2 {
		for j := 0; j < sections[i+1] && r < len(rows); j, r = j+1, r+1 {
			row := rows[r]
			typ := row.Type
			if widths[0] == 0 {
				typ = 1
			}
			num := sections[i] + j
			switch typ {
			case 0:
				table[num] = xrefEntry{Kind: entryFree, Generation: int(row.Field3)}
			case 1:
				table[num] = xrefEntry{Kind: entryOffset, Offset: int64(row.Field2), Generation: int(row.Field3)}
			case 2:
				table[num] = xrefEntry{Kind: entryCompressed, Stream: int(row.Field2), Index: int(row.Field3)}
			}
		}
	}
	return table, stream.Dict, nil
}
