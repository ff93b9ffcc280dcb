package reader

import (
	"bytes"
	"fmt"
	"strconv"

	pdfcli "github.com/lvillar/pdfcli"
)

// ObjStmEntry is one object packed into an object stream.
type ObjStmEntry struct {
	Number int
	Body   []byte
}

// ParseObjectStream splits a decoded object stream. The header
// data[:first] holds n "number offset" pairs; each body runs from its offset
// to the next entry's offset, the last one to the end of data. A short or
// malformed header yields no entries.
func ParseObjectStream(data []byte, n, first int) []ObjStmEntry {
	if n <= 0 || first < 0 || first > len(data) {
		return nil
	}
	fields := bytes.Fields(data[:first])
	if len(fields) < 2*n {
		return nil
	}

	type slot struct{ num, off int }
	slots := make([]slot, n)
	for i := range slots {
		num, _ := strconv.Atoi(string(fields[2*i]))
		off, _ := strconv.Atoi(string(fields[2*i+1]))
		slots[i] = slot{num, off}
	}

	body := data[first:]
	out := make([]ObjStmEntry, 0, n)
	for i, s := range slots {
		end := len(body)
		if i+1 < len(slots) {
			end = slots[i+1].off
		}
		if s.off < 0 || s.off > end || end > len(body) {
			continue
		}
		out = append(out, ObjStmEntry{Number: s.num, Body: bytes.TrimSpace(body[s.off:end])})
	}
	return out
}

// loadObjectStream parses every object of the object stream num into the
// document cache.
func (d *Document) loadObjectStream(num int) error {
	if d.objstms[num] {
		return nil
	}
	d.objstms[num] = true

	obj, err := d.resolve(Reference{Number: num})
	if err != nil {
		return err
	}
	s, ok := obj.(Stream)
	if !ok || s.Dict.GetName("Type") != "ObjStm" {
		return fmt.Errorf("reader: %w: object %d is not an object stream", pdfcli.ErrFormat, num)
	}
	data, err := decodeStream(s)
	if err != nil {
		return err
	}
	n, _ := s.Dict.GetInt("N")
	first, _ := s.Dict.GetInt("First")
	for _, e := range ParseObjectStream(data, int(n), int(first)) {
		if _, ok := d.objects[e.Number]; ok {
			continue
		}
		// only take the slot the xref assigns to this stream
		if x, ok := d.xref[e.Number]; ok && (x.Kind != entryCompressed || x.Stream != num) {
			continue
		}
		v, err := newParser(e.Body).ParseObject()
		if err != nil {
			continue
		}
		d.objects[e.Number] = v
		d.packed[e.Number] = true
	}
	return nil
}
