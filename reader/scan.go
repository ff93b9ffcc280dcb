package reader

import (
	"bytes"
	"regexp"
	"strconv"
)

var objHeader = regexp.MustCompile(`(\d+)\s+(\d+)\s+obj\b`)

// Scan collects every "N G obj ... endobj" block in data without consulting
// cross-reference information. Matches inside a parsed object are skipped;
// later definitions of a number replace earlier ones, as incremental
// updates do.
func Scan(data []byte) map[int]Object {
	objects := make(map[int]Object)
	end := 0
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		if m[0] < end {
			continue
		}
		if m[0] > 0 && isRegular(data[m[0]-1]) {
			continue
		}
		num, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		p := &parser{data: data, pos: m[0]}
		obj, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		objects[num] = obj.Value
		end = p.pos
	}
	return objects
}

// scanTrailer returns the last trailer dictionary in data, or one naming the
// first catalog found among objects.
func scanTrailer(data []byte, objects map[int]Object) Dict {
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		p := newParser(data[idx+len("trailer"):])
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				if _, ok := d["Root"]; ok {
					return d
				}
			}
		}
	}
	for _, num := range sortedKeys(objects) {
		if d, ok := objects[num].(Dict); ok && d.GetName("Type") == "Catalog" {
			return Dict{"Root": Reference{Number: num}}
		}
	}
	return Dict{}
}
