package pageops

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/writer"
)

// copier writes objects of a parsed document into an output arena. Every
// source object is written at most once; references are renumbered.
type copier struct {
	src  *reader.Document
	dst  *writer.Arena
	refs map[int]writer.Ref
	edit EditFunc
}

func newCopier(src *reader.Document, dst *writer.Arena) *copier {
	return &copier{src: src, dst: dst, refs: make(map[int]writer.Ref)}
}

// ref returns the output handle of source object num, writing it first.
func (c *copier) ref(num int) (writer.Ref, error) {
	if r, ok := c.refs[num]; ok {
		return r, nil
	}
	r := c.dst.Reserve()
	c.refs[num] = r

	obj, err := c.src.Resolve(reader.Reference{Number: num})
	if err != nil {
		logger.Debug("dropping unresolvable object", "object", num, "err", err)
		c.dst.Set(r, "null\n")
		return r, nil
	}
	if c.edit != nil {
		if obj, err = c.edit(num, obj); err != nil {
			return 0, err
		}
	}
	if s, ok := obj.(reader.Stream); ok {
		entries, err := c.entries(s.Dict, "Length")
		if err != nil {
			return 0, err
		}
		c.dst.SetStream(r, entries, s.Data)
		return r, nil
	}
	body, err := c.value(obj)
	if err != nil {
		return 0, err
	}
	c.dst.Set(r, body+"\n")
	return r, nil
}

// value renders o in file syntax.
func (c *copier) value(o reader.Object) (string, error) {
	var sb strings.Builder
	if err := c.write(&sb, o); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *copier) write(sb *strings.Builder, o reader.Object) error {
	switch v := o.(type) {
	case nil, reader.Null:
		sb.WriteString("null")
	case reader.Boolean:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case reader.Integer:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case reader.Real:
		sb.WriteString(writer.Num(float64(v)))
	case reader.Name:
		sb.WriteString(assemble.Name(string(v)))
	case reader.String:
		if v.IsHex {
			sb.WriteString("<" + writer.EncodeHex(v.Value) + ">")
		} else {
			sb.WriteString(writer.Literal(string(v.Value)))
		}
	case reader.Array:
		sb.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if err := c.write(sb, e); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case reader.Dict:
		entries, err := c.entries(v)
		if err != nil {
			return err
		}
		sb.WriteString("<< " + entries + ">>")
	case reader.Reference:
		r, err := c.ref(v.Number)
		if err != nil {
			return err
		}
		sb.WriteString(r.String())
	case reader.Stream:
		// a direct stream cannot be written inline
		return fmt.Errorf("pageops: stream object used as a direct value")
	default:
		return fmt.Errorf("pageops: cannot copy %T", o)
	}
	return nil
}

// entries renders the key/value pairs of d in key order, skipping skip.
func (c *copier) entries(d reader.Dict, skip ...reader.Name) (string, error) {
	keys := make([]string, 0, len(d))
	for k := range d {
		if !slices.Contains(skip, k) {
			keys = append(keys, string(k))
		}
	}
	slices.Sort(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(assemble.Name(k) + " ")
		if err := c.write(&sb, d[reader.Name(k)]); err != nil {
			return "", err
		}
		sb.WriteByte(' ')
	}
	return sb.String(), nil
}

// resources renders a resource dictionary: the copied source entries with
// adds merged into their categories (Font, XObject, ExtGState).
func (c *copier) resources(res reader.Dict, adds map[reader.Name]map[string]writer.Ref) (string, error) {
	cats := make([]string, 0, len(res)+len(adds))
	for k := range res {
		cats = append(cats, string(k))
	}
	for k := range adds {
		if _, ok := res[k]; !ok {
			cats = append(cats, string(k))
		}
	}
	slices.Sort(cats)

	var sb strings.Builder
	sb.WriteString("<<")
	for _, cat := range cats {
		name := reader.Name(cat)
		extra := adds[name]
		sb.WriteString(" " + assemble.Name(cat) + " ")
		if len(extra) == 0 {
			if err := c.write(&sb, res[name]); err != nil {
				return "", err
			}
			continue
		}
		var sub reader.Dict
		if v, ok := res[name]; ok {
			r, err := c.src.Resolve(v)
			if err != nil {
				return "", err
			}
			sub, _ = r.(reader.Dict)
		}
		entries, err := c.entries(sub)
		if err != nil {
			return "", err
		}
		sb.WriteString("<< " + entries + extraEntries(extra) + ">>")
	}
	sb.WriteString(" >>")
	return sb.String(), nil
}

func extraEntries(extra map[string]writer.Ref) string {
	names := make([]string, 0, len(extra))
	for n := range extra {
		names = append(names, n)
	}
	slices.Sort(names)
	var sb strings.Builder
	for _, n := range names {
		fmt.Fprintf(&sb, "/%s %s ", n, extra[n])
	}
	return sb.String()
}

// EditFunc may replace indirect object num before Rewrite writes it.
// Returning obj unchanged keeps it.
type EditFunc func(num int, obj reader.Object) (reader.Object, error)

// Rewrite writes a fresh file holding every object reachable from the
// catalog and Info dictionary of doc, passing each through edit when it is
// set. Unreachable objects and the old cross-reference data are dropped.
func Rewrite(doc *reader.Document, edit EditFunc) ([]byte, error) {
	a := writer.New()
	c := newCopier(doc, a)
	c.edit = edit

	trailer := doc.Trailer()
	root, ok := trailer["Root"].(reader.Reference)
	if !ok {
		return nil, fmt.Errorf("pageops: %w: trailer has no /Root reference", pdfcli.ErrFormat)
	}
	ref, err := c.ref(root.Number)
	if err != nil {
		return nil, err
	}
	a.SetRoot(ref)
	if info, ok := trailer["Info"].(reader.Reference); ok {
		if ref, err = c.ref(info.Number); err != nil {
			return nil, err
		}
		a.SetInfo(ref)
	}
	return a.Bytes()
}
