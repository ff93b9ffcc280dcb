package assemble

import (
	"fmt"
	"sort"
	"strings"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/writer"
)

// Producer is written into every Info dictionary.
const Producer = "pdf-cli"

// Info is the document information dictionary.
type Info struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Creator  string `json:"creator,omitempty"`
	// Custom holds additional keys. Keys that collide with the standard
	// entries are ignored when the dictionary is written.
	Custom map[string]string `json:"custom,omitempty"`
}

var standardKeys = map[string]bool{
	"Title": true, "Author": true, "Subject": true, "Keywords": true,
	"Creator": true, "Producer": true, "CreationDate": true, "ModDate": true, "Trapped": true,
}

// SetCustom stores a custom field.
func (i *Info) SetCustom(key, value string) {
	if i.Custom == nil {
		i.Custom = make(map[string]string)
	}
	i.Custom[key] = value
}

// CustomField returns a custom field.
func (i *Info) CustomField(key string) (string, bool) {
	v, ok := i.Custom[key]
	return v, ok
}

// RemoveCustom deletes a custom field and returns its old value.
func (i *Info) RemoveCustom(key string) (string, bool) {
	v, ok := i.Custom[key]
	delete(i.Custom, key)
	return v, ok
}

// IsEmpty reports whether no field is set.
func (i *Info) IsEmpty() bool {
	return i.Title == "" && i.Author == "" && i.Subject == "" &&
		i.Keywords == "" && i.Creator == "" && len(i.Custom) == 0
}

// Dict renders the dictionary. /Producer is always present; custom keys
// follow in sorted order.
func (i *Info) Dict() string {
	var entries []string
	add := func(key, value string) {
		if value != "" {
			entries = append(entries, "/"+key+" "+writer.TextString(value))
		}
	}
	add("Title", i.Title)
	add("Author", i.Author)
	add("Subject", i.Subject)
	add("Keywords", i.Keywords)
	add("Creator", i.Creator)
	add("Producer", Producer)

	keys := make([]string, 0, len(i.Custom))
	for k := range i.Custom {
		if k != "" && !standardKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		entries = append(entries, Name(k)+" "+writer.TextString(i.Custom[k]))
	}
	return "<<\n" + strings.Join(entries, "\n") + "\n>>\n"
}

// Merge returns base with every field set in update taking precedence.
func Merge(base, update Info) Info {
	out := base
	out.Custom = make(map[string]string, len(base.Custom)+len(update.Custom))
	for k, v := range base.Custom {
		out.Custom[k] = v
	}
	for k, v := range update.Custom {
		out.Custom[k] = v
	}
	if len(out.Custom) == 0 {
		out.Custom = nil
	}
	if update.Title != "" {
		out.Title = update.Title
	}
	if update.Author != "" {
		out.Author = update.Author
	}
	if update.Subject != "" {
		out.Subject = update.Subject
	}
	if update.Keywords != "" {
		out.Keywords = update.Keywords
	}
	if update.Creator != "" {
		out.Creator = update.Creator
	}
	return out
}

// InfoFromMap builds an Info from decoded dictionary entries, moving
// everything that is not a standard key into Custom.
func InfoFromMap(m map[string]string) Info {
	var info Info
	for k, v := range m {
		switch k {
		case "Title":
			info.Title = v
		case "Author":
			info.Author = v
		case "Subject":
			info.Subject = v
		case "Keywords":
			info.Keywords = v
		case "Creator":
			info.Creator = v
		default:
			if !standardKeys[k] {
				info.SetCustom(k, v)
			}
		}
	}
	return info
}

// ParseCustom parses "key=value,key=value". Blank items are skipped.
func ParseCustom(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("assemble: %w: custom field %q is not key=value", pdfcli.ErrInvalidParam, item)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Name renders s as a name object, escaping delimiters, whitespace and
// non-ASCII bytes as #xx.
func Name(s string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '!' || c > '~' || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			fmt.Fprintf(&sb, "#%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
