package validate

import (
	"crypto/sha256"
	"slices"
	"strings"
	"time"

	"github.com/lvillar/pdfcli/reader"
)

// Signature describes a signature dictionary found in a document.
type Signature struct {
	Object     int
	ByteRange  [4]int
	Reason     string
	Location   string
	SignedAt   time.Time
	Digest     []byte
	CoversFile bool
}

// Signatures lists the signature dictionaries of doc in object order. The
// digest is the SHA-256 of the two signed byte ranges; it is nil when the
// ranges fall outside the file.
func Signatures(doc *reader.Document) []Signature {
	objs := doc.Objects()
	nums := make([]int, 0, len(objs))
	for n := range objs {
		nums = append(nums, n)
	}
	slices.Sort(nums)

	var sigs []Signature
	for _, n := range nums {
		d, ok := objs[n].(reader.Dict)
		if !ok || (d.GetName("Type") != "Sig" && d.GetArray("ByteRange") == nil) {
			continue
		}
		sig := Signature{
			Object:   n,
			Reason:   d.GetString("Reason"),
			Location: d.GetString("Location"),
			SignedAt: parseDate(d.GetString("M")),
		}
		br := d.GetArray("ByteRange")
		for i := 0; i < 4 && i < len(br); i++ {
			if v, ok := br[i].(reader.Integer); ok {
				sig.ByteRange[i] = int(v)
			}
		}
		sig.Digest = rangeDigest(doc.Raw(), sig.ByteRange)
		sig.CoversFile = sig.Digest != nil && sig.ByteRange[0] == 0 &&
			sig.ByteRange[0]+sig.ByteRange[1] <= sig.ByteRange[2] &&
			sig.ByteRange[2]+sig.ByteRange[3] == doc.Size()
		sigs = append(sigs, sig)
	}
	return sigs
}

func rangeDigest(data []byte, br [4]int) []byte {
	for _, v := range br {
		if v < 0 {
			return nil
		}
	}
	if br[1] == 0 || br[3] == 0 || br[0]+br[1] > len(data) || br[2]+br[3] > len(data) {
		return nil
	}
	h := sha256.New()
	h.Write(data[br[0] : br[0]+br[1]])
	h.Write(data[br[2] : br[2]+br[3]])
	return h.Sum(nil)
}

// parseDate reads a date of the form D:YYYYMMDDHHmmSS+HH'MM'.
func parseDate(s string) time.Time {
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 14 {
		return time.Time{}
	}
	for _, layout := range []string{
		"20060102150405-07'00'",
		"20060102150405-07'00",
		"20060102150405Z",
		"20060102150405",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
