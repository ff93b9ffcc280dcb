package writer

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
)

func minimalArena() *Arena {
	a := New()
	pages := a.Reserve()
	content := a.AddStream("", []byte("BT /F1 12 Tf (hi) Tj ET"))
	page := a.Add(fmt.Sprintf("<< /Type /Page\n/Parent %s\n/MediaBox [0 0 612 792]\n/Contents %s\n>>\n", pages, content))
	a.Set(pages, fmt.Sprintf("<< /Type /Pages\n/Kids [%s]\n/Count 1\n>>\n", page))
	a.SetRoot(a.Add(fmt.Sprintf("<< /Type /Catalog\n/Pages %s\n>>\n", pages)))
	return a
}

func TestSerializeLayout(t *testing.T) {
	out, err := minimalArena().Bytes()
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, Header))
	assert.Contains(t, s, "1 0 obj\n<< /Type /Pages\n/Kids [3 0 R]\n/Count 1\n>>\nendobj\n")
	assert.Contains(t, s, "2 0 obj\n<< /Length 23 >>\nstream\nBT /F1 12 Tf (hi) Tj ET\nendstream\nendobj\n")
	assert.Contains(t, s, "xref\n0 5\n0000000000 65535 f \n")
	assert.Contains(t, s, "trailer\n<<\n/Size 5\n/Root 4 0 R\n>>\nstartxref\n")
	assert.True(t, strings.HasSuffix(s, "%%EOF\n"))
}

func TestXrefOffsetsPointAtObjects(t *testing.T) {
	out, err := minimalArena().Bytes()
	require.NoError(t, err)

	start := bytes.LastIndex(out, []byte("startxref\n"))
	require.Positive(t, start)
	tail := strings.Fields(string(out[start+len("startxref\n"):]))
	xref, err := strconv.Atoi(tail[0])
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out[xref:], []byte("xref\n")))

	entry := regexp.MustCompile(`(\d{10}) 00000 n `)
	matches := entry.FindAllStringSubmatch(string(out[xref:]), -1)
	require.Len(t, matches, 4)
	for i, m := range matches {
		off, _ := strconv.Atoi(m[1])
		want := fmt.Sprintf("%d 0 obj\n", i+1)
		assert.Equal(t, want, string(out[off:off+len(want)]), "object %d", i+1)
	}
}

func TestIDsContiguous(t *testing.T) {
	a := New()
	var refs []Ref
	for i := 0; i < 5; i++ {
		if i%2 == 0 {
			refs = append(refs, a.Reserve())
		} else {
			refs = append(refs, a.Add("<< >>\n"))
		}
	}
	for i, r := range refs {
		assert.Equal(t, Ref(i+1), r)
	}
	assert.Equal(t, 5, a.Len())
}

func TestUnfilledReservationFails(t *testing.T) {
	a := New()
	a.Reserve()
	a.SetRoot(a.Add("<< /Type /Catalog >>\n"))
	_, err := a.Bytes()
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdfcli.ErrFormat))
}

func TestMissingRootFails(t *testing.T) {
	a := New()
	a.Add("<< >>\n")
	_, err := a.Bytes()
	assert.True(t, errors.Is(err, pdfcli.ErrFormat))
}

func TestInfoInTrailer(t *testing.T) {
	a := minimalArena()
	a.SetInfo(a.Add("<< /Producer (pdf-cli) >>\n"))
	out, err := a.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "/Root 4 0 R\n/Info 5 0 R\n>>")
}

func TestCompression(t *testing.T) {
	a := minimalArena()
	a.SetCompression(9)
	out, err := a.Bytes()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "/Filter /FlateDecode /Length ")

	i := strings.Index(s, "stream\n") + len("stream\n")
	j := strings.Index(s, "\nendstream")
	zr, err := zlib.NewReader(strings.NewReader(s[i:j]))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "BT /F1 12 Tf (hi) Tj ET", string(plain))
}

type xorCipher struct{}

func (xorCipher) Encrypt(ref Ref, data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ byte(ref)
	}
	return out
}

func TestCipherAppliedToStringsAndStreams(t *testing.T) {
	a := New()
	enc := a.Add("<< /Filter /Standard >>\n")
	info := a.Add("<< /Title (A\\(b\\)) /Author <4142> >>\n")
	root := a.Add("<< /Type /Catalog >>\n")
	a.SetRoot(root)
	a.SetInfo(info)
	a.SetEncrypt(enc, []byte{1, 2}, xorCipher{})

	out, err := a.Bytes()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "1 0 obj\n<< /Filter /Standard >>\n")
	// "A(b)" xor 2
	assert.Contains(t, s, "/Title <432A602B>")
	assert.Contains(t, s, "/Author <4340>")
	assert.Contains(t, s, "/Encrypt 1 0 R\n/ID [<0102> <0102>]\n")
}

func TestHexRoundTrip(t *testing.T) {
	for _, h := range []string{"", "00", "DEADBEEF", "0a1b2c3d4e5f", "FFff"} {
		raw, err := DecodeHex(h)
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(h), EncodeHex(raw))
	}
	data := []byte{0, 1, 0x7f, 0x80, 0xff}
	back, err := DecodeHex(EncodeHex(data))
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDecodeHexInvalid(t *testing.T) {
	_, err := DecodeHex("0G")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdfcli.ErrFormat))
	assert.Contains(t, err.Error(), "0G")
}

func TestEscapeUnescape(t *testing.T) {
	in := "a(b)\\c\nd\te"
	assert.Equal(t, `a\(b\)\\c\nd\te`, Escape(in))
	assert.Equal(t, in, string(Unescape([]byte(Escape(in)))))
}

func TestUnescapeOctal(t *testing.T) {
	tests := []struct{ in, want string }{
		{`\101`, "A"},
		{`\7`, "\x07"},
		{`\53x`, "+x"},
		{`\0053`, "\x053"},
		{"a\\\nb", "ab"},
		{`\q`, "q"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(Unescape([]byte(tt.in))), tt.in)
	}
}

func TestNum(t *testing.T) {
	assert.Equal(t, "612", Num(612))
	assert.Equal(t, "306.5", Num(306.5))
	assert.Equal(t, "0.3333", Num(1.0/3))
	assert.Equal(t, "0", Num(-0.00001))
}

func TestTextString(t *testing.T) {
	assert.Equal(t, "(plain)", TextString("plain"))
	assert.Equal(t, "<FEFF00E9>", TextString("é"))
}
