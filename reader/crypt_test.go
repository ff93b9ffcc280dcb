package reader_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/assemble"
	"github.com/lvillar/pdfcli/layout"
	"github.com/lvillar/pdfcli/reader"
	"github.com/lvillar/pdfcli/security"
	"github.com/lvillar/pdfcli/writer"
)

func protectedPDF(t *testing.T, sec security.Security, compress bool) []byte {
	t.Helper()
	a := writer.New()
	if compress {
		a.SetCompression(6)
	}
	pages := assemble.FromStreams([][]byte{textStream("Protected content")}, layout.Portrait())
	_, err := assemble.Assemble(a, pages, assemble.Options{Info: &assemble.Info{Title: "Secret plans"}})
	require.NoError(t, err)
	h, err := security.NewHandler(sec, security.FileID())
	require.NoError(t, err)
	h.Install(a)
	out, err := a.Bytes()
	require.NoError(t, err)
	return out
}

func TestReadProtected(t *testing.T) {
	algorithms := []security.Algorithm{security.RC4_40, security.RC4_128, security.AES128, security.AES256}
	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			sec := security.New().WithUserPassword("user123").WithOwnerPassword("owner456")
			sec.Algorithm = alg
			data := protectedPDF(t, sec, alg%2 == 0)

			for _, pw := range []string{"user123", "owner456"} {
				doc, err := reader.LoadWithPassword(data, pw)
				require.NoError(t, err, "password %q", pw)
				assert.True(t, doc.IsEncrypted())
				assert.Equal(t, 1, doc.NumPages())
				text, err := doc.ExtractText()
				require.NoError(t, err)
				assert.Equal(t, "Protected content", text)
				assert.Equal(t, "Secret plans", doc.Metadata()["Title"])
			}

			_, err := reader.LoadWithPassword(data, "wrong")
			assert.True(t, errors.Is(err, pdfcli.ErrEncrypted))
			_, err = reader.Load(data)
			assert.True(t, errors.Is(err, pdfcli.ErrEncrypted))
		})
	}
}

func TestReadProtectedOwnerOnly(t *testing.T) {
	// without a user password anyone may open the file, with limits
	sec := security.New().WithOwnerPassword("owner")
	sec.Permissions = security.ReadOnly()
	data := protectedPDF(t, sec, false)

	for _, pw := range []string{"", "owner"} {
		doc, err := reader.LoadWithPassword(data, pw)
		require.NoError(t, err, "password %q", pw)
		perms, ok := doc.Permissions()
		assert.True(t, ok)
		assert.Equal(t, security.ReadOnly(), perms)
	}
}

func TestUnprotectedPermissions(t *testing.T) {
	doc, err := reader.Load(buildPDF(t, false, nil, "open"))
	require.NoError(t, err)
	assert.False(t, doc.IsEncrypted())
	perms, ok := doc.Permissions()
	assert.False(t, ok)
	assert.Equal(t, security.All(), perms)
}
