package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/security"
)

func TestPermissionFlags(t *testing.T) {
	none := security.FlagsBase &^ (1 << 12)
	assert.Equal(t, uint32(0xFFFFE0C0), security.None().Flags())
	assert.Equal(t, uint32(0xFFFFFBFC), security.All().Flags())
	assert.Equal(t, none|1<<9, security.ReadOnly().Flags())

	p := security.Permissions{Print: true, Copy: true, PrintHQ: true}
	assert.Equal(t, uint32(0xFFFFF0D4), p.Flags())
	assert.Equal(t, p, security.FromFlags(p.Flags()))
	assert.Equal(t, security.All(), security.FromFlags(security.All().Flags()))
}

func TestParseAlgorithm(t *testing.T) {
	tests := map[string]security.Algorithm{
		"rc4-40":  security.RC4_40,
		"RC4-128": security.RC4_128,
		"":        security.RC4_128,
		"aes-128": security.AES128,
		"aes_256": security.AES256,
	}
	for in, want := range tests {
		got, err := security.ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := security.ParseAlgorithm("des")
	assert.True(t, errors.Is(err, pdfcli.ErrUnsupported))
}

func TestAlgorithmProperties(t *testing.T) {
	assert.Equal(t, 5, security.RC4_40.KeyLength())
	assert.Equal(t, 16, security.RC4_128.KeyLength())
	assert.Equal(t, 16, security.AES128.KeyLength())
	assert.Equal(t, 32, security.AES256.KeyLength())
	assert.Equal(t, "AESV2", security.AES128.Name())
	assert.Equal(t, "AESV3", security.AES256.Name())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, security.New().Validate())
	assert.NoError(t, security.New().WithUserPassword("u").Validate())

	err := security.New().WithUserPassword("").Validate()
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))
	err = security.New().WithOwnerPassword("").Validate()
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))

	err = security.New().WithUserPassword(strings.Repeat("x", 200)).Validate()
	assert.True(t, errors.Is(err, pdfcli.ErrInvalidParam))

	bad := security.New()
	bad.Algorithm = 9
	assert.True(t, errors.Is(bad.Validate(), pdfcli.ErrInvalidParam))
}

func TestIsProtected(t *testing.T) {
	assert.False(t, security.New().IsProtected())
	assert.True(t, security.New().WithOwnerPassword("o").IsProtected())
}

func TestHandlerAuthenticates(t *testing.T) {
	id := []byte("0123456789abcdef")
	for _, alg := range []security.Algorithm{security.RC4_40, security.RC4_128, security.AES128, security.AES256} {
		t.Run(alg.String(), func(t *testing.T) {
			sec := security.New().WithUserPassword("user").WithOwnerPassword("owner")
			sec.Algorithm = alg
			h, err := security.NewHandler(sec, id)
			require.NoError(t, err)
			assert.Len(t, h.Key(), alg.KeyLength())

			key, owner, err := h.Params.Authenticate("owner")
			require.NoError(t, err)
			assert.True(t, owner)
			assert.Equal(t, h.Key(), key)

			key, owner, err = h.Params.Authenticate("user")
			require.NoError(t, err)
			assert.False(t, owner)
			assert.Equal(t, h.Key(), key)

			_, _, err = h.Params.Authenticate("nope")
			assert.True(t, errors.Is(err, pdfcli.ErrEncrypted))

			objKey := h.ObjectKey(h.Key(), 7, 0)
			plain := []byte("attack at dawn")
			ct := h.Params.Encrypt(objKey, plain)
			assert.NotEqual(t, plain, ct)
			back, err := h.Params.Decrypt(objKey, ct)
			require.NoError(t, err)
			assert.Equal(t, plain, back)
		})
	}
}

func TestHandlerDict(t *testing.T) {
	sec := security.New().WithUserPassword("u")
	sec.Algorithm = security.AES128
	h, err := security.NewHandler(sec, security.FileID())
	require.NoError(t, err)
	d := h.Dict()
	assert.Contains(t, d, "/Filter /Standard")
	assert.Contains(t, d, "/V 4\n/R 4\n/Length 128")
	assert.Contains(t, d, "/CFM /AESV2")
	assert.Equal(t, "1.6", h.Version())

	sec.Algorithm = security.AES256
	h, err = security.NewHandler(sec, security.FileID())
	require.NoError(t, err)
	assert.Contains(t, h.Dict(), "/OE <")
	assert.Equal(t, "2.0", h.Version())
}
