package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/xdg-go/stringprep"
	"golang.org/x/text/encoding/charmap"

	pdfcli "github.com/lvillar/pdfcli"
)

var padding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var zeroIV = make([]byte, 16)

// Params are the values of a standard security handler /Encrypt dictionary
// plus the first trailer /ID string.
type Params struct {
	V, R            int
	KeyLength       int // bytes
	O, U            []byte
	OE, UE, Perms   []byte
	P               int32
	ID              []byte
	EncryptMetadata bool
	AES             bool
}

// Authenticate derives the file key from password, trying it as the owner
// password first.
func (p Params) Authenticate(password string) (key []byte, owner bool, err error) {
	if p.R >= 5 {
		return p.authenticate6(password)
	}
	if len(p.O) < 32 || len(p.U) < 16 {
		return nil, false, fmt.Errorf("security: %w: short /O or /U", pdfcli.ErrFormat)
	}
	padded := padPassword(password)
	if user := p.userFromOwner(padded); user != nil {
		if key, ok := p.checkUser(user); ok {
			return key, true, nil
		}
	}
	if key, ok := p.checkUser(padded); ok {
		return key, false, nil
	}
	return nil, false, fmt.Errorf("security: %w: invalid password", pdfcli.ErrEncrypted)
}

// padPassword encodes pw in Latin-1 and pads or truncates it to 32 bytes.
func padPassword(pw string) []byte {
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(pw))
	if err != nil {
		enc = []byte(pw)
	}
	out := make([]byte, 32)
	n := copy(out, enc)
	copy(out[n:], padding)
	return out
}

// prepPassword applies SASLprep and truncates to 127 bytes (revision 6).
func prepPassword(pw string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(pw)
	if err != nil {
		return nil, fmt.Errorf("security: %w: password: %v", pdfcli.ErrInvalidParam, err)
	}
	b := []byte(prepped)
	if len(b) > 127 {
		b = b[:127]
	}
	return b, nil
}

// fileKey is algorithm 2.
func (p Params) fileKey(padded []byte) []byte {
	h := md5.New()
	h.Write(padded)
	h.Write(p.O[:32])
	var pb [4]byte
	binary.LittleEndian.PutUint32(pb[:], uint32(p.P))
	h.Write(pb[:])
	h.Write(p.ID)
	if p.R >= 4 && !p.EncryptMetadata {
		h.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	key := h.Sum(nil)
	if p.R >= 3 {
		for i := 0; i < 50; i++ {
			sum := md5.Sum(key[:p.KeyLength])
			key = sum[:]
		}
	}
	return key[:p.KeyLength]
}

// ownerKey is steps a-d of algorithm 3.
func (p Params) ownerKey(paddedOwner []byte) []byte {
	sum := md5.Sum(paddedOwner)
	key := sum[:]
	if p.R >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(key[:p.KeyLength])
			key = s[:]
		}
	}
	return key[:p.KeyLength]
}

// computeO is algorithm 3.
func (p Params) computeO(paddedUser, paddedOwner []byte) []byte {
	key := p.ownerKey(paddedOwner)
	o := make([]byte, 32)
	copy(o, paddedUser)
	rc4Rounds(key, o, p.R >= 3, false)
	return o
}

// computeU is algorithms 4 and 5.
func (p Params) computeU(key []byte) []byte {
	if p.R == 2 {
		u := make([]byte, 32)
		copy(u, padding)
		rc4Rounds(key, u, false, false)
		return u
	}
	h := md5.New()
	h.Write(padding)
	h.Write(p.ID)
	u := h.Sum(nil)
	rc4Rounds(key, u, true, false)
	return append(u[:16], make([]byte, 16)...)
}

// rc4Rounds encrypts buf in place with key; with many it applies the
// additional 19 rounds of revision 3, in reverse order when undo is set.
func rc4Rounds(key, buf []byte, many, undo bool) {
	if !many {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(buf, buf)
		return
	}
	tmp := make([]byte, len(key))
	for n := 0; n < 20; n++ {
		i := n
		if undo {
			i = 19 - n
		}
		for j := range key {
			tmp[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(tmp)
		c.XORKeyStream(buf, buf)
	}
}

// checkUser is algorithm 6.
func (p Params) checkUser(padded []byte) ([]byte, bool) {
	key := p.fileKey(padded)
	u := p.computeU(key)
	if p.R == 2 {
		return key, bytes.Equal(u, p.U[:min(32, len(p.U))])
	}
	return key, bytes.Equal(u[:16], p.U[:16])
}

// userFromOwner is the decryption half of algorithm 7.
func (p Params) userFromOwner(paddedOwner []byte) []byte {
	key := p.ownerKey(paddedOwner)
	buf := make([]byte, 32)
	copy(buf, p.O)
	rc4Rounds(key, buf, p.R >= 3, true)
	return buf
}

// hash2B is algorithm 2.B.
func hash2B(pw, salt, udata []byte) []byte {
	h := sha256.New()
	h.Write(pw)
	h.Write(salt)
	h.Write(udata)
	k := h.Sum(nil)

	var k1 []byte
	for round := 0; ; round++ {
		k1 = k1[:0]
		for j := 0; j < 64; j++ {
			k1 = append(k1, pw...)
			k1 = append(k1, k...)
			k1 = append(k1, udata...)
		}
		c, _ := aes.NewCipher(k[:16])
		cipher.NewCBCEncrypter(c, k[16:32]).CryptBlocks(k1, k1)

		rem := 0
		for _, b := range k1[:16] {
			rem += int(b)
		}
		var next hash.Hash
		switch rem % 3 {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		default:
			next = sha512.New()
		}
		next.Write(k1)
		k = next.Sum(nil)

		if round >= 63 && int(k1[len(k1)-1]) <= round+1-32 {
			break
		}
	}
	return k[:32]
}

// authenticate6 is algorithms 11 and 12.
func (p Params) authenticate6(password string) ([]byte, bool, error) {
	if len(p.O) < 48 || len(p.U) < 48 || len(p.OE) < 32 || len(p.UE) < 32 {
		return nil, false, fmt.Errorf("security: %w: short revision 6 hashes", pdfcli.ErrFormat)
	}
	pw, err := prepPassword(password)
	if err != nil {
		return nil, false, err
	}
	u := p.U[:48]
	if bytes.Equal(hash2B(pw, p.O[32:40], u), p.O[:32]) {
		return unwrapKey(hash2B(pw, p.O[40:48], u), p.OE), true, nil
	}
	if bytes.Equal(hash2B(pw, p.U[32:40], nil), p.U[:32]) {
		return unwrapKey(hash2B(pw, p.U[40:48], nil), p.UE), false, nil
	}
	return nil, false, fmt.Errorf("security: %w: invalid password", pdfcli.ErrEncrypted)
}

func unwrapKey(kek, wrapped []byte) []byte {
	c, _ := aes.NewCipher(kek)
	key := make([]byte, 32)
	cipher.NewCBCDecrypter(c, zeroIV).CryptBlocks(key, wrapped[:32])
	return key
}

func wrapKey(kek, key []byte) []byte {
	c, _ := aes.NewCipher(kek)
	out := make([]byte, 32)
	cipher.NewCBCEncrypter(c, zeroIV).CryptBlocks(out, key)
	return out
}

// ObjectKey derives the key for the strings and streams of object num
// (algorithm 1). Revision 6 uses the file key directly.
func (p Params) ObjectKey(fileKey []byte, num, gen int) []byte {
	if p.R >= 5 {
		return fileKey
	}
	h := md5.New()
	h.Write(fileKey)
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), byte(gen), byte(gen >> 8)})
	if p.AES {
		h.Write([]byte("sAlT"))
	}
	return h.Sum(nil)[:min(len(fileKey)+5, 16)]
}

// Decrypt reverses Encrypt for one string or stream payload.
func (p Params) Decrypt(objKey, data []byte) ([]byte, error) {
	if !p.AES {
		out := make([]byte, len(data))
		c, _ := rc4.NewCipher(objKey)
		c.XORKeyStream(out, data)
		return out, nil
	}
	if len(data) < 32 || len(data)%16 != 0 {
		return nil, fmt.Errorf("security: %w: AES payload of %d bytes", pdfcli.ErrFormat, len(data))
	}
	c, err := aes.NewCipher(objKey)
	if err != nil {
		return nil, fmt.Errorf("security: %w: %v", pdfcli.ErrFormat, err)
	}
	out := make([]byte, len(data)-16)
	cipher.NewCBCDecrypter(c, data[:16]).CryptBlocks(out, data[16:])
	pad := int(out[len(out)-1])
	if pad < 1 || pad > 16 {
		return nil, fmt.Errorf("security: %w: bad AES padding", pdfcli.ErrFormat)
	}
	return out[:len(out)-pad], nil
}

// Encrypt encrypts one string or stream payload. AES output is a fresh
// random IV followed by the PKCS#5 padded CBC ciphertext.
func (p Params) Encrypt(objKey, data []byte) []byte {
	if !p.AES {
		out := make([]byte, len(data))
		c, _ := rc4.NewCipher(objKey)
		c.XORKeyStream(out, data)
		return out
	}
	pad := 16 - len(data)%16
	plain := make([]byte, len(data)+pad)
	copy(plain, data)
	for i := len(data); i < len(plain); i++ {
		plain[i] = byte(pad)
	}
	out := make([]byte, 16+len(plain))
	rand.Read(out[:16])
	c, _ := aes.NewCipher(objKey)
	cipher.NewCBCEncrypter(c, out[:16]).CryptBlocks(out[16:], plain)
	return out
}
