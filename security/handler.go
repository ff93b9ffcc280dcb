package security

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lvillar/pdfcli/writer"
)

// Handler encrypts the objects of one output document. It implements
// writer.Cipher.
type Handler struct {
	Params
	key []byte
}

// NewHandler computes the password hashes and the file key for sec. fileID
// is the first trailer /ID string the document will carry. A missing owner
// password defaults to the user password.
func NewHandler(sec Security, fileID []byte) (*Handler, error) {
	if err := sec.Validate(); err != nil {
		return nil, err
	}
	user := deref(sec.UserPassword)
	owner := deref(sec.OwnerPassword)
	if owner == "" {
		owner = user
	}

	v, r := sec.Algorithm.version()
	h := &Handler{Params: Params{
		V:               v,
		R:               r,
		KeyLength:       sec.Algorithm.KeyLength(),
		P:               int32(sec.Permissions.Flags()),
		ID:              fileID,
		EncryptMetadata: sec.EncryptMetadata || r < 4,
		AES:             sec.Algorithm >= AES128,
	}}

	if r >= 5 {
		return h, h.init6(user, owner)
	}
	h.O = h.computeO(padPassword(user), padPassword(owner))
	h.key = h.fileKey(padPassword(user))
	h.U = h.computeU(h.key)
	return h, nil
}

// init6 is algorithms 8, 9 and 10.
func (h *Handler) init6(user, owner string) error {
	upw, err := prepPassword(user)
	if err != nil {
		return err
	}
	opw, err := prepPassword(owner)
	if err != nil {
		return err
	}
	h.key = make([]byte, 32)
	salts := make([]byte, 32)
	rand.Read(h.key)
	rand.Read(salts)

	h.U = append(hash2B(upw, salts[0:8], nil), salts[0:16]...)
	h.UE = wrapKey(hash2B(upw, salts[8:16], nil), h.key)
	h.O = append(hash2B(opw, salts[16:24], h.U), salts[16:32]...)
	h.OE = wrapKey(hash2B(opw, salts[24:32], h.U), h.key)

	perms := make([]byte, 16)
	binary.LittleEndian.PutUint32(perms, uint32(h.P))
	copy(perms[4:8], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	perms[8] = 'F'
	if h.EncryptMetadata {
		perms[8] = 'T'
	}
	copy(perms[9:12], "adb")
	rand.Read(perms[12:])
	c, _ := aes.NewCipher(h.key)
	c.Encrypt(perms, perms)
	h.Perms = perms
	return nil
}

// Key returns the file encryption key.
func (h *Handler) Key() []byte { return h.key }

// Encrypt implements writer.Cipher.
func (h *Handler) Encrypt(ref writer.Ref, data []byte) []byte {
	return h.Params.Encrypt(h.ObjectKey(h.key, int(ref), 0), data)
}

// Version is the minimum PDF version the chosen algorithm requires.
func (h *Handler) Version() string {
	switch {
	case h.R >= 6:
		return "2.0"
	case h.AES:
		return "1.6"
	}
	return "1.4"
}

// Dict renders the /Encrypt dictionary.
func (h *Handler) Dict() string {
	var sb strings.Builder
	sb.WriteString("<< /Filter /Standard\n")
	fmt.Fprintf(&sb, "/V %d\n/R %d\n/Length %d\n/P %d\n", h.V, h.R, h.KeyLength*8, h.P)
	if h.V >= 4 {
		method := "AESV2"
		if h.R >= 6 {
			method = "AESV3"
		}
		fmt.Fprintf(&sb, "/CF << /StdCF << /CFM /%s /AuthEvent /DocOpen /Length %d >> >>\n", method, h.KeyLength)
		sb.WriteString("/StmF /StdCF\n/StrF /StdCF\n")
		fmt.Fprintf(&sb, "/EncryptMetadata %t\n", h.EncryptMetadata)
	}
	fmt.Fprintf(&sb, "/O <%s>\n/U <%s>\n", writer.EncodeHex(h.O), writer.EncodeHex(h.U))
	if h.R >= 6 {
		fmt.Fprintf(&sb, "/OE <%s>\n/UE <%s>\n/Perms <%s>\n",
			writer.EncodeHex(h.OE), writer.EncodeHex(h.UE), writer.EncodeHex(h.Perms))
	}
	sb.WriteString(">>\n")
	return sb.String()
}

// Install adds the /Encrypt dictionary to a and makes a encrypt every other
// object with h.
func (h *Handler) Install(a *writer.Arena) writer.Ref {
	ref := a.Add(h.Dict())
	a.SetEncrypt(ref, h.ID, h)
	if v := h.Version(); v != "1.4" {
		a.SetVersion(v)
	}
	return ref
}

// FileID returns a fresh random 16 byte document identifier.
func FileID() []byte {
	id := make([]byte, 16)
	rand.Read(id)
	return id
}
