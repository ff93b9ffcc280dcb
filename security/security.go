// Package security implements the PDF standard security handler: permission
// flags, password hashes and the RC4 and AES ciphers applied to strings and
// streams.
package security

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pdfcli "github.com/lvillar/pdfcli"
)

// Permissions lists what a user opening the document with the user password
// may do.
type Permissions struct {
	Print     bool `json:"print"`
	Modify    bool `json:"modify"`
	Copy      bool `json:"copy"`
	Annotate  bool `json:"annotate"`
	FillForms bool `json:"fill_forms"`
	Extract   bool `json:"extract"`
	Assemble  bool `json:"assemble"`
	PrintHQ   bool `json:"print_hq"`
}

// All grants every permission.
func All() Permissions {
	return Permissions{true, true, true, true, true, true, true, true}
}

// None denies everything but viewing.
func None() Permissions { return Permissions{} }

// ReadOnly allows viewing and accessibility extraction only.
func ReadOnly() Permissions { return Permissions{Extract: true} }

// bit positions, zero-based, of each permission in /P
const (
	bitPrint     = 2
	bitModify    = 3
	bitCopy      = 4
	bitAnnotate  = 5
	bitFillForms = 8
	bitExtract   = 9
	bitAssemble  = 11
	bitPrintHQ   = 12
)

// FlagsBase has every reserved bit set and every permission bit clear.
const FlagsBase uint32 = 0xFFFFF0C0

// Flags encodes the permissions as the /P value.
func (p Permissions) Flags() uint32 {
	f := FlagsBase
	for _, b := range []struct {
		on  bool
		bit uint
	}{
		{p.Print, bitPrint}, {p.Modify, bitModify}, {p.Copy, bitCopy},
		{p.Annotate, bitAnnotate}, {p.FillForms, bitFillForms},
		{p.Extract, bitExtract}, {p.Assemble, bitAssemble}, {p.PrintHQ, bitPrintHQ},
	} {
		f &^= 1 << b.bit
		if b.on {
			f |= 1 << b.bit
		}
	}
	return f
}

// FromFlags decodes a /P value.
func FromFlags(f uint32) Permissions {
	on := func(bit uint) bool { return f&(1<<bit) != 0 }
	return Permissions{
		Print:     on(bitPrint),
		Modify:    on(bitModify),
		Copy:      on(bitCopy),
		Annotate:  on(bitAnnotate),
		FillForms: on(bitFillForms),
		Extract:   on(bitExtract),
		Assemble:  on(bitAssemble),
		PrintHQ:   on(bitPrintHQ),
	}
}

// Algorithm selects the cipher and key size.
type Algorithm int

const (
	RC4_40 Algorithm = iota
	RC4_128
	AES128
	AES256
)

// KeyLength returns the file key length in bytes.
func (a Algorithm) KeyLength() int {
	switch a {
	case RC4_40:
		return 5
	case AES256:
		return 32
	}
	return 16
}

// Name returns the crypt filter method name.
func (a Algorithm) Name() string {
	switch a {
	case RC4_40:
		return "V2"
	case RC4_128:
		return "V4"
	case AES128:
		return "AESV2"
	case AES256:
		return "AESV3"
	}
	return "unknown"
}

func (a Algorithm) String() string {
	switch a {
	case RC4_40:
		return "rc4-40"
	case RC4_128:
		return "rc4-128"
	case AES128:
		return "aes-128"
	case AES256:
		return "aes-256"
	}
	return "unknown"
}

// version returns the /V and /R values written for the algorithm.
func (a Algorithm) version() (v, r int) {
	switch a {
	case RC4_40:
		return 1, 2
	case RC4_128:
		return 2, 3
	case AES128:
		return 4, 4
	}
	return 5, 6
}

// ParseAlgorithm accepts rc4-40, rc4-128, aes-128 and aes-256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rc4-40", "rc4_40":
		return RC4_40, nil
	case "rc4-128", "rc4_128", "":
		return RC4_128, nil
	case "aes-128", "aes_128":
		return AES128, nil
	case "aes-256", "aes_256":
		return AES256, nil
	}
	return 0, fmt.Errorf("security: %w: algorithm %q", pdfcli.ErrUnsupported, s)
}

// Security describes how to protect a document. A nil password is unset; a
// set password must not be empty.
type Security struct {
	UserPassword    *string     `json:"user_password,omitempty" validate:"omitempty,max=127"`
	OwnerPassword   *string     `json:"owner_password,omitempty" validate:"omitempty,max=127"`
	Algorithm       Algorithm   `json:"algorithm" validate:"min=0,max=3"`
	Permissions     Permissions `json:"permissions"`
	EncryptMetadata bool        `json:"encrypt_metadata"`
}

// New returns RC4-128 settings granting every permission.
func New() Security {
	return Security{Algorithm: RC4_128, Permissions: All(), EncryptMetadata: true}
}

// WithUserPassword sets the password required to open the document.
func (s Security) WithUserPassword(pw string) Security {
	s.UserPassword = &pw
	return s
}

// WithOwnerPassword sets the password that lifts the permission limits.
func (s Security) WithOwnerPassword(pw string) Security {
	s.OwnerPassword = &pw
	return s
}

// IsProtected reports whether any password is set.
func (s Security) IsProtected() bool {
	return s.UserPassword != nil || s.OwnerPassword != nil
}

// Validate rejects set but empty passwords and out of range settings.
func (s Security) Validate() error {
	if s.UserPassword != nil && *s.UserPassword == "" {
		return fmt.Errorf("security: %w: user password cannot be empty", pdfcli.ErrInvalidParam)
	}
	if s.OwnerPassword != nil && *s.OwnerPassword == "" {
		return fmt.Errorf("security: %w: owner password cannot be empty", pdfcli.ErrInvalidParam)
	}
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("security: %w: %v", pdfcli.ErrInvalidParam, err)
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
