package reader

import (
	"fmt"

	pdfcli "github.com/lvillar/pdfcli"
	"github.com/lvillar/pdfcli/internal/logger"
	"github.com/lvillar/pdfcli/security"
)

// encryptInfo holds the standard security handler state of an encrypted
// document once a password has been accepted.
type encryptInfo struct {
	params security.Params
	key    []byte
	owner  bool
	ref    int // object number of the /Encrypt dictionary
}

// IsEncrypted reports whether the trailer names an /Encrypt dictionary.
func (d *Document) IsEncrypted() bool {
	_, ok := d.trailer["Encrypt"]
	return ok
}

// Permissions returns the /P flags of an encrypted document.
func (d *Document) Permissions() (security.Permissions, bool) {
	if d.encrypt == nil {
		return security.All(), false
	}
	return security.FromFlags(uint32(d.encrypt.params.P)), true
}

// parseEncryptDict reads the /Encrypt dictionary and the first /ID string.
func (d *Document) parseEncryptDict() (*encryptInfo, error) {
	info := &encryptInfo{}
	obj := d.trailer["Encrypt"]
	if ref, ok := obj.(Reference); ok {
		info.ref = ref.Number
	}
	resolved, err := d.resolveIfRef(obj)
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Encrypt: %w", err)
	}
	dict, ok := resolved.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: %w: /Encrypt is not a dictionary", pdfcli.ErrFormat)
	}
	if f := dict.GetName("Filter"); f != "" && f != "Standard" {
		return nil, fmt.Errorf("reader: %w: security handler %s", pdfcli.ErrUnsupported, f)
	}

	p := security.Params{V: 0, R: 2, KeyLength: 5, EncryptMetadata: true}
	if v, ok := dict.GetInt("V"); ok {
		p.V = int(v)
	}
	if r, ok := dict.GetInt("R"); ok {
		p.R = int(r)
	}
	if n, ok := dict.GetInt("Length"); ok && n >= 40 {
		p.KeyLength = int(n) / 8
	}
	if v, ok := dict.GetInt("P"); ok {
		p.P = int32(v)
	}
	if b, ok := dict["EncryptMetadata"].(Boolean); ok {
		p.EncryptMetadata = bool(b)
	}
	bytesOf := func(key Name) []byte {
		if s, ok := dict[key].(String); ok {
			return s.Value
		}
		return nil
	}
	p.O, p.U = bytesOf("O"), bytesOf("U")
	p.OE, p.UE, p.Perms = bytesOf("OE"), bytesOf("UE"), bytesOf("Perms")

	switch {
	case p.V >= 5:
		p.KeyLength, p.AES = 32, true
	case p.V == 4:
		cfm := Name("V2")
		if cf := dict.GetDict("CF"); cf != nil {
			if std := cf.GetDict(dict.GetName("StmF")); std != nil {
				cfm = std.GetName("CFM")
				if n, ok := std.GetInt("Length"); ok && n > 0 {
					// some writers give bits, some bytes
					if n > 32 {
						n /= 8
					}
					p.KeyLength = int(n)
				}
			}
		}
		p.AES = cfm == "AESV2" || cfm == "AESV3"
		if p.KeyLength < 16 && p.AES {
			p.KeyLength = 16
		}
	case p.V < 1 || p.V > 4:
		return nil, fmt.Errorf("reader: %w: encryption version V=%d", pdfcli.ErrUnsupported, p.V)
	}
	if p.V == 1 {
		p.KeyLength = 5
	}

	if ids, ok := d.trailer["ID"].(Array); ok && len(ids) > 0 {
		if s, ok := ids[0].(String); ok {
			p.ID = s.Value
		}
	}
	info.params = p
	return info, nil
}

// decrypt authenticates password and installs the decryption state. Owner
// and user passwords are both accepted.
func (d *Document) decrypt(password string) error {
	info, err := d.parseEncryptDict()
	if err != nil {
		return err
	}
	key, owner, err := info.params.Authenticate(password)
	if err != nil {
		if password == "" {
			logger.Debug("encrypted document needs a password")
		}
		return fmt.Errorf("reader: %w", err)
	}
	info.key, info.owner = key, owner
	d.encrypt = info
	// objects parsed before the key was known are stale
	d.objects = make(map[int]Object)
	d.objstms = make(map[int]bool)
	d.packed = make(map[int]bool)
	return nil
}

// decryptObject decrypts every string and stream payload inside o, which
// belongs to object num.
func (d *Document) decryptObject(num, gen int, o Object) (Object, error) {
	if d.encrypt == nil || num == d.encrypt.ref {
		return o, nil
	}
	key := d.encrypt.params.ObjectKey(d.encrypt.key, num, gen)
	var walk func(Object) (Object, error)
	walk = func(o Object) (Object, error) {
		switch v := o.(type) {
		case String:
			plain, err := d.encrypt.params.Decrypt(key, v.Value)
			if err != nil {
				return nil, err
			}
			return String{Value: plain, IsHex: v.IsHex}, nil
		case Array:
			out := make(Array, len(v))
			for i, e := range v {
				x, err := walk(e)
				if err != nil {
					return nil, err
				}
				out[i] = x
			}
			return out, nil
		case Dict:
			out := make(Dict, len(v))
			for k, e := range v {
				x, err := walk(e)
				if err != nil {
					return nil, err
				}
				out[k] = x
			}
			return out, nil
		case Stream:
			dict, err := walk(v.Dict)
			if err != nil {
				return nil, err
			}
			if v.Dict.GetName("Type") == "XRef" ||
				(v.Dict.GetName("Type") == "Metadata" && !d.encrypt.params.EncryptMetadata) {
				return Stream{Dict: dict.(Dict), Data: v.Data}, nil
			}
			data, err := d.encrypt.params.Decrypt(key, v.Data)
			if err != nil {
				return nil, err
			}
			return Stream{Dict: dict.(Dict), Data: data}, nil
		}
		return o, nil
	}
	out, err := walk(o)
	if err != nil {
		return nil, fmt.Errorf("reader: decrypting object %d: %w", num, err)
	}
	return out, nil
}
