package layout

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

var greek = map[string]rune{
	"alpha": 'α', "beta": 'β', "gamma": 'γ', "delta": 'δ', "epsilon": 'ε', "varepsilon": 'ε',
	"zeta": 'ζ', "eta": 'η', "theta": 'θ', "vartheta": 'ϑ', "iota": 'ι', "kappa": 'κ',
	"lambda": 'λ', "mu": 'μ', "nu": 'ν', "xi": 'ξ', "pi": 'π', "varpi": 'ϖ', "rho": 'ρ',
	"sigma": 'σ', "tau": 'τ', "upsilon": 'υ', "phi": 'φ', "varphi": 'ϕ', "chi": 'χ',
	"psi": 'ψ', "omega": 'ω',
	"Gamma": 'Γ', "Delta": 'Δ', "Theta": 'Θ', "Lambda": 'Λ', "Xi": 'Ξ', "Pi": 'Π',
	"Sigma": 'Σ', "Upsilon": 'Υ', "Phi": 'Φ', "Psi": 'Ψ', "Omega": 'Ω',
}

var symbols = map[string]string{
	"times": "×", "cdot": "·", "pm": "±", "div": "÷", "leq": "≤", "le": "≤", "geq": "≥", "ge": "≥",
	"neq": "≠", "ne": "≠", "approx": "≈", "equiv": "≡", "infty": "∞", "to": "→", "rightarrow": "→",
	"leftarrow": "←", "Rightarrow": "⇒", "partial": "∂", "nabla": "∇", "in": "∈", "notin": "∉",
	"forall": "∀", "exists": "∃", "cup": "∪", "cap": "∩", "subset": "⊂", "ldots": "...", "cdots": "...",
	"degree": "°",
}

var bigOperators = map[string]string{"sum": "sum", "prod": "prod", "int": "int", "lim": "lim"}

// Transliterate rewrites a LaTeX math expression as readable text:
// \frac{a}{b} becomes (a)/(b), \sqrt{x} becomes sqrt(x), Greek commands
// become their letters, big operators keep their bounds as [from..to] and
// braced exponents and subscripts keep parentheses. Unknown commands are
// kept with their braces removed.
func Transliterate(expr string) string {
	p := &mathParser{s: expr}
	return strings.Join(strings.Fields(p.until(0)), " ")
}

type mathParser struct {
	s   string
	pos int
}

// until consumes up to the closing byte (0 for end of input).
func (p *mathParser) until(closer byte) string {
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if closer != 0 && c == closer {
			p.pos++
			return sb.String()
		}
		switch c {
		case '\\':
			sb.WriteString(p.command())
		case '{':
			p.pos++
			sb.WriteString(p.until('}'))
		case '^', '_':
			p.pos++
			arg, braced := p.arg()
			if braced {
				sb.WriteString(string(c) + "(" + arg + ")")
			} else {
				sb.WriteString(string(c) + arg)
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return sb.String()
}

// arg reads a braced group or a single atom.
func (p *mathParser) arg() (string, bool) {
	p.skipSpaces()
	if p.pos >= len(p.s) {
		return "", false
	}
	switch p.s[p.pos] {
	case '{':
		p.pos++
		return p.until('}'), true
	case '\\':
		return p.command(), false
	}
	c := p.s[p.pos]
	p.pos++
	return string(c), false
}

func (p *mathParser) skipSpaces() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *mathParser) command() string {
	p.pos++ // backslash
	start := p.pos
	for p.pos < len(p.s) && isLetter(p.s[p.pos]) {
		p.pos++
	}
	name := p.s[start:p.pos]
	if name == "" {
		if p.pos >= len(p.s) {
			return ""
		}
		c := p.s[p.pos]
		p.pos++
		switch c {
		case ',', ';', ':', ' ', '\\':
			return " "
		case '!':
			return ""
		}
		return string(c)
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		a, _ := p.arg()
		b, _ := p.arg()
		return "(" + a + ")/(" + b + ")"
	case "sqrt":
		p.skipSpaces()
		index := ""
		if p.pos < len(p.s) && p.s[p.pos] == '[' {
			p.pos++
			index = p.until(']')
		}
		x, _ := p.arg()
		if index != "" {
			return "root" + index + "(" + x + ")"
		}
		return "sqrt(" + x + ")"
	case "text", "mathrm", "mathbf", "mathit", "operatorname", "textbf", "mathsf", "mathtt":
		x, _ := p.arg()
		return x
	case "left", "right", "big", "Big", "displaystyle":
		return ""
	case "quad", "qquad":
		return " "
	}
	if r, ok := greek[name]; ok {
		return string(r)
	}
	if s, ok := symbols[name]; ok {
		return s
	}
	if op, ok := bigOperators[name]; ok {
		return op + p.bounds()
	}
	return `\` + name + " "
}

// bounds reads optional _{from} and ^{to} in either order.
func (p *mathParser) bounds() string {
	var from, to string
	for i := 0; i < 2; i++ {
		start := p.pos
		p.skipSpaces()
		if p.pos >= len(p.s) {
			break
		}
		switch p.s[p.pos] {
		case '_':
			p.pos++
			from, _ = p.arg()
		case '^':
			p.pos++
			to, _ = p.arg()
		default:
			// Spaces after the last bound belong to the following text.
			p.pos = start
			i = 2
		}
	}
	switch {
	case from != "" && to != "":
		return "[" + from + ".." + to + "]"
	case from != "":
		return "[" + from + "]"
	case to != "":
		return "[.." + to + "]"
	}
	return ""
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

var glyphNames = func() map[rune]string {
	m := make(map[rune]string, len(greek)+len(symbols))
	for name, r := range greek {
		if prev, ok := m[r]; !ok || len(name) < len(prev) {
			m[r] = name
		}
	}
	for name, s := range symbols {
		r := []rune(s)
		if len(r) != 1 {
			continue
		}
		if prev, ok := m[r[0]]; !ok || len(name) < len(prev) {
			m[r[0]] = name
		}
	}
	return m
}()

// Printable replaces characters the standard fonts cannot show with their
// command names, so "α ≤ β" is drawn as "alpha le beta".
func Printable(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); ok || r < unicode.MaxASCII {
			sb.WriteRune(r)
			continue
		}
		if name, ok := glyphNames[r]; ok {
			sb.WriteString(name)
			continue
		}
		sb.WriteByte('?')
	}
	return sb.String()
}
