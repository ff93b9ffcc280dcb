package layout

import (
	"strings"

	"github.com/lvillar/pdfcli/content"
)

// TokenKind classifies a lexeme of a code line.
type TokenKind int

const (
	Plain TokenKind = iota
	Keyword
	String
	Number
	Comment
)

// Color is the fixed fill color of the token kind.
func (k TokenKind) Color() content.RGB {
	switch k {
	case Keyword:
		return content.RGB{0, 0, 0.6}
	case String:
		return content.RGB{0, 0.45, 0}
	case Number:
		return content.RGB{0.6, 0.3, 0}
	case Comment:
		return content.RGB{0.45, 0.45, 0.45}
	}
	return content.RGB{0.1, 0.1, 0.1}
}

// Token is one classified run of a code line.
type Token struct {
	Kind TokenKind
	Text string
}

type language struct {
	comment  string
	keywords map[string]bool
}

func words(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

var languages = map[string]language{
	"go": {"//", words(`break case chan const continue default defer else fallthrough for func go goto if
		import interface map package range return select struct switch type var nil true false`)},
	"rust": {"//", words(`as async await break const continue crate dyn else enum extern false fn for if impl
		in let loop match mod move mut pub ref return self Self static struct super trait true type unsafe use where while`)},
	"python": {"#", words(`and as assert async await break class continue def del elif else except False finally
		for from global if import in is lambda None nonlocal not or pass raise return True try while with yield`)},
	"javascript": {"//", words(`async await break case catch class const continue debugger default delete do else
		export extends false finally for function if import in instanceof let new null return super switch this
		throw true try typeof undefined var void while with yield interface type enum implements`)},
	"c": {"//", words(`auto bool break case char class const continue default delete do double else enum extern
		false float for goto if inline int long namespace new nullptr private protected public return short signed
		sizeof static struct switch template this true typedef typename union unsigned using virtual void volatile while`)},
	"java": {"//", words(`abstract assert boolean break byte case catch char class const continue default do
		double else enum extends final finally float for if implements import instanceof int interface long native
		new null package private protected public return short static super switch synchronized this throw throws
		true false try void volatile while var record`)},
	"shell": {"#", words(`if then else elif fi case esac for while until do done in function return local export
		echo exit set unset readonly shift source`)},
	"sql": {"--", words(`SELECT FROM WHERE INSERT INTO VALUES UPDATE SET DELETE CREATE TABLE DROP ALTER INDEX
		JOIN LEFT RIGHT INNER OUTER ON AND OR NOT NULL AS ORDER BY GROUP HAVING LIMIT OFFSET DISTINCT UNION ALL
		PRIMARY KEY FOREIGN REFERENCES IS IN LIKE BETWEEN CASE WHEN THEN ELSE END`)},
}

var aliases = map[string]string{
	"golang": "go", "rs": "rust", "py": "python",
	"js": "javascript", "jsx": "javascript", "ts": "javascript", "tsx": "javascript", "typescript": "javascript",
	"h": "c", "cpp": "c", "c++": "c", "cc": "c", "hpp": "c",
	"sh": "shell", "bash": "shell", "zsh": "shell",
}

func lookupLanguage(lang string) (language, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if a, ok := aliases[lang]; ok {
		lang = a
	}
	l, ok := languages[lang]
	return l, ok
}

// Highlight splits one line of code into classified tokens. Lines in an
// unknown language come back as a single Plain token.
func Highlight(lang, line string) []Token {
	l, ok := lookupLanguage(lang)
	if !ok || line == "" {
		return []Token{{Plain, line}}
	}
	sql := l.comment == "--"

	var toks []Token
	add := func(k TokenKind, s string) {
		if n := len(toks); n > 0 && toks[n-1].Kind == k && k == Plain {
			toks[n-1].Text += s
			return
		}
		toks = append(toks, Token{k, s})
	}
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case strings.HasPrefix(line[i:], l.comment):
			add(Comment, line[i:])
			i = len(line)
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < len(line) && line[j] != c {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(line))
			add(String, line[i:j])
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(line) && (isIdent(line[j]) || line[j] == '.') {
				j++
			}
			add(Number, line[i:j])
			i = j
		case isIdent(c):
			j := i + 1
			for j < len(line) && isIdent(line[j]) {
				j++
			}
			w := line[i:j]
			if l.keywords[w] || (sql && l.keywords[strings.ToUpper(w)]) {
				add(Keyword, w)
			} else {
				add(Plain, w)
			}
			i = j
		default:
			add(Plain, line[i:i+1])
			i++
		}
	}
	return toks
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdent(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
