package content

// Matrix is an affine transform [a b c d e f].
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Mul returns m × n (apply m first, then n).
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

// RGB is a color with components in [0,1].
type RGB [3]float64

// GraphicsState is the part of the graphics state the interpreter tracks.
type GraphicsState struct {
	CTM       Matrix
	Fill      RGB
	Stroke    RGB
	LineWidth float64

	// text state survives q/Q like the rest of the graphics state
	Font    string
	Size    float64
	Leading float64
}

// TextRun is one string shown by Tj, TJ, ' or ".
type TextRun struct {
	Text  []byte
	Font  string
	Size  float64
	X, Y  float64 // origin in user space
	Color RGB
}

// PathOp is a painted path: the rectangles and line segments it contains
// and the painting operator that closed it.
type PathOp struct {
	Op       string
	Rects    [][4]float64
	Segments [][4]float64
	State    GraphicsState
}

// Handler receives interpreter events.
type Handler interface {
	Text(run TextRun)
	Image(name string, ctm Matrix)
	Path(p PathOp)
}

// Funcs adapts optional callbacks to Handler.
type Funcs struct {
	OnText  func(TextRun)
	OnImage func(string, Matrix)
	OnPath  func(PathOp)
}

func (f Funcs) Text(run TextRun) {
	if f.OnText != nil {
		f.OnText(run)
	}
}

func (f Funcs) Image(name string, ctm Matrix) {
	if f.OnImage != nil {
		f.OnImage(name, ctm)
	}
}

func (f Funcs) Path(p PathOp) {
	if f.OnPath != nil {
		f.OnPath(p)
	}
}

// Interpreter is a small operand-stack machine over a content stream.
type Interpreter struct {
	h     Handler
	gs    GraphicsState
	stack []GraphicsState

	tm, tlm Matrix
	inText  bool

	operands []Token
	path     PathOp
	cx, cy   float64
}

// NewInterpreter returns an interpreter reporting to h.
func NewInterpreter(h Handler) *Interpreter {
	return &Interpreter{h: h, gs: GraphicsState{CTM: Identity, LineWidth: 1}}
}

// State returns the current graphics state.
func (in *Interpreter) State() GraphicsState { return in.gs }

// Run interprets data. Unknown operators are skipped; operand count
// mismatches drop the operator.
func (in *Interpreter) Run(data []byte) {
	lx := NewLexer(data)
	for {
		tok, ok := lx.Next()
		if !ok {
			return
		}
		if tok.Kind != KindOperator {
			in.operands = append(in.operands, tok)
			continue
		}
		in.exec(tok.Name)
		in.operands = in.operands[:0]
	}
}

func (in *Interpreter) nums(n int) ([]float64, bool) {
	if len(in.operands) < n {
		return nil, false
	}
	ops := in.operands[len(in.operands)-n:]
	out := make([]float64, n)
	for i, t := range ops {
		if t.Kind != KindNumber {
			return nil, false
		}
		out[i] = t.Num
	}
	return out, true
}

func (in *Interpreter) lastString() ([]byte, bool) {
	if len(in.operands) == 0 {
		return nil, false
	}
	t := in.operands[len(in.operands)-1]
	if t.Kind != KindString {
		return nil, false
	}
	return t.Str, true
}

func (in *Interpreter) exec(op string) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := in.nums(6); ok {
			in.gs.CTM = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.Mul(in.gs.CTM)
		}
	case "w":
		if v, ok := in.nums(1); ok {
			in.gs.LineWidth = v[0]
		}
	case "rg", "RG":
		if v, ok := in.nums(3); ok {
			in.setColor(op == "rg", RGB{v[0], v[1], v[2]})
		}
	case "g", "G":
		if v, ok := in.nums(1); ok {
			in.setColor(op == "g", RGB{v[0], v[0], v[0]})
		}
	case "k", "K":
		if v, ok := in.nums(4); ok {
			k := 1 - v[3]
			in.setColor(op == "k", RGB{(1 - v[0]) * k, (1 - v[1]) * k, (1 - v[2]) * k})
		}

	case "BT":
		in.inText = true
		in.tm, in.tlm = Identity, Identity
	case "ET":
		in.inText = false
	case "Tf":
		if len(in.operands) >= 2 {
			name := in.operands[len(in.operands)-2]
			size := in.operands[len(in.operands)-1]
			if name.Kind == KindName && size.Kind == KindNumber {
				in.gs.Font, in.gs.Size = name.Name, size.Num
			}
		}
	case "TL":
		if v, ok := in.nums(1); ok {
			in.gs.Leading = v[0]
		}
	case "Td":
		if v, ok := in.nums(2); ok {
			in.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := in.nums(2); ok {
			in.gs.Leading = -v[1]
			in.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := in.nums(6); ok {
			in.tm = Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tlm = in.tm
		}
	case "T*":
		in.moveLine(0, -in.gs.Leading)
	case "Tj":
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "'":
		if s, ok := in.lastString(); ok {
			in.moveLine(0, -in.gs.Leading)
			in.show(s)
		}
	case "\"":
		if s, ok := in.lastString(); ok {
			in.moveLine(0, -in.gs.Leading)
			in.show(s)
		}
	case "TJ":
		if len(in.operands) > 0 && in.operands[len(in.operands)-1].Kind == KindArray {
			in.show(joinTJ(in.operands[len(in.operands)-1].Array))
		}

	case "m":
		if v, ok := in.nums(2); ok {
			in.cx, in.cy = v[0], v[1]
		}
	case "l":
		if v, ok := in.nums(2); ok {
			in.path.Segments = append(in.path.Segments, [4]float64{in.cx, in.cy, v[0], v[1]})
			in.cx, in.cy = v[0], v[1]
		}
	case "re":
		if v, ok := in.nums(4); ok {
			in.path.Rects = append(in.path.Rects, [4]float64{v[0], v[1], v[2], v[3]})
		}
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		in.path.Op = op
		in.path.State = in.gs
		in.h.Path(in.path)
		in.path = PathOp{}
	case "n":
		in.path = PathOp{}

	case "Do":
		if len(in.operands) > 0 && in.operands[len(in.operands)-1].Kind == KindName {
			in.h.Image(in.operands[len(in.operands)-1].Name, in.gs.CTM)
		}
	}
}

func (in *Interpreter) setColor(fill bool, c RGB) {
	if fill {
		in.gs.Fill = c
	} else {
		in.gs.Stroke = c
	}
}

func (in *Interpreter) moveLine(tx, ty float64) {
	in.tlm = Matrix{1, 0, 0, 1, tx, ty}.Mul(in.tlm)
	in.tm = in.tlm
}

func (in *Interpreter) show(s []byte) {
	m := in.tm.Mul(in.gs.CTM)
	x, y := m.Apply(0, 0)
	in.h.Text(TextRun{
		Text:  s,
		Font:  in.gs.Font,
		Size:  in.gs.Size,
		X:     x,
		Y:     y,
		Color: in.gs.Fill,
	})
	// advance by an estimated width so consecutive runs land after each other
	adv := float64(len(s)) * in.gs.Size * 0.5
	in.tm = Matrix{1, 0, 0, 1, adv, 0}.Mul(in.tm)
}

// joinTJ concatenates the strings of a TJ array. Adjustments wider than a
// quarter em are treated as word gaps.
func joinTJ(parts []Token) []byte {
	var out []byte
	for _, p := range parts {
		switch p.Kind {
		case KindString:
			out = append(out, p.Str...)
		case KindNumber:
			if p.Num < -250 && len(out) > 0 && out[len(out)-1] != ' ' {
				out = append(out, ' ')
			}
		}
	}
	return out
}
