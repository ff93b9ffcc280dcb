package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamOperators(t *testing.T) {
	var s Stream
	s.BeginText()
	s.Font("/F1", 12)
	s.TextAt(72, 700.5)
	s.Show("a(b)")
	s.EndText()
	s.FillRGB(0.5, 0, 1)
	s.FillRect(10, 20, 30, 40)
	s.Line(0, 0, 100, 0)
	s.Image("Im1", 100, 100, 200, 150)

	want := "BT\n/F1 12 Tf\n1 0 0 1 72 700.5 Tm\n(a\\(b\\)) Tj\nET\n" +
		"0.5 0 1 rg\n10 20 30 40 re f\n0 0 m 100 0 l S\n" +
		"q\n200 0 0 150 100 100 cm\n/Im1 Do\nQ\n"
	assert.Equal(t, want, string(s.Bytes()))
}

func TestEncodeWinAnsi(t *testing.T) {
	assert.Equal(t, "plain", EncodeWinAnsi("plain"))
	assert.Equal(t, "\x95 caf\xe9 \x80", EncodeWinAnsi("• café €"))
	assert.Equal(t, "?", EncodeWinAnsi("中"))
}

func TestLexerTokens(t *testing.T) {
	lx := NewLexer([]byte(`/F1 12 Tf [(A\)) -300 <4243>] TJ % comment
true null (nest (ed)) Tj`))
	var kinds []Kind
	var toks []Token
	for {
		tok, ok := lx.Next()
		if !ok {
			break
		}
		kinds = append(kinds, tok.Kind)
		toks = append(toks, tok)
	}
	want := []Kind{KindName, KindNumber, KindOperator, KindArray, KindOperator,
		KindBool, KindNull, KindString, KindOperator}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	arr := toks[3].Array
	require.Len(t, arr, 3)
	assert.Equal(t, "A)", string(arr[0].Str))
	assert.Equal(t, -300.0, arr[1].Num)
	assert.Equal(t, "BC", string(arr[2].Str))
	assert.Equal(t, "nest (ed)", string(toks[7].Str))
}

func TestLexerSkipsInlineImage(t *testing.T) {
	lx := NewLexer([]byte("BI /W 2 /H 1 ID \x00\xffEI- EI\n(after) Tj"))
	var ops []string
	for {
		tok, ok := lx.Next()
		if !ok {
			break
		}
		if tok.Kind == KindOperator {
			ops = append(ops, tok.Name)
		}
	}
	assert.Equal(t, []string{"BI", "ID", "EI", "Tj"}, ops)
}

func TestInterpreterTextPositions(t *testing.T) {
	var runs []TextRun
	in := NewInterpreter(Funcs{OnText: func(r TextRun) { runs = append(runs, r) }})
	in.Run([]byte(`BT /F1 10 Tf 1 0 0 1 72 700 Tm (first) Tj
0 -14 Td (second) Tj
14 TL T* [(th) -400 (ird)] TJ ET
q 1 0 0 1 0 -100 cm BT /F2 8 Tf 50 50 Td (moved) Tj ET Q`))

	require.Len(t, runs, 4)
	assert.Equal(t, "first", string(runs[0].Text))
	assert.Equal(t, 700.0, runs[0].Y)
	assert.Equal(t, 72.0, runs[1].X)
	assert.Equal(t, 686.0, runs[1].Y)
	assert.Equal(t, "th ird", string(runs[2].Text))
	assert.Equal(t, 672.0, runs[2].Y)
	assert.Equal(t, "F2", runs[3].Font)
	assert.Equal(t, -50.0, runs[3].Y)
}

func TestInterpreterIgnoresUnknownOperators(t *testing.T) {
	var runs []TextRun
	in := NewInterpreter(Funcs{OnText: func(r TextRun) { runs = append(runs, r) }})
	in.Run([]byte("1 2 3 zz BT foo (x) Tj ET /Gs1 gs 0 Tj"))
	require.Len(t, runs, 1)
	assert.Equal(t, "x", string(runs[0].Text))
}

func TestInterpreterStateStack(t *testing.T) {
	var paths []PathOp
	var images []Matrix
	in := NewInterpreter(Funcs{
		OnPath:  func(p PathOp) { paths = append(paths, p) },
		OnImage: func(_ string, m Matrix) { images = append(images, m) },
	})
	in.Run([]byte("1 0 0 rg q 0 1 0 rg 2 w 0 0 10 10 re f Q 0 0 m 5 5 l S q 20 0 0 10 5 5 cm /Im1 Do Q"))

	require.Len(t, paths, 2)
	assert.Equal(t, RGB{0, 1, 0}, paths[0].State.Fill)
	assert.Equal(t, 2.0, paths[0].State.LineWidth)
	assert.Equal(t, [][4]float64{{0, 0, 10, 10}}, paths[0].Rects)
	assert.Equal(t, RGB{1, 0, 0}, paths[1].State.Fill)
	assert.Equal(t, [][4]float64{{0, 0, 5, 5}}, paths[1].Segments)
	require.Len(t, images, 1)
	assert.Equal(t, Matrix{20, 0, 0, 10, 5, 5}, images[0])
	assert.Equal(t, Identity, in.State().CTM)
}
