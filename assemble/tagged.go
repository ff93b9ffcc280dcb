package assemble

import (
	"fmt"

	"github.com/lvillar/pdfcli/element"
	"github.com/lvillar/pdfcli/writer"
)

// structTree writes a StructTreeRoot holding one Document element whose
// kids are the structure nodes of every page, in reading order.
func structTree(a *writer.Arena, pages []Page, kids []writer.Ref) writer.Ref {
	root := a.Reserve()
	doc := a.Reserve()

	var elems []writer.Ref
	for i, p := range pages {
		for _, n := range p.Structure {
			elems = append(elems, a.Add(n.Dict(doc, kids[i])))
		}
	}

	a.Set(doc, fmt.Sprintf("<< /Type /StructElem /S /%s /P %s /K [%s] >>\n",
		element.StructDocument, root, writer.Refs(elems)))
	a.Set(root, fmt.Sprintf("<< /Type /StructTreeRoot /K %s >>\n", doc))
	return root
}
