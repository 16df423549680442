package xmltree

import (
	"fmt"
	"strconv"

	tp "github.com/xlab/treeprint"
)

// Dump renders n as an indented outline for debugging and test failures.
func Dump(n Node) string {
	printer := tp.New()
	dumpNode(printer, n)
	return printer.String()
}

func dumpNode(printer tp.Tree, n Node) {
	switch v := n.(type) {
	case Leaf:
		printer.AddNode(strconv.Quote(string(v)))
	case Mapping:
		for _, e := range v {
			if e.IsAttr {
				printer.AddNode(fmt.Sprintf("@%s=%q", e.Name, e.Value))
				continue
			}
			if leaf, ok := e.Node.(Leaf); ok {
				printer.AddNode(fmt.Sprintf("%s: %q", e.Name, string(leaf)))
				continue
			}
			dumpNode(printer.AddBranch(e.Name), e.Node)
		}
	case Sequence:
		for i, c := range v {
			dumpNode(printer.AddBranch(fmt.Sprintf("[%d]", i)), c)
		}
	default:
		printer.AddNode(fmt.Sprintf("<%T>", n))
	}
}
