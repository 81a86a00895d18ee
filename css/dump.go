package css

import (
	"fmt"
	"strconv"
	"strings"
)

type treeWriter struct {
	w *strings.Builder
}

func (tw treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Dump returns indented text representation of component value tree, one
// node per line. Used for debugging.
func Dump(values ...ComponentValue) string {
	tw := treeWriter{w: &strings.Builder{}}
	for _, v := range values {
		dumpValue(tw, 0, v)
	}
	return tw.w.String()
}

func dumpValue(tw treeWriter, depth int, v ComponentValue) {
	switch n := v.(type) {
	case *TokenNode:
		tw.line(depth, "%s %s", n.Token.TokenType, quote(n.Token.Data))
	case *FunctionNode:
		tw.line(depth, "function %s", quote(n.Name.Data))
		dumpNested(tw, depth, n.Value, n.End)
	case *BlockNode:
		tw.line(depth, "block %s", quote(n.Start.Data))
		dumpNested(tw, depth, n.Value, n.End)
	}
}

func dumpNested(tw treeWriter, depth int, values []ComponentValue, end *Token) {
	for _, v := range values {
		dumpValue(tw, depth+1, v)
	}
	if end == nil {
		tw.line(depth, "unterminated")
		return
	}
	tw.line(depth, "end %s", quote(end.Data))
}

func quote(data []byte) string {
	return strconv.Quote(string(data))
}
