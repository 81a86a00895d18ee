package css

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Token is a single lexer token: type and raw bytes as they appear in the
// source. Concatenating data of all tokens reproduces the source exactly.
type Token = css.Token

// ComponentValue is one of *TokenNode, *FunctionNode or *BlockNode.
type ComponentValue interface {
	// Tokens returns all tokens of the value in source order.
	Tokens() []Token
	componentValue()
}

// TokenNode is a preserved token which does not open a function or a block.
type TokenNode struct {
	Token Token
}

// FunctionNode is a function call: "name(" token, arguments and closing
// parenthesis. End is nil when input ended before the function was closed.
type FunctionNode struct {
	Name  Token
	Value []ComponentValue
	End   *Token
}

// BlockNode is a simple block started by "(", "[" or "{".
type BlockNode struct {
	Start Token
	Value []ComponentValue
	End   *Token
}

func (*TokenNode) componentValue()    {}
func (*FunctionNode) componentValue() {}
func (*BlockNode) componentValue()    {}

func (n *TokenNode) Tokens() []Token {
	return []Token{n.Token}
}

func (n *FunctionNode) Tokens() []Token {
	return nestedTokens(n.Name, n.Value, n.End)
}

func (n *BlockNode) Tokens() []Token {
	return nestedTokens(n.Start, n.Value, n.End)
}

func nestedTokens(start Token, values []ComponentValue, end *Token) []Token {
	tokens := []Token{start}
	for _, v := range values {
		tokens = append(tokens, v.Tokens()...)
	}
	if end != nil {
		tokens = append(tokens, *end)
	}
	return tokens
}

// GetName returns function name without opening parenthesis, as written.
func (n *FunctionNode) GetName() string {
	return strings.TrimSuffix(string(n.Name.Data), "(")
}

// IsTrivia returns true for whitespace and comments.
func (n *TokenNode) IsTrivia() bool {
	return n.Token.TokenType == css.WhitespaceToken || n.Token.TokenType == css.CommentToken
}

// Ident returns identifier text if the node holds an identifier token.
func (n *TokenNode) Ident() (string, bool) {
	if n.Token.TokenType != css.IdentToken {
		return "", false
	}
	return string(n.Token.Data), true
}

// Dimension returns parsed numeric value and unit of a dimension token.
func (n *TokenNode) Dimension() (Dimension, bool) {
	if n.Token.TokenType != css.DimensionToken {
		return Dimension{}, false
	}
	return parseDimension(n.Token.Data)
}

// Dimension represents a parsed CSS dimension token such as "1.5rem".
type Dimension struct {
	Value float64 // Numeric value
	Unit  string  // Unit as written: "px", "rem", etc.
}

// Declaration is a property declaration located in a stylesheet.
type Declaration struct {
	Property string // Property name as written, custom properties included
	Value    string // Verbatim value text between ':' and terminator
	Line     int    // Line number in source for error reporting
}

// StylesheetItem is a single piece of a stylesheet.
// Exactly one of Raw or Declaration is set.
type StylesheetItem struct {
	Raw         []byte       // Text outside of declaration values, verbatim
	Declaration *Declaration // A declaration value
}

// Stylesheet represents stylesheet split into declaration values and
// everything else. Writing it back without modifications reproduces the
// source byte for byte.
type Stylesheet struct {
	Items    []StylesheetItem // All items in source order
	Warnings []string         // Warnings for unsupported input
}

// Declarations returns all declarations in source order.
func (s *Stylesheet) Declarations() []*Declaration {
	var decls []*Declaration
	for _, item := range s.Items {
		if item.Declaration != nil {
			decls = append(decls, item.Declaration)
		}
	}
	return decls
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, item := range s.Items {
		var (
			n   int
			err error
		)
		switch {
		case item.Declaration != nil:
			n, err = io.WriteString(w, item.Declaration.Value)
		default:
			n, err = w.Write(item.Raw)
		}
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Bytes returns the CSS text of the stylesheet.
func (s *Stylesheet) Bytes() []byte {
	var buf bytes.Buffer
	s.WriteTo(&buf) //nolint:errcheck
	return buf.Bytes()
}
