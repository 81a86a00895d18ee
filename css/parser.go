package css

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser splits stylesheets into declaration values and the rest.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	// Log parsing start with source identifier if provided
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	tokens, err := lex(parse.NewInput(bytes.NewReader(data)))
	if err != nil {
		p.log.Debug("CSS lexer error", zap.Error(err))
	}

	var (
		raw       bytes.Buffer
		depth     int
		stmtStart bool
		line      = 1
	)
	flush := func() {
		if raw.Len() > 0 {
			sheet.Items = append(sheet.Items, StylesheetItem{Raw: bytes.Clone(raw.Bytes())})
			raw.Reset()
		}
	}

	for i := 0; i < len(tokens); {
		t := tokens[i]

		if depth > 0 && stmtStart && (t.TokenType == css.IdentToken || t.TokenType == css.CustomPropertyNameToken) {
			if start, end, ok := declarationValue(tokens, i); ok {
				// property name, colon and anything in between stay raw
				for _, pt := range tokens[i:start] {
					raw.Write(pt.Data)
				}
				flush()
				value := tokensText(tokens[start:end])
				sheet.Items = append(sheet.Items, StylesheetItem{Declaration: &Declaration{
					Property: string(t.Data),
					Value:    value,
					Line:     line,
				}})
				line += strings.Count(tokensText(tokens[i:end]), "\n")
				stmtStart = false
				i = end
				continue
			}
		}

		switch t.TokenType {
		case css.LeftBraceToken:
			depth++
			stmtStart = true
		case css.RightBraceToken:
			if depth > 0 {
				depth--
			}
			stmtStart = depth > 0
		case css.SemicolonToken:
			stmtStart = depth > 0
		case css.WhitespaceToken, css.CommentToken:
			// does not change statement state
		default:
			stmtStart = false
		}

		raw.Write(t.Data)
		line += bytes.Count(t.Data, []byte{'\n'})
		i++
	}

	// lexer may stop early on malformed input, never lose the tail
	consumed := 0
	for _, t := range tokens {
		consumed += len(t.Data)
	}
	if consumed < len(data) {
		sheet.Warnings = append(sheet.Warnings, "unable to tokenize stylesheet tail, kept as is")
		p.log.Debug("Keeping unparsed tail", zap.Int("offset", consumed), zap.Int("bytes", len(data)-consumed))
		raw.Write(data[consumed:])
	}
	flush()

	if depth > 0 {
		sheet.Warnings = append(sheet.Warnings, "unterminated block at the end of stylesheet")
	}
	return sheet
}

// declarationValue checks if tokens starting at pos form a declaration
// "name : value" and returns value boundaries. The value ends before ';' or
// '}' of the enclosing block. Running into '{' means this is a selector
// (e.g. "a:hover {") rather than a declaration.
func declarationValue(tokens []Token, pos int) (int, int, bool) {
	j := skipTrivia(tokens, pos+1)
	if j >= len(tokens) || tokens[j].TokenType != css.ColonToken {
		return 0, 0, false
	}
	start := j + 1

	nest := 0
	for k := start; k < len(tokens); k++ {
		switch tokens[k].TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			nest++
		case css.RightParenthesisToken, css.RightBracketToken:
			if nest > 0 {
				nest--
			}
		case css.LeftBraceToken:
			if nest == 0 {
				return 0, 0, false
			}
			nest++
		case css.RightBraceToken:
			if nest == 0 {
				return start, k, true
			}
			nest--
		case css.SemicolonToken:
			if nest == 0 {
				return start, k, true
			}
		}
	}
	return start, len(tokens), true
}

func skipTrivia(tokens []Token, pos int) int {
	for pos < len(tokens) && (tokens[pos].TokenType == css.WhitespaceToken || tokens[pos].TokenType == css.CommentToken) {
		pos++
	}
	return pos
}

func tokensText(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

func lex(input *parse.Input) ([]Token, error) {
	l := css.NewLexer(input)

	var tokens []Token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return tokens, err
			}
			return tokens, nil
		}
		// data points into the input buffer, do not let appends spill over
		tokens = append(tokens, Token{TokenType: tt, Data: data[:len(data):len(data)]})
	}
}

// Tokenize splits CSS text into tokens.
func Tokenize(s string) []Token {
	tokens, _ := lex(parse.NewInputString(s))
	return tokens
}

// ParseComponentValues builds component value tree from a token list.
func ParseComponentValues(tokens []Token) []ComponentValue {
	values, _, _ := consumeComponentValues(tokens, 0, css.ErrorToken)
	return values
}

// ParseComponentValue returns the only component value in tokens, ignoring
// surrounding whitespace and comments.
func ParseComponentValue(tokens []Token) (ComponentValue, bool) {
	var found ComponentValue
	for _, v := range ParseComponentValues(tokens) {
		if tn, ok := v.(*TokenNode); ok && tn.IsTrivia() {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = v
	}
	return found, found != nil
}

// ParseCommaSeparatedList splits top level component values on commas.
// Commas are dropped, whitespace and comments stay with their group. There
// is always at least one (possibly empty) group.
func ParseCommaSeparatedList(tokens []Token) [][]ComponentValue {
	groups := [][]ComponentValue{nil}
	for _, v := range ParseComponentValues(tokens) {
		if tn, ok := v.(*TokenNode); ok && tn.Token.TokenType == css.CommaToken {
			groups = append(groups, nil)
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], v)
	}
	return groups
}

// ReplaceComponentValues walks values depth first calling fn for every
// value. When fn returns true the value is replaced and its children are not
// visited. Groups are modified in place and returned for convenience.
func ReplaceComponentValues(groups [][]ComponentValue, fn func(ComponentValue) (ComponentValue, bool)) [][]ComponentValue {
	for _, group := range groups {
		replaceValues(group, fn)
	}
	return groups
}

func replaceValues(values []ComponentValue, fn func(ComponentValue) (ComponentValue, bool)) {
	for i, v := range values {
		if r, ok := fn(v); ok {
			values[i] = r
			continue
		}
		switch n := v.(type) {
		case *FunctionNode:
			replaceValues(n.Value, fn)
		case *BlockNode:
			replaceValues(n.Value, fn)
		}
	}
}

// Stringify returns CSS text of values.
func Stringify(values ...ComponentValue) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(tokensText(v.Tokens()))
	}
	return sb.String()
}

func consumeComponentValues(tokens []Token, pos int, closer css.TokenType) ([]ComponentValue, *Token, int) {
	var values []ComponentValue
	for pos < len(tokens) {
		if closer != css.ErrorToken && tokens[pos].TokenType == closer {
			end := tokens[pos]
			return values, &end, pos + 1
		}
		var v ComponentValue
		v, pos = consumeComponentValue(tokens, pos)
		values = append(values, v)
	}
	return values, nil, pos
}

func consumeComponentValue(tokens []Token, pos int) (ComponentValue, int) {
	t := tokens[pos]
	switch t.TokenType {
	case css.FunctionToken:
		values, end, next := consumeComponentValues(tokens, pos+1, css.RightParenthesisToken)
		return &FunctionNode{Name: t, Value: values, End: end}, next
	case css.LeftParenthesisToken:
		values, end, next := consumeComponentValues(tokens, pos+1, css.RightParenthesisToken)
		return &BlockNode{Start: t, Value: values, End: end}, next
	case css.LeftBracketToken:
		values, end, next := consumeComponentValues(tokens, pos+1, css.RightBracketToken)
		return &BlockNode{Start: t, Value: values, End: end}, next
	case css.LeftBraceToken:
		values, end, next := consumeComponentValues(tokens, pos+1, css.RightBraceToken)
		return &BlockNode{Start: t, Value: values, End: end}, next
	}
	return &TokenNode{Token: t}, pos + 1
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(b []byte) (Dimension, bool) {
	s := string(b)

	// Find where number ends: [+-] digits [. digits] [e [+-] digits]
	i, digits := 0, 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return Dimension{}, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		// "1em" is a unit, "1e3px" is an exponent
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}

	unit := s[i:]
	if unit == "" {
		return Dimension{}, false
	}
	num, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Dimension{}, false
	}
	return Dimension{Value: num, Unit: unit}, true
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
