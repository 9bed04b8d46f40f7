package sql

import (
	"errors"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the input holds nothing but whitespace and comments.
var ErrEmpty = errors.New("Query is empty")

type parser struct {
	src    string
	tokens []Token
	pos    int
	// usage is the message reported for syntax errors in the current statement
	usage string
	// allowDefault lets DEFAULT appear as a value (INSERT tuples)
	allowDefault bool
}

func newParser(src string, tokens []Token) *parser {
	return &parser{src: src, tokens: tokens}
}

// Parse parses a single statement into an AST Statement.
// A trailing semicolon is allowed; anything after it is rejected.
func Parse(query string) (Statement, error) {
	tokens := Tokenize(query)
	p := newParser(query, tokens)

	first := p.peek()
	if first.Type == TokenEOF {
		return nil, ErrEmpty
	}

	var (
		stmt Statement
		err  error
	)
	switch {
	case first.Is("SELECT"):
		p.usage = usageSelect
		stmt, err = p.parseSelect()
	case first.Is("INSERT") && p.peekN(1).Is("INTO"):
		p.usage = usageInsert
		stmt, err = p.parseInsert()
	case first.Is("UPDATE"):
		p.usage = usageUpdate
		stmt, err = p.parseUpdate()
	case first.Is("DELETE") && p.peekN(1).Is("FROM"):
		p.usage = usageDelete
		stmt, err = p.parseDelete()
	case first.Is("CREATE") && p.peekN(1).Is("TABLE"):
		p.usage = usageCreateTable
		stmt, err = p.parseCreateTable()
	case first.Is("DROP") && p.peekN(1).Is("TABLE"):
		p.usage = usageDropTable
		stmt, err = p.parseDropTable()
	case first.Is("ALTER") && p.peekN(1).Is("TABLE"):
		p.usage = usageAlterTable
		stmt, err = p.parseAlterTable()
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	if p.accept(TokenSemicolon) {
		for p.accept(TokenSemicolon) {
		}
		if p.peek().Type != TokenEOF {
			return nil, ErrUnsupported
		}
	}
	if p.peek().Type != TokenEOF {
		return nil, p.errorf()
	}
	return stmt, nil
}

func (p *parser) peek() Token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// prevEnd is the end offset of the last consumed token
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.tokens[p.pos-1].End
}

func (p *parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().Is(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(tt TokenType) (Token, error) {
	if p.peek().Type != tt {
		return Token{}, p.errorf()
	}
	return p.next(), nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.errorf()
	}
	return nil
}

// errorf reports a syntax error at the current token
func (p *parser) errorf() error {
	tok := p.peek()
	near := tok.Literal
	if tok.Type == TokenEOF {
		near = ""
	}
	return &SyntaxError{Msg: p.usage, Near: near}
}

// parseName reads a table or column name. Quoted strings are accepted where
// allowString is set, matching INSERT column lists like ("id", "name").
func (p *parser) parseName(allowString bool) (string, error) {
	tok := p.peek()
	switch {
	case tok.Type == TokenIdent && !IsReserved(tok.Literal):
		p.next()
		return tok.Literal, nil
	case tok.Type == TokenQuotedIdent:
		p.next()
		return tok.Literal, nil
	case allowString && tok.Type == TokenString:
		p.next()
		return tok.Literal, nil
	}
	return "", p.errorf()
}

func (p *parser) parseInt() (int, error) {
	tok := p.peek()
	if tok.Type != TokenNumber {
		return 0, p.errorf()
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil || n < 0 {
		return 0, p.errorf()
	}
	p.next()
	return n, nil
}

// text returns the trimmed source between two offsets
func (p *parser) text(start, end int) string {
	if start > end || end > len(p.src) {
		return ""
	}
	return strings.TrimSpace(p.src[start:end])
}

// restText returns the source from the current token to the end of the statement
func (p *parser) restText() string {
	start := p.peek().Pos
	end := len(p.src)
	for i := p.pos; i < len(p.tokens); i++ {
		if p.tokens[i].Type == TokenSemicolon || p.tokens[i].Type == TokenEOF {
			end = p.tokens[i].Pos
			break
		}
	}
	return p.text(start, end)
}

// containsWindow reports whether a window expression appears anywhere in e
func containsWindow(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if _, ok := n.(*WindowExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

func (p *parser) windowNotAllowed() error {
	return &SyntaxError{Msg: "Window functions are only allowed as a whole select item"}
}
