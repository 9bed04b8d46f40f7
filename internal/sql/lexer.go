package sql

import (
	"strings"
)

// Lexer tokenizes SQL input. Comments are skipped like whitespace.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			l.pos++
		case ch == '-' && l.peekAt(1) == '-':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.peekAt(1) == '*':
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.input)
			} else {
				l.pos += end + 4
			}
		default:
			return
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start, End: start}
	}

	ch := l.input[l.pos]
	single := func(tt TokenType) Token {
		l.pos++
		return Token{Type: tt, Literal: string(ch), Pos: start, End: l.pos}
	}
	double := func(tt TokenType) Token {
		l.pos += 2
		return Token{Type: tt, Literal: l.input[start:l.pos], Pos: start, End: l.pos}
	}

	switch ch {
	case ',':
		return single(TokenComma)
	case '(':
		return single(TokenLParen)
	case ')':
		return single(TokenRParen)
	case ';':
		return single(TokenSemicolon)
	case '+':
		return single(TokenPlus)
	case '-':
		return single(TokenMinus)
	case '*':
		return single(TokenStar)
	case '/':
		return single(TokenSlash)
	case '%':
		return single(TokenPercent)
	case '=':
		if l.peekAt(1) == '=' {
			return double(TokenEq)
		}
		return single(TokenEq)
	case '!':
		if l.peekAt(1) == '=' {
			return double(TokenNe)
		}
		return single(TokenIllegal)
	case '<':
		switch l.peekAt(1) {
		case '=':
			return double(TokenLe)
		case '>':
			return double(TokenNe)
		}
		return single(TokenLt)
	case '>':
		if l.peekAt(1) == '=' {
			return double(TokenGe)
		}
		return single(TokenGt)
	case '\'', '"':
		return l.readString(ch)
	case '`':
		return l.readQuotedIdent()
	case '.':
		if isDigit(l.peekAt(1)) {
			return l.readNumber()
		}
		return single(TokenDot)
	}

	if isDigit(ch) {
		return l.readNumber()
	}
	if isIdentStart(ch) {
		return l.readIdentifier()
	}
	return single(TokenIllegal)
}

// readString reads a quoted string. A doubled quote inside the string stands for one quote.
func (l *Lexer) readString(quote byte) Token {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			if l.peekAt(1) == quote {
				sb.WriteByte(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: TokenString, Literal: sb.String(), Pos: start, End: l.pos}
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return Token{Type: TokenIllegal, Literal: l.input[start:], Pos: start, End: l.pos}
}

func (l *Lexer) readQuotedIdent() Token {
	start := l.pos
	end := strings.IndexByte(l.input[l.pos+1:], '`')
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: TokenIllegal, Literal: l.input[start:], Pos: start, End: l.pos}
	}
	l.pos += end + 2
	return Token{Type: TokenQuotedIdent, Literal: l.input[start+1 : l.pos-1], Pos: start, End: l.pos}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			l.pos += 2
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		}
	}
	// 12abc is a word, not a number followed by a word
	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start, End: l.pos}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start, End: l.pos}
}

func (l *Lexer) readIdentifier() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start, End: l.pos}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

// Tokenize returns all tokens up to and including EOF.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token
	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// Split splits s on sep wherever sep appears outside quotes, parentheses and comments.
// Segments are trimmed and empty segments are dropped.
func Split(s string, sep byte) []string {
	var parts []string
	lexer := NewLexer(s)
	depth := 0
	segStart := 0
	flush := func(end int) {
		if part := strings.TrimSpace(s[segStart:end]); part != "" && !onlyComments(part) {
			parts = append(parts, part)
		}
	}
	for {
		tok := lexer.NextToken()
		if tok.Type == TokenEOF {
			flush(len(s))
			return parts
		}
		switch tok.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && len(tok.Literal) == 1 && tok.Literal[0] == sep &&
				tok.Type != TokenString && tok.Type != TokenQuotedIdent {
				flush(tok.Pos)
				segStart = tok.End
			}
		}
	}
}

func onlyComments(s string) bool {
	return NewLexer(s).NextToken().Type == TokenEOF
}

// IndexKeyword returns the byte offset of the first whole-word, case-insensitive occurrence of
// kw outside quotes, parentheses and comments, or -1.
func IndexKeyword(s, kw string) int {
	lexer := NewLexer(s)
	depth := 0
	for {
		tok := lexer.NextToken()
		switch tok.Type {
		case TokenEOF:
			return -1
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth > 0 {
				depth--
			}
		case TokenIdent:
			if depth == 0 && strings.EqualFold(tok.Literal, kw) {
				return tok.Pos
			}
		}
	}
}
