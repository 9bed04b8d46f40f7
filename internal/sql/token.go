// Package sql tokenizes and parses the statements understood by the playground engine.
package sql

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent       // name or keyword
	TokenQuotedIdent // `name`
	TokenNumber
	TokenString

	TokenEq        // =
	TokenNe        // != or <>
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenComma     // ,
	TokenDot       // .
	TokenLParen    // (
	TokenRParen    // )
	TokenSemicolon // ;
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenIllegal:     "ILLEGAL",
	TokenIdent:       "IDENT",
	TokenQuotedIdent: "QUOTED_IDENT",
	TokenNumber:      "NUMBER",
	TokenString:      "STRING",
	TokenEq:          "=",
	TokenNe:          "!=",
	TokenLt:          "<",
	TokenLe:          "<=",
	TokenGt:          ">",
	TokenGe:          ">=",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenPercent:     "%",
	TokenComma:       ",",
	TokenDot:         ".",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenSemicolon:   ";",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token. Pos and End are byte offsets into the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	End     int
}

func (t Token) String() string {
	return fmt.Sprintf("{%s %q}", t.Type, t.Literal)
}

// Is reports whether t is the bare word kw, compared case-insensitively.
func (t Token) Is(kw string) bool {
	return t.Type == TokenIdent && strings.EqualFold(t.Literal, kw)
}

// reserved words never resolve to column references inside expressions
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "INSERT": true, "INTO": true,
	"VALUES": true, "UPDATE": true, "SET": true, "DELETE": true, "CREATE": true,
	"TABLE": true, "DROP": true, "ALTER": true, "AND": true, "OR": true,
	"NOT": true, "NULL": true, "TRUE": true, "FALSE": true, "AS": true,
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"BETWEEN": true, "LIKE": true, "IN": true, "IS": true, "OVER": true,
	"PARTITION": true, "ORDER": true, "BY": true, "GROUP": true, "HAVING": true,
	"LIMIT": true, "OFFSET": true, "ASC": true, "DESC": true, "DEFAULT": true,
}

// IsReserved reports whether word is a reserved keyword.
func IsReserved(word string) bool {
	return reserved[strings.ToUpper(word)]
}
