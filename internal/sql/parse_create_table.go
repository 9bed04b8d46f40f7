package sql

import (
	"fmt"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// parseCreateTable parses:
//
//	CREATE TABLE [IF NOT EXISTS] name (col type [constraints], ..., [PRIMARY KEY (col)], [UNIQUE (col)])
func (p *parser) parseCreateTable() (Statement, error) {
	p.next() // CREATE
	p.next() // TABLE

	stmt := &CreateTableStmt{}
	if p.peek().Is("IF") {
		p.next()
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}

	name, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	if p.peek().Type == TokenRParen {
		return nil, p.errorf()
	}

	var primary, unique []string
	for {
		switch {
		case p.peek().Is("PRIMARY") && p.peekN(1).Is("KEY"):
			cols, err := p.parseTableConstraint(2)
			if err != nil {
				return nil, err
			}
			primary = append(primary, cols...)
		case p.peek().Is("UNIQUE") && p.peekN(1).Type == TokenLParen:
			cols, err := p.parseTableConstraint(1)
			if err != nil {
				return nil, err
			}
			unique = append(unique, cols...)
		default:
			col, err := p.parseColumnDef("Invalid column definition")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if len(stmt.Columns) == 0 {
		return nil, &SyntaxError{Msg: p.usage}
	}
	if len(primary) > 1 {
		return nil, &SyntaxError{Msg: "Composite PRIMARY KEY is not supported"}
	}

	for _, name := range primary {
		col := findColumn(stmt.Columns, name)
		if col == nil {
			return nil, &SyntaxError{Msg: fmt.Sprintf("Invalid column definition: PRIMARY KEY (%s)", name)}
		}
		col.PrimaryKey, col.NotNull, col.Unique = true, true, true
	}
	for _, name := range unique {
		col := findColumn(stmt.Columns, name)
		if col == nil {
			return nil, &SyntaxError{Msg: fmt.Sprintf("Invalid column definition: UNIQUE (%s)", name)}
		}
		col.Unique = true
	}
	return stmt, nil
}

func findColumn(cols []schema.Column, name string) *schema.Column {
	for i := range cols {
		if strings.EqualFold(cols[i].Name, name) {
			return &cols[i]
		}
	}
	return nil
}

// parseTableConstraint reads the (col, ...) list after skip keyword tokens
func (p *parser) parseTableConstraint(skip int) ([]string, error) {
	for i := 0; i < skip; i++ {
		p.next()
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var cols []string
	for {
		name, err := p.parseName(true)
		if err != nil {
			return nil, err
		}
		cols = append(cols, name)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return cols, nil
}

// defEnd returns the index of the token ending the column definition starting at p.pos
func (p *parser) defEnd() int {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				return i
			}
			depth--
		case TokenComma:
			if depth == 0 {
				return i
			}
		case TokenSemicolon, TokenEOF:
			return i
		}
	}
	return len(p.tokens) - 1
}

// parseColumnDef parses <name> <type>[(n[,m])] [PRIMARY KEY|NOT NULL|NULL|UNIQUE|DEFAULT lit]*.
// Failures are reported as "<invalid>: <definition text>".
func (p *parser) parseColumnDef(invalid string) (schema.Column, error) {
	end := p.defEnd()
	startPos := p.peek().Pos
	fail := func() (schema.Column, error) {
		text := p.text(startPos, p.tokens[end].Pos)
		p.pos = end
		return schema.Column{}, &SyntaxError{Msg: fmt.Sprintf("%s: %s", invalid, text)}
	}

	name, err := p.parseName(false)
	if err != nil {
		return fail()
	}
	typeTok := p.peek()
	if typeTok.Type != TokenIdent {
		return fail()
	}
	p.next()
	col := schema.Column{Name: name, Type: strings.ToUpper(typeTok.Literal)}

	if p.accept(TokenLParen) {
		size, err := p.parseInt()
		if err != nil {
			return fail()
		}
		typ := fmt.Sprintf("%s(%d", col.Type, size)
		if p.accept(TokenComma) {
			scale, err := p.parseInt()
			if err != nil {
				return fail()
			}
			typ += fmt.Sprintf(",%d", scale)
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return fail()
		}
		col.Type = typ + ")"
	}

	for p.pos < end {
		switch {
		case p.acceptKeyword("PRIMARY"):
			if !p.acceptKeyword("KEY") {
				return fail()
			}
			col.PrimaryKey, col.NotNull, col.Unique = true, true, true
		case p.acceptKeyword("NOT"):
			if !p.acceptKeyword("NULL") {
				return fail()
			}
			col.NotNull = true
		case p.acceptKeyword("NULL"):
		case p.acceptKeyword("UNIQUE"):
			col.Unique = true
		case p.acceptKeyword("DEFAULT"):
			v, ok := p.parseDefaultLiteral()
			if !ok {
				return fail()
			}
			col.Default = &v
		default:
			return fail()
		}
	}
	return col, nil
}

// parseDefaultLiteral reads a literal for DEFAULT: number, -number, string, NULL, TRUE, FALSE.
func (p *parser) parseDefaultLiteral() (schema.Value, bool) {
	e, err := p.parseUnary()
	if err != nil {
		return schema.Value{}, false
	}
	switch x := e.(type) {
	case *Literal:
		return x.Value, true
	case *ColumnRef:
		// bare words are text, like any other unresolved literal
		return ParseValue(x.Name), true
	}
	return schema.Value{}, false
}
