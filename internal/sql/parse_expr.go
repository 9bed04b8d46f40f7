package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// scalarFunctions lists the non-aggregate functions the evaluator implements
var scalarFunctions = map[string]bool{
	"UPPER": true, "LOWER": true, "LENGTH": true, "ABS": true, "ROUND": true, "COALESCE": true,
}

// windowFunctions lists the functions accepted before OVER
var windowFunctions = map[string]bool{
	"ROW_NUMBER": true, "SUM": true, "AVG": true, "COUNT": true,
}

// ParseExpr parses a standalone expression.
func ParseExpr(s string) (Expr, error) {
	p := newParser(s, Tokenize(s))
	p.usage = "Syntax error in expression"
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokenEOF {
		return nil, p.errorf()
	}
	return e, nil
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.acceptKeyword("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Expr: inner}, nil
	}
	return p.parsePredicate()
}

func comparisonOp(tt TokenType) (string, bool) {
	switch tt {
	case TokenEq:
		return "=", true
	case TokenNe:
		return "!=", true
	case TokenLt:
		return "<", true
	case TokenLe:
		return "<=", true
	case TokenGt:
		return ">", true
	case TokenGe:
		return ">=", true
	}
	return "", false
}

func (p *parser) parsePredicate() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if op, ok := comparisonOp(p.peek().Type); ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil
	}

	not := false
	if p.peek().Is("NOT") {
		following := p.peekN(1)
		if following.Is("LIKE") || following.Is("BETWEEN") || following.Is("IN") {
			p.next()
			not = true
		}
	}

	switch {
	case p.acceptKeyword("LIKE"):
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &LikeExpr{Expr: left, Pattern: pattern, Not: not}, nil

	case p.acceptKeyword("BETWEEN"):
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Expr: left, Low: low, High: high, Not: not}, nil

	case p.acceptKeyword("IN"):
		if _, err := p.expect(TokenLParen); err != nil {
			return nil, err
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &InExpr{Expr: left, List: list, Not: not}, nil

	case p.acceptKeyword("IS"):
		isNot := p.acceptKeyword("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return &IsNullExpr{Expr: left, Not: isNot}, nil
	}

	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case TokenPlus:
			op = "+"
		case TokenMinus:
			op = "-"
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case TokenStar:
			op = "*"
		case TokenSlash:
			op = "/"
		case TokenPercent:
			op = "%"
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case TokenMinus:
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := inner.(*Literal); ok && lit.Value.Kind == schema.KindNumber {
			return &Literal{Value: schema.Number(-lit.Value.Num)}, nil
		}
		return &UnaryExpr{Op: "-", Expr: inner}, nil
	case TokenPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.next()
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &SyntaxError{Msg: p.usage, Near: tok.Literal}
		}
		return &Literal{Value: schema.Number(n)}, nil

	case TokenString:
		p.next()
		return &Literal{Value: schema.Text(tok.Literal)}, nil

	case TokenQuotedIdent:
		p.next()
		return &ColumnRef{Name: tok.Literal}, nil

	case TokenLParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenIdent:
		return p.parseWord()
	}

	return nil, p.errorf()
}

// parseWord handles keywords, function calls and column references
func (p *parser) parseWord() (Expr, error) {
	tok := p.peek()
	upper := strings.ToUpper(tok.Literal)

	switch upper {
	case "NULL":
		p.next()
		return &Literal{Value: schema.Null()}, nil
	case "TRUE", "FALSE":
		p.next()
		return &Literal{Value: schema.Boolean(upper == "TRUE")}, nil
	case "CASE":
		return p.parseCase()
	case "DEFAULT":
		if p.allowDefault {
			p.next()
			return &DefaultExpr{}, nil
		}
	case "DATE":
		if next := p.peekN(1); next.Type == TokenString {
			p.next()
			p.next()
			if t, ok := schema.ParseDate(next.Literal); ok {
				return &Literal{Value: schema.Date(t)}, nil
			}
			return &Literal{Value: schema.Text(next.Literal)}, nil
		}
	case "EXTRACT":
		if p.peekN(1).Type == TokenLParen {
			return p.parseExtract()
		}
	}

	if p.peekN(1).Type == TokenLParen && !IsReserved(upper) {
		return p.parseFuncCall()
	}

	if IsReserved(upper) {
		return nil, p.errorf()
	}
	p.next()

	// table.column qualifies a column of the single FROM table
	if p.peek().Type == TokenDot {
		p.next()
		name, err := p.parseName(false)
		if err != nil {
			return nil, err
		}
		return &ColumnRef{Name: name}, nil
	}
	return &ColumnRef{Name: tok.Literal}, nil
}

func (p *parser) parseExprList() ([]Expr, error) {
	var list []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.accept(TokenComma) {
			return list, nil
		}
	}
}

func (p *parser) parseCase() (Expr, error) {
	p.next() // CASE
	c := &CaseExpr{}

	if !p.peek().Is("WHEN") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Operand = operand
	}

	for p.acceptKeyword("WHEN") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, WhenClause{Cond: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		return nil, p.errorf()
	}

	if p.acceptKeyword("ELSE") {
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Else = elseExpr
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) parseExtract() (Expr, error) {
	p.next() // EXTRACT
	p.next() // (
	partTok := p.peek()
	if partTok.Type != TokenIdent {
		return nil, p.errorf()
	}
	p.next()
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &ExtractExpr{Part: strings.ToUpper(partTok.Literal), From: from}, nil
}

func (p *parser) parseFuncCall() (Expr, error) {
	nameTok := p.next()
	name := strings.ToUpper(nameTok.Literal)
	p.next() // (

	call := &FuncCall{Name: name}
	switch {
	case p.peek().Type == TokenStar:
		if name != "COUNT" {
			return nil, p.errorf()
		}
		p.next()
		call.Star = true
	case p.peek().Type != TokenRParen:
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		call.Args = args
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	if p.peek().Is("OVER") {
		return p.parseWindow(call)
	}

	switch {
	case IsAggregate(name):
		if !call.Star && len(call.Args) != 1 {
			return nil, &SyntaxError{Msg: fmt.Sprintf("%s expects exactly one argument", name)}
		}
	case scalarFunctions[name]:
	case windowFunctions[name]:
		return nil, &SyntaxError{Msg: fmt.Sprintf("%s requires an OVER clause", name)}
	default:
		return nil, &SyntaxError{Msg: fmt.Sprintf("Unknown function '%s'", nameTok.Literal)}
	}
	return call, nil
}

func (p *parser) parseWindow(call *FuncCall) (Expr, error) {
	p.next() // OVER
	if !windowFunctions[call.Name] {
		return nil, &SyntaxError{Msg: fmt.Sprintf("Unsupported window function '%s'", call.Name)}
	}
	if call.Name != "ROW_NUMBER" && !call.Star && len(call.Args) != 1 {
		return nil, &SyntaxError{Msg: fmt.Sprintf("%s expects exactly one argument", call.Name)}
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	w := &WindowExpr{Func: call}
	if p.acceptKeyword("PARTITION") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		parts, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		w.PartitionBy = parts
	}
	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		order, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		w.OrderBy = order
	}
	// frame clauses (ROWS BETWEEN ...) are accepted and ignored
	if p.peek().Is("ROWS") || p.peek().Is("RANGE") {
		for depth := 0; ; {
			tok := p.peek()
			if tok.Type == TokenEOF || (tok.Type == TokenRParen && depth == 0) {
				break
			}
			if tok.Type == TokenLParen {
				depth++
			} else if tok.Type == TokenRParen {
				depth--
			}
			p.next()
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return w, nil
}

func (p *parser) parseOrderList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		start := p.peek().Pos
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: e, Text: p.text(start, p.prevEnd())}
		if p.acceptKeyword("DESC") {
			item.Desc = true
		} else {
			p.acceptKeyword("ASC")
		}
		items = append(items, item)
		if !p.accept(TokenComma) {
			return items, nil
		}
	}
}
