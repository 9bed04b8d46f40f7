package sql

// parseSelect parses:
//
//	SELECT *|item [AS alias], ... FROM table [WHERE cond] [GROUP BY e, ...] [HAVING cond]
//	    [ORDER BY e [ASC|DESC], ...] [LIMIT n] [OFFSET m]
func (p *parser) parseSelect() (Statement, error) {
	// EXTRACT(YEAR FROM d) must not count as the FROM clause
	if IndexKeyword(p.src, "FROM") < 0 {
		return nil, &SyntaxError{Msg: missingFrom}
	}
	p.next() // SELECT

	stmt := &SelectStmt{}
	if p.peek().Type == TokenStar && p.peekN(1).Is("FROM") {
		p.next()
		stmt.Star = true
	} else {
		for {
			item, err := p.parseSelectItem()
			if err != nil {
				return nil, err
			}
			stmt.Items = append(stmt.Items, item)
			if !p.accept(TokenComma) {
				break
			}
		}
	}

	if !p.acceptKeyword("FROM") {
		if p.peek().Type == TokenEOF {
			return nil, &SyntaxError{Msg: missingFrom}
		}
		return nil, p.errorf()
	}
	table, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.acceptKeyword("WHERE") {
		if stmt.Where, err = p.parseCondition(); err != nil {
			return nil, err
		}
		if ContainsAggregate(stmt.Where) {
			return nil, &SyntaxError{Msg: "Aggregate functions are not allowed in WHERE"}
		}
	}

	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if stmt.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
		for _, e := range stmt.GroupBy {
			if containsWindow(e) || ContainsAggregate(e) {
				return nil, p.errorf()
			}
		}
	}

	if p.acceptKeyword("HAVING") {
		if stmt.Having, err = p.parseCondition(); err != nil {
			return nil, err
		}
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if stmt.OrderBy, err = p.parseOrderList(); err != nil {
			return nil, err
		}
		for _, o := range stmt.OrderBy {
			if containsWindow(o.Expr) {
				return nil, p.windowNotAllowed()
			}
		}
	}

	if p.acceptKeyword("LIMIT") {
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
	}
	if p.acceptKeyword("OFFSET") {
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		stmt.Offset = &n
	}

	return stmt, nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	first := p.peek()
	e, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e, Text: p.text(first.Pos, p.prevEnd())}
	if ref, ok := e.(*ColumnRef); ok && first.Type == TokenQuotedIdent && first.End == p.prevEnd() {
		item.Text = ref.Name
	}

	if _, top := e.(*WindowExpr); !top && containsWindow(e) {
		return SelectItem{}, p.windowNotAllowed()
	}

	if p.acceptKeyword("AS") {
		alias, err := p.parseName(true)
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	} else if tok := p.peek(); tok.Type == TokenQuotedIdent || (tok.Type == TokenIdent && !IsReserved(tok.Literal)) {
		p.next()
		item.Alias = tok.Literal
	}
	return item, nil
}

// parseCondition parses a WHERE/HAVING predicate. Windows are rejected there.
func (p *parser) parseCondition() (Expr, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if containsWindow(cond) {
		return nil, p.windowNotAllowed()
	}
	return cond, nil
}
