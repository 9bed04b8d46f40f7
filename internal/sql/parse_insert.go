package sql

// parseInsert parses: INSERT INTO table [(col1, col2)] VALUES (v1, v2), (v3, v4)
func (p *parser) parseInsert() (Statement, error) {
	p.next() // INSERT
	p.next() // INTO

	table, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Table: table}

	if p.accept(TokenLParen) {
		for {
			col, err := p.parseName(true)
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if !p.accept(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if p.peek().Type != TokenLParen {
		return nil, &SyntaxError{Msg: "No values provided for insertion"}
	}

	p.allowDefault = true
	defer func() { p.allowDefault = false }()

	for {
		open, err := p.expect(TokenLParen)
		if err != nil {
			return nil, err
		}
		var values []Expr
		if p.peek().Type != TokenRParen {
			if values, err = p.parseExprList(); err != nil {
				return nil, err
			}
		}
		closing, err := p.expect(TokenRParen)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if containsWindow(v) || ContainsAggregate(v) {
				return nil, &SyntaxError{Msg: p.usage}
			}
		}
		stmt.Rows = append(stmt.Rows, values)
		stmt.RowText = append(stmt.RowText, p.text(open.Pos, closing.End))
		if !p.accept(TokenComma) {
			break
		}
	}
	return stmt, nil
}
