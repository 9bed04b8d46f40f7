package sql

// parseUpdate parses: UPDATE table SET col = expr, ... [WHERE cond]
func (p *parser) parseUpdate() (Statement, error) {
	p.next() // UPDATE

	table, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: table}

	for {
		setText := p.restText()
		col, err := p.parseName(true)
		if err != nil {
			return nil, &SyntaxError{Msg: "Invalid SET clause: " + setText}
		}
		if !p.accept(TokenEq) {
			return nil, &SyntaxError{Msg: "Invalid SET clause: " + setText}
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if containsWindow(value) || ContainsAggregate(value) {
			return nil, &SyntaxError{Msg: "Invalid SET clause: " + setText}
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: value})
		if !p.accept(TokenComma) {
			break
		}
	}

	if p.acceptKeyword("WHERE") {
		if stmt.Where, err = p.parseCondition(); err != nil {
			return nil, err
		}
		if ContainsAggregate(stmt.Where) {
			return nil, &SyntaxError{Msg: "Aggregate functions are not allowed in WHERE"}
		}
	}
	return stmt, nil
}
