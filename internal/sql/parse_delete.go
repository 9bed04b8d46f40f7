package sql

// parseDelete parses: DELETE FROM table [WHERE cond]
func (p *parser) parseDelete() (Statement, error) {
	p.next() // DELETE
	p.next() // FROM

	table, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Table: table}

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
