package sql

// parseDropTable parses: DROP TABLE [IF EXISTS] name
func (p *parser) parseDropTable() (Statement, error) {
	p.next() // DROP
	p.next() // TABLE

	stmt := &DropTableStmt{}
	if p.peek().Is("IF") && p.peekN(1).Is("EXISTS") {
		p.next()
		p.next()
		stmt.IfExists = true
	}
	name, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	return stmt, nil
}
