package sql

// parseAlterTable parses:
//
//	ALTER TABLE name ADD [COLUMN] col type [constraints]
//	ALTER TABLE name DROP [COLUMN] col
//	ALTER TABLE name RENAME TO new_name
//	ALTER TABLE name RENAME [COLUMN] old TO new
func (p *parser) parseAlterTable() (Statement, error) {
	p.next() // ALTER
	p.next() // TABLE

	name, err := p.parseName(false)
	if err != nil {
		return nil, err
	}
	stmt := &AlterTableStmt{Name: name}

	switch {
	case p.acceptKeyword("ADD"):
		p.acceptKeyword("COLUMN")
		col, err := p.parseColumnDef("Invalid column definition in ALTER TABLE")
		if err != nil {
			return nil, err
		}
		stmt.Action = AlterAddColumn
		stmt.Column = col

	case p.acceptKeyword("DROP"):
		p.acceptKeyword("COLUMN")
		col, err := p.parseName(false)
		if err != nil {
			return nil, err
		}
		stmt.Action = AlterDropColumn
		stmt.OldColumn = col

	case p.acceptKeyword("RENAME"):
		if p.acceptKeyword("TO") {
			newName, err := p.parseName(false)
			if err != nil {
				return nil, err
			}
			stmt.Action = AlterRenameTable
			stmt.NewName = newName
			break
		}
		p.acceptKeyword("COLUMN")
		oldName, err := p.parseName(false)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("TO"); err != nil {
			return nil, err
		}
		newName, err := p.parseName(false)
		if err != nil {
			return nil, err
		}
		stmt.Action = AlterRenameColumn
		stmt.OldColumn = oldName
		stmt.NewName = newName

	default:
		return nil, &SyntaxError{Msg: p.usage}
	}
	return stmt, nil
}
