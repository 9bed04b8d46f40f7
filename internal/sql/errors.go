package sql

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned for statements the engine does not understand.
var ErrUnsupported = errors.New("Only SELECT, INSERT, UPDATE, DELETE, CREATE TABLE, DROP TABLE queries are supported.")

// Usage messages naming the expected form of each statement.
const (
	usageCreateTable = "Syntax error in CREATE TABLE. Expected: CREATE TABLE name (col type, ...)"
	usageDropTable   = "Syntax error in DROP TABLE. Expected: DROP TABLE name"
	usageAlterTable  = "Syntax error in ALTER TABLE. Supported: ADD COLUMN, DROP COLUMN, RENAME TO, RENAME COLUMN"
	usageInsert      = "Syntax error. Expected: INSERT INTO table (col1, col2) VALUES (val1, val2), (val3, val4)"
	usageUpdate      = "Syntax error. Expected: UPDATE table SET col = val WHERE condition"
	usageDelete      = "Syntax error. Expected: DELETE FROM table WHERE condition"
	usageSelect      = "Syntax error in SELECT"
	missingFrom      = "Syntax error: Missing FROM clause"
)

// SyntaxError reports a statement that does not match its expected shape.
type SyntaxError struct {
	Msg  string
	Near string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (near %q)", e.Msg, e.Near)
}
