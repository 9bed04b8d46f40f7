package sql

import (
	"github.com/koba/sqlplay/internal/schema"
)

// Statement is the root of every parsed statement.
type Statement interface {
	stmtNode()
}

// Expr is a scalar or boolean expression.
type Expr interface {
	exprNode()
}

// CreateTableStmt is CREATE TABLE [IF NOT EXISTS] name (col type [constraints], ...).
type CreateTableStmt struct {
	Name        string
	IfNotExists bool
	Columns     []schema.Column
}

// DropTableStmt is DROP TABLE [IF EXISTS] name.
type DropTableStmt struct {
	Name     string
	IfExists bool
}

// AlterAction selects the ALTER TABLE form.
type AlterAction int

const (
	AlterAddColumn AlterAction = iota
	AlterDropColumn
	AlterRenameTable
	AlterRenameColumn
)

// AlterTableStmt is ALTER TABLE name <action>.
type AlterTableStmt struct {
	Name   string
	Action AlterAction
	// Column is the new column for ADD COLUMN.
	Column schema.Column
	// OldColumn names the column for DROP COLUMN and RENAME COLUMN.
	OldColumn string
	// NewName is the new table name or the new column name.
	NewName string
}

// InsertStmt is INSERT INTO table [(cols)] VALUES (...), (...).
type InsertStmt struct {
	Table   string
	Columns []string
	Rows    [][]Expr
	// RowText holds the source text of each tuple, used in error messages.
	RowText []string
}

// Assignment is one col = expr item of a SET clause.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt is UPDATE table SET col = expr, ... [WHERE cond].
type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       Expr
}

// DeleteStmt is DELETE FROM table [WHERE cond].
type DeleteStmt struct {
	Table string
	Where Expr
}

// SelectItem is one projection item.
type SelectItem struct {
	Expr  Expr
	Alias string
	// Text is the item's source text without the alias.
	Text string
}

// Name is the output column name of the item.
func (s SelectItem) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Text
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr Expr
	Desc bool
	Text string
}

// SelectStmt is SELECT items FROM table [WHERE] [GROUP BY] [HAVING] [ORDER BY] [LIMIT] [OFFSET].
type SelectStmt struct {
	Star    bool
	Items   []SelectItem
	Table   string
	Where   Expr
	GroupBy []Expr
	Having  Expr
	OrderBy []OrderItem
	Limit   *int
	Offset  *int
}

func (*CreateTableStmt) stmtNode() {}
func (*DropTableStmt) stmtNode()   {}
func (*AlterTableStmt) stmtNode()  {}
func (*InsertStmt) stmtNode()      {}
func (*UpdateStmt) stmtNode()      {}
func (*DeleteStmt) stmtNode()      {}
func (*SelectStmt) stmtNode()      {}

// Literal is a constant value.
type Literal struct {
	Value schema.Value
}

// DefaultExpr is the DEFAULT keyword inside an INSERT tuple.
type DefaultExpr struct{}

// ColumnRef references a column. Unresolved names evaluate as literal text.
type ColumnRef struct {
	Name string
}

// UnaryExpr is -x or NOT x.
type UnaryExpr struct {
	Op   string
	Expr Expr
}

// BinaryExpr covers arithmetic (+ - * / %), comparisons (= != < <= > >=) and AND/OR.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// LikeExpr is x [NOT] LIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Pattern Expr
	Not     bool
}

// BetweenExpr is x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Low  Expr
	High Expr
	Not  bool
}

// InExpr is x [NOT] IN (a, b, ...).
type InExpr struct {
	Expr Expr
	List []Expr
	Not  bool
}

// IsNullExpr is x IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

// WhenClause is one WHEN cond THEN result arm.
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// CaseExpr is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

// ExtractExpr is EXTRACT(part FROM expr).
type ExtractExpr struct {
	Part string
	From Expr
}

// FuncCall is name(args). Star is set for COUNT(*).
type FuncCall struct {
	Name string
	Args []Expr
	Star bool
}

// WindowExpr is func(...) OVER (PARTITION BY ... ORDER BY ...).
type WindowExpr struct {
	Func        *FuncCall
	PartitionBy []Expr
	OrderBy     []OrderItem
}

func (*Literal) exprNode()     {}
func (*DefaultExpr) exprNode() {}
func (*ColumnRef) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*LikeExpr) exprNode()    {}
func (*BetweenExpr) exprNode() {}
func (*InExpr) exprNode()      {}
func (*IsNullExpr) exprNode()  {}
func (*CaseExpr) exprNode()    {}
func (*ExtractExpr) exprNode() {}
func (*FuncCall) exprNode()    {}
func (*WindowExpr) exprNode()  {}

var aggregateNames = map[string]bool{
	"SUM": true, "AVG": true, "COUNT": true, "MIN": true, "MAX": true,
}

// IsAggregate reports whether name is one of SUM, AVG, COUNT, MIN, MAX.
func IsAggregate(name string) bool {
	return aggregateNames[name]
}

// ContainsAggregate reports whether e calls an aggregate outside of a window.
func ContainsAggregate(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		switch x := n.(type) {
		case *WindowExpr:
			return false
		case *FuncCall:
			if IsAggregate(x.Name) {
				found = true
				return false
			}
		}
		return !found
	})
	return found
}

// Walk visits e and its children depth-first while fn returns true.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *UnaryExpr:
		Walk(x.Expr, fn)
	case *BinaryExpr:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	case *LikeExpr:
		Walk(x.Expr, fn)
		Walk(x.Pattern, fn)
	case *BetweenExpr:
		Walk(x.Expr, fn)
		Walk(x.Low, fn)
		Walk(x.High, fn)
	case *InExpr:
		Walk(x.Expr, fn)
		for _, item := range x.List {
			Walk(item, fn)
		}
	case *IsNullExpr:
		Walk(x.Expr, fn)
	case *CaseExpr:
		Walk(x.Operand, fn)
		for _, w := range x.Whens {
			Walk(w.Cond, fn)
			Walk(w.Result, fn)
		}
		Walk(x.Else, fn)
	case *ExtractExpr:
		Walk(x.From, fn)
	case *FuncCall:
		for _, arg := range x.Args {
			Walk(arg, fn)
		}
	case *WindowExpr:
		Walk(x.Func, fn)
		for _, p := range x.PartitionBy {
			Walk(p, fn)
		}
		for _, o := range x.OrderBy {
			Walk(o.Expr, fn)
		}
	}
}
