// Package seed provides the sample dataset a fresh playground starts with.
package seed

import (
	"github.com/koba/sqlplay/internal/schema"
)

func col(name, typ string) schema.Column {
	return schema.Column{Name: name, Type: typ}
}

func row(cols []schema.Column, values ...schema.Value) schema.Row {
	r := make(schema.Row, len(cols))
	for i, c := range cols {
		r[c.Name] = values[i]
	}
	return r
}

var (
	num  = schema.Number
	text = schema.Text
)

// Snapshot returns a fresh copy of the sample dataset
func Snapshot() *schema.Snapshot {
	return schema.NewSnapshot(
		departments(),
		customers(),
		products(),
		orders(),
		sales(),
	)
}

func departments() *schema.Table {
	cols := []schema.Column{col("id", "INTEGER"), col("name", "VARCHAR"), col("location", "VARCHAR")}
	return &schema.Table{
		Name:    "departments",
		Columns: cols,
		Data: []schema.Row{
			row(cols, num(1), text("Engineering"), text("Building A")),
			row(cols, num(2), text("HR"), text("Building B")),
			row(cols, num(3), text("Sales"), text("Building C")),
			row(cols, num(4), text("Marketing"), text("Building A")),
		},
	}
}

func customers() *schema.Table {
	cols := []schema.Column{col("id", "INTEGER"), col("name", "VARCHAR"), col("email", "VARCHAR"), col("department_id", "INTEGER")}
	return &schema.Table{
		Name:    "customers",
		Columns: cols,
		Data: []schema.Row{
			row(cols, num(1), text("Alice Johnson"), text("alice@example.com"), num(1)),
			row(cols, num(2), text("Bob Smith"), text("bob@example.com"), num(3)),
			row(cols, num(3), text("Charlie Brown"), text("charlie@example.com"), num(2)),
			row(cols, num(4), text("Diana Prince"), text("diana@example.com"), num(1)),
			row(cols, num(5), text("Evan Wright"), text("evan@example.com"), num(4)),
		},
	}
}

func products() *schema.Table {
	cols := []schema.Column{col("id", "INTEGER"), col("name", "VARCHAR"), col("price", "DECIMAL"), col("stock", "INTEGER"), col("category", "VARCHAR")}
	return &schema.Table{
		Name:    "products",
		Columns: cols,
		Data: []schema.Row{
			row(cols, num(101), text("Wireless Mouse"), num(29.99), num(150), text("Electronics")),
			row(cols, num(102), text("Mechanical Keyboard"), num(89.99), num(75), text("Electronics")),
			row(cols, num(103), text("Monitor 24inch"), num(199.99), num(30), text("Electronics")),
			row(cols, num(104), text("Coffee Mug"), num(12.50), num(200), text("Kitchen")),
			row(cols, num(105), text("Notebook"), num(5.99), num(500), text("Stationery")),
		},
	}
}

func orders() *schema.Table {
	cols := []schema.Column{col("id", "INTEGER"), col("customer_id", "INTEGER"), col("total", "DECIMAL"), col("status", "VARCHAR"), col("created_at", "DATETIME")}
	return &schema.Table{
		Name:    "orders",
		Columns: cols,
		Data: []schema.Row{
			row(cols, num(1001), num(1), num(29.99), text("completed"), text("2023-10-01")),
			row(cols, num(1002), num(2), num(102.49), text("pending"), text("2023-10-02")),
			row(cols, num(1003), num(1), num(199.99), text("completed"), text("2023-10-05")),
			row(cols, num(1004), num(3), num(12.50), text("shipped"), text("2023-10-06")),
			row(cols, num(1005), num(4), num(95.98), text("cancelled"), text("2023-10-08")),
		},
	}
}

func sales() *schema.Table {
	cols := []schema.Column{col("id", "INTEGER"), col("sale_date", "DATE"), col("region", "VARCHAR"), col("salesperson", "VARCHAR"), col("amount", "DECIMAL")}
	return &schema.Table{
		Name:    "sales",
		Columns: cols,
		Data: []schema.Row{
			row(cols, num(1), text("2022-01-01"), text("North"), text("Alice"), num(100)),
			row(cols, num(2), text("2022-01-02"), text("South"), text("Bob"), num(200)),
			row(cols, num(3), text("2022-01-03"), text("North"), text("Alice"), num(150)),
			row(cols, num(4), text("2022-01-04"), text("East"), text("Charlie"), num(300)),
			row(cols, num(5), text("2022-01-05"), text("South"), text("Bob"), num(100)),
			row(cols, num(6), text("2022-01-06"), text("North"), text("Alice"), num(50)),
		},
	}
}
