package sql

import (
	"math"
	"strconv"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// ParseValue types a raw literal: quoted text, NULL, a number, or the raw text itself.
func ParseValue(raw string) schema.Value {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '\'' || first == '"') && first == last {
			return schema.Text(trimmed[1 : len(trimmed)-1])
		}
	}
	if strings.EqualFold(trimmed, "null") {
		return schema.Null()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return schema.Number(n)
	}
	return schema.Text(trimmed)
}
