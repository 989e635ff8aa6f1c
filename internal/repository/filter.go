package repository

import (
	"fmt"
	"strings"
)

// predicates builds a WHERE clause one condition at a time, numbering
// placeholders as arguments are appended.
type predicates struct {
	clauses []string
	args    []any
}

// add appends a condition. format holds a single %d for the placeholder
// index of arg.
func (p *predicates) add(format string, arg any) {
	p.args = append(p.args, arg)
	p.clauses = append(p.clauses, fmt.Sprintf(format, len(p.args)))
}

// arg appends an argument without a condition and returns its placeholder.
func (p *predicates) arg(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicates) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}
