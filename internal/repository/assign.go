package repository

import (
	"strconv"
	"strings"
)

// assignments collects the SET clause of a partial update.
type assignments struct {
	clauses []string
	args    []any
}

// assign adds col = v when v is non-nil.
func assign[T any](a *assignments, col string, v *T) {
	if v == nil {
		return
	}
	a.args = append(a.args, *v)
	a.clauses = append(a.clauses, col+" = $"+strconv.Itoa(len(a.args)))
}

// null adds col = NULL.
func (a *assignments) null(col string) {
	a.clauses = append(a.clauses, col+" = NULL")
}

func (a *assignments) empty() bool {
	return len(a.clauses) == 0
}

// update builds an UPDATE of one store-scoped row returning the given columns.
func (a *assignments) update(table, storeID, id, returning string) (string, []any) {
	args := append(a.args, storeID, id)
	n := len(args)
	sql := "UPDATE " + table + " SET " + strings.Join(a.clauses, ", ") + ", updated_at = now()" +
		" WHERE store_id = $" + strconv.Itoa(n-1) + " AND id = $" + strconv.Itoa(n) +
		" RETURNING " + returning
	return sql, args
}
