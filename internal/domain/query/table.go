package query

// Row is a single result row keyed by column name.
type Row map[string]any

// Table is an ordered result set with a fixed column order.
//
// A nil *Table means "no result": the request did not pass parameter
// validation and nothing was executed. An empty table means the statement
// ran and matched zero rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns, Rows: make([][]any, 0)}
}

// Len returns the number of rows. It is safe to call on a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row. Values must follow the column order.
func (t *Table) Append(values ...any) {
	t.Rows = append(t.Rows, values)
}

// Row returns the i-th row keyed by column name.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.Columns))
	for j, c := range t.Columns {
		row[c] = t.Rows[i][j]
	}
	return row
}

// Records returns every row keyed by column name.
func (t *Table) Records() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Row(i)
	}
	return out
}

