package utilities

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite"
)

func init() {
	register("sqlite3", cmdSqlite3)
}

// cmdSqlite3 is a pragmatic subset of the sqlite3 CLI: each invocation opens
// a fresh in-memory database (no cross-invocation persistence — a real file
// argument other than ":memory:" is accepted but backed by the same
// process-local memory, since the VFS has no os-file bridge for cgo-free
// sqlite to mmap against), runs the SQL given as the remaining argument or
// on stdin, and prints rows pipe-separated the way the real CLI does in
// non-interactive mode.
func cmdSqlite3(ctx ExecContext) int {
	if len(ctx.Args) == 0 {
		fmt.Fprintln(ctx.Stderr, "sqlite3: missing database argument")
		return 1
	}
	var script string
	if len(ctx.Args) > 1 {
		script = strings.Join(ctx.Args[1:], " ")
	} else {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "sqlite3: %v\n", err)
			return 1
		}
		script = string(data)
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "sqlite3: %v\n", err)
		return 1
	}
	defer db.Close()

	status := 0
	for _, stmt := range splitSQLStatements(script) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := runSQLStatement(ctx, db, stmt); err != nil {
			fmt.Fprintf(ctx.Stderr, "sqlite3: %v\n", err)
			status = 1
		}
	}
	return status
}

func splitSQLStatements(script string) []string {
	return strings.Split(script, ";")
}

func runSQLStatement(ctx ExecContext, db *sql.DB, stmt string) error {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "PRAGMA") {
		_, err := db.Exec(stmt)
		return err
	}
	rows, err := db.Query(stmt)
	if err != nil {
		return err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		parts := make([]string, len(cols))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(ctx.Stdout, strings.Join(parts, "|"))
	}
	return rows.Err()
}
