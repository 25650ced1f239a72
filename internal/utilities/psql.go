package utilities

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

func init() {
	register("psql", cmdPsql)
}

// cmdPsql routes every connection through the parallel Postgres allow-list
// (spec.md §4.7): a bare allow-listed host passes the caller's credentials
// through, while a configured override substitutes host/port/db/user/pass
// before dialling so the guest never sees the real password.
func cmdPsql(ctx ExecContext) int {
	host := "localhost"
	port := 5432
	database := ""
	user := ""
	var query string
	haveQuery := false
	for i := 0; i < len(ctx.Args); i++ {
		a := ctx.Args[i]
		switch {
		case a == "-h" && i+1 < len(ctx.Args):
			host = ctx.Args[i+1]
			i++
		case a == "-p" && i+1 < len(ctx.Args):
			port, _ = strconv.Atoi(ctx.Args[i+1])
			i++
		case a == "-d" && i+1 < len(ctx.Args):
			database = ctx.Args[i+1]
			i++
		case a == "-U" && i+1 < len(ctx.Args):
			user = ctx.Args[i+1]
			i++
		case a == "-c" && i+1 < len(ctx.Args):
			query = ctx.Args[i+1]
			haveQuery = true
			i++
		}
	}
	if !haveQuery {
		fmt.Fprintln(ctx.Stderr, "psql: missing -c query")
		return 1
	}
	if ctx.PGGate == nil {
		fmt.Fprintln(ctx.Stderr, "psql: network access is disabled in this environment")
		return 1
	}
	userConnString := fmt.Sprintf("postgres://%s@%s:%d/%s", user, host, port, database)
	connString, err := ctx.PGGate.Resolve(host, userConnString)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "psql: %v\n", err)
		return 1
	}
	conn, err := pgx.Connect(context.Background(), connString)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "psql: %v\n", err)
		return 1
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(context.Background(), query)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "psql: %v\n", err)
		return 1
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f.Name)
	}
	if len(names) > 0 {
		fmt.Fprintln(ctx.Stdout, strings.Join(names, "|"))
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "psql: %v\n", err)
			return 1
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(ctx.Stdout, strings.Join(parts, "|"))
	}
	return 0
}
