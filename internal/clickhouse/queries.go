package clickhouse

// Query builders for the system tables chview reads. Builders are pure so
// the filter logic can be tested without a server; parameters use ?
// placeholders bound by the driver.

// systemDatabases are hidden unless a database filter names one explicitly.
const systemDatabases = "('system', 'INFORMATION_SCHEMA', 'information_schema')"

// buildDatabaseFilter returns a WHERE clause restricting rows to one
// database, or excluding system databases when no filter is set.
func buildDatabaseFilter(column, database string, excludeSystem bool) (string, []any) {
	if database != "" {
		return "WHERE " + column + " = ?", []any{database}
	}
	if excludeSystem {
		return "WHERE " + column + " NOT IN " + systemDatabases, nil
	}
	return "", nil
}

// buildMaterializedViewsQuery fetches every materialized view with its DDL
// and the server's explicit dependency metadata.
func buildMaterializedViewsQuery(database string) (string, []any) {
	where, args := buildDatabaseFilter("database", database, false)
	if where == "" {
		where = "WHERE engine = 'MaterializedView'"
	} else {
		where += " AND engine = 'MaterializedView'"
	}
	query := `
		SELECT database, name, create_table_query, dependencies_database, dependencies_table
		FROM system.tables
		` + where + `
		ORDER BY database, name`
	return query, args
}

// buildSchemaQuery fetches all non-system tables with engine and size info.
func buildSchemaQuery(database string) (string, []any) {
	where, args := buildDatabaseFilter("database", database, true)
	query := `
		SELECT database, name, engine, total_rows, total_bytes
		FROM system.tables
		` + where + `
		ORDER BY database, name`
	return query, args
}

// buildDatabasesQuery lists user databases.
func buildDatabasesQuery() string {
	return `
		SELECT name
		FROM system.databases
		WHERE name NOT IN ` + systemDatabases + `
		ORDER BY name`
}

// buildViewErrorsQuery fetches recent failing view executions from
// query_views_log inside the given window.
func buildViewErrorsQuery(hours int, database string) (string, []any) {
	args := []any{hours}
	dbFilter := ""
	if database != "" {
		dbFilter = "AND view_name LIKE ?"
		args = append(args, database+".%")
	}
	query := `
		SELECT view_name, exception_code, exception, event_time
		FROM system.query_views_log
		WHERE event_time >= now() - INTERVAL ? HOUR
		  AND status IN ('ExceptionBeforeStart', 'ExceptionWhileProcessing')
		  ` + dbFilter + `
		ORDER BY event_time DESC
		LIMIT 100`
	return query, args
}

// buildStorageMetricsQuery aggregates active part sizes per table.
func buildStorageMetricsQuery(database string) (string, []any) {
	where, args := buildDatabaseFilter("database", database, true)
	if where == "" {
		where = "WHERE active = 1"
	} else {
		where += " AND active = 1"
	}
	query := `
		SELECT
			database,
			table,
			sum(rows) AS rows,
			sum(bytes_on_disk) AS bytes_on_disk,
			sum(data_compressed_bytes) AS compressed_bytes,
			sum(data_uncompressed_bytes) AS uncompressed_bytes
		FROM system.parts
		` + where + `
		GROUP BY database, table
		ORDER BY database, table
		SETTINGS max_execution_time = 120`
	return query, args
}

// buildClusterInfoQuery fetches the overview counters shown on the stats
// panel. The database-scoped variant counts within that database only.
func buildClusterInfoQuery(database string) (string, []any) {
	if database != "" {
		query := `
			SELECT
				version(),
				uptime(),
				1,
				(SELECT count() FROM system.tables WHERE database = ?),
				(SELECT count() FROM system.tables
				 WHERE database = ? AND engine = 'MaterializedView'),
				(SELECT sum(bytes_on_disk) FROM system.parts
				 WHERE active = 1 AND database = ?)
			SETTINGS max_execution_time = 120`
		return query, []any{database, database, database}
	}
	query := `
		SELECT
			version(),
			uptime(),
			(SELECT count() FROM system.databases
			 WHERE name NOT IN ` + systemDatabases + `),
			(SELECT count() FROM system.tables
			 WHERE database NOT IN ` + systemDatabases + `),
			(SELECT count() FROM system.tables WHERE engine = 'MaterializedView'),
			(SELECT sum(bytes_on_disk) FROM system.parts WHERE active = 1)
		SETTINGS max_execution_time = 120`
	return query, nil
}
