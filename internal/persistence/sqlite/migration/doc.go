// Package migration applies versioned SQL scripts to a SQLite database.
//
// Scripts are read from an fs.FS (normally an embed.FS) and must be named
// {version}_{description}.sql, e.g. "001_initial_schema.sql". Applied
// versions and their checksums are tracked in the schema_migrations table;
// a script whose checksum changed after it was applied stops the run.
package migration
