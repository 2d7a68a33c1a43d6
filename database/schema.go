package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"minitwit/config"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// Schema returns the schema definition for dbType.
func Schema(dbType string) (string, error) {
	switch dbType {
	case config.DBTypeSQLite, config.DBTypeMySQL, config.DBTypePostgres:
	default:
		return "", fmt.Errorf("no schema for database type %q", dbType)
	}
	data, err := schemaFiles.ReadFile("schema/" + dbType + ".sql")
	if err != nil {
		return "", fmt.Errorf("reading %s schema: %w", dbType, err)
	}
	return string(data), nil
}

// SplitStatements splits a schema on ';' and drops empty fragments.
func SplitStatements(schema string) []string {
	var stmts []string
	for _, part := range strings.Split(schema, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt+";")
		}
	}
	return stmts
}

// InitSchema executes each statement of the dbType schema in order. It is
// not transactional: a failure leaves the earlier statements applied.
func InitSchema(ctx context.Context, h Handle, dbType string) error {
	schema, err := Schema(dbType)
	if err != nil {
		return err
	}
	for i, stmt := range SplitStatements(schema) {
		if _, err := Exec(ctx, h, stmt, nil); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
