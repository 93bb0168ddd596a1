package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/logger"
)

// sqlToolName is the function name declared to the model.
const sqlToolName = "executar_consulta_sql"

var (
	lineCommentPattern  = regexp.MustCompile(`--[^\n]*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Matched against the uppercased query after comment stripping, so
	// a forbidden command cannot hide inside a comment. Word boundaries
	// keep column names like created_at from tripping CREATE.
	forbiddenCommandPattern = regexp.MustCompile(
		`\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|EXEC|EXECUTE|CALL|MERGE|REPLACE|RENAME)\b`)
)

// validateQuery accepts a single SELECT statement and nothing else.
// The message is user-facing Portuguese; it goes into the tool result
// envelope the model reads.
func validateQuery(query string) (bool, string) {
	if strings.TrimSpace(query) == "" {
		return false, "Query vazia"
	}

	clean := lineCommentPattern.ReplaceAllString(query, "")
	clean = blockCommentPattern.ReplaceAllString(clean, "")
	clean = strings.ToUpper(strings.TrimSpace(clean))

	if !strings.HasPrefix(clean, "SELECT") {
		return false, "Apenas consultas SELECT são permitidas"
	}

	if cmd := forbiddenCommandPattern.FindString(clean); cmd != "" {
		return false, "Comando " + cmd + " não é permitido"
	}

	if strings.Contains(clean, ";") && !strings.HasSuffix(clean, ";") {
		return false, "Múltiplos comandos SQL não são permitidos"
	}

	return true, ""
}

// SQLTool executes model-issued queries against the live database and
// serializes the outcome as a JSON envelope. Failures are part of the
// envelope, never a Go error: the model reads the envelope and can
// correct its own query.
type SQLTool struct {
	db *sql.DB
}

func NewSQLTool(db *sql.DB) *SQLTool {
	return &SQLTool{db: db}
}

// Run validates and executes one SELECT, returning the JSON result
// envelope.
func (t *SQLTool) Run(ctx context.Context, query string) string {
	if ok, msg := validateQuery(query); !ok {
		return errorEnvelope("Query inválida: " + msg)
	}

	logger.FromContext(ctx).Info().Str("query", query).Msg("executing model query")

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errorEnvelope(err.Error())
	}

	data := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = new(any)
		}
		if err := rows.Scan(values...); err != nil {
			return errorEnvelope(err.Error())
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = serializeValue(*(values[i].(*any)))
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return errorEnvelope(err.Error())
	}

	out, err := json.Marshal(map[string]any{
		"success": true,
		"count":   len(data),
		"columns": columns,
		"data":    data,
	})
	if err != nil {
		return errorEnvelope(err.Error())
	}

	return string(out)
}

// serializeValue narrows driver values to JSON-friendly types. DATE
// columns scan to midnight times and render as bare dates.
func serializeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return v
	}
}

func errorEnvelope(msg string) string {
	out, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   msg,
	})
	return string(out)
}
