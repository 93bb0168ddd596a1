package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		ok      bool
		message string
	}{
		{"empty", "", false, "Query vazia"},
		{"whitespace only", " \n\t ", false, "Query vazia"},
		{"plain select", "SELECT * FROM core_person", true, ""},
		{"lowercase select", "select id from core_accounttransaction", true, ""},
		{"leading whitespace", "\n  SELECT 1", true, ""},
		{"trailing semicolon", "SELECT 1;", true, ""},
		{"insert rejected", "INSERT INTO core_person (documento) VALUES ('1')", false, "Apenas consultas SELECT são permitidas"},
		{"update inside select", "SELECT * FROM t WHERE id = (UPDATE x SET y = 1)", false, "Comando UPDATE não é permitido"},
		{"delete after semicolon", "SELECT 1; DELETE FROM core_person", false, "Comando DELETE não é permitido"},
		{"stacked selects", "SELECT 1; SELECT 2", false, "Múltiplos comandos SQL não são permitidos"},
		{"keyword inside identifier", "SELECT created_at FROM audit_log", true, ""},
		{"command hidden in line comment is stripped", "SELECT 1 -- DROP TABLE core_person", true, ""},
		{"command hidden in block comment is stripped", "/* DELETE */ SELECT 1", true, ""},
		{"replace function rejected", "SELECT REPLACE(razao_social, 'A', 'B') FROM core_person", false, "Comando REPLACE não é permitido"},
		{"truncate rejected", "SELECT 1 UNION TRUNCATE core_person", false, "Comando TRUNCATE não é permitido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := validateQuery(tt.query)
			if ok != tt.ok {
				t.Fatalf("validateQuery(%q) ok = %v, want %v", tt.query, ok, tt.ok)
			}
			if msg != tt.message {
				t.Errorf("validateQuery(%q) message = %q, want %q", tt.query, msg, tt.message)
			}
		})
	}
}

func TestSQLToolRejectsInvalidQueryBeforeTouchingDB(t *testing.T) {
	tool := NewSQLTool(nil)

	out := tool.Run(context.Background(), "DROP TABLE core_person")

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &envelope); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}

	if envelope.Success {
		t.Error("expected success = false")
	}
	if envelope.Error != "Query inválida: Apenas consultas SELECT são permitidas" {
		t.Errorf("error = %q", envelope.Error)
	}
}

func TestSerializeValue(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := serializeValue(date); got != "2024-03-15" {
		t.Errorf("date = %v, want 2024-03-15", got)
	}

	stamp := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	if got := serializeValue(stamp); got != "2024-03-15T10:30:00Z" {
		t.Errorf("timestamp = %v, want 2024-03-15T10:30:00Z", got)
	}

	if got := serializeValue([]byte("abc")); got != "abc" {
		t.Errorf("bytes = %v, want abc", got)
	}

	if got := serializeValue(int64(42)); got != int64(42) {
		t.Errorf("int64 = %v, want 42", got)
	}
}
