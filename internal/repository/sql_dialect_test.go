package repository

import (
	"strings"
	"testing"
)

func TestBuildKeywordLikeConditionSQLite(t *testing.T) {
	condition, argCount := buildKeywordLikeConditionByDialect("sqlite", []string{"affiliate_code", "status"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if !strings.Contains(condition, "affiliate_code LIKE ?") {
		t.Fatalf("condition should contain affiliate_code LIKE, got %s", condition)
	}
	if !strings.Contains(condition, " OR status LIKE ?") {
		t.Fatalf("condition should contain status LIKE, got %s", condition)
	}
}

func TestBuildKeywordLikeConditionPostgres(t *testing.T) {
	condition, argCount := buildKeywordLikeConditionByDialect("postgres", []string{"affiliate_code"})
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	if condition != "affiliate_code ILIKE ?" {
		t.Fatalf("postgres condition mismatch, got %s", condition)
	}
}

func TestBuildKeywordLikeConditionSkipsEmptyColumns(t *testing.T) {
	condition, argCount := buildKeywordLikeConditionByDialect("sqlite", []string{"", "  ", "phone"})
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	if condition != "phone LIKE ?" {
		t.Fatalf("condition mismatch, got %s", condition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
