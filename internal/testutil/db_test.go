package testutil

import (
	"strings"
	"testing"
)

func TestDBName(t *testing.T) {
	short := dbName("TestStore_Create/empty title")
	if short != "stratalaw_test_TestStore_Create_empty_title" {
		t.Errorf("dbName() = %q", short)
	}

	long1 := dbName("TestHandler_" + strings.Repeat("x", 80) + "/one")
	long2 := dbName("TestHandler_" + strings.Repeat("x", 80) + "/two")
	if len(long1) > maxDBName || len(long2) > maxDBName {
		t.Errorf("names exceed %d bytes: %d, %d", maxDBName, len(long1), len(long2))
	}
	if long1 == long2 {
		t.Errorf("long names collide: %q", long1)
	}
}
