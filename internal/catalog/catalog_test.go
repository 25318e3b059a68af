package catalog

import (
	"testing"

	"github.com/kestreldb/kestrel/internal/txn"
)

func TestMemoryCatalogNodeTables(t *testing.T) {
	cat := NewMemoryCatalog()

	person, err := cat.CreateNodeTable("Person", []Property{
		{Name: "name", DataType: TypeString},
		{Name: "age", DataType: TypeInt64},
	})
	if err != nil {
		t.Fatalf("CreateNodeTable: %v", err)
	}
	if person.ID == InvalidTableID {
		t.Fatal("expected a valid table ID")
	}

	got, err := cat.GetNodeTable("Person")
	if err != nil {
		t.Fatalf("GetNodeTable: %v", err)
	}
	if got.ID != person.ID {
		t.Errorf("GetNodeTable returned ID %d, want %d", got.ID, person.ID)
	}

	byID, err := cat.GetNodeTableByID(person.ID)
	if err != nil {
		t.Fatalf("GetNodeTableByID: %v", err)
	}
	if byID.Name != "Person" {
		t.Errorf("GetNodeTableByID returned %q, want Person", byID.Name)
	}

	if _, err := cat.CreateNodeTable("Person", nil); err == nil {
		t.Error("expected duplicate table error")
	}
	if _, err := cat.GetNodeTable("City"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestMemoryCatalogRelTables(t *testing.T) {
	cat := NewMemoryCatalog()
	person, _ := cat.CreateNodeTable("Person", nil)

	knows, err := cat.CreateRelTable("Knows", person.ID, person.ID, nil)
	if err != nil {
		t.Fatalf("CreateRelTable: %v", err)
	}
	if knows.SrcTableID != person.ID || knows.DstTableID != person.ID {
		t.Errorf("endpoints = (%d, %d), want (%d, %d)",
			knows.SrcTableID, knows.DstTableID, person.ID, person.ID)
	}

	if _, err := cat.CreateRelTable("Bad", person.ID, 999, nil); err == nil {
		t.Error("expected not-found error for dangling endpoint")
	}
}

func TestMemoryCatalogStats(t *testing.T) {
	cat := NewMemoryCatalog()
	person, _ := cat.CreateNodeTable("Person", nil)
	tx := txn.New()

	// Unanalyzed tables get defaults rather than an error.
	stats, err := cat.GetTableStats(tx, person.ID)
	if err != nil {
		t.Fatalf("GetTableStats: %v", err)
	}
	if stats.RowCount <= 0 {
		t.Errorf("default RowCount = %d, want positive", stats.RowCount)
	}

	cat.SetTableStats(person.ID, &TableStats{RowCount: 5000, AvgDegree: 3, AvgRowSize: 64})
	stats, err = cat.GetTableStats(tx, person.ID)
	if err != nil {
		t.Fatalf("GetTableStats: %v", err)
	}
	if stats.RowCount != 5000 {
		t.Errorf("RowCount = %d, want 5000", stats.RowCount)
	}

	if _, err := cat.GetTableStats(tx, 999); err == nil {
		t.Error("expected not-found error for unknown table")
	}
}
