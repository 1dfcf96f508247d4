package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRelationshipsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_product_suppliers.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no product_suppliers migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE product_suppliers",
		"CONSTRAINT uq_product_suppliers_pair UNIQUE (product_id, supplier_id)",
		"idx_product_suppliers_product_id",
		"idx_product_suppliers_supplier_id",
		"DROP TABLE product_suppliers",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
