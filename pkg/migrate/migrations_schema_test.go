package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCartMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CONSTRAINT carts_user_unique UNIQUE (user_id)",
		"CONSTRAINT cart_items_cart_product_unique UNIQUE (cart_id, product_id)",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderMigrationContainsStateAndPaymentConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders_and_payments.sql")

	checks := []string{
		"CONSTRAINT orders_status_check CHECK (status IN ('pending', 'paid', 'processing', 'shipped', 'delivered', 'canceled'))",
		"CONSTRAINT payments_order_unique UNIQUE (order_id)",
		"CONSTRAINT payments_method_check CHECK (method IN ('credit_card', 'debit_card', 'transfer', 'paypal', 'cash'))",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewMigrationEnforcesOnePerUserProduct(t *testing.T) {
	content := readMigration(t, "*_create_reviews.sql")

	checks := []string{
		"CONSTRAINT reviews_user_product_unique UNIQUE (user_id, product_id)",
		"CHECK (rating >= 1 AND rating <= 5)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
