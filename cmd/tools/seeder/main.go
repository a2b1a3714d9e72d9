package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedShippingPolicies(db)
	seedDiscountPolicies(db)
	syncSequences(db)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	products := []struct {
		ID          int64
		Name        string
		UnitPrice   int64
		StockQty    int
		SafetyStock int
		SoldOut     bool
	}{
		{1, "찰떡 선물세트 (소)", 15000, 120, 10, false},
		{2, "찰떡 선물세트 (대)", 28000, 80, 10, false},
		{3, "꿀찰떡 10입", 12000, 200, 20, false},
		{4, "흑임자 찰떡 10입", 13000, 15, 20, false},
		{5, "모둠 찰떡 20입", 22000, 0, 10, true},
		{6, "앙버터 찰떡 6입", 11000, 60, 5, false},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (id, name, unit_price, stock_qty, safety_stock, sold_out)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				unit_price = EXCLUDED.unit_price,
				stock_qty = EXCLUDED.stock_qty,
				safety_stock = EXCLUDED.safety_stock,
				sold_out = EXCLUDED.sold_out;
		`, p.ID, p.Name, p.UnitPrice, p.StockQty, p.SafetyStock, p.SoldOut)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedShippingPolicies(db *sql.DB) {
	fmt.Println("Seeding Shipping Policies...")
	_, err := db.Exec(`
		INSERT INTO policies (id, kind, name, start_at, end_at, active)
		VALUES (1, 'shipping', '기본 배송 정책', now() - interval '1 day', now() + interval '365 days', TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, end_at = EXCLUDED.end_at, active = EXCLUDED.active;
	`)
	if err != nil {
		log.Printf("Failed to seed shipping policy: %v", err)
		return
	}

	rules := []struct {
		ID             int64
		Type           string
		Label          string
		ZipPrefix      string
		Fee            int64
		FreeOverAmount int64
	}{
		{1, "DEFAULT_FEE", "기본 배송비", "", 3000, 0},
		{2, "ZIP_PREFIX_FEE", "제주 추가 배송비", "63", 6000, 0},
		{3, "ZIP_PREFIX_FEE", "강남 당일 배송", "06", 2000, 0},
		{4, "FREE_OVER_AMOUNT", "5만원 이상 무료배송", "", 0, 50000},
	}
	for _, r := range rules {
		_, err := db.Exec(`
			INSERT INTO shipping_rules (id, policy_id, type, label, zip_prefix, fee, free_over_amount)
			VALUES ($1, 1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type,
				label = EXCLUDED.label,
				zip_prefix = EXCLUDED.zip_prefix,
				fee = EXCLUDED.fee,
				free_over_amount = EXCLUDED.free_over_amount;
		`, r.ID, r.Type, r.Label, r.ZipPrefix, r.Fee, r.FreeOverAmount)
		if err != nil {
			log.Printf("Failed to seed shipping rule %s: %v", r.Label, err)
		}
	}
}

func seedDiscountPolicies(db *sql.DB) {
	fmt.Println("Seeding Discount Policies...")
	_, err := db.Exec(`
		INSERT INTO policies (id, kind, name, start_at, end_at, active)
		VALUES (2, 'discount', '상시 할인 정책', now() - interval '1 day', now() + interval '90 days', TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, end_at = EXCLUDED.end_at, active = EXCLUDED.active;
	`)
	if err != nil {
		log.Printf("Failed to seed discount policy: %v", err)
		return
	}

	rules := []struct {
		ID              int64
		Type            string
		TargetProductID int64
		Label           string
		ApplyScope      string
		DiscountRate    int64
		AmountOff       int64
		MinAmount       int64
		MinQty          int
	}{
		{1, "BANK_TRANSFER_RATE", 1, "무통장입금 5% 할인", "ALL", 5, 0, 0, 0},
		{2, "BANK_TRANSFER_FIXED", 2, "무통장입금 2천원 할인", "ALL", 0, 2000, 20000, 0},
		{3, "QTY_RATE", 3, "3개 이상 10% 할인", "ALL", 10, 0, 0, 3},
		{4, "QTY_FIXED", 6, "픽업 2개 이상 1천원 할인", "PICKUP", 0, 1000, 0, 2},
	}
	for _, r := range rules {
		_, err := db.Exec(`
			INSERT INTO discount_rules (id, policy_id, type, target_product_id, label, apply_scope, discount_rate, amount_off, min_amount, min_qty)
			VALUES ($1, 2, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type,
				target_product_id = EXCLUDED.target_product_id,
				label = EXCLUDED.label,
				apply_scope = EXCLUDED.apply_scope,
				discount_rate = EXCLUDED.discount_rate,
				amount_off = EXCLUDED.amount_off,
				min_amount = EXCLUDED.min_amount,
				min_qty = EXCLUDED.min_qty;
		`, r.ID, r.Type, r.TargetProductID, r.Label, r.ApplyScope, r.DiscountRate, r.AmountOff, r.MinAmount, r.MinQty)
		if err != nil {
			log.Printf("Failed to seed discount rule %s: %v", r.Label, err)
		}
	}
}

// syncSequences bumps the serial sequences past the explicit seed ids.
func syncSequences(db *sql.DB) {
	for _, stmt := range []string{
		`SELECT setval('products_id_seq', (SELECT COALESCE(MAX(id), 1) FROM products))`,
		`SELECT setval('policies_id_seq', (SELECT COALESCE(MAX(id), 1) FROM policies))`,
		`SELECT setval('shipping_rules_id_seq', (SELECT COALESCE(MAX(id), 1) FROM shipping_rules))`,
		`SELECT setval('discount_rules_id_seq', (SELECT COALESCE(MAX(id), 1) FROM discount_rules))`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Failed to sync sequence: %v", err)
		}
	}
}
