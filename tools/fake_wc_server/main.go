// fake_wc_server serves a synthetic WooCommerce orders collection for
// local runs: deterministic Persian orders with the quirks the real
// store produces (Persian digits, float phone artifacts, unpaid rows).
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"wc-ledger/internal/jalali"
)

type fakeStore struct {
	latency  time.Duration
	failRate float64
	orders   []wcOrder

	mu         sync.Mutex
	byPage     map[string]int64
	totalCalls int64
}

type wcAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type wcLineItem struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

type wcShippingLine struct {
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type wcMeta struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type wcOrder struct {
	ID            int64            `json:"id"`
	Status        string           `json:"status"`
	DatePaid      string           `json:"date_paid,omitempty"`
	CustomerID    int64            `json:"customer_id"`
	Total         string           `json:"total"`
	DiscountTotal string           `json:"discount_total"`
	Billing       wcAddress        `json:"billing"`
	Shipping      wcAddress        `json:"shipping"`
	LineItems     []wcLineItem     `json:"line_items"`
	ShippingLines []wcShippingLine `json:"shipping_lines"`
	Meta          []wcMeta         `json:"meta_data"`

	paidAt time.Time
}

func main() {
	addr := getenvDefault("FAKE_WC_ADDR", ":18081")
	count := getenvIntDefault("FAKE_WC_ORDERS", 40)
	days := getenvIntDefault("FAKE_WC_DAYS", 45)
	latencyMs := getenvIntDefault("FAKE_WC_LATENCY_MS", 0)
	failRate := getenvFloatDefault("FAKE_WC_FAIL_RATE", 0)

	srv := &fakeStore{
		latency:  time.Duration(latencyMs) * time.Millisecond,
		failRate: failRate,
		orders:   buildOrders(count, days),
		byPage:   make(map[string]int64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/calls", srv.handleCalls)
	mux.HandleFunc("/wp-json/wc/v3/orders", srv.handleOrders)

	log.Printf("fake WC store listening on %s with %d orders", addr, count)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func (s *fakeStore) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *fakeStore) handleCalls(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := map[string]any{
		"total":   atomic.LoadInt64(&s.totalCalls),
		"by_page": s.byPage,
	}
	writeJSON(w, payload)
}

func (s *fakeStore) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, "simulated upstream failure", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(query.Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}
	var after time.Time
	if raw := query.Get("after"); raw != "" {
		after, _ = time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local)
	}

	s.recordCall(page)

	matched := make([]wcOrder, 0, len(s.orders))
	for _, order := range s.orders {
		if !after.IsZero() && !order.paidAt.IsZero() && order.paidAt.Before(after) {
			continue
		}
		matched = append(matched, order)
	}

	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	writeJSON(w, matched[start:end])
}

func (s *fakeStore) recordCall(page int) {
	atomic.AddInt64(&s.totalCalls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPage[strconv.Itoa(page)]++
}

var (
	firstNames = []string{"سارا", "علی", "مریم", "رضا", "نرگس", "حسین", "زهرا"}
	lastNames  = []string{"محمدی", "کریمی", "احمدی", "موسوی", "رحیمی"}
	regions    = []struct{ code, city string }{
		{"THR", "تهران"},
		{"ESF", "اصفهان"},
		{"KHR", "مشهد"},
		{"FRS", "شیراز"},
		{"GIL", "رشت"},
	}
	products = []struct {
		sku   string
		name  string
		price int
	}{
		{"GT-01", "چای سبز ممتاز", 95},
		{"BT-04", "چای سیاه بهاره", 120},
		{"HR-12", "دمنوش به لیمو", 85},
		{"SF-02", "زعفران نیم مثقال", 240},
	}
	statuses = []string{"processing", "processing", "completed", "processing", "on-hold", "cancelled", "completed", "pending"}
	phones   = []string{"09121234567", "9123456789", "۰۹۱۲۱۲۳۴۵۶۷", "9352221133.0"}
)

// buildOrders generates count orders spread over the past days, newest
// first. All content derives from the order index, so every request sees
// the same collection and repeated sync runs stay idempotent.
func buildOrders(count, days int) []wcOrder {
	now := time.Now()
	orders := make([]wcOrder, 0, count)
	for i := count - 1; i >= 0; i-- {
		id := int64(1000 + i)
		ago := 0
		if count > 1 {
			ago = days * (count - 1 - i) / (count - 1)
		}
		paid := now.AddDate(0, 0, -ago)
		status := statuses[i%len(statuses)]
		region := regions[i%len(regions)]
		product := products[i%len(products)]
		quantity := 1 + i%3
		itemTotal := product.price * quantity
		shipping := 40 + (i%4)*5

		order := wcOrder{
			ID:            id,
			Status:        status,
			CustomerID:    int64(100 + i%17),
			Total:         strconv.Itoa(itemTotal + shipping),
			DiscountTotal: "0",
			Billing: wcAddress{
				FirstName: firstNames[i%len(firstNames)],
				LastName:  lastNames[i%len(lastNames)],
				Email:     "customer" + strconv.Itoa(i) + "@example.com",
				Phone:     phones[i%len(phones)],
			},
			Shipping: wcAddress{
				State:    region.code,
				City:     region.city,
				Address1: "خیابان ولیعصر، پلاک " + strconv.Itoa(10+i),
				Postcode: strconv.FormatInt(1000000000+int64(i)*13, 10),
			},
			LineItems: []wcLineItem{{
				Name:     product.name,
				SKU:      product.sku,
				Quantity: quantity,
				Total:    strconv.Itoa(itemTotal),
			}},
			ShippingLines: []wcShippingLine{{
				MethodTitle: "پست پیشتاز",
				Total:       strconv.Itoa(shipping),
			}},
			Meta: []wcMeta{
				{Key: "_billing_field_529", Value: "۱۳۷۰/۰۵/" + strconv.Itoa(10+i%19)},
			},
		}

		if status != "pending" {
			order.paidAt = paid
			order.DatePaid = paid.Format("2006-01-02T15:04:05")
		}
		if i%5 == 0 {
			order.DiscountTotal = strconv.Itoa(itemTotal / 10)
		}
		if i%7 == 0 {
			order.Total = order.Total + ".5"
		}
		if status == "completed" {
			dispatch := jalali.FromTime(paid.AddDate(0, 0, 1))
			order.Meta = append(order.Meta,
				wcMeta{Key: "datei", Value: dispatch.Display()},
				wcMeta{Key: "marsule", Value: 100200300 + id},
			)
		}
		orders = append(orders, order)
	}
	return orders
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
