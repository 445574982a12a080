// Package live serves demo data feeds for the dashboard. Everything here is
// generated on the fly; none of it touches the database. The wire shapes are
// fixed by the frontend, so these endpoints return raw JSON without the
// standard envelope.
package live

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/healthstock/healthstock-backend/pkg/httputil"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// Handler serves the live demo endpoints
type Handler struct {
	logger *logger.Logger
}

// NewHandler creates a new live handler
func NewHandler(log *logger.Logger) *Handler {
	return &Handler{logger: log}
}

var alertItemNames = []string{"Paracetamol", "N95 Masks", "Surgical Gloves", "Oxygen Tank"}

type streamAlert struct {
	ID        int    `json:"id"`
	ItemName  string `json:"itemName"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
}

// AlertStream streams random alerts over SSE until the client disconnects.
// Each 2 second tick has a 20% chance of emitting an alert.
func (h *Handler) AlertStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	// The stream outlives the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug().Err(err).Msg("could not clear write deadline for alert stream")
	}

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if rand.Float64() <= 0.8 {
				continue
			}

			alert := streamAlert{
				ID:        100 + rand.Intn(900),
				ItemName:  alertItemNames[rand.Intn(len(alertItemNames))],
				Message:   "Stock level is below threshold",
				Severity:  "high",
				Timestamp: time.Now().Format(time.RFC3339),
			}

			payload, err := json.Marshal(alert)
			if err != nil {
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type warehouse struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	StockLevel int     `json:"stockLevel"`
	Status     string  `json:"status"`
}

// Warehouses returns the fixed warehouse map with randomized stock levels
func (h *Handler) Warehouses(w http.ResponseWriter, r *http.Request) {
	warehouses := []warehouse{
		{ID: 1, Name: "Main Warehouse", Lat: 40.7128, Lng: -74.0060, StockLevel: 20 + rand.Intn(81), Status: "active"},
		{ID: 2, Name: "East Wing Storage", Lat: 34.0522, Lng: -118.2437, StockLevel: 10 + rand.Intn(51), Status: "critical"},
		{ID: 3, Name: "Downtown Pharmacy", Lat: 41.8781, Lng: -87.6298, StockLevel: 40 + rand.Intn(51), Status: "active"},
	}

	writeRawJSON(w, warehouses)
}

type aiQueryRequest struct {
	Question string `json:"question"`
}

// AIQuery answers inventory questions with canned keyword-matched responses
func (h *Handler) AIQuery(w http.ResponseWriter, r *http.Request) {
	var req aiQueryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	question := strings.ToLower(req.Question)

	answer := "I'm analyzing the inventory data..."
	switch {
	case strings.Contains(question, "low stock"):
		answer = "Currently, there are 3 items with critical stock levels: N95 Masks, Surgical Gloves, and Insulin."
	case strings.Contains(question, "expiring"):
		answer = "You have 8 batches of antibiotics expiring within the next 7 days in Warehouse A."
	case strings.Contains(question, "restock"):
		answer = "I recommend restocking Paracetamol 500mg immediately as demand has spiked by 15% this week."
	case strings.Contains(question, "hi"), strings.Contains(question, "hello"):
		answer = "Hello! I am your AI assistant. I can help you with stock levels, expiry dates, and restock recommendations. What can I do for you?"
	}

	writeRawJSON(w, map[string]string{"answer": answer})
}

// StockForecast returns mock demand predictions
func (h *Handler) StockForecast(w http.ResponseWriter, r *http.Request) {
	risks := []string{"low", "medium", "high"}

	writeRawJSON(w, map[string]interface{}{
		"demandChange":   -10 + rand.Intn(36),
		"stockoutRisk":   risks[rand.Intn(len(risks))],
		"recommendation": "Increase order volume for seasonal vaccines by 20.",
	})
}

// Metrics returns a random snapshot of operational counters
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeRawJSON(w, map[string]interface{}{
		"time":           time.Now().Format("15:04:05"),
		"incomingOrders": 5 + rand.Intn(16),
		"stockOuts":      rand.Intn(6),
		"expiryEvents":   rand.Intn(3),
	})
}

func writeRawJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
