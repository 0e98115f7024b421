package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queuecare/hospital-backend/internal/inventory"
	redisclient "github.com/queuecare/hospital-backend/internal/redis"
)

// InventoryHandler serves the pharmacy surface: medicines, low-stock
// monitoring, checkout and the reorder workflow.
type InventoryHandler struct {
	repo    inventory.Repository
	monitor *inventory.Monitor
	engine  *inventory.Engine
	orders  *inventory.OrderService
}

func NewInventoryHandler(repo inventory.Repository, monitor *inventory.Monitor, engine *inventory.Engine, orders *inventory.OrderService) *InventoryHandler {
	return &InventoryHandler{
		repo:    repo,
		monitor: monitor,
		engine:  engine,
		orders:  orders,
	}
}

func (h *InventoryHandler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	m := &inventory.Medicine{
		Name:            req.Name,
		Stock:           req.Stock,
		ReorderLevel:    req.ReorderLevel,
		ReorderQuantity: req.ReorderQuantity,
		SupplierPrice:   req.SupplierPrice,
	}
	if err := inventory.ValidateMedicine(m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_medicine", err.Error())
		return
	}

	created, err := h.repo.CreateMedicine(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create medicine")
		return
	}

	writeJSON(w, http.StatusCreated, toMedicineResponse(created, false))
}

func (h *InventoryHandler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "medicine id must be a valid UUID")
		return
	}

	m, err := h.repo.GetMedicineByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrMedicineNotFound) {
			writeError(w, http.StatusNotFound, "medicine_not_found", "medicine does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load medicine")
		return
	}

	writeJSON(w, http.StatusOK, toMedicineResponse(m, false))
}

// LowStock lists medicines at or below their reorder level, graded by
// urgency.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	low, err := h.monitor.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to scan inventory")
		return
	}

	out := make([]MedicineResponse, 0, len(low))
	for i := range low {
		out = append(out, toMedicineResponse(&low[i], true))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) RestockHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "medicine id must be a valid UUID")
		return
	}

	entries, err := h.repo.ListRestockHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list restock history")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *InventoryHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	lines := make([]inventory.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		medicineID, err := uuid.Parse(item.MedicineID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_medicine_id", "medicine_id must be a valid UUID")
			return
		}
		lines = append(lines, inventory.OrderLine{
			MedicineID: medicineID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.orders.PlaceOrder(r.Context(), userID, lines)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrEmptyOrder):
			writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
		case errors.Is(err, inventory.ErrInsufficientStock):
			writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
		case errors.Is(err, inventory.ErrMedicineNotFound):
			writeError(w, http.StatusNotFound, "medicine_not_found", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *InventoryHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "order id must be a valid UUID")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order_not_found", "order does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// TriggerScan runs the low-stock sweep on demand.
func (h *InventoryHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	initiated, err := h.engine.ScanAndReorder(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to run inventory scan")
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Initiated: initiated})
}

func (h *InventoryHandler) ListReorders(w http.ResponseWriter, r *http.Request) {
	status := inventory.ReorderStatus(r.URL.Query().Get("status"))

	requests, err := h.engine.ListRequests(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list reorder requests")
		return
	}

	out := make([]ReorderResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toReorderResponse(&requests[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) UpdateReorderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "reorder id must be a valid UUID")
		return
	}

	var req UpdateReorderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	updatedBy := "admin"
	if userID, ok := GetUserID(r.Context()); ok {
		updatedBy = userID.String()
	}

	updated, err := h.engine.UpdateStatus(r.Context(), id, inventory.ReorderStatus(req.Status), updatedBy, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrInvalidReorderStatus):
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		case errors.Is(err, inventory.ErrReorderNotFound):
			writeError(w, http.StatusNotFound, "reorder_not_found", "reorder request does not exist")
		case errors.Is(err, inventory.ErrAlreadyFinal):
			writeError(w, http.StatusConflict, "already_final", "reorder request is already completed or cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update reorder request")
		}
		return
	}

	writeJSON(w, http.StatusOK, toReorderResponse(updated))
}

func (h *InventoryHandler) ReorderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "reorder id must be a valid UUID")
		return
	}

	entries, err := h.engine.RequestHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list reorder history")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// ApproveRestock redeems a supplier's emailed approval link. The link is
// opened in a browser, so the response is a small HTML page rather than JSON.
func (h *InventoryHandler) ApproveRestock(w http.ResponseWriter, r *http.Request) {
	medicineID, err := uuid.Parse(chi.URLParam(r, "medicineID"))
	if err != nil {
		writeHTML(w, http.StatusBadRequest, restockPage("Invalid link", "This restock link is malformed."))
		return
	}
	token := chi.URLParam(r, "token")

	m, err := h.engine.ApproveRestock(r.Context(), medicineID, token)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrTokenExpired):
			writeHTML(w, http.StatusUnauthorized, restockPage("Link expired", "This restock link has expired. Ask for a new reorder notification."))
		case errors.Is(err, inventory.ErrTokenInvalid):
			writeHTML(w, http.StatusUnauthorized, restockPage("Link invalid", "This restock link is invalid or was already used."))
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			writeHTML(w, http.StatusConflict, restockPage("Please retry", "Another approval for this medicine is in progress."))
		case errors.Is(err, inventory.ErrMedicineNotFound):
			writeHTML(w, http.StatusNotFound, restockPage("Not found", "The medicine on this link no longer exists."))
		default:
			writeHTML(w, http.StatusInternalServerError, restockPage("Something went wrong", "The restock could not be applied. Please try again."))
		}
		return
	}

	writeHTML(w, http.StatusOK, restockPage(
		"Restock confirmed",
		fmt.Sprintf("%s is restocked. Current stock: %d units.", html.EscapeString(m.Name), m.Stock),
	))
}

func restockPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; max-width: 32rem; margin: 4rem auto;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(title), message)
}

func toMedicineResponse(m *inventory.Medicine, withUrgency bool) MedicineResponse {
	resp := MedicineResponse{
		ID:                 m.ID,
		Name:               m.Name,
		Stock:              m.Stock,
		ReorderLevel:       m.ReorderLevel,
		ReorderQuantity:    m.ReorderQuantity,
		SupplierPrice:      m.SupplierPrice,
		NotificationStatus: string(m.NotificationStatus),
		LastRestocked:      m.LastRestocked,
	}
	if withUrgency {
		resp.Urgency = string(inventory.ClassifyUrgency(*m))
	}
	return resp
}

func toOrderResponse(o *inventory.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return OrderResponse{
		ID:     o.ID,
		Total:  o.Total,
		Status: o.Status,
		Items:  items,
	}
}

func toReorderResponse(r *inventory.ReorderRequest) ReorderResponse {
	return ReorderResponse{
		ID:               r.ID,
		MedicineID:       r.MedicineID,
		Quantity:         r.Quantity,
		Urgency:          string(r.Urgency),
		Status:           string(r.Status),
		ExpectedDelivery: r.ExpectedDelivery.Format("2006-01-02"),
	}
}
