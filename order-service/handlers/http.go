package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/order-service/application"
	"github.com/swiftcart/order-system/order-service/domain"
	"github.com/swiftcart/order-system/order-service/workflow"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder       *application.CreateOrder
	getOrder          *application.GetOrder
	approveOrder      *application.ApproveOrder
	getWorkflowStatus *application.GetWorkflowStatus
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	approveOrder *application.ApproveOrder,
	getWorkflowStatus *application.GetWorkflowStatus,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:       createOrder,
		getOrder:          getOrder,
		approveOrder:      approveOrder,
		getWorkflowStatus: getWorkflowStatus,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowAlreadyRunning) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	query := &application.GetOrderQuery{OrderID: orderID}

	response, err := h.getOrder.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ApproveOrder handles manual approval decisions for high value orders
func (h *OrderHandlers) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	var body struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := &application.ApproveOrderCommand{
		OrderID:  orderID,
		Approved: body.Approved,
	}

	if err := h.approveOrder.Execute(r.Context(), cmd); err != nil {
		if errors.Is(err, workflow.ErrNoPendingApproval) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// GetWorkflowStatus handles workflow status requests
func (h *OrderHandlers) GetWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	if instanceID == "" {
		http.Error(w, "Instance ID is required", http.StatusBadRequest)
		return
	}

	query := &application.GetWorkflowStatusQuery{InstanceID: instanceID}

	response, err := h.getWorkflowStatus.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, workflow.ErrInstanceNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/approval", h.ApproveOrder)
	})
	r.Route("/workflows", func(r chi.Router) {
		r.Get("/{id}", h.GetWorkflowStatus)
	})
}
