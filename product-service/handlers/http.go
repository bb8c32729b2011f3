package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/product-service/application"
	"github.com/swiftcart/order-system/product-service/domain"
)

// ProductHandlers contains product HTTP handlers
type ProductHandlers struct {
	createProduct *application.CreateProduct
	getProduct    *application.GetProduct
	checkStock    *application.CheckStock
	adjustStock   *application.AdjustStock
}

// NewProductHandlers creates new product handlers
func NewProductHandlers(
	createProduct *application.CreateProduct,
	getProduct *application.GetProduct,
	checkStock *application.CheckStock,
	adjustStock *application.AdjustStock,
) *ProductHandlers {
	return &ProductHandlers{
		createProduct: createProduct,
		getProduct:    getProduct,
		checkStock:    checkStock,
		adjustStock:   adjustStock,
	}
}

// CreateProduct handles product creation requests
func (h *ProductHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateProductCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createProduct.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetProduct handles product retrieval requests
func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	query := &application.GetProductQuery{ProductID: productID}

	response, err := h.getProduct.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CheckStock handles stock availability requests
func (h *ProductHandlers) CheckStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity <= 0 {
		http.Error(w, "Quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	query := &application.CheckStockQuery{
		ProductID: productID,
		Quantity:  quantity,
	}

	response, err := h.checkStock.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AdjustStock handles stock adjustment requests
func (h *ProductHandlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "Product ID is required", http.StatusBadRequest)
		return
	}

	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := &application.AdjustStockCommand{
		ProductID: productID,
		Delta:     body.Delta,
	}

	response, err := h.adjustStock.Execute(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers product routes
func (h *ProductHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/stock", h.CheckStock)
		r.Post("/{id}/stock", h.AdjustStock)
	})
}
