package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/swiftcart/order-system/user-service/application"
	"github.com/swiftcart/order-system/user-service/domain"
)

// UserHandlers contains user HTTP handlers
type UserHandlers struct {
	createUser *application.CreateUser
	getUser    *application.GetUser
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(createUser *application.CreateUser, getUser *application.GetUser) *UserHandlers {
	return &UserHandlers{
		createUser: createUser,
		getUser:    getUser,
	}
}

// CreateUser handles user creation requests
func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateUserCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createUser.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetUser handles user retrieval requests
func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	query := &application.GetUserQuery{UserID: userID}

	response, err := h.getUser.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers user routes
func (h *UserHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
	})
}
