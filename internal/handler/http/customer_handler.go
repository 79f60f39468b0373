package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
)

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Notes   string `json:"notes"`
}

// UpdateCustomerRequest merges into the stored customer; omitted fields keep their values.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitnil,min=1"`
	Email   *string `json:"email" validate:"omitnil,min=1,email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zip_code"`
	Notes   *string `json:"notes"`
}

type CustomerHandler struct {
	service  customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(service customer.Service) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/customers", h.handleListCustomers)
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers/{id}", h.handleGetCustomerByID)
	router.Put("/customers/{id}", h.handleUpdateCustomer)
	router.Delete("/customers/{id}", h.handleDeleteCustomer)
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	filter := customer.ListFilter{Search: r.URL.Query().Get("search")}

	customers, err := h.service.ListCustomers(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list customers")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list customers")
		return
	}

	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCustomerRequest
	if !decodeJSON(w, r, &requestPayload) {
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	customerToCreate := &customer.Customer{
		Name:    requestPayload.Name,
		Email:   requestPayload.Email,
		Phone:   requestPayload.Phone,
		Company: requestPayload.Company,
		Address: requestPayload.Address,
		City:    requestPayload.City,
		State:   requestPayload.State,
		ZipCode: requestPayload.ZipCode,
		Notes:   requestPayload.Notes,
	}

	createdCustomer, err := h.service.CreateCustomer(r.Context(), customerToCreate)
	if err != nil {
		log.Error().Err(err).Str("email", requestPayload.Email).Msg("Failed to create customer")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create customer")
		return
	}

	log.Info().Stringer("customer_id", createdCustomer.ID).Msg("Customer created successfully")
	respondWithJSON(w, http.StatusCreated, createdCustomer)
}

func (h *CustomerHandler) handleGetCustomerByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "customer_id")
	if !ok {
		return
	}

	foundCustomer, err := h.service.GetCustomerByID(r.Context(), id)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusNotFound {
			respondWithError(w, statusCode, "Customer not found")
			return
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("Failed to get customer")
		respondWithError(w, statusCode, "Failed to get customer")
		return
	}

	respondWithJSON(w, http.StatusOK, foundCustomer)
}

func (h *CustomerHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "customer_id")
	if !ok {
		return
	}

	var requestPayload UpdateCustomerRequest
	if !decodeJSON(w, r, &requestPayload) {
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	patch := customer.Patch{
		Name:    requestPayload.Name,
		Email:   requestPayload.Email,
		Phone:   requestPayload.Phone,
		Company: requestPayload.Company,
		Address: requestPayload.Address,
		City:    requestPayload.City,
		State:   requestPayload.State,
		ZipCode: requestPayload.ZipCode,
		Notes:   requestPayload.Notes,
	}

	updatedCustomer, err := h.service.UpdateCustomer(r.Context(), id, patch)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusNotFound {
			respondWithError(w, statusCode, "Customer not found")
			return
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("Failed to update customer")
		respondWithError(w, statusCode, "Failed to update customer")
		return
	}

	respondWithJSON(w, http.StatusOK, updatedCustomer)
}

func (h *CustomerHandler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "customer_id")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		log.Error().Err(err).Stringer("customer_id", id).Msg("Failed to delete customer")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to delete customer")
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
