package http

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

type LineItemRequest struct {
	Name      string       `json:"name"`
	Quantity  order.Number `json:"quantity" validate:"gte=1,lte=2147483647"`
	UnitPrice order.Number `json:"unit_price" validate:"gte=0,lte=1000000000"`
	// Total is recomputed by the service.
	Total order.Number `json:"total"`
}

type CreateOrderRequest struct {
	OrderNumber     string            `json:"order_number"`
	CustomerID      string            `json:"customer_id" validate:"omitempty,uuid"`
	CustomerName    string            `json:"customer_name"`
	Status          string            `json:"status" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	Priority        string            `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Items           []LineItemRequest `json:"items" validate:"dive"`
	Subtotal        *order.Number     `json:"subtotal"`
	Tax             order.Number      `json:"tax" validate:"gte=0,lte=1000000000"`
	ShippingCost    order.Number      `json:"shipping_cost" validate:"gte=0,lte=1000000000"`
	TotalAmount     *order.Number     `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	TrackingNumber  string            `json:"tracking_number"`
	Notes           string            `json:"notes"`
	DueDate         OptionalString    `json:"due_date"`
}

// UpdateOrderRequest merges into the stored order. Items, when present, replace the whole list.
type UpdateOrderRequest struct {
	OrderNumber     *string           `json:"order_number"`
	CustomerID      *string           `json:"customer_id" validate:"omitempty,uuid"`
	CustomerName    *string           `json:"customer_name"`
	Status          *string           `json:"status" validate:"omitnil,oneof=pending confirmed processing shipped delivered cancelled"`
	Priority        *string           `json:"priority" validate:"omitnil,oneof=low normal high urgent"`
	Items           []LineItemRequest `json:"items" validate:"dive"`
	Subtotal        *order.Number     `json:"subtotal"`
	Tax             *order.Number     `json:"tax" validate:"omitnil,gte=0,lte=1000000000"`
	ShippingCost    *order.Number     `json:"shipping_cost" validate:"omitnil,gte=0,lte=1000000000"`
	TotalAmount     *order.Number     `json:"total_amount"`
	ShippingAddress *string           `json:"shipping_address"`
	TrackingNumber  *string           `json:"tracking_number"`
	Notes           *string           `json:"notes"`
	DueDate         OptionalString    `json:"due_date"`
}

type ListOrdersQuery struct {
	CustomerID string `json:"customer_id" validate:"omitempty,uuid"`
	Status     string `json:"status" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Search     string `json:"search"`
}

// OrderResponse renders due_date as a calendar date.
type OrderResponse struct {
	order.Order
	DueDate *string `json:"due_date"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{Order: *o, DueDate: formatDueDate(o.DueDate)}
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListOrders)
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrderByID)
	router.Put("/orders/{id}", h.handleUpdateOrder)
	router.Delete("/orders/{id}", h.handleDeleteOrder)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListOrdersQuery{
		CustomerID: q.Get("customer_id"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Search:     q.Get("search"),
	}
	if !validateRequest(w, h.validate, query) {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), order.ListFilter{
		CustomerID: query.CustomerID,
		Status:     order.Status(query.Status),
		Priority:   order.Priority(query.Priority),
		Search:     query.Search,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, newOrderResponse(&orders[i]))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !decodeJSON(w, r, &requestPayload) {
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	dueDate, err := parseDueDate(requestPayload.DueDate.Value)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	orderToCreate := &order.Order{
		OrderNumber:     strings.TrimSpace(requestPayload.OrderNumber),
		CustomerID:      requestPayload.CustomerID,
		CustomerName:    requestPayload.CustomerName,
		Status:          order.Status(requestPayload.Status),
		Priority:        order.Priority(requestPayload.Priority),
		Items:           toLineItems(requestPayload.Items),
		Tax:             requestPayload.Tax.Float64(),
		ShippingCost:    requestPayload.ShippingCost.Float64(),
		ShippingAddress: requestPayload.ShippingAddress,
		TrackingNumber:  requestPayload.TrackingNumber,
		Notes:           requestPayload.Notes,
		DueDate:         dueDate,
	}

	createdOrder, err := h.service.CreateOrder(r.Context(), orderToCreate)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		switch statusCode {
		case http.StatusConflict:
			respondWithError(w, statusCode, "Order number already exists")
		case http.StatusBadRequest:
			respondWithError(w, statusCode, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to create order")
			respondWithError(w, statusCode, "Failed to create order")
		}
		return
	}

	warnOnTotalsMismatch(createdOrder, requestPayload.Subtotal, requestPayload.TotalAmount)
	log.Info().Stringer("order_id", createdOrder.ID).Msg("Order created successfully")
	respondWithJSON(w, http.StatusCreated, newOrderResponse(createdOrder))
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order_id")
	if !ok {
		return
	}

	foundOrder, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusNotFound {
			respondWithError(w, statusCode, "Order not found")
			return
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("Failed to get order")
		respondWithError(w, statusCode, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, newOrderResponse(foundOrder))
}

func (h *OrderHandler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order_id")
	if !ok {
		return
	}

	var requestPayload UpdateOrderRequest
	if !decodeJSON(w, r, &requestPayload) {
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	patch := order.Patch{
		OrderNumber:     trimmed(requestPayload.OrderNumber),
		CustomerID:      requestPayload.CustomerID,
		CustomerName:    requestPayload.CustomerName,
		ShippingAddress: requestPayload.ShippingAddress,
		TrackingNumber:  requestPayload.TrackingNumber,
		Notes:           requestPayload.Notes,
	}
	if requestPayload.Status != nil {
		status := order.Status(*requestPayload.Status)
		patch.Status = &status
	}
	if requestPayload.Priority != nil {
		priority := order.Priority(*requestPayload.Priority)
		patch.Priority = &priority
	}
	if requestPayload.Items != nil {
		patch.Items = toLineItems(requestPayload.Items)
	}
	if requestPayload.Tax != nil {
		tax := requestPayload.Tax.Float64()
		patch.Tax = &tax
	}
	if requestPayload.ShippingCost != nil {
		shipping := requestPayload.ShippingCost.Float64()
		patch.ShippingCost = &shipping
	}
	if requestPayload.DueDate.Set {
		dueDate, err := parseDueDate(requestPayload.DueDate.Value)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.DueDateSet = true
		patch.DueDate = dueDate
	}

	updatedOrder, err := h.service.UpdateOrder(r.Context(), id, patch)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		switch statusCode {
		case http.StatusNotFound:
			respondWithError(w, statusCode, "Order not found")
		case http.StatusConflict:
			respondWithError(w, statusCode, "Order number already exists")
		case http.StatusBadRequest:
			respondWithError(w, statusCode, err.Error())
		default:
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to update order")
			respondWithError(w, statusCode, "Failed to update order")
		}
		return
	}

	warnOnTotalsMismatch(updatedOrder, requestPayload.Subtotal, requestPayload.TotalAmount)
	respondWithJSON(w, http.StatusOK, newOrderResponse(updatedOrder))
}

func (h *OrderHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order_id")
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("Failed to delete order")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to delete order")
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func toLineItems(items []LineItemRequest) []order.LineItem {
	result := make([]order.LineItem, 0, len(items))
	for _, item := range items {
		result = append(result, order.LineItem{
			Name:      item.Name,
			Quantity:  item.Quantity.Int(),
			UnitPrice: item.UnitPrice.Float64(),
		})
	}
	return result
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// warnOnTotalsMismatch logs client-computed totals that disagree with the stored ones.
func warnOnTotalsMismatch(o *order.Order, subtotal, total *order.Number) {
	const epsilon = 0.005
	if subtotal != nil && math.Abs(subtotal.Float64()-o.Subtotal) > epsilon {
		log.Warn().Stringer("order_id", o.ID).
			Float64("client_subtotal", subtotal.Float64()).
			Float64("subtotal", o.Subtotal).
			Msg("Client subtotal differs from computed subtotal")
	}
	if total != nil && math.Abs(total.Float64()-o.TotalAmount) > epsilon {
		log.Warn().Stringer("order_id", o.ID).
			Float64("client_total_amount", total.Float64()).
			Float64("total_amount", o.TotalAmount).
			Msg("Client total differs from computed total")
	}
}
