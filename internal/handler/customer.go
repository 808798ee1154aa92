package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// CustomerStore is the customer storage used by staff screens.
type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) error
	Update(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id uint64) (*model.Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Customer, int, error)
}

// CustomerHandler serves the staff customer endpoints.
type CustomerHandler struct {
	customers CustomerStore
	log       *slog.Logger
}

// NewCustomerHandler wires a CustomerHandler.
func NewCustomerHandler(customers CustomerStore, log *slog.Logger) *CustomerHandler {
	if customers == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{customers: customers, log: log}
}

type customerRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func normalizeEmail(s *string) *string {
	if s == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*s))
	if e == "" {
		return nil
	}
	return &e
}

// Create handles POST /v1/customers.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return badRequest(c, "name is required")
	}
	cust := &model.Customer{Name: strings.TrimSpace(*req.Name), Email: normalizeEmail(req.Email)}
	if req.Phone != nil {
		cust.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := h.customers.Create(c.Request().Context(), cust); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toCustomer(*cust))
}

// Get handles GET /v1/customers/:id.
func (h *CustomerHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid customer id")
	}
	cust, err := h.customers.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCustomer(*cust))
}

// List handles GET /v1/customers?q&page&page_size.
func (h *CustomerHandler) List(c echo.Context) error {
	p, size := page(c)
	items, total, err := h.customers.List(c.Request().Context(), c.QueryParam("q"), size, (p-1)*size)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]customerResponse, 0, len(items))
	for _, cu := range items {
		out = append(out, toCustomer(cu))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total, "page": p, "page_size": size})
}

// Update handles PATCH /v1/customers/:id.  Absent fields are kept.
func (h *CustomerHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid customer id")
	}
	var req customerRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx := c.Request().Context()
	cust, err := h.customers.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if req.Name != nil {
		cust.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		cust.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		cust.Email = normalizeEmail(req.Email)
	}
	if err := h.customers.Update(ctx, cust); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCustomer(*cust))
}
