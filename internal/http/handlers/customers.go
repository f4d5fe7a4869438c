package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/config"
	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/service"
)

type CustomersHandler struct {
	customers  *service.Customers
	principals *service.PrincipalResolver
}

func NewCustomersHandler(customers *service.Customers, principals *service.PrincipalResolver) *CustomersHandler {
	return &CustomersHandler{customers: customers, principals: principals}
}

// customerDetail adds the display fields derived from the stored record.
type customerDetail struct {
	customer.Customer
	FullName    string `json:"fullName"`
	FullAddress string `json:"fullAddress"`
}

func customerView(c customer.Customer) customerDetail {
	return customerDetail{
		Customer:    c,
		FullName:    c.FullName(),
		FullAddress: c.FullAddress(),
	}
}

func customerViews(cs []customer.Customer) []customerDetail {
	out := make([]customerDetail, 0, len(cs))

	for _, c := range cs {
		out = append(out, customerView(c))
	}

	return out
}

func (h *CustomersHandler) CreateCustomer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req customer.CreateCustomerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	created, err := h.customers.Create(cctx, actor, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, customerView(created))
}

func (h *CustomersHandler) GetCustomer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.customers.Get(cctx, actor, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, customerView(c))
}

func (h *CustomersHandler) ListCustomers(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	filter := customer.ListCustomersFilter{
		Email:  optionalQuery(ctx, "email"),
		City:   optionalQuery(ctx, "city"),
		State:  optionalQuery(ctx, "state"),
		Limit:  intQuery(ctx, "limit", 0),
		Offset: intQuery(ctx, "offset", 0),
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.customers.List(cctx, actor, filter)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": customerViews(items),
		"total": total,
	})
}

func (h *CustomersHandler) UpdateCustomer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req customer.UpdateCustomerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.customers.Update(cctx, actor, ctx.Param("id"), req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, customerView(updated))
}

func (h *CustomersHandler) DeleteCustomer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.customers.Delete(cctx, actor, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// query helpers shared by the list endpoints

func optionalQuery(ctx *gin.Context, key string) *string {
	v, ok := ctx.GetQuery(key)

	if !ok || v == "" {
		return nil
	}

	return &v
}

func intQuery(ctx *gin.Context, key string, fallback int) int {
	v, ok := ctx.GetQuery(key)

	if !ok || v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)

	if err != nil || n < 0 {
		return fallback
	}

	return n
}
