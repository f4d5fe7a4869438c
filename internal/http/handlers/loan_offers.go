package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/greenvolt/loanhub/internal/apperrors"
	"github.com/greenvolt/loanhub/internal/config"
	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/greenvolt/loanhub/internal/finance"
	"github.com/greenvolt/loanhub/internal/service"
	"github.com/shopspring/decimal"
)

type LoanOffersHandler struct {
	offers     *service.LoanOffers
	principals *service.PrincipalResolver
}

func NewLoanOffersHandler(offers *service.LoanOffers, principals *service.PrincipalResolver) *LoanOffersHandler {
	return &LoanOffersHandler{offers: offers, principals: principals}
}

// loanOfferDetail augments the stored record with the derived repayment
// totals for single-offer responses.
type loanOfferDetail struct {
	loanoffer.LoanOffer
	TotalPayment  decimal.Decimal `json:"totalPayment"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
}

func detailOf(o loanoffer.LoanOffer) loanOfferDetail {
	total := finance.TotalPayment(o.MonthlyPayment, o.LoanTerm)

	return loanOfferDetail{
		LoanOffer:     o,
		TotalPayment:  total,
		TotalInterest: finance.TotalInterest(total, o.LoanAmount),
	}
}

func (h *LoanOffersHandler) CreateLoanOffer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req loanoffer.CreateLoanOfferRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	created, err := h.offers.Create(cctx, actor, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, detailOf(created))
}

func (h *LoanOffersHandler) GetLoanOffer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	o, err := h.offers.Get(cctx, actor, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detailOf(o))
}

func (h *LoanOffersHandler) ListLoanOffers(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	filter := loanoffer.ListLoanOffersFilter{
		CustomerID: optionalQuery(ctx, "customer"),
		Limit:      intQuery(ctx, "limit", 0),
		Offset:     intQuery(ctx, "offset", 0),
	}

	if raw := optionalQuery(ctx, "status"); raw != nil {
		status, err := loanoffer.ParseStatus(*raw)

		if err != nil {
			RespondAppError(ctx, apperrors.ValidationField("status", "Unknown status."))
			return
		}

		filter.Status = &status
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.offers.List(cctx, actor, filter)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *LoanOffersHandler) UpdateLoanOffer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	var req loanoffer.UpdateLoanOfferRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.offers.Update(cctx, actor, ctx.Param("id"), req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detailOf(updated))
}

func (h *LoanOffersHandler) DeleteLoanOffer(ctx *gin.Context) {
	actor, ok := resolvePrincipal(ctx, h.principals)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.offers.Delete(cctx, actor, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
