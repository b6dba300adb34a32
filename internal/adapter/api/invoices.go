package api

import (
	"errors"
	"net/http"

	invoiceservice "github.com/jflips/coachlog_backend/internal/app/invoicing"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/billing"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

func (s *Server) MountInvoices() {
	loginRequired := LoginRequired(s.authorizer)

	invoices := s.handler.Group("/invoices", loginRequired)
	invoices.GET("/groups", s.ListBillingGroups)
	invoices.GET("/groups/:group_id", s.GetInvoice)
	invoices.GET("/history/:record_id/groups/:group_id", s.GetArchivedInvoice)
}

func (s *Server) getInvoiceUoW() *unitofwork.UnitOfWork[*invoiceservice.AtomicContext] {
	return unitofwork.New[*invoiceservice.AtomicContext](
		s.db,
		invoiceservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type BillingGroup struct {
	GroupID      string   `json:"id"`
	Label        string   `json:"label"`
	Siblings     bool     `json:"siblings"`
	MemberIDs    []string `json:"member_ids"`
	SessionCount int      `json:"session_count"`
}

type ListBillingGroupsResponse struct {
	Groups []BillingGroup `json:"groups"`
}

func (s *Server) ListBillingGroups(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getInvoiceUoW()

	summaries, err := s.invoiceService.ListGroups(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, ListBillingGroupsResponse{
		Groups: lo.Map(summaries, func(g invoiceservice.GroupSummary, _ int) BillingGroup {
			return BillingGroup{
				GroupID:      g.RepresentativeID,
				Label:        g.Label,
				Siblings:     g.Kind == billing.Siblings,
				MemberIDs:    g.MemberIDs,
				SessionCount: g.SessionCount,
			}
		}),
	})
}

type InvoiceLine struct {
	SessionID   string `json:"session_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AthleteID   string `json:"athlete_id"`
	AthleteName string `json:"athlete_name,omitempty"`
	Amount      int64  `json:"amount"`
}

type InvoiceResponse struct {
	GroupID   string        `json:"group_id"`
	Label     string        `json:"label"`
	MemberIDs []string      `json:"member_ids"`
	Lines     []InvoiceLine `json:"lines"`
	Total     int64         `json:"total"`

	BusinessName  string `json:"business_name"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BranchCode    string `json:"branch_code,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	Logo          string `json:"logo,omitempty"`
}

func invoiceResponse(doc *invoiceservice.Document) InvoiceResponse {
	return InvoiceResponse{
		GroupID:   doc.Invoice.GroupID,
		Label:     doc.Invoice.Label,
		MemberIDs: doc.Invoice.MemberIDs,
		Lines: lo.Map(doc.Invoice.Lines, func(l billing.Line, _ int) InvoiceLine {
			return InvoiceLine{
				SessionID:   l.SessionID,
				Date:        l.Date.Format(dateLayout),
				Description: l.Description,
				AthleteID:   l.AthleteID,
				AthleteName: l.AthleteName,
				Amount:      l.Amount,
			}
		}),
		Total:         doc.Invoice.Total,
		BusinessName:  doc.Profile.BusinessName,
		BankName:      doc.Profile.BankName,
		AccountNumber: doc.Profile.AccountNumber,
		BranchCode:    doc.Profile.BranchCode,
		AccountType:   doc.Profile.AccountType,
		Logo:          doc.Profile.Logo,
	}
}

type GetInvoiceRequest struct {
	GroupID string `param:"group_id" validate:"required"`
}

func (s *Server) GetInvoice(c echo.Context) error {
	var req GetInvoiceRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getInvoiceUoW()

	doc, err := s.invoiceService.BuildInvoice(c.Request().Context(), uow, coach.CoachID, req.GroupID)
	if err != nil {
		if errors.Is(err, billing.ErrGroupNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, invoiceResponse(doc))
}

type GetArchivedInvoiceRequest struct {
	RecordID string `param:"record_id" validate:"required"`
	GroupID  string `param:"group_id" validate:"required"`
}

func (s *Server) GetArchivedInvoice(c echo.Context) error {
	var req GetArchivedInvoiceRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getInvoiceUoW()

	doc, err := s.invoiceService.BuildArchivedInvoice(
		c.Request().Context(), uow, coach.CoachID, req.RecordID, req.GroupID,
	)
	if err != nil {
		if errors.Is(err, billing.ErrGroupNotFound) || errors.Is(err, history.ErrRecordNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, invoiceResponse(doc))
}
