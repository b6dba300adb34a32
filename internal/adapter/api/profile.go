package api

import (
	"net/http"

	profileapp "github.com/jflips/coachlog_backend/internal/app/profile"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/labstack/echo/v4"
)

func (s *Server) MountProfile() {
	loginRequired := LoginRequired(s.authorizer)

	profileRoutes := s.handler.Group("/profile", loginRequired)
	profileRoutes.GET("", s.GetProfile)
	profileRoutes.PUT("", s.SaveProfile)
}

func (s *Server) getProfileUoW() *unitofwork.UnitOfWork[*profileapp.AtomicContext] {
	return unitofwork.New[*profileapp.AtomicContext](
		s.db,
		profileapp.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type Profile struct {
	BusinessName  string `json:"business_name" validate:"required"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	BranchCode    string `json:"branch_code"`
	AccountType   string `json:"account_type"`
	Logo          string `json:"logo"`
}

func profileModel(p *profile.Profile) Profile {
	return Profile{
		BusinessName:  p.BusinessName,
		BankName:      p.BankName,
		AccountNumber: p.AccountNumber,
		BranchCode:    p.BranchCode,
		AccountType:   p.AccountType,
		Logo:          p.Logo,
	}
}

func (s *Server) GetProfile(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getProfileUoW()

	p, err := s.profileService.GetProfile(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, profileModel(p))
}

func (s *Server) SaveProfile(c echo.Context) error {
	var req Profile
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getProfileUoW()

	p := &profile.Profile{
		CoachID:       coach.CoachID,
		BusinessName:  req.BusinessName,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		BranchCode:    req.BranchCode,
		AccountType:   req.AccountType,
		Logo:          req.Logo,
	}
	if err := s.profileService.SaveProfile(c.Request().Context(), uow, p); err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, profileModel(p))
}
