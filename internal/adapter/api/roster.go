package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	rosterservice "github.com/jflips/coachlog_backend/internal/app/roster"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

func (s *Server) MountRoster() {
	loginRequired := LoginRequired(s.authorizer)

	athletes := s.handler.Group("/athletes", loginRequired)
	athletes.GET("", s.ListAthletes)
	athletes.POST("", s.CreateAthlete)
	athletes.PUT("/:athlete_id", s.SaveAthlete)
	athletes.DELETE("/:athlete_id", s.DeleteAthlete)

	offerings := s.handler.Group("/offerings", loginRequired)
	offerings.GET("", s.ListOfferings)
	offerings.POST("", s.CreateOffering)
	offerings.PUT("/:offering_id", s.SaveOffering)
	offerings.DELETE("/:offering_id", s.DeleteOffering)
}

func (s *Server) getRosterUoW() *unitofwork.UnitOfWork[*rosterservice.AtomicContext] {
	return unitofwork.New[*rosterservice.AtomicContext](
		s.db,
		rosterservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type Athlete struct {
	AthleteID string `json:"id"`
	Name      string `json:"name"`
	GroupKey  string `json:"group_key,omitempty"`
	CreatedAt string `json:"created_at"`
}

func athleteModel(a *athlete.Athlete) Athlete {
	return Athlete{
		AthleteID: a.AthleteID,
		Name:      a.Name,
		GroupKey:  a.GroupKey,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

type ListAthletesResponse struct {
	Athletes []Athlete `json:"athletes"`
}

func (s *Server) ListAthletes(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getRosterUoW()

	list, err := s.rosterService.ListAthletes(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, ListAthletesResponse{
		Athletes: lo.Map(list, func(a *athlete.Athlete, _ int) Athlete {
			return athleteModel(a)
		}),
	})
}

type SaveAthleteRequest struct {
	AthleteID     string `param:"athlete_id"`
	Name          string `json:"name" validate:"required"`
	LinkSiblingID string `json:"link_sibling_id"`
}

func (s *Server) CreateAthlete(c echo.Context) error {
	return s.saveAthlete(c, uuid.NewString(), http.StatusCreated)
}

func (s *Server) SaveAthlete(c echo.Context) error {
	return s.saveAthlete(c, "", http.StatusOK)
}

func (s *Server) saveAthlete(c echo.Context, newID string, okStatus int) error {
	var req SaveAthleteRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	if newID != "" {
		req.AthleteID = newID
	}

	coach := currentCoach(c)
	uow := s.getRosterUoW()

	saved, err := s.rosterService.SaveAthlete(
		c.Request().Context(), uow, coach.CoachID, req.AthleteID, req.Name, req.LinkSiblingID,
	)
	if err != nil {
		if errors.Is(err, athlete.ErrAthleteNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(okStatus, athleteModel(saved))
}

type DeleteAthleteRequest struct {
	AthleteID string `param:"athlete_id" validate:"required"`
}

func (s *Server) DeleteAthlete(c echo.Context) error {
	var req DeleteAthleteRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getRosterUoW()

	if err := s.rosterService.DeleteAthlete(c.Request().Context(), uow, coach.CoachID, req.AthleteID); err != nil {
		if errors.Is(err, athlete.ErrAthleteNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type Offering struct {
	OfferingID         string   `json:"id"`
	Name               string   `json:"name"`
	Price              int64    `json:"price"`
	EnrolledAthleteIDs []string `json:"enrolled_athlete_ids,omitempty"`
}

func offeringModel(o *offering.ClassOffering) Offering {
	return Offering{
		OfferingID:         o.OfferingID,
		Name:               o.Name,
		Price:              o.Price,
		EnrolledAthleteIDs: o.EnrolledAthleteIDs,
	}
}

type ListOfferingsResponse struct {
	Offerings []Offering `json:"class_offerings"`
}

func (s *Server) ListOfferings(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getRosterUoW()

	list, err := s.rosterService.ListOfferings(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, ListOfferingsResponse{
		Offerings: lo.Map(list, func(o *offering.ClassOffering, _ int) Offering {
			return offeringModel(o)
		}),
	})
}

type SaveOfferingRequest struct {
	OfferingID         string   `param:"offering_id"`
	Name               string   `json:"name" validate:"required"`
	Price              int64    `json:"price" validate:"gte=0"`
	EnrolledAthleteIDs []string `json:"enrolled_athlete_ids"`
}

func (s *Server) CreateOffering(c echo.Context) error {
	return s.saveOffering(c, uuid.NewString(), http.StatusCreated)
}

func (s *Server) SaveOffering(c echo.Context) error {
	return s.saveOffering(c, "", http.StatusOK)
}

func (s *Server) saveOffering(c echo.Context, newID string, okStatus int) error {
	var req SaveOfferingRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	if newID != "" {
		req.OfferingID = newID
	}

	coach := currentCoach(c)
	uow := s.getRosterUoW()

	saved, err := s.rosterService.SaveOffering(
		c.Request().Context(), uow, coach.CoachID, req.OfferingID, req.Name, req.Price, req.EnrolledAthleteIDs,
	)
	if err != nil {
		if errors.Is(err, offering.ErrNegativePrice) {
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(okStatus, offeringModel(saved))
}

type DeleteOfferingRequest struct {
	OfferingID string `param:"offering_id" validate:"required"`
}

func (s *Server) DeleteOffering(c echo.Context) error {
	var req DeleteOfferingRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getRosterUoW()

	if err := s.rosterService.DeleteOffering(c.Request().Context(), uow, coach.CoachID, req.OfferingID); err != nil {
		if errors.Is(err, offering.ErrOfferingNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
