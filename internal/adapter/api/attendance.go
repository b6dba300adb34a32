package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	attendanceservice "github.com/jflips/coachlog_backend/internal/app/attendance"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

func (s *Server) MountAttendance() {
	loginRequired := LoginRequired(s.authorizer)

	sessions := s.handler.Group("/sessions", loginRequired)
	sessions.GET("", s.ListSessions)
	sessions.POST("", s.CreateSession)
	sessions.PUT("/:session_id", s.SaveSession)
	sessions.DELETE("/:session_id", s.DeleteSession)
}

func (s *Server) getAttendanceUoW() *unitofwork.UnitOfWork[*attendanceservice.AtomicContext] {
	return unitofwork.New[*attendanceservice.AtomicContext](
		s.db,
		attendanceservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type Session struct {
	SessionID  string   `json:"id"`
	Date       string   `json:"date"`
	OfferingID string   `json:"class_offering_id"`
	AthleteIDs []string `json:"athlete_ids"`
}

func sessionModel(sess *session.Session) Session {
	return Session{
		SessionID:  sess.SessionID,
		Date:       sess.Date.Format(dateLayout),
		OfferingID: sess.OfferingID,
		AthleteIDs: sess.AthleteIDs,
	}
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

func (s *Server) ListSessions(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getAttendanceUoW()

	list, err := s.attendanceService.ListSessions(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, ListSessionsResponse{
		Sessions: lo.Map(list, func(sess *session.Session, _ int) Session {
			return sessionModel(sess)
		}),
	})
}

type SaveSessionRequest struct {
	SessionID  string   `param:"session_id"`
	Date       string   `json:"date" validate:"required"`
	OfferingID string   `json:"class_offering_id" validate:"required"`
	AthleteIDs []string `json:"athlete_ids" validate:"required,min=1"`
}

func (s *Server) CreateSession(c echo.Context) error {
	return s.saveSession(c, uuid.NewString(), http.StatusCreated)
}

func (s *Server) SaveSession(c echo.Context) error {
	return s.saveSession(c, "", http.StatusOK)
}

func (s *Server) saveSession(c echo.Context, newID string, okStatus int) error {
	var req SaveSessionRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	if newID != "" {
		req.SessionID = newID
	}

	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		return JsonError(c, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
	}

	coach := currentCoach(c)
	uow := s.getAttendanceUoW()

	saved, err := s.attendanceService.RecordSession(
		c.Request().Context(), uow, coach.CoachID, req.SessionID, date, req.OfferingID, req.AthleteIDs,
	)
	if err != nil {
		switch {
		case errors.Is(err, offering.ErrOfferingNotFound),
			errors.Is(err, athlete.ErrAthleteNotFound):
			return JsonError(c, http.StatusNotFound, err)
		case errors.Is(err, session.ErrNoAthletes),
			errors.Is(err, attendanceservice.ErrAthleteNotEnrolled):
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(okStatus, sessionModel(saved))
}

type DeleteSessionRequest struct {
	SessionID string `param:"session_id" validate:"required"`
}

func (s *Server) DeleteSession(c echo.Context) error {
	var req DeleteSessionRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getAttendanceUoW()

	if err := s.attendanceService.DeleteSession(c.Request().Context(), uow, coach.CoachID, req.SessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
