package api

import (
	"errors"
	"net/http"

	backupservice "github.com/jflips/coachlog_backend/internal/app/backup"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/labstack/echo/v4"
)

func (s *Server) MountBackup() {
	loginRequired := LoginRequired(s.authorizer)

	backup := s.handler.Group("/backup", loginRequired)
	backup.GET("/export", s.ExportBackup)
	backup.POST("/restore", s.RestoreBackup)
	backup.POST("/wipe", s.WipeData)
}

func (s *Server) getBackupUoW() *unitofwork.UnitOfWork[*backupservice.AtomicContext] {
	return unitofwork.New[*backupservice.AtomicContext](
		s.db,
		backupservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

func (s *Server) ExportBackup(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getBackupUoW()

	snap, err := s.backupService.Export(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) RestoreBackup(c echo.Context) error {
	var snap backupservice.Snapshot
	if err := c.Bind(&snap); err != nil {
		return JsonError(c, http.StatusBadRequest, "bad request")
	}

	coach := currentCoach(c)
	uow := s.getBackupUoW()

	if err := s.backupService.Restore(c.Request().Context(), uow, coach.CoachID, &snap); err != nil {
		if errors.Is(err, backupservice.ErrMalformedSnapshot) {
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) WipeData(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getBackupUoW()

	if err := s.backupService.Wipe(c.Request().Context(), uow, coach.CoachID); err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
