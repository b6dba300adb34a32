package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jflips/coachlog_backend/internal/app/auth"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	slogecho "github.com/samber/slog-echo"
)

const KeyCurrentCoach = "current_coach"

// LoginRequired validates the bearer token and stores the coach identity on
// the request context. Client device attributes land on the request log
// entry for audits.
func LoginRequired(authorizer *auth.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return JsonError(c, http.StatusUnprocessableEntity, "Invalid Authorization header")
			}
			coach, err := authorizer.ValidateAccessToken(parts[1])
			if err != nil {
				return JsonError(c, http.StatusUnauthorized, err.Error())
			}
			c.Set(KeyCurrentCoach, coach)

			agent := useragent.Parse(c.Request().UserAgent())
			slogecho.AddCustomAttributes(c, slog.Group("client",
				slog.String("coach_id", coach.CoachID),
				slog.String("browser", agent.Name),
				slog.String("os", agent.OS),
				slog.String("device", agent.Device),
			))

			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}

func currentCoach(c echo.Context) *auth.AccessTokenData {
	return c.Get(KeyCurrentCoach).(*auth.AccessTokenData)
}
