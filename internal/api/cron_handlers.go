package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/worker"
)

func (s *Server) cronCreateThread(c echo.Context) error {
	outcome, err := s.worker.AdvanceQueue(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("cron create-thread failed")
		return errorJSON(c, http.StatusInternalServerError, "cron/create-thread 実行中にエラーが発生しました。")
	}
	return c.JSON(http.StatusOK, outcome)
}

func (s *Server) cronExtendThread(c echo.Context) error {
	outcome, err := s.worker.ExtendThread(c.Request().Context(), worker.SelectLatest)
	if err != nil {
		log.Error().Err(err).Msg("cron extend-thread failed")
		return errorJSON(c, http.StatusInternalServerError, "cron/extend-thread 実行中にエラーが発生しました。")
	}
	return c.JSON(http.StatusOK, outcome)
}
