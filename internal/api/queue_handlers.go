package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/promo"
)

type createQueueItemRequest struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	AffiliateURL  string `json:"affiliate_url"`
	AffiliateText string `json:"affiliate_text"`
	Context       string `json:"context"`
}

func (s *Server) createQueueItem(c echo.Context) error {
	var req createQueueItemRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "リクエストボディが不正です。")
	}
	if strings.TrimSpace(req.URL) == "" {
		return errorJSON(c, http.StatusBadRequest, "url を指定してください。")
	}

	item, err := s.queue.Add(c.Request().Context(), promo.QueueItem{
		URL:           strings.TrimSpace(req.URL),
		Title:         strings.TrimSpace(req.Title),
		AffiliateURL:  strings.TrimSpace(req.AffiliateURL),
		AffiliateText: strings.TrimSpace(req.AffiliateText),
		Context:       strings.TrimSpace(req.Context),
	})
	if err != nil {
		log.Error().Err(err).Msg("queue insert failed")
		return errorJSON(c, http.StatusInternalServerError, "topic_queue への追加に失敗しました。")
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) listQueue(c echo.Context) error {
	items, err := s.queue.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("queue list failed")
		return errorJSON(c, http.StatusInternalServerError, "topic_queue の取得に失敗しました。")
	}
	return c.JSON(http.StatusOK, items)
}

type updateQueueItemRequest struct {
	Status string `json:"status"`
}

// updateQueueItem requeues a consumed item. Only the pending status is
// accepted; done and error are owned by the worker.
func (s *Server) updateQueueItem(c echo.Context) error {
	var req updateQueueItemRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "リクエストボディが不正です。")
	}
	if req.Status != promo.StatusPending {
		return errorJSON(c, http.StatusBadRequest, "status には pending のみ指定できます。")
	}

	if err := s.queue.SetStatus(c.Request().Context(), c.Param("id"), promo.StatusPending); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return errorJSON(c, http.StatusNotFound, "指定された topic_queue が見つかりません。")
		}
		log.Error().Err(err).Msg("queue status update failed")
		return errorJSON(c, http.StatusInternalServerError, "topic_queue の更新に失敗しました。")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": promo.StatusPending})
}

func (s *Server) deleteQueueItem(c echo.Context) error {
	if err := s.queue.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return errorJSON(c, http.StatusNotFound, "指定された topic_queue が見つかりません。")
		}
		log.Error().Err(err).Msg("queue delete failed")
		return errorJSON(c, http.StatusInternalServerError, "topic_queue の削除に失敗しました。")
	}
	return c.NoContent(http.StatusNoContent)
}
