package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/buzzboard/internal/promo"
)

func (s *Server) listThreads(c echo.Context) error {
	threads, err := s.threads.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("thread list failed")
		return errorJSON(c, http.StatusInternalServerError, "promo_threads の取得に失敗しました。")
	}
	return c.JSON(http.StatusOK, threads)
}

func (s *Server) getThread(c echo.Context) error {
	thread, err := s.threads.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("thread load failed")
		return errorJSON(c, http.StatusInternalServerError, "スレッドの取得に失敗しました。")
	}
	if thread == nil {
		return errorJSON(c, http.StatusNotFound, "スレッドが見つかりません。")
	}
	return c.JSON(http.StatusOK, thread)
}

func (s *Server) deleteThread(c echo.Context) error {
	if err := s.threads.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return errorJSON(c, http.StatusNotFound, "スレッドが見つかりません。")
		}
		log.Error().Err(err).Msg("thread delete failed")
		return errorJSON(c, http.StatusInternalServerError, "スレッドの削除に失敗しました。")
	}
	return c.NoContent(http.StatusNoContent)
}

// appendComments generates 1-3 follow-up comments for a thread on demand,
// persists the grown transcript and returns both the new turns and the
// whole transcript.
func (s *Server) appendComments(c echo.Context) error {
	ctx := c.Request().Context()

	thread, err := s.threads.Get(ctx, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("thread load failed")
		return errorJSON(c, http.StatusInternalServerError, "スレッドの取得に失敗しました。")
	}
	if thread == nil {
		return errorJSON(c, http.StatusNotFound, "スレッドが見つかりません。")
	}

	contextLines := promo.RenderContext(thread.Transcript, 10)
	productInfo := thread.ProductName + "\n" + thread.KeyFeatures

	newTurns, err := s.generator.Append(ctx, contextLines, productInfo, nil)
	if err != nil {
		log.Error().Err(err).Str("thread_id", thread.ID).Msg("comment generation failed")
		return errorJSON(c, http.StatusInternalServerError, "コメントの生成に失敗しました。")
	}

	transcript := thread.Transcript
	if len(newTurns) > 0 {
		transcript = append(transcript, newTurns...)
		if err := s.threads.UpdateTranscript(ctx, thread.ID, transcript); err != nil {
			log.Error().Err(err).Str("thread_id", thread.ID).Msg("transcript update failed")
			return errorJSON(c, http.StatusInternalServerError, "transcript の更新に失敗しました。")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"new_comments": newTurns,
		"transcript":   transcript,
	})
}

type generateThreadRequest struct {
	TargetURL string `json:"target_url"`
}

// generateThread runs the full pipeline once for an operator-supplied URL.
// A scrape failure is a 200 with a scrape_failed payload: the admin UI
// reacts by asking for pasted text rather than treating it as an error.
func (s *Server) generateThread(c echo.Context) error {
	var req generateThreadRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "リクエストボディが不正です。")
	}
	if strings.TrimSpace(req.TargetURL) == "" {
		return errorJSON(c, http.StatusBadRequest, "target_url を指定してください。")
	}

	outcome, err := s.worker.GenerateFromURL(c.Request().Context(), req.TargetURL)
	if err != nil {
		log.Error().Err(err).Str("url", req.TargetURL).Msg("thread generation failed")
		return errorJSON(c, http.StatusInternalServerError, "スレッドの生成に失敗しました。")
	}
	return c.JSON(http.StatusOK, outcome)
}

type createHypeRequest struct {
	URL         string `json:"url"`
	TextContent string `json:"text_content"`
}

// createHype is the legacy two-stage path: analyze the input into a product
// summary plus three cast personas, then generate their conversation.
func (s *Server) createHype(c echo.Context) error {
	var req createHypeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "リクエストボディが不正です。")
	}

	ctx := c.Request().Context()
	sourceURL := strings.TrimSpace(req.URL)

	inputText := strings.TrimSpace(req.TextContent)
	if inputText == "" && sourceURL != "" {
		if page, err := s.pages.Fetch(ctx, sourceURL); err == nil {
			inputText = page.Text
		} else {
			log.Warn().Err(err).Str("url", sourceURL).Msg("hype input fetch failed")
		}
	}
	if len([]rune(inputText)) < 10 {
		return errorJSON(c, http.StatusBadRequest,
			"url または text_content を入力してください（テキストは10文字以上）。")
	}

	analysis, err := s.hype.Analyze(ctx, inputText)
	if err != nil {
		log.Error().Err(err).Msg("hype analysis failed")
		return errorJSON(c, http.StatusInternalServerError, "会話の生成に失敗しました。")
	}
	transcript, err := s.hype.Transcript(ctx, analysis)
	if err != nil {
		log.Error().Err(err).Msg("hype transcript failed")
		return errorJSON(c, http.StatusInternalServerError, "会話の生成に失敗しました。")
	}

	thread, err := s.threads.Insert(ctx, promo.Thread{
		ProductName:  analysis.ProductName,
		SourceURL:    sourceURL,
		KeyFeatures:  analysis.KeyFeatures,
		CastProfiles: analysis.CastProfiles,
		Transcript:   transcript,
	})
	if err != nil {
		log.Error().Err(err).Msg("hype thread insert failed")
		return errorJSON(c, http.StatusInternalServerError, "保存に失敗しました。")
	}
	return c.JSON(http.StatusOK, thread)
}

func (s *Server) fetchTitle(c echo.Context) error {
	rawURL := strings.TrimSpace(c.QueryParam("url"))
	if rawURL == "" {
		return errorJSON(c, http.StatusBadRequest, "url クエリパラメータを指定してください。")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return errorJSON(c, http.StatusBadRequest, "有効なURLを指定してください。")
	}

	title, err := s.pages.FetchTitle(c.Request().Context(), rawURL)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("title fetch failed")
		return errorJSON(c, http.StatusNotFound, "ページからタイトルを取得できませんでした。")
	}
	return c.JSON(http.StatusOK, map[string]string{"title": title})
}
