package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

// CreateEntryRequest is the request body for POST /api/v1/entries.
type CreateEntryRequest struct {
	Mood             int    `json:"mood"`
	Urgency          int    `json:"urgency"`
	WaitedTenMinutes bool   `json:"waited_ten_minutes"`
	Smoked           bool   `json:"smoked"`
	IsSpecial        bool   `json:"is_special"`
	Notes            string `json:"notes"`
}

// EntriesResponse is the response body for GET /api/v1/entries.
type EntriesResponse struct {
	Entries []model.Entry    `json:"entries"`
	Window  *timecalc.Window `json:"window,omitempty"`
}

// NavigateResponse is the report for the period next to the requested one.
type NavigateResponse struct {
	Date   string        `json:"date"`
	Report report.Report `json:"report"`
}

func (s *Server) handleListEntries(c echo.Context) error {
	entries := currentStore(c).All()
	if c.QueryParam("granularity") == "" && c.QueryParam("date") == "" {
		return c.JSON(http.StatusOK, EntriesResponse{Entries: entries})
	}
	ref, g, err := s.period(c)
	if err != nil {
		return err
	}
	w := timecalc.ComputeWindow(ref, g)
	return c.JSON(http.StatusOK, EntriesResponse{Entries: report.Filter(entries, w), Window: &w})
}

func (s *Server) handleCreateEntry(c echo.Context) error {
	var req CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	now := s.now()
	e := model.Entry{
		ID:               timecalc.GenerateID(now),
		Timestamp:        now,
		Mood:             req.Mood,
		Urgency:          req.Urgency,
		WaitedTenMinutes: req.WaitedTenMinutes,
		Smoked:           req.Smoked,
		IsSpecial:        req.IsSpecial,
		Notes:            req.Notes,
	}
	if err := e.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := currentStore(c).Append(e); err != nil {
		s.logger.Error("saving entry", zap.String("user_id", currentUser(c).ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not save the entry").SetInternal(err)
	}
	s.metrics.entryLogged(e.Smoked)
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) handleReport(c echo.Context) error {
	ref, g, err := s.period(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Build(currentStore(c).All(), ref, g))
}

func (s *Server) handleNavigate(c echo.Context) error {
	ref, g, err := s.period(c)
	if err != nil {
		return err
	}
	dir, err := timecalc.ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	next := timecalc.Navigate(ref, g, dir)
	return c.JSON(http.StatusOK, NavigateResponse{
		Date:   next.Format("2006-01-02"),
		Report: report.Build(currentStore(c).All(), next, g),
	})
}

func (s *Server) handleToday(c echo.Context) error {
	return c.JSON(http.StatusOK, report.Today(currentStore(c).All(), s.now()))
}

// period reads the granularity and date query parameters. Both are optional:
// the defaults are a day and today.
func (s *Server) period(c echo.Context) (time.Time, timecalc.Granularity, error) {
	g, err := timecalc.ParseGranularity(c.QueryParam("granularity"))
	if err != nil {
		return time.Time{}, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ref, err := timecalc.ParseDate(c.QueryParam("date"), s.now())
	if err != nil {
		return time.Time{}, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ref, g, nil
}
