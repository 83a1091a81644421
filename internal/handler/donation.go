package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohaimenalqadi/kick-donations/internal/config"
	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/model"
	"github.com/mohaimenalqadi/kick-donations/internal/repository"
	"github.com/mohaimenalqadi/kick-donations/internal/service"
	"github.com/mohaimenalqadi/kick-donations/internal/tier"
	"github.com/mohaimenalqadi/kick-donations/internal/validate"
)

// DonationHandler serves the donation lifecycle: intake, the operator queue,
// dispatch to the overlay, public snapshot reads and analytics.
type DonationHandler struct {
	Cfg       config.Config
	Donations *repository.DonationRepo
	Tiers     *repository.TierRepo
	Alerts    *service.AlertService
	Hub       *hub.Hub
	Activity  *repository.ActivityRepo
}

func NewDonationHandler(cfg config.Config, d *repository.DonationRepo, t *repository.TierRepo, a *service.AlertService, h *hub.Hub, act *repository.ActivityRepo) *DonationHandler {
	return &DonationHandler{Cfg: cfg, Donations: d, Tiers: t, Alerts: a, Hub: h, Activity: act}
}

// ----- DTOs -----

type createDonationReq struct {
	DonorName string  `json:"donor_name"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
}

type listDonationsResp struct {
	Donations   []model.Donation `json:"donations"`
	Connections hub.Counts       `json:"connections"`
}

// Create validates and persists a new donation in the pending state. The
// tier key is resolved against the current config and frozen onto the row;
// styling stays live and is re-resolved at dispatch time. A bad name or
// amount rejects the request; a bad message never does, the filter replaces
// it instead.
func (h *DonationHandler) Create(c echo.Context) error {
	var req createDonationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, errs := validate.Donation(req.DonorName, req.Amount, req.Message, h.Cfg.MinDonation, h.Cfg.MaxDonation)
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	tiers, err := h.Tiers.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tier lookup failed"})
	}

	d := model.Donation{
		DonorName: res.DonorName,
		Amount:    res.Amount,
		Message:   res.Message,
		Tier:      tier.Resolve(res.Amount, tiers).Key,
	}
	if err := h.Donations.Create(ctx, &d); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create donation failed"})
	}
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "donation_created", map[string]any{"donation_id": d.ID, "amount": d.Amount})
	}

	return c.JSON(http.StatusCreated, d)
}

// List returns every donation newest-first plus the live connection counts,
// which the dashboard shows next to the queue.
func (h *DonationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	donations, err := h.Donations.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, listDonationsResp{Donations: donations, Connections: h.Hub.CountsByRole()})
}

// Get returns one donation by ID.
func (h *DonationHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Donations.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "donation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// Send dispatches a pending donation to the overlay. The pending -> live
// transition is conditional, so double-clicking Send yields exactly one
// broadcast; the loser gets a 409.
func (h *DonationHandler) Send(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payload, err := h.Alerts.Dispatch(ctx, c.Param("id"))
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "donation not found"})
		case repository.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"error": "donation is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dispatch failed"})
	}
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "alert_sent", map[string]any{"donation_id": payload.ID})
	}
	return c.JSON(http.StatusOK, payload)
}

// Queue is the public snapshot of outstanding work: pending and live
// donations in creation order. Overlay clients call it on every (re)connect
// to recover anything missed while offline.
func (h *DonationHandler) Queue(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	donations, err := h.Donations.ListOutstanding(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"queue": donations})
}

// Latest returns the most recently completed donation, or null when nothing
// has completed yet.
func (h *DonationHandler) Latest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Donations.LatestCompleted(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"latest": d})
}

// Top returns the biggest single donation since local midnight, or null for
// a quiet day.
func (h *DonationHandler) Top(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	top, err := h.Donations.TopDonorSince(ctx, localMidnight())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"top": top})
}

// Stats returns today's totals for the dashboard header.
func (h *DonationHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Donations.StatsSince(ctx, localMidnight())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	top, err := h.Donations.TopDonorSince(ctx, localMidnight())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"today":       stats,
		"top_donor":   top,
		"connections": h.Hub.CountsByRole(),
	})
}

// Analytics returns per-day totals and the tier distribution over
// [?start, ?end] (dates as 2006-01-02; default the last 7 days).
func (h *DonationHandler) Analytics(c echo.Context) error {
	end := time.Now()
	start := localMidnight().AddDate(0, 0, -6)
	if v := c.QueryParam("start"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be YYYY-MM-DD"})
		}
		start = t
	}
	if v := c.QueryParam("end"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be YYYY-MM-DD"})
		}
		end = t.AddDate(0, 0, 1) // end date is inclusive
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end before start"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	totals, err := h.Donations.DailyTotals(ctx, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	dist, err := h.Donations.TierDistribution(ctx, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"daily_totals":      totals,
		"tier_distribution": dist,
	})
}

// Delete removes one donation regardless of status.
func (h *DonationHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.Donations.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "donation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "donation_deleted", map[string]any{"donation_id": id})
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete clears donations by period: "today" wipes everything since
// local midnight, "all" wipes the whole table.
func (h *DonationHandler) BulkDelete(c echo.Context) error {
	period := strings.ToLower(c.QueryParam("period"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var (
		n   int64
		err error
	)
	switch period {
	case "today":
		n, err = h.Donations.DeleteSince(ctx, localMidnight())
	case "all":
		n, err = h.Donations.DeleteAll(ctx)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "period must be today or all"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "donations_cleared", map[string]any{"period": period, "deleted": n})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// localMidnight is the start of today in server-local time. Daily stats and
// the top-donor window reset on the streamer's wall clock, not UTC.
func localMidnight() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// currentUID reads the numeric user ID stored by the JWT middleware.
func currentUID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
