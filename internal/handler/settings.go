package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/repository"
)

// SettingsHandler serves platform settings and tier configuration. Writes
// are admin-only and every successful write is broadcast so overlays and
// dashboards pick the change up without a refresh.
type SettingsHandler struct {
	Settings *repository.SettingsRepo
	Tiers    *repository.TierRepo
	Hub      *hub.Hub
	Activity *repository.ActivityRepo
}

func NewSettingsHandler(s *repository.SettingsRepo, t *repository.TierRepo, h *hub.Hub, a *repository.ActivityRepo) *SettingsHandler {
	return &SettingsHandler{Settings: s, Tiers: t, Hub: h, Activity: a}
}

// ----- DTOs -----

// Patch bodies use pointers so absent fields are left untouched.
type settingsPatchReq struct {
	SiteTitle   *string `json:"site_title"`
	Currency    *string `json:"currency"`
	TTSEnabled  *bool   `json:"tts_enabled"`
	TTSVoice    *string `json:"tts_voice"`
	MuteOverlay *bool   `json:"mute_overlay"`
}

type tierPatchReq struct {
	Label         *string  `json:"label"`
	MinAmount     *float64 `json:"min_amount"`
	DurationMS    *int     `json:"duration"`
	Color         *string  `json:"color"`
	SoundURL      *string  `json:"sound_url"`
	BackgroundURL *string  `json:"background_url"`
	Volume        *int     `json:"volume"`
}

// Get returns the platform settings row.
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": s})
}

// Patch updates platform settings and broadcasts the full updated row.
func (h *SettingsHandler) Patch(c echo.Context) error {
	var req settingsPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Settings.Update(ctx, repository.SettingsUpdate{
		SiteTitle:   req.SiteTitle,
		Currency:    req.Currency,
		TTSEnabled:  req.TTSEnabled,
		TTSVoice:    req.TTSVoice,
		MuteOverlay: req.MuteOverlay,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Hub.BroadcastSettingsChanged(s)
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "settings_updated", nil)
	}
	return c.JSON(http.StatusOK, s)
}

// ListTiers returns every tier ordered by ascending threshold.
func (h *SettingsHandler) ListTiers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tiers, err := h.Tiers.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tiers": tiers})
}

// PatchTier updates one tier and broadcasts the full updated row. Already
// created donations keep their frozen tier key; only styling resolved at
// dispatch time reflects the change.
func (h *SettingsHandler) PatchTier(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tier id"})
	}
	var req tierPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MinAmount != nil && *req.MinAmount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_amount must be >= 0"})
	}
	if req.DurationMS != nil && *req.DurationMS <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be positive"})
	}
	if req.Volume != nil && (*req.Volume < 0 || *req.Volume > 100) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "volume must be 0..100"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tiers.Update(ctx, id, repository.TierUpdate{
		Label:         req.Label,
		MinAmount:     req.MinAmount,
		DurationMS:    req.DurationMS,
		Color:         req.Color,
		SoundURL:      req.SoundURL,
		BackgroundURL: req.BackgroundURL,
		Volume:        req.Volume,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tier not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Hub.BroadcastTierChanged(t)
	if uid, ok := currentUID(c); ok {
		h.Activity.Log(ctx, uid, "tier_updated", map[string]any{"tier_id": id, "tier_key": t.TierKey})
	}
	return c.JSON(http.StatusOK, t)
}
