package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohaimenalqadi/kick-donations/internal/model"
)

// Sync fetches state snapshots over HTTP. The overlay trusts snapshots over
// any events it may have buffered: after every (re)connect it pulls the
// outstanding queue, settings and tier config fresh instead of assuming the
// socket delivered everything.
type Sync struct {
	BaseURL string
	HTTP    *http.Client
}

// NewSync returns a Sync against the given server base URL, e.g.
// "http://localhost:8080".
func NewSync(baseURL string) *Sync {
	return &Sync{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Settings fetches the platform settings.
func (s *Sync) Settings(ctx context.Context) (model.PlatformSettings, error) {
	var out struct {
		Settings model.PlatformSettings `json:"settings"`
	}
	err := s.getJSON(ctx, "/v1/settings", &out)
	return out.Settings, err
}

// Tiers fetches the tier configuration.
func (s *Sync) Tiers(ctx context.Context) ([]model.TierSetting, error) {
	var out struct {
		Tiers []model.TierSetting `json:"tiers"`
	}
	err := s.getJSON(ctx, "/v1/tier-settings", &out)
	return out.Tiers, err
}

// Queue fetches the outstanding donations (pending and live) in creation
// order.
func (s *Sync) Queue(ctx context.Context) ([]model.Donation, error) {
	var out struct {
		Queue []model.Donation `json:"queue"`
	}
	err := s.getJSON(ctx, "/v1/donations/queue", &out)
	return out.Queue, err
}

// Latest fetches the most recently completed donation, nil when none.
func (s *Sync) Latest(ctx context.Context) (*model.Donation, error) {
	var out struct {
		Latest *model.Donation `json:"latest"`
	}
	err := s.getJSON(ctx, "/v1/donations/latest", &out)
	return out.Latest, err
}

// Top fetches today's top donor, nil on a quiet day.
func (s *Sync) Top(ctx context.Context) (*model.TopDonor, error) {
	var out struct {
		Top *model.TopDonor `json:"top"`
	}
	err := s.getJSON(ctx, "/v1/donations/top", &out)
	return out.Top, err
}

func (s *Sync) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
