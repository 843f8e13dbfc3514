package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/jgoulah/gridprofile/internal/config"
	"github.com/jgoulah/gridprofile/pkg/models"
)

type homeAssistant struct {
	cfg    config.HAConfig
	client *http.Client
}

func newHomeAssistant(cfg config.HAConfig) (*homeAssistant, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("Home Assistant URL is required when enabled")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("Home Assistant token is required when enabled")
	}
	if cfg.EntityID == "" {
		return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
	}
	return &homeAssistant{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}, nil
}

// HAState is the body of a Home Assistant POST /api/states/<entity_id> call
type HAState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func stateFor(profile *models.UsageProfile) HAState {
	return HAState{
		State: string(profile.ProfileType),
		Attributes: map[string]any{
			"user_id":               profile.UserID,
			"classification_reason": profile.ClassificationReason,
			"mean_kwh":              round2(profile.Statistics.MeanKWh),
			"annual_total_kwh":      round2(profile.Statistics.AnnualTotalKWh),
			"projected_annual_kwh":  round2(profile.Projection.ProjectedAnnualKWh),
			"projection_method":     string(profile.Projection.Method),
			"summer_winter_ratio":   round2(profile.Seasonal.SummerWinterRatio),
			"seasonal_confidence":   round2(profile.Seasonal.SeasonalConfidence),
			"data_quality":          round2(profile.DataQuality.QualityScore),
			"overall_confidence":    round2(profile.OverallConfidence),
			"icon":                  "mdi:home-lightning-bolt",
		},
	}
}

// PublishHomeAssistant sets the configured sensor's state to the profile
// classification, with the headline numbers as attributes
func (p *Publisher) PublishHomeAssistant(ctx context.Context, profile *models.UsageProfile) error {
	if p.ha == nil {
		return fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	apiURL := fmt.Sprintf("%s/api/states/%s", strings.TrimSuffix(p.ha.cfg.URL, "/"), p.ha.cfg.EntityID)

	body, err := json.Marshal(stateFor(profile))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.ha.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.ha.client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Publish sends the profile to every enabled destination
func (p *Publisher) Publish(ctx context.Context, profile *models.UsageProfile) error {
	if p.client != nil {
		if err := p.PublishMQTT(profile); err != nil {
			return err
		}
	}
	if p.ha != nil {
		if err := p.PublishHomeAssistant(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
