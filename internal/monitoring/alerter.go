package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRunFailureRate    AlertType = "run_failure_rate"
	AlertDocumentErrorRate AlertType = "document_error_rate"
	AlertSourceUnavailable AlertType = "source_unavailable"
)

// Minimum sample sizes before a rate can alert.
const (
	minFinishedRunsForRate   = 3
	minDocumentsForErrorRate = 10
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates an Alerter.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := snap.CollectedAt

	finished := snap.RunsComplete + snap.RunsFailed
	if finished >= minFinishedRunsForRate && snap.RunFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertRunFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Run failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.RunFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.RunsFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.RunFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.RunsFailed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	if a.cfg.DocumentErrorRateThreshold > 0 && snap.Documents >= minDocumentsForErrorRate &&
		snap.DocumentErrorRate > a.cfg.DocumentErrorRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDocumentErrorRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d of %d documents failed in last %dh (%.1f%%); check extraction and scraping",
				snap.DocumentErrors, snap.Documents, snap.LookbackHours, snap.DocumentErrorRate*100,
			),
			Details: map[string]any{
				"documents":      snap.Documents,
				"errors":         snap.DocumentErrors,
				"projects_saved": snap.ProjectsSaved,
			},
			Timestamp: now,
		})
	}

	if len(snap.FailingSources) > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertSourceUnavailable,
			Severity: "medium",
			Message: fmt.Sprintf("Sources returned no documents in any run in last %dh: %s",
				snap.LookbackHours, strings.Join(snap.FailingSources, ", ")),
			Details:   map[string]any{"sources": snap.FailingSources},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL and returns how
// many were sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
