// Package monitoring turns model-health warnings and run history into
// alerts and posts them to a chat webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/validator"
)

// AlertType identifies the kind of alert. Model-health alerts reuse the
// validator warning code.
type AlertType string

const (
	AlertLowCorrelation  AlertType = validator.WarnLowCorrelation
	AlertDegenerate      AlertType = validator.WarnDegenerate
	AlertScoreOutOfRange AlertType = validator.WarnOutOfRange
	AlertRunFailureRate  AlertType = "run_failure_rate"
)

var severities = map[AlertType]string{
	AlertLowCorrelation:  "medium",
	AlertDegenerate:      "high",
	AlertScoreOutOfRange: "high",
	AlertRunFailureRate:  "high",
}

// Alert is one webhook message. Text makes the payload readable by
// Slack-compatible incoming webhooks.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Text      string         `json:"text"`
	RunID     string         `json:"run_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func newAlert(typ AlertType, runID, msg string, details map[string]any, now time.Time) Alert {
	sev := severities[typ]
	if sev == "" {
		sev = "medium"
	}
	return Alert{
		Type:      typ,
		Severity:  sev,
		Message:   msg,
		Text:      fmt.Sprintf("[leadgen %s] %s", sev, msg),
		RunID:     runID,
		Details:   details,
		Timestamp: now,
	}
}

// Alerter builds alerts and delivers them to the configured webhook.
type Alerter struct {
	cfg    config.AlertConfig
	client *http.Client
	policy resilience.Policy
	now    func() time.Time
}

// NewAlerter creates an Alerter from the alert config.
func NewAlerter(cfg config.AlertConfig) *Alerter {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	policy := resilience.DefaultPolicy("webhook", "send_alert")
	if cfg.RetryAttempts > 0 {
		policy.Attempts = cfg.RetryAttempts
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HealthAlerts converts a validation report's warnings into alerts.
func (a *Alerter) HealthAlerts(runID string, r *validator.Report) []Alert {
	if r == nil {
		return nil
	}
	now := a.now()
	alerts := make([]Alert, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		details := map[string]any{
			"leads":      r.Count,
			"mean_score": r.Mean,
			"std_dev":    r.StdDev,
		}
		if r.CorrelationDefined {
			details["correlation"] = r.Correlation
		}
		alerts = append(alerts, newAlert(AlertType(w.Code), runID, w.Message, details, now))
	}
	return alerts
}

// Evaluate checks a run-history snapshot against the failure-rate
// threshold. Fewer than three finished runs never alert.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	finished := snap.Complete + snap.Failed
	if finished < 3 || a.cfg.FailureRateThreshold <= 0 || snap.FailRate <= a.cfg.FailureRateThreshold {
		return nil
	}
	msg := fmt.Sprintf("run failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
		snap.FailRate*100, a.cfg.FailureRateThreshold*100, snap.Failed, finished, snap.LookbackHours)
	return []Alert{newAlert(AlertRunFailureRate, "", msg, map[string]any{
		"failure_rate": snap.FailRate,
		"threshold":    a.cfg.FailureRateThreshold,
		"failed":       snap.Failed,
		"finished":     finished,
	}, a.now())}
}

// SendAlerts delivers alerts to the webhook and returns how many were
// accepted. Delivery failures are logged, never returned.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, a.policy, func(ctx context.Context) error {
			return a.post(ctx, alert)
		})
		if err != nil {
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

func (a *Alerter) post(ctx context.Context, alert Alert) error {
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
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	return nil
}
