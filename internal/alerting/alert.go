package alerting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/engine"
	"github.com/google/uuid"
)

// alertNamespace scopes alert ids so they never collide with other UUIDv5 users.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:disease-risk-service:alert"))

// Alert is a published notice that a (city, disease) pair reached the alert
// threshold in the current month.
type Alert struct {
	ID              string                 `json:"id"`
	City            string                 `json:"city"`
	Disease         domain.DiseaseID       `json:"disease"`
	DiseaseName     string                 `json:"disease_name"`
	Risk            float64                `json:"risk"`
	Tier            domain.Tier            `json:"tier"`
	NextMonthRisk   float64                `json:"next_month_risk"`
	Trend           domain.Trend           `json:"trend"`
	Headline        string                 `json:"headline"`
	Recommendations []string               `json:"recommendations"`
	Provenance      domain.Provenance      `json:"provenance"`
	Outlook         []domain.ForecastPoint `json:"outlook"`
	Summary         engine.ForecastSummary `json:"summary"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// AlertID derives a stable id from the city, disease and calendar month of
// at, so rescans within one month produce the same id.
func AlertID(city string, disease domain.DiseaseID, at time.Time) string {
	name := fmt.Sprintf("%s|%s|%04d-%02d", city, disease, at.Year(), int(at.Month()))
	return uuid.NewSHA1(alertNamespace, []byte(name)).String()
}

// serializeAlert encodes an alert as an output event keyed by its id.
func serializeAlert(a Alert) (domain.OutputEvent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize alert: %w", err)
	}
	return domain.OutputEvent{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"disease":      string(a.Disease),
			"tier":         string(a.Tier),
			"generated_at": a.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}
