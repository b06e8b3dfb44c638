package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/riskdata"
)

// updateMessage is the wire form of one risk table row replacement.
type updateMessage struct {
	City    string     `json:"city"`
	Disease string     `json:"disease"`
	Risks   []*float64 `json:"risks"`
}

// UpdateTransformer implements Transformer by decoding row replacements and
// mapping their keys onto the registry.
type UpdateTransformer struct {
	resolver riskdata.Resolver
	logger   *slog.Logger
}

// NewTransformer creates an UpdateTransformer resolving keys through res.
func NewTransformer(res riskdata.Resolver, logger *slog.Logger) *UpdateTransformer {
	return &UpdateTransformer{
		resolver: res,
		logger:   logger,
	}
}

func (t *UpdateTransformer) Transform(_ context.Context, raw domain.RawEvent) (riskdata.Update, error) {
	var msg updateMessage
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return riskdata.Update{}, fmt.Errorf("%w: decode update: %v", domain.ErrMalformedPayload, err)
	}

	u, err := riskdata.ParseUpdate(msg.City, msg.Disease, msg.Risks, t.resolver)
	if err != nil {
		return riskdata.Update{}, err
	}
	t.logger.Debug("decoded risk row",
		"city", u.City,
		"disease", u.Disease,
		"months", u.Row.Count(),
	)
	return u, nil
}
