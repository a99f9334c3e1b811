package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
)

type Analytics struct {
	client client.Client
}

func NewAnalytics(c client.Client) *Analytics {
	return &Analytics{client: c}
}

// Get returns the aggregate verification and user counts.
func (a *Analytics) Get(ctx context.Context) (*models.Analytics, error) {
	var res models.Analytics
	if err := a.client.Do(ctx, http.MethodGet, "/api/analytics", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
