package queries

import (
	"context"

	"orderflow/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetOrderStatsQueryHandler aggregates order counts in a single GROUP BY.
type GetOrderStatsQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderStatsQueryHandler(db *gorm.DB) GetOrderStatsQueryHandler {
	return GetOrderStatsQueryHandler{db: db}
}

func (h GetOrderStatsQueryHandler) Handle(ctx context.Context, query GetOrderStatsQuery) (GetOrderStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	var counts []struct {
		Status string
		Count  int64
	}
	err := h.db.WithContext(ctx).
		Table("orders").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	var resp GetOrderStatsQueryResponse
	for _, c := range counts {
		status, err := order.ParseStatus(c.Status)
		if err != nil {
			return GetOrderStatsQueryResponse{}, err
		}

		switch status {
		case order.Pending:
			resp.Pending = c.Count
		case order.Processing:
			resp.Processing = c.Count
		case order.Completed:
			resp.Completed = c.Count
		case order.Failed:
			resp.Failed = c.Count
		}
		resp.Total += c.Count
	}

	return resp, nil
}
