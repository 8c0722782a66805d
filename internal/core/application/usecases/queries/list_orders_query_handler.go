package queries

import (
	"context"

	"gorm.io/gorm"
)

// ListOrdersQueryHandler lists orders ordered by created_at descending. Ties are broken
// by id so pages are stable.
type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	tx := h.db.WithContext(ctx).Table("orders").Select(orderColumns)
	if status, ok := query.Status(); ok {
		tx = tx.Where("status = ?", status.String())
	}

	var rows []orderRow
	if err := tx.Order("created_at DESC").Order("id").Limit(query.Limit()).Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		view, err := row.toView()
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}
