package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction is the way a row moves in a display order
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection validates a direction coming from a request
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

type orderRow struct {
	ID         uint
	OrderIndex int
}

// planReorder swaps the row with its neighbour and renumbers the list 0..n-1.
// Rows are ranked by (order_index, id) so duplicate indexes have a stable order.
// It returns only the rows whose order_index changes; moving past either end is a no-op.
func planReorder(rows []orderRow, id uint, dir Direction) (map[uint]int, error) {
	sorted := make([]orderRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OrderIndex != sorted[j].OrderIndex {
			return sorted[i].OrderIndex < sorted[j].OrderIndex
		}
		return sorted[i].ID < sorted[j].ID
	})

	pos := -1
	for i, r := range sorted {
		if r.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, ErrNotFound
	}

	target := pos - 1
	if dir == DirectionDown {
		target = pos + 1
	}
	if target < 0 || target >= len(sorted) {
		return map[uint]int{}, nil
	}

	sorted[pos], sorted[target] = sorted[target], sorted[pos]

	changes := make(map[uint]int)
	for i, r := range sorted {
		if r.OrderIndex != i {
			changes[r.ID] = i
		}
	}
	return changes, nil
}

// Reorder moves the row with the given id one step up or down among rows of T.
// The read and all updates run in one transaction with the rows locked.
func Reorder[T any](ctx context.Context, s *Store, id uint, dir Direction) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var rows []orderRow
		if err := tx.Model(new(T)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "order_index").
			Order("order_index asc, id asc").
			Find(&rows).Error; err != nil {
			return err
		}

		changes, err := planReorder(rows, id, dir)
		if err != nil {
			return err
		}

		for rowID, idx := range changes {
			if err := tx.Model(new(T)).Where("id = ?", rowID).Update("order_index", idx).Error; err != nil {
				return fmt.Errorf("update order_index of %d: %w", rowID, err)
			}
		}
		return nil
	})
}

// NextOrderIndex returns max(order_index)+1 for T, or 0 for an empty table
func NextOrderIndex[T any](ctx context.Context, s *Store) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var next int
	if err := db.Model(new(T)).Select("COALESCE(MAX(order_index), -1) + 1").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
