package utils

import (
	"errors"
	"fmt"

	"lms/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidOrder is returned when a reorder request is not a permutation of the siblings.
var ErrInvalidOrder = errors.New("order must list every sibling exactly once")

// Siblings is one ordered group: the rows of Model whose ParentColumn equals ParentID.
type Siblings struct {
	Model        interface{}
	ParentColumn string
	ParentID     uint
}

func (s Siblings) scope(tx *gorm.DB) *gorm.DB {
	return tx.Model(s.Model).Where(s.ParentColumn+" = ?", s.ParentID)
}

// LockParent loads the parent row into dest, holding a row lock until the transaction
// ends so that appends and reorders on the same group are serialized. sqlite has no
// row locks; its writers are already serialized.
func LockParent(tx *gorm.DB, dest interface{}, id uint) error {
	q := tx
	if !database.IsSQLite(tx) {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.First(dest, id).Error
}

// NextPosition returns the position for a new last sibling.
func NextPosition(tx *gorm.DB, s Siblings) (int, error) {
	var maxPosition int
	if err := s.scope(tx).Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
		return 0, err
	}
	return maxPosition + 1, nil
}

// ValidateOrder checks that requested holds exactly the ids of current, each once.
func ValidateOrder(current, requested []uint) error {
	if len(current) != len(requested) {
		return fmt.Errorf("%w: expected %d ids, got %d", ErrInvalidOrder, len(current), len(requested))
	}
	known := make(map[uint]bool, len(current))
	for _, id := range current {
		known[id] = false
	}
	for _, id := range requested {
		seen, ok := known[id]
		if !ok {
			return fmt.Errorf("%w: id %d does not belong here", ErrInvalidOrder, id)
		}
		if seen {
			return fmt.Errorf("%w: id %d is repeated", ErrInvalidOrder, id)
		}
		known[id] = true
	}
	return nil
}

// Reorder rewrites the positions of the group to 1..n following ids. It must run
// inside a transaction; on error nothing should be committed.
func Reorder(tx *gorm.DB, s Siblings, ids []uint) error {
	var current []uint
	if err := s.scope(tx).Pluck("id", &current).Error; err != nil {
		return err
	}
	if err := ValidateOrder(current, ids); err != nil {
		return err
	}
	return setPositions(tx, s, ids)
}

// Compact renumbers the group to 1..n, keeping the current relative order.
func Compact(tx *gorm.DB, s Siblings) error {
	var ids []uint
	if err := s.scope(tx).Order("position asc").Order("id asc").Pluck("id", &ids).Error; err != nil {
		return err
	}
	return setPositions(tx, s, ids)
}

func setPositions(tx *gorm.DB, s Siblings, ids []uint) error {
	for i, id := range ids {
		err := tx.Model(s.Model).
			Where("id = ? AND "+s.ParentColumn+" = ?", id, s.ParentID).
			Update("position", i+1).Error
		if err != nil {
			return err
		}
	}
	return nil
}
