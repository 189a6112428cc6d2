// Package repository provides typed data access over the relational store.
package repository

import (
	"context"
	"errors"
	"strings"

	"sudonet/internal/models"

	"gorm.io/gorm"
)

// session returns a context-bound handle or ErrNotConfigured when no store is wired.
func session(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if db == nil {
		return nil, models.ErrNotConfigured
	}
	return db.WithContext(ctx), nil
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(q))) + "%"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// decrementFloor decrements a counter column without letting it go negative.
func decrementFloor(column string) any {
	return gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
}
