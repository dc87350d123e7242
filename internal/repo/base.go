// Package repo holds the pieces shared by gorm-backed repositories.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNoConnection is returned by repositories built without a database.
var ErrNoConnection = errors.New("repository has no database connection")

// Base is embedded by repositories to bind queries to the request context.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) (*gorm.DB, error) {
	if b.conn == nil {
		return nil, ErrNoConnection
	}
	if ctx == nil {
		return b.conn, nil
	}
	return b.conn.WithContext(ctx), nil
}
