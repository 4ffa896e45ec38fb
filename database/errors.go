package database

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrUnsupportedDBType = errors.New("unsupported database type")
)
