//go:build !sqlite3_purego

package database

import (
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

const driverID = "mattn/go-sqlite3"
const driverName = "sqlite3"
