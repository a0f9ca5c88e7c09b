package kv

import "fmt"

// Options selects and configures a Store backend.
type Options struct {
	Backend       string // "memory", "sqlite" or "redis"
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the Store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(opts.SQLitePath)
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}
}
