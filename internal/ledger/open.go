package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/bar/internal/config"
	"github.com/kiwari-pos/bar/internal/enum"
)

// Open builds the Store selected by cfg.LedgerBackend. The returned close
// function releases backend resources and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.LedgerBackend {
	case enum.LedgerBackendMemory, "":
		return NewMemoryStore(), func() {}, nil

	case enum.LedgerBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil

	case enum.LedgerBackendSheet:
		s, err := NewSheetStore(cfg.LedgerSheetPath, cfg.Location())
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}
