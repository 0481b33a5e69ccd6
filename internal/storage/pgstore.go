package storage

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PGStore 是基于 PostgreSQL jsonb 的托管文档库实现，created_at 由数据库赋值。
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPGStore 建立连接池并 Ping 校验连通性。
func NewPGStore(ctx context.Context, dsn string, log *zap.Logger) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGStore{pool: pool, logger: logger.OrNop(log).Named("storage")}, nil
}

// Migrate 执行内置的 goose 迁移。
func (s *PGStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close 关闭连接池。
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// ListAll 返回集合内全部文档，按创建时间升序。
func (s *PGStore) ListAll(ctx context.Context, collection string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, collection, body, created_at
		 FROM documents WHERE collection = $1
		 ORDER BY created_at ASC, id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	type scanned struct {
		doc  model.Document
		body []byte
	}
	all, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (scanned, error) {
		var sc scanned
		err := row.Scan(&sc.doc.ID, &sc.doc.Collection, &sc.body, &sc.doc.CreatedAt)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}

	docs := make([]model.Document, 0, len(all))
	for _, sc := range all {
		sc.doc.Fields = map[string]any{}
		if err := json.Unmarshal(sc.body, &sc.doc.Fields); err != nil {
			skipRow(s.logger, collection, sc.doc.ID, err)
			continue
		}
		docs = append(docs, sc.doc)
	}
	return docs, nil
}

// Append 追加一条文档。
func (s *PGStore) Append(ctx context.Context, collection string, fields map[string]any) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, collection, body) VALUES ($1, $2, $3)`,
		id, collection, body,
	); err != nil {
		return "", fmt.Errorf("append %s: %w", collection, err)
	}
	return id, nil
}

// Put 按 id 写入文档，仅供导入工具使用。
func (s *PGStore) Put(ctx context.Context, doc model.Document) error {
	body, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", doc.Collection, err)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, collection, body) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET collection = EXCLUDED.collection, body = EXCLUDED.body, updated_at = NOW()`,
		doc.ID, doc.Collection, body,
	); err != nil {
		return fmt.Errorf("put %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}
