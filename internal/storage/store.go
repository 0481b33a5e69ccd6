package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"recruit-matcher/internal/logger"
	"recruit-matcher/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow 对应 documents 表，正文以 JSON 存储。
type documentRow struct {
	ID         string         `gorm:"primaryKey"`
	Collection string         `gorm:"index:idx_documents_collection;not null"`
	Body       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index:idx_documents_collection"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Store 封装 SQLite 文档库，按集合读写无模式文档。
type Store struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate documents: %w", err)
	}

	return &Store{db: db, now: time.Now, logger: logger.OrNop(log).Named("storage")}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// ListAll 返回集合内全部文档，按创建时间升序。
func (s *Store) ListAll(ctx context.Context, collection string) ([]model.Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	docs := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			// 单条正文损坏只跳过该条。
			skipRow(s.logger, collection, row.ID, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Append 追加一条文档，id 与创建时间由存储层分配。
func (s *Store) Append(ctx context.Context, collection string, fields map[string]any) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	now := s.now().UTC()
	row := documentRow{
		ID:         uuid.NewString(),
		Collection: collection,
		Body:       datatypes.JSON(body),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("append %s: %w", collection, err)
	}
	return row.ID, nil
}

// Put 按 id 写入文档，已存在则覆盖正文，仅供导入工具使用。
func (s *Store) Put(ctx context.Context, doc model.Document) error {
	body, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", doc.Collection, err)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := s.now().UTC()
	row := documentRow{
		ID:         doc.ID,
		Collection: doc.Collection,
		Body:       datatypes.JSON(body),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collection", "body", "updated_at"}),
	}).Create(&row)
	if tx.Error != nil {
		return fmt.Errorf("put %s/%s: %w", doc.Collection, doc.ID, tx.Error)
	}
	return nil
}

func (r documentRow) toDocument() (model.Document, error) {
	fields := map[string]any{}
	if len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, &fields); err != nil {
			return model.Document{}, fmt.Errorf("decode %s/%s: %w", r.Collection, r.ID, err)
		}
	}
	return model.Document{
		ID:         r.ID,
		Collection: r.Collection,
		Fields:     fields,
		CreatedAt:  r.CreatedAt,
	}, nil
}

func skipRow(log *zap.Logger, collection, id string, err error) {
	log.Warn("skip undecodable document",
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Error(err),
	)
}
