package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"recruit-matcher/internal/model"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrUnknownCollection 夹具中出现未知集合。
var ErrUnknownCollection = errors.New("unknown collection")

var knownCollections = map[string]struct{}{
	model.CollectionHiringRequests:  {},
	model.CollectionCandidates:      {},
	model.CollectionRecommendations: {},
}

// Putter 按 ID 写入文档。
type Putter interface {
	Put(ctx context.Context, doc model.Document) error
}

// LoadFile 读取夹具文件。
func LoadFile(path string) ([]model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load 解析夹具。顶层键为集合名，值为文档列表；缺少 id 时生成 UUID。
func Load(r io.Reader) ([]model.Document, error) {
	var raw map[string][]map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	collections := make([]string, 0, len(raw))
	for name := range raw {
		if _, ok := knownCollections[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
		collections = append(collections, name)
	}
	sort.Strings(collections)

	var docs []model.Document
	for _, name := range collections {
		for i, entry := range raw[name] {
			id, _ := entry["id"].(string)
			if _, present := entry["id"]; present && id == "" {
				return nil, fmt.Errorf("%s[%d]: id must be a non-empty string", name, i)
			}
			if id == "" {
				id = uuid.NewString()
			}
			fields := make(map[string]any, len(entry))
			for k, v := range entry {
				if k == "id" {
					continue
				}
				fields[k] = normalize(v)
			}
			docs = append(docs, model.Document{ID: id, Collection: name, Fields: fields})
		}
	}
	return docs, nil
}

// Apply 依次写入文档，返回成功数量。
func Apply(ctx context.Context, store Putter, docs []model.Document) (int, error) {
	for i, doc := range docs {
		if err := store.Put(ctx, doc); err != nil {
			return i, fmt.Errorf("put %s/%s: %w", doc.Collection, doc.ID, err)
		}
	}
	return len(docs), nil
}

// normalize 将 YAML 解码结果转换为 JSON 兼容的值。
func normalize(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
