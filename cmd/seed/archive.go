package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/storage"
	"github.com/urfave/cli/v2"
)

// replayArchive downloads archived uploads under --prefix and ingests them again.
// The kind comes from the key layout uploads/<kind>/<date>/<batch><ext>.
func replayArchive(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	if a.Objects == nil {
		return fmt.Errorf("object storage is not enabled (set STORAGE_ENABLED=true)")
	}

	prefix := strings.TrimSpace(c.String("prefix"))
	baseDir := c.String("download-dir")
	if baseDir == "" {
		baseDir = filepath.Join(a.Config.App.UploadDir, "replay")
	}
	if err := ensureDir(baseDir); err != nil {
		return err
	}

	objects, err := a.Objects.ListObjects(c.Context, prefix)
	if err != nil {
		return fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
	}

	var (
		names   []string
		sources []ingest.Source
	)
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	for _, obj := range objects {
		kind, ok := kindFromKey(obj.Key)
		if !ok {
			continue
		}
		if _, err := ingest.DetectFormat(obj.Key); err != nil {
			continue
		}

		localPath := filepath.Join(baseDir, objectRelativePath(prefix, obj.Key))
		if err := a.Objects.DownloadObject(c.Context, obj.Key, localPath); err != nil {
			return err
		}
		names = append(names, obj.Key)
		sources = append(sources, localSource(kind, localPath))
	}

	if len(sources) == 0 {
		return fmt.Errorf("no archived uploads found for prefix %s", prefix)
	}

	results, err := a.Ingest.IngestAll(c.Context, sources, c.Int("workers"))
	if err != nil {
		return err
	}
	printResults(names, results)
	return nil
}

func kindFromKey(key string) (domain.UploadKind, bool) {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) < 2 || parts[0] != "uploads" {
		return "", false
	}
	kind, err := ingest.ParseKind(parts[1])
	if err != nil {
		return "", false
	}
	return kind, true
}

func objectRelativePath(prefix, key string) string {
	resolved := storage.ResolveObjectKey(prefix, "")
	if resolved == "" {
		return filepath.FromSlash(key)
	}

	rel := strings.TrimPrefix(key, strings.TrimSuffix(resolved, "/"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(key)
	}
	return filepath.FromSlash(rel)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure download dir %s: %w", dir, err)
	}
	return nil
}
