package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/chrom"
)

// TranscriptCache manages gob-serialized transcripts on disk:
//
//	{dir}/transcripts.gob       (serialized transcripts)
//	{dir}/transcripts.gob.meta  (refGene fingerprint and chromosome set)
type TranscriptCache struct {
	dir string
}

// NewTranscriptCache creates a transcript cache for the given directory.
func NewTranscriptCache(dir string) *TranscriptCache {
	return &TranscriptCache{dir: dir}
}

func (tc *TranscriptCache) gobPath() string {
	return filepath.Join(tc.dir, "transcripts.gob")
}

func (tc *TranscriptCache) metaPath() string {
	return filepath.Join(tc.dir, "transcripts.gob.meta")
}

// Valid checks whether the cached transcripts were built from refGene with
// the same supported chromosomes.
func (tc *TranscriptCache) Valid(refGene FileFingerprint, chroms *chrom.Set) bool {
	meta, err := tc.readMeta()
	if err != nil {
		return false
	}

	for _, kv := range metaLines(refGene, chroms) {
		if meta[kv[0]] != kv[1] {
			return false
		}
	}

	if _, err := os.Stat(tc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads serialized transcripts from disk.
func (tc *TranscriptCache) Load() ([]*cache.Transcript, error) {
	f, err := os.Open(tc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open transcript cache: %w", err)
	}
	defer f.Close()

	var transcripts []*cache.Transcript
	if err := gob.NewDecoder(f).Decode(&transcripts); err != nil {
		return nil, fmt.Errorf("decode transcript cache: %w", err)
	}
	return transcripts, nil
}

// Write serializes transcripts to disk along with the fingerprint they were
// loaded under.
func (tc *TranscriptCache) Write(transcripts []*cache.Transcript, refGene FileFingerprint, chroms *chrom.Set) error {
	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(tc.gobPath())
	if err != nil {
		return fmt.Errorf("create transcript cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(transcripts); err != nil {
		f.Close()
		os.Remove(tc.gobPath())
		return fmt.Errorf("encode transcript cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transcript cache: %w", err)
	}

	return tc.writeMeta(refGene, chroms)
}

// Clear removes the cached transcript files.
func (tc *TranscriptCache) Clear() {
	os.Remove(tc.gobPath())
	os.Remove(tc.metaPath())
}

func metaLines(refGene FileFingerprint, chroms *chrom.Set) [][2]string {
	keys := chroms.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return append(refGene.metaLines("refgene"), [2]string{"chromosomes", strings.Join(names, ",")})
}

func (tc *TranscriptCache) writeMeta(refGene FileFingerprint, chroms *chrom.Set) error {
	var b strings.Builder
	for _, kv := range metaLines(refGene, chroms) {
		b.WriteString(kv[0] + "=" + kv[1] + "\n")
	}
	b.WriteString("created_at=" + time.Now().UTC().Format(time.RFC3339) + "\n")
	return os.WriteFile(tc.metaPath(), []byte(b.String()), 0644)
}

func (tc *TranscriptCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(tc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}

// LoadTranscripts returns the transcripts of refGenePath, from the cache when
// it is valid and from the file otherwise. A fresh load is written back to
// the cache. The bool reports a cache hit.
func (tc *TranscriptCache) LoadTranscripts(loader *cache.RefGeneLoader, refGenePath string, chroms *chrom.Set) ([]*cache.Transcript, bool, error) {
	fp, err := StatFile(refGenePath)
	if err != nil {
		return nil, false, fmt.Errorf("stat refgene: %w", err)
	}
	if tc.Valid(fp, chroms) {
		if txs, err := tc.Load(); err == nil {
			return txs, true, nil
		}
	}

	txs, err := loader.Load()
	if err != nil {
		return nil, false, err
	}
	if err := tc.Write(txs, fp, chroms); err != nil {
		return nil, false, err
	}
	return txs, false, nil
}
