// Package config provides the configuration structure for the engine.
// Every component receives its section of Config at construction; nothing
// else in the module reads the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// DataConfig locates on-disk state.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ExtractConfig configures native and OCR text extraction.
type ExtractConfig struct {
	OCREnabled    bool   `yaml:"ocr_enabled"`
	OCRDPI        int    `yaml:"ocr_dpi"`
	OCRLanguages  string `yaml:"ocr_languages"`
	MinConfidence int    `yaml:"min_confidence"`
	TesseractBin  string `yaml:"tesseract_bin"`
	PdftoppmBin   string `yaml:"pdftoppm_bin"`
}

// StructureConfig holds the tuned thresholds of the structuring pipeline.
type StructureConfig struct {
	TitleTopLimit     float64 `yaml:"title_top_limit"`
	HeadingMinProb    float64 `yaml:"heading_min_prob"`
	HeadingMinZFont   float64 `yaml:"heading_min_zfont"`
	StopsetRatio      float64 `yaml:"stopset_ratio"`
	StopsetMinRepeats int     `yaml:"stopset_min_repeats"`
	MaxLevels         int     `yaml:"max_levels"`
	ValidateOutline   bool    `yaml:"validate_outline"`
}

// IndexingConfig configures sentence splitting.
type IndexingConfig struct {
	MinSentenceChars int `yaml:"min_sentence_chars"`
	MaxSentenceChars int `yaml:"max_sentence_chars"`
	MaxSentences     int `yaml:"max_sentences"`
}

// EmbeddingConfig selects and configures the embedding collaborator.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // "hashing" or "openai"
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int           `yaml:"dimensions"`
	BatchSize  int           `yaml:"batch_size"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheSize  int           `yaml:"cache_size"`
}

// SearchConfig holds retrieval weights and limits.
type SearchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	DefaultK          int           `yaml:"default_k"`
	VectorWeight      float64       `yaml:"vector_weight"`
	DocPenalty        float64       `yaml:"doc_penalty"`
	MMRLambda         float64       `yaml:"mmr_lambda"`
	SectionTextChars  int           `yaml:"section_text_chars"`
	DeepSectionChars  int           `yaml:"deep_section_chars"`
	SnippetMaxChars   int           `yaml:"snippet_max_chars"`
	SentenceCacheSize int           `yaml:"sentence_cache_size"`
	BlockDocs         []string      `yaml:"block_docs"`
}

// JobsConfig configures the background job manager.
type JobsConfig struct {
	Workers   int           `yaml:"workers"`
	Retention time.Duration `yaml:"retention"`
}

// IngestConfig bounds uploads.
type IngestConfig struct {
	MaxPDFsPerZip  int   `yaml:"max_pdfs_per_zip"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Extract   ExtractConfig   `yaml:"extract"`
	Structure StructureConfig `yaml:"structure"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Extract: ExtractConfig{OCREnabled: true},
		Structure: StructureConfig{
			ValidateOutline: true,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load builds a Config from defaults, an optional YAML file, an optional
// .env file next to the working directory and PRISM_* environment variables,
// in that order. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(cfg)
	cfg.ApplyDefaults()

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("PRISM_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("PRISM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PRISM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRISM_LOG_JSON"); v != "" {
		cfg.Log.JSON, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PRISM_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("PRISM_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("PRISM_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("PRISM_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("PRISM_OCR_ENABLED"); v != "" {
		cfg.Extract.OCREnabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MAX_PDFS_PER_ZIP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxPDFsPerZip = n
		}
	}
}

// ApplyDefaults fills every zero-valued setting with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 512 << 20
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}

	if c.Extract.OCRDPI == 0 {
		c.Extract.OCRDPI = 150
	}
	if c.Extract.OCRLanguages == "" {
		c.Extract.OCRLanguages = "eng+jpn+hin"
	}
	if c.Extract.MinConfidence == 0 {
		c.Extract.MinConfidence = 60
	}
	if c.Extract.TesseractBin == "" {
		c.Extract.TesseractBin = "tesseract"
	}
	if c.Extract.PdftoppmBin == "" {
		c.Extract.PdftoppmBin = "pdftoppm"
	}

	if c.Structure.TitleTopLimit == 0 {
		c.Structure.TitleTopLimit = 420
	}
	if c.Structure.HeadingMinProb == 0 {
		c.Structure.HeadingMinProb = 0.45
	}
	if c.Structure.HeadingMinZFont == 0 {
		c.Structure.HeadingMinZFont = 0.5
	}
	if c.Structure.StopsetRatio == 0 {
		c.Structure.StopsetRatio = 0.4
	}
	if c.Structure.StopsetMinRepeats == 0 {
		c.Structure.StopsetMinRepeats = 2
	}
	if c.Structure.MaxLevels == 0 {
		c.Structure.MaxLevels = 4
	}

	if c.Indexing.MinSentenceChars == 0 {
		c.Indexing.MinSentenceChars = 25
	}
	if c.Indexing.MaxSentenceChars == 0 {
		c.Indexing.MaxSentenceChars = 600
	}
	if c.Indexing.MaxSentences == 0 {
		c.Indexing.MaxSentences = 400
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hashing"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 128
	}
	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = 30 * time.Second
	}
	if c.Embedding.CacheSize == 0 {
		c.Embedding.CacheSize = 1024
	}

	if c.Search.Timeout == 0 {
		c.Search.Timeout = 10 * time.Second
	}
	if c.Search.DefaultK == 0 {
		c.Search.DefaultK = 5
	}
	if c.Search.VectorWeight == 0 {
		c.Search.VectorWeight = 0.65
	}
	if c.Search.DocPenalty == 0 {
		c.Search.DocPenalty = 0.15
	}
	if c.Search.MMRLambda == 0 {
		c.Search.MMRLambda = 0.78
	}
	if c.Search.SectionTextChars == 0 {
		c.Search.SectionTextChars = 1400
	}
	if c.Search.DeepSectionChars == 0 {
		c.Search.DeepSectionChars = 1800
	}
	if c.Search.SnippetMaxChars == 0 {
		c.Search.SnippetMaxChars = 600
	}
	if c.Search.SentenceCacheSize == 0 {
		c.Search.SentenceCacheSize = 512
	}

	if c.Jobs.Workers == 0 {
		c.Jobs.Workers = 4
	}
	if c.Jobs.Retention == 0 {
		c.Jobs.Retention = 24 * time.Hour
	}

	if c.Ingest.MaxPDFsPerZip == 0 {
		c.Ingest.MaxPDFsPerZip = 200
	}
	if c.Ingest.MaxUploadBytes == 0 {
		c.Ingest.MaxUploadBytes = 256 << 20
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate returns every configuration problem found.
func (c *Config) Validate() []string {
	var problems []string

	if strings.TrimSpace(c.Data.Dir) == "" {
		problems = append(problems, "data.dir cannot be empty")
	}
	switch c.Embedding.Provider {
	case "hashing", "openai":
	default:
		problems = append(problems, "embedding.provider must be 'hashing' or 'openai', got '"+c.Embedding.Provider+"'")
	}
	if c.Embedding.Dimensions < 8 {
		problems = append(problems, "embedding.dimensions must be at least 8")
	}
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		problems = append(problems, "search.vector_weight must be within [0, 1]")
	}
	if c.Search.MMRLambda <= 0 || c.Search.MMRLambda > 1 {
		problems = append(problems, "search.mmr_lambda must be within (0, 1]")
	}
	if c.Indexing.MinSentenceChars > c.Indexing.MaxSentenceChars {
		problems = append(problems, "indexing.min_sentence_chars cannot exceed indexing.max_sentence_chars")
	}
	if c.Jobs.Workers < 1 {
		problems = append(problems, "jobs.workers must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "log.level must be one of debug, info, warn, error")
	}
	return problems
}

// DocsDir holds uploaded PDFs.
func (c *Config) DocsDir() string { return filepath.Join(c.Data.Dir, "docs") }
func (c *Config) MetaDir() string { return filepath.Join(c.Data.Dir, "meta") }
func (c *Config) IndexDir() string { return filepath.Join(c.Data.Dir, "index") }
func (c *Config) JobsDir() string { return filepath.Join(c.Data.Dir, "tmp") }
func (c *Config) BlocklistPath() string { return filepath.Join(c.Data.Dir, "blocklist.json") }

// EnsureDirs creates the data directory layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DocsDir(), c.MetaDir(), c.IndexDir(), c.JobsDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
