package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/doideposit/internal/record"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Crossref endpoints
	DepositURL  string
	ValidateURL string
	HTTPTimeout time.Duration

	// Deposit credentials
	DepositLogin    string
	DepositPassword string

	// Journal and depositor identity
	IdentityFile             string
	Identity                 record.Identity
	AllowPlaceholderIdentity bool

	// Request limits
	MaxBodyBytes int64

	// Generated records are copied here when set.
	ArchiveDir string

	// Remote call latency window
	StatsWindow time.Duration

	// A batch id deposited within this window is not deposited again.
	DedupWindow time.Duration
}

const (
	DefaultDepositURL  = "https://doi.crossref.org/servlet/deposit"
	DefaultValidateURL = "https://apps.crossref.org/XSDParse/"
)

// Placeholder identity values shipped with the sample configuration. A record
// built from them is well formed but will be rejected on deposit.
var placeholderIdentity = record.Identity{
	DOIPrefix:     "99.9999",
	JournalTitle:  "Academic Journal",
	AbbrevTitle:   "QQ",
	ISSN:          "01234567",
	DepositorName: "John Doe",
	Email:         "email@example.com",
}

// Load reads configuration from the environment. The identity comes from
// IDENTITY_FILE when set, then individual environment variables override it.
func Load() (Config, error) {
	return LoadWithIdentity(os.Getenv("IDENTITY_FILE"))
}

// LoadWithIdentity is Load with the identity file given explicitly. An empty
// path starts from the placeholder identity.
func LoadWithIdentity(identityFile string) (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOIDEPOSIT_API_KEY"),

		DepositURL:  envOr("DEPOSIT_URL", DefaultDepositURL),
		ValidateURL: envOr("VALIDATE_URL", DefaultValidateURL),
		HTTPTimeout: envDuration("HTTP_TIMEOUT", 60*time.Second),

		DepositLogin:    os.Getenv("DEPOSIT_LOGIN"),
		DepositPassword: os.Getenv("DEPOSIT_PASSWORD"),

		IdentityFile:             identityFile,
		Identity:                 placeholderIdentity,
		AllowPlaceholderIdentity: envBool("ALLOW_PLACEHOLDER_IDENTITY", false),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 1<<20),

		ArchiveDir: os.Getenv("ARCHIVE_DIR"),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
		DedupWindow: envDuration("DEPOSIT_DEDUP_WINDOW", 24*time.Hour),
	}

	if cfg.IdentityFile != "" {
		id, err := LoadIdentity(cfg.IdentityFile)
		if err != nil {
			return cfg, err
		}
		cfg.Identity = id
	}
	cfg.Identity = identityFromEnv(cfg.Identity)

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 24 * time.Hour
	}

	return cfg, nil
}

// LoadIdentity reads a YAML identity file. Fields missing from the file keep
// their placeholder values so Validate can report them.
func LoadIdentity(path string) (record.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Identity{}, fmt.Errorf("read identity file: %w", err)
	}
	id := placeholderIdentity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return record.Identity{}, fmt.Errorf("parse identity file %s: %w", path, err)
	}
	return id, nil
}

func identityFromEnv(id record.Identity) record.Identity {
	id.DOIPrefix = envOr("DOI_PREFIX", id.DOIPrefix)
	id.JournalTitle = envOr("JOURNAL_TITLE", id.JournalTitle)
	id.AbbrevTitle = envOr("ABBREV_TITLE", id.AbbrevTitle)
	id.ISSN = envOr("ISSN", id.ISSN)
	id.DepositorName = envOr("DEPOSITOR_NAME", id.DepositorName)
	id.Email = envOr("DEPOSITOR_EMAIL", id.Email)
	id.EnvelopeStart = envOr("ENVELOPE_START", id.EnvelopeStart)
	id.EnvelopeEnd = envOr("ENVELOPE_END", id.EnvelopeEnd)
	return id
}

// Validate checks settings needed by the HTTP server.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOIDEPOSIT_API_KEY is required")
	}
	return c.ValidateIdentity()
}

// ValidateIdentity rejects blank identity fields and, unless explicitly
// allowed, identity fields still set to their placeholder values.
func (c Config) ValidateIdentity() error {
	fields := identityFields(c.Identity)
	placeholders := identityFields(placeholderIdentity)

	var stale []string
	for i, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("identity field %s is required", f.name)
		}
		if f.value == placeholders[i].value {
			stale = append(stale, f.name)
		}
	}
	if len(stale) > 0 && !c.AllowPlaceholderIdentity {
		return &PlaceholderIdentityError{Fields: stale}
	}
	return nil
}

// PlaceholderFields lists identity fields still holding placeholder values.
func (c Config) PlaceholderFields() []string {
	fields := identityFields(c.Identity)
	placeholders := identityFields(placeholderIdentity)
	var stale []string
	for i, f := range fields {
		if f.value == placeholders[i].value {
			stale = append(stale, f.name)
		}
	}
	return stale
}

// PlaceholderIdentityError lists identity fields left at their sample values.
type PlaceholderIdentityError struct {
	Fields []string
}

func (e *PlaceholderIdentityError) Error() string {
	return fmt.Sprintf("identity still uses placeholder values for %s; set them or ALLOW_PLACEHOLDER_IDENTITY=true",
		strings.Join(e.Fields, ", "))
}

type identityField struct {
	name  string
	value string
}

func identityFields(id record.Identity) []identityField {
	return []identityField{
		{"doi_prefix", id.DOIPrefix},
		{"journal_title", id.JournalTitle},
		{"abbrev_title", id.AbbrevTitle},
		{"issn", id.ISSN},
		{"depositor_name", id.DepositorName},
		{"email", id.Email},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
