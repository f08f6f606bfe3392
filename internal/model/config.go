package model

import "time"

// Config is the complete marka configuration
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Parser     ParserConfig     `yaml:"parser" mapstructure:"parser"`
	Prefixes   PrefixRules      `yaml:"prefixes" mapstructure:"prefixes"`
	Assessment AssessmentConfig `yaml:"assessment" mapstructure:"assessment"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig locates and decodes the catalog document
type SourceConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	CodePage int    `yaml:"codepage" mapstructure:"codepage"` // ANSI code page for \'hh escapes
}

// OutputConfig controls build artifacts
type OutputConfig struct {
	Snapshot string `yaml:"snapshot" mapstructure:"snapshot"`
	XLSX     string `yaml:"xlsx" mapstructure:"xlsx"` // Optional spreadsheet export
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// ParserConfig tunes the catalog parser
type ParserConfig struct {
	Lookahead  int `yaml:"lookahead" mapstructure:"lookahead"`     // Lines searched for a description after a code
	Workers    int `yaml:"workers" mapstructure:"workers"`         // >1 parses chunks in parallel
	ChunkLines int `yaml:"chunk_lines" mapstructure:"chunk_lines"` // Lines per parallel chunk
}

// AssessmentConfig locates the category rule table
type AssessmentConfig struct {
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"` // Empty uses the built-in table
}

// CacheConfig controls snapshot reuse between builds
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:     "data/tnved.rtf",
			CodePage: 1251,
		},
		Output: OutputConfig{
			Snapshot: "data/catalog.json",
		},
		Parser: ParserConfig{
			Lookahead:  4,
			Workers:    1,
			ChunkLines: 5000,
		},
		Prefixes: DefaultPrefixRules(),
		// Opt-in: only the disk layer outlives a single build
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".marka-cache",
			TTL:     7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPrefixRules returns the built-in prefix tables.
// Groups are four-digit commodity headings; review against the current
// government decree before relying on them.
func DefaultPrefixRules() PrefixRules {
	return PrefixRules{
		Mandatory: []string{
			// Tobacco and nicotine products
			"2402", "2403",
			// Footwear
			"6401", "6402", "6403", "6404", "6405",
			// Perfumes, tyres, cameras
			"3303", "4011", "9006",
			// Light industry garments and linen
			"6106", "6201", "6202", "6302",
			// Dairy
			"0401", "0402", "0403", "0404", "0405", "0406",
			// Packaged water, soft drinks, beer
			"2201", "2202", "2203",
			// Medicines and dietary supplements
			"3004", "2106",
			// Bicycles and wheelchairs
			"8712", "8713",
		},
		Experimental: []string{
			// Cosmetics and soap
			"3304", "3401",
			// Pet food, toys, telecom equipment, lubricants
			"2309", "9503", "8517", "2710",
		},
	}
}
