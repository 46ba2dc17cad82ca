package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultOutputFolder is the fixed-name folder created next to the first
// input file when no output directory is given.
const DefaultOutputFolder = "extracted_attachments"

// Config captures all command-line options required to run the extractor.
type Config struct {
	OutputDir        string
	SubjectSubfolder bool
	ClassifyByType   bool
	NoTypeLabel      string
	SniffType        bool
	LogLevel         string
	LogDir           string
	IncludeSubject   []string
	IncludeName      []string
	ExcludeSubject   []string
	ExcludeName      []string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("out", "o", "", "Output directory (default: '"+DefaultOutputFolder+"' next to the first input)")
	flags.Bool("subject-subfolder", true, "Create a subfolder named after the message subject")
	flags.Bool("classify-by-type", false, "Group attachments into subfolders by file extension")
	flags.String("no-type-label", "other", "Folder label for attachments without a file extension")
	flags.Bool("sniff-type", false, "Detect the payload type of extension-less attachments for classification")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (also logged to stdout)")
	flags.StringArray("include-subject", nil, "Regex allow-list applied to message subjects (mutually exclusive with exclude flags)")
	flags.StringArray("include-name", nil, "Regex allow-list applied to attachment filenames (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-subject", nil, "Regex block-list applied to message subjects (mutually exclusive with include flags)")
	flags.StringArray("exclude-name", nil, "Regex block-list applied to attachment filenames (mutually exclusive with include flags)")
}

// LoadConfig converts the parsed Cobra flags into a Config struct with validation.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	outputDir, err := flags.GetString("out")
	if err != nil {
		return Config{}, err
	}
	subjectSubfolder, err := flags.GetBool("subject-subfolder")
	if err != nil {
		return Config{}, err
	}
	classifyByType, err := flags.GetBool("classify-by-type")
	if err != nil {
		return Config{}, err
	}
	noTypeLabel, err := flags.GetString("no-type-label")
	if err != nil {
		return Config{}, err
	}
	sniffType, err := flags.GetBool("sniff-type")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}
	includeSubject, err := flags.GetStringArray("include-subject")
	if err != nil {
		return Config{}, err
	}
	includeName, err := flags.GetStringArray("include-name")
	if err != nil {
		return Config{}, err
	}
	excludeSubject, err := flags.GetStringArray("exclude-subject")
	if err != nil {
		return Config{}, err
	}
	excludeName, err := flags.GetStringArray("exclude-name")
	if err != nil {
		return Config{}, err
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	if outputDir != "" {
		outputDir = filepath.Clean(outputDir)
	}

	cfg := Config{
		OutputDir:        outputDir,
		SubjectSubfolder: subjectSubfolder,
		ClassifyByType:   classifyByType,
		NoTypeLabel:      noTypeLabel,
		SniffType:        sniffType,
		LogLevel:         logLevel,
		LogDir:           logDir,
		IncludeSubject:   includeSubject,
		IncludeName:      includeName,
		ExcludeSubject:   excludeSubject,
		ExcludeName:      excludeName,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultOutputDir derives the output root from the first input file when
// the caller did not provide one.
func DefaultOutputDir(firstInput string) string {
	return filepath.Join(filepath.Dir(firstInput), DefaultOutputFolder)
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.NoTypeLabel) == "" {
		return fmt.Errorf("--no-type-label must not be empty")
	}

	includeActive := len(cfg.IncludeSubject) > 0 || len(cfg.IncludeName) > 0
	excludeActive := len(cfg.ExcludeSubject) > 0 || len(cfg.ExcludeName) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
