package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dhcgn/eml-extract/eml"
	"github.com/dhcgn/eml-extract/filter"
	"github.com/dhcgn/eml-extract/model"
)

const (
	// FallbackName replaces path components that sanitize down to nothing.
	FallbackName = "unnamed"
	// NoTypeLabel groups attachments without a file extension when
	// classify-by-type is active.
	NoTypeLabel = "other"

	// Path components are capped at 200 characters (runes, not bytes).
	maxNameLen = 200
)

// Options controls behaviour shared by all requests of a batch.
type Options struct {
	// Filter skips attachments whose subject/filename do not pass. Nil
	// means extract everything.
	Filter *filter.Filter
	// SniffType detects the payload type of extension-less filenames to
	// pick the classify-by-type label instead of NoTypeLabel.
	SniffType bool
	// NoTypeLabel overrides the default label for extension-less names.
	NoTypeLabel string
}

// Extractor writes the attachments of EML files into an output tree.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Extractor {
	if opts.NoTypeLabel == "" {
		opts.NoTypeLabel = NoTypeLabel
	}
	return &Extractor{opts: opts, logger: logger}
}

// ExtractOne processes a single request. Parse and write failures are
// reported through the result, never as a panic. A write failure aborts the
// remaining attachments and clears WrittenPaths; files already written stay
// on disk, there is no rollback.
func (e *Extractor) ExtractOne(req model.ExtractionRequest) model.ExtractionResult {
	file, err := os.Open(req.SourcePath)
	if err != nil {
		return model.ExtractionResult{Err: fmt.Errorf("open %s: %w", req.SourcePath, err)}
	}
	msg, err := eml.Parse(file)
	file.Close()
	if err != nil {
		return model.ExtractionResult{Err: fmt.Errorf("parse %s: %w", req.SourcePath, err)}
	}

	subject := msg.Subject
	if subject == "" {
		subject = sourceStem(req.SourcePath)
	}

	baseDir := req.OutputRoot
	if req.SubjectSubfolder {
		baseDir = filepath.Join(baseDir, SanitizeName(subject))
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return model.ExtractionResult{Err: fmt.Errorf("create output dir: %w", err)}
	}

	var result model.ExtractionResult
	for _, part := range msg.Attachments() {
		if e.opts.Filter != nil && !e.opts.Filter.Allows(subject, part.Filename) {
			result.Skipped++
			if e.logger != nil {
				e.logger.Debug("attachment filtered out", "source", req.SourcePath, "name", part.Filename)
			}
			continue
		}

		name := SanitizeName(part.Filename)

		targetDir := baseDir
		if req.ClassifyByType {
			targetDir = filepath.Join(baseDir, e.typeLabel(name, part.Body))
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				result.WrittenPaths = nil
				result.Err = fmt.Errorf("create type dir: %w", err)
				return result
			}
		}

		path := resolveCollision(targetDir, name)
		if err := os.WriteFile(path, part.Body, 0o644); err != nil {
			result.WrittenPaths = nil
			result.Err = fmt.Errorf("write %s: %w", name, err)
			return result
		}

		result.WrittenPaths = append(result.WrittenPaths, path)
		if e.logger != nil {
			e.logger.Debug("attachment written", "source", req.SourcePath, "path", path, "size", len(part.Body))
		}
	}

	return result
}

// typeLabel picks the classify-by-type directory name for a sanitized
// filename: its lowercased extension, or a sniffed/fixed fallback label.
func (e *Extractor) typeLabel(name string, payload []byte) string {
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext != "" {
		return ext
	}
	if e.opts.SniffType {
		if ext := strings.TrimPrefix(mimetype.Detect(payload).Extension(), "."); ext != "" {
			return ext
		}
	}
	return e.opts.NoTypeLabel
}

// resolveCollision returns dir/name, or the first free dir/stem_N.ext when
// the plain path is already taken. Single-writer semantics: the exists-check
// and the later write are not atomic against other processes.
func resolveCollision(dir, name string) string {
	path := filepath.Join(dir, name)
	if !exists(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var illegalChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeName makes a string safe to use as a single path component on the
// common file systems: illegal characters become underscores, surrounding
// whitespace and dots are stripped, the length is capped and a name that
// ends up empty is replaced with FallbackName.
func SanitizeName(name string) string {
	sanitized := illegalChars.Replace(name)
	sanitized = strings.Trim(sanitized, " \t.")
	if runes := []rune(sanitized); len(runes) > maxNameLen {
		sanitized = strings.Trim(string(runes[:maxNameLen]), " \t.")
	}
	if sanitized == "" {
		return FallbackName
	}
	return sanitized
}

// sourceStem returns the base name of a path without its extension, the
// subject fallback for messages with an empty decoded subject.
func sourceStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
