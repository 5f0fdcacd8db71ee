// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection turns a community's candidate papers into a validated,
// size-bounded multi-document context.
//
// Candidates whose text is missing, outside the size window, undecodable, or
// headed by a raw section marker are dropped silently. The community as a
// whole is rejected when fewer than two papers survive or when the combined
// text exceeds the configured maximum; oversized text is never truncated.
package selection

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/logging"
	"github.com/pdiddy/mdaqa/pkg/types"
)

const (
	// FirstVersion and LastVersion bound the version suffixes probed per paper.
	FirstVersion = 1
	LastVersion  = 14

	// MinPapers is the smallest number of contributing papers in a selection.
	MinPapers = 2

	sectionMarker = `\section`
)

// Outcome describes the result of selecting papers for one community.
type Outcome int

const (
	// Selected means a CommunitySelection was produced.
	Selected Outcome = iota
	// InsufficientPapers means fewer than MinPapers candidates had usable content.
	InsufficientPapers
	// ContentTooLong means the combined text exceeded the maximum length.
	ContentTooLong
)

func (o Outcome) String() string {
	switch o {
	case Selected:
		return "selected"
	case InsufficientPapers:
		return "insufficient papers"
	case ContentTooLong:
		return "content too long"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Selector loads candidate papers from a content store directory of
// {id}v{version}.txt files.
type Selector struct {
	fs  afero.Fs
	dir string
	cfg types.ProcessingConfig
	log *zap.Logger
}

// New returns a Selector reading dir through fsys.
func New(fsys afero.Fs, dir string, cfg types.ProcessingConfig, log *zap.Logger) *Selector {
	return &Selector{fs: fsys, dir: dir, cfg: cfg, log: logging.OrNop(log)}
}

// FileName returns the content store file name for id at version.
func FileName(id string, version int) string {
	return fmt.Sprintf("%sv%d.txt", id, version)
}

// Select loads every candidate, aggregates those with usable content in
// input order, and applies the community-level filters. The selection is
// nil unless the outcome is Selected.
func (s *Selector) Select(candidates []types.PaperCandidate) (*types.CommunitySelection, Outcome) {
	var (
		sb     strings.Builder
		papers []types.PaperCandidate
	)
	for _, c := range candidates {
		content, ok := s.Load(c)
		if !ok {
			continue
		}
		writeBlock(&sb, content)
		papers = append(papers, c)
	}

	if len(papers) < MinPapers {
		s.log.Debug("community rejected",
			zap.Stringer("outcome", InsufficientPapers),
			zap.Int("candidates", len(candidates)),
			zap.Int("usable", len(papers)))
		return nil, InsufficientPapers
	}

	text := sb.String()
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxContentLength {
		s.log.Debug("community rejected",
			zap.Stringer("outcome", ContentTooLong),
			zap.Int("length", n),
			zap.Int("max_content_length", s.cfg.MaxContentLength))
		return nil, ContentTooLong
	}

	return &types.CommunitySelection{Text: text, Papers: papers}, Selected
}

// writeBlock appends one labeled paper block to sb.
func writeBlock(sb *strings.Builder, p types.PaperContent) {
	fmt.Fprintf(sb, "**title**: %s\n**arxiv_id**: %s\n**content**: %s\n\n", p.Title, p.ID, p.Text)
}

// Load probes versions FirstVersion..LastVersion of the candidate and
// returns the first one that passes every check. The boolean is false when
// no version qualifies; that is not an error.
func (s *Selector) Load(c types.PaperCandidate) (types.PaperContent, bool) {
	for v := FirstVersion; v <= LastVersion; v++ {
		text, err := s.loadVersion(c.ID, v)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.log.Debug("skipping paper version",
					zap.String("arxiv_id", c.ID),
					zap.Int("version", v),
					zap.Error(err))
			}
			continue
		}
		return types.PaperContent{ID: c.ID, Title: c.Title, Text: text, Version: v}, true
	}
	s.log.Debug("no usable version", zap.String("arxiv_id", c.ID))
	return types.PaperContent{}, false
}

var (
	errSize    = errors.New("file size outside configured window")
	errDecode  = errors.New("content is not valid UTF-8 text")
	errHeading = errors.New("first line is a raw section heading")
)

// loadVersion returns the normalized text of one version, or an error
// saying why the version is unusable.
func (s *Selector) loadVersion(id string, version int) (string, error) {
	path := filepath.Join(s.dir, FileName(id, version))

	info, err := s.fs.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fs.ErrNotExist
	}
	if size := info.Size(); size < s.cfg.MinFileBytes() || size > s.cfg.MaxFileBytes() {
		return "", fmt.Errorf("%w: %d bytes", errSize, size)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", errDecode
	}
	if strings.Contains(firstLine(data), sectionMarker) {
		return "", errHeading
	}

	return Normalize(string(data)), nil
}

func firstLine(data []byte) string {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return strings.TrimSpace(string(line))
}

// Normalize collapses each blank-line pair ("\n\n") into a single newline
// in one left-to-right pass.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\n\n", "\n")
}
