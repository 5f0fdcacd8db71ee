// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads the run's input files: community detection results
// and the semantic-id to arXiv mapping.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/pdiddy/mdaqa/pkg/types"
)

var (
	// ErrDataFileMissing is wrapped when an input file does not exist.
	ErrDataFileMissing = errors.New("data file not found")

	// ErrDataFormatInvalid is wrapped when the community file is neither a
	// single community object nor a list of communities.
	ErrDataFormatInvalid = errors.New("invalid community data format")
)

// Mapping resolves internal paper ids to arXiv identity.
type Mapping map[string]types.MappingEntry

// LoadCommunities reads the community detection results at path. A single
// object carrying community_id yields a one-element list; a JSON array is
// returned as is.
func LoadCommunities(fsys afero.Fs, path string) ([]types.Community, error) {
	data, err := readFile(fsys, path, "community data")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrDataFormatInvalid)
	}

	switch trimmed[0] {
	case '[':
		var list []types.Community
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return list, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if _, ok := probe["community_id"]; !ok {
			return nil, fmt.Errorf("%s: object has no community_id: %w", path, ErrDataFormatInvalid)
		}
		var c types.Community
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return []types.Community{c}, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrDataFormatInvalid)
	}
}

// LoadMapping reads the semantic mapping at path.
func LoadMapping(fsys afero.Fs, path string) (Mapping, error) {
	data, err := readFile(fsys, path, "semantic mapping")
	if err != nil {
		return nil, err
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}

// Candidates resolves a community's members through the mapping, in member
// order. Members with no mapping entry or an empty arXiv id are returned in
// unresolved.
func (m Mapping) Candidates(c types.Community) (cands []types.PaperCandidate, unresolved []string) {
	for _, id := range c.Papers {
		e, ok := m[id]
		if !ok || e.ArxivID == "" {
			unresolved = append(unresolved, id)
			continue
		}
		cands = append(cands, types.PaperCandidate{ID: e.ArxivID, Title: e.Title})
	}
	return cands, unresolved
}

func readFile(fsys afero.Fs, path, what string) ([]byte, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %s: %w", what, path, ErrDataFileMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", what, path, err)
	}
	return data, nil
}
