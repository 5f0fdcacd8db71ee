// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PaperCandidate identifies a paper proposed for a community's context.
// It does not guarantee that usable content exists for the paper.
type PaperCandidate struct {
	// ID is the arXiv identifier without a version suffix (e.g. "2301.07041").
	ID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`
}

// PaperContent is a candidate whose text passed every validity check.
type PaperContent struct {
	ID    string `json:"arxiv_id" yaml:"arxiv_id"`
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`

	// Version is the file version that was accepted (1-14).
	Version int `json:"version" yaml:"version"`
}

// Candidate returns the (ID, Title) pair for c.
func (c PaperContent) Candidate() PaperCandidate {
	return PaperCandidate{ID: c.ID, Title: c.Title}
}

// CommunitySelection is the validated multi-document context for one
// community. A selection always has at least two contributing papers and a
// combined text no longer than the configured maximum.
type CommunitySelection struct {
	// Text is the concatenation of every contributing paper block.
	Text string `json:"text" yaml:"text"`

	// Papers lists the contributing candidates in input order.
	Papers []PaperCandidate `json:"papers" yaml:"papers"`
}

// CommunityID is a community identifier. Community detection tools emit
// either strings or integers, so both JSON forms are accepted.
type CommunityID string

// UnmarshalJSON accepts a JSON string or number.
func (id *CommunityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CommunityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("community_id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("community_id must be a string or number: %w", err)
	}
	*id = CommunityID(n.String())
	return nil
}

// Community is one cluster from the community detection results.
type Community struct {
	ID CommunityID `json:"community_id" yaml:"community_id"`

	// Papers lists the member papers by their internal (semantic) ids.
	Papers []string `json:"papers" yaml:"papers"`
}

// MappingEntry maps an internal paper id to its arXiv identity.
type MappingEntry struct {
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`
	Title   string `json:"title" yaml:"title"`
}
