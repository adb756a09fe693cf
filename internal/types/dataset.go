package types

import (
	"fmt"
	"path/filepath"
)

// Descriptor identifies a dataset source. It is comparable, so equal
// descriptors address the same cache entry.
type Descriptor struct {
	Path          string `yaml:"path" json:"path"`                     // file or directory
	Pattern       string `yaml:"pattern" json:"pattern"`               // glob applied to directory entries
	MaxFiles      int    `yaml:"max_files" json:"max_files"`           // 0 means no cap
	DefaultTicker string `yaml:"default_ticker" json:"default_ticker"` // used when a file has no ticker column
	Source        string `yaml:"source" json:"source"`                 // bulk source run before scanning, "" for local
}

// Canonical returns d with a cleaned path so that "data/" and "data" match.
func (d Descriptor) Canonical() Descriptor {
	if d.Path != "" {
		d.Path = filepath.Clean(d.Path)
	}
	return d
}

func (d Descriptor) String() string {
	c := d.Canonical()
	return fmt.Sprintf("path=%s pattern=%s max_files=%d default_ticker=%s source=%s",
		c.Path, c.Pattern, c.MaxFiles, c.DefaultTicker, c.Source)
}

// SkippedFile records why a candidate file was not ingested.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Dataset is the loader's output: the canonical table plus diagnostics.
type Dataset struct {
	Descriptor  Descriptor    `json:"descriptor"`
	Table       *Table        `json:"-"`
	Files       []string      `json:"files"`        // accepted files, in load order
	Skipped     []SkippedFile `json:"skipped"`      // rejected candidates
	DroppedRows int           `json:"dropped_rows"` // rows without a ticker
}
