//go:build mage

// Package main contains Mage build targets for mdaqa developer tooling.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
	"go.yaml.in/yaml/v3"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"config",
	"data/spiqa",
	"output",
}

const (
	configTemplate = "config/config_template.yaml"
	configFile     = "config/config.yaml"
)

// Init creates the project directory structure and, when config/config.yaml
// does not exist yet, seeds it from the template.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if err := seedConfig(); err != nil {
		return err
	}
	fmt.Println("Project directories initialized.")
	return nil
}

// seedConfig copies the template to config/config.yaml after checking that
// it parses. An existing config is left alone.
func seedConfig() error {
	if _, err := os.Stat(configFile); err == nil {
		fmt.Println("  ", configFile, "(exists)")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := os.ReadFile(configTemplate)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configTemplate, err)
	}
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parsing %s: %w", configTemplate, err)
	}
	for _, section := range []string{"llm", "data", "processing", "output"} {
		if _, ok := probe[section]; !ok {
			return fmt.Errorf("%s: missing %q section", configTemplate, section)
		}
	}
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	fmt.Println("  ", configFile)
	return nil
}

const (
	binDir  = "bin"
	binName = "mdaqa"
	cmdPkg  = "./cmd/mdaqa"

	// buildTags enables FTS5 in github.com/mattn/go-sqlite3.
	buildTags = "sqlite_fts5"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-tags", buildTags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	if err := sh.RunV("go", "test", "-tags", buildTags, "./..."); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// walkFiles calls fn for every regular file under root, skipping
// directories the go tool ignores (leading "." or "_") and bin/.
func walkFiles(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir) {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path)
	})
}

// countGoLines counts non-blank lines in Go files. If testOnly is true,
// count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := walkFiles(root, func(path string) error {
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countDocWords counts words in .md and .yaml files.
func countDocWords(root string) (int, error) {
	total := 0
	err := walkFiles(root, func(path string) error {
		switch filepath.Ext(path) {
		case ".md", ".yaml", ".yml":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
		return nil
	})
	return total, err
}
