package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GeneratedPrefix marks definition files the pipeline generates. Everything
// else in the definitions directory is owned by humans and never touched.
const GeneratedPrefix = "extra_"

// WriteDefinition writes one definition file into the directory. Names must
// be bare .tf file names.
func WriteDefinition(dir, name string, data []byte) error {
	if err := checkDefinitionName(name); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write definition %s: %w", name, err)
	}
	return nil
}

// RemoveDefinition deletes a generated definition file. A missing file is
// not an error.
func RemoveDefinition(dir, name string) error {
	if err := checkDefinitionName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove definition %s: %w", name, err)
	}
	return nil
}

// SyncGenerated reconciles the directory's generated files with the stored
// set: stored content wins, and generated files the store no longer knows
// are removed so a destroyed environment cannot resurrect on the next
// apply. Hand-written files are left alone.
func SyncGenerated(dir string, stored map[string][]byte) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read definitions directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, GeneratedPrefix) || !strings.HasSuffix(name, ".tf") {
			continue
		}
		if _, ok := stored[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to remove stale definition %s: %w", name, err)
		}
	}

	for name, data := range stored {
		if err := WriteDefinition(dir, name, data); err != nil {
			return err
		}
	}
	return nil
}

func checkDefinitionName(name string) error {
	if name == "" {
		return fmt.Errorf("definition file name is empty")
	}
	if name != filepath.Base(name) {
		return fmt.Errorf("definition file name %q must not contain path separators", name)
	}
	if !strings.HasSuffix(name, ".tf") {
		return fmt.Errorf("definition file name %q must end in .tf", name)
	}
	return nil
}
