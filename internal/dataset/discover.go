package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LabelMapping maps class names to output-layer indices.
type LabelMapping map[string]int

// Class is one label directory and its audio files.
type Class struct {
	Label string
	Files []string
}

// DiscoverClasses scans root, treating each immediate subdirectory as a
// class label holding WAV clips. Labels are indexed in sorted order.
func DiscoverClasses(root string) ([]Class, LabelMapping, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("discover classes: %w", err)
	}

	var classes []Class
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := listWavs(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, nil, err
		}
		classes = append(classes, Class{Label: entry.Name(), Files: files})
	}
	if len(classes) == 0 {
		return nil, nil, fmt.Errorf("no class directories under %s", root)
	}

	sort.Slice(classes, func(i, j int) bool { return classes[i].Label < classes[j].Label })
	mapping := make(LabelMapping, len(classes))
	for i, c := range classes {
		mapping[c.Label] = i
	}
	return classes, mapping, nil
}

func listWavs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list class %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
