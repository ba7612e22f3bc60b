package firmware

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Storage identifies the target storage medium the rawprogram files address.
type Storage string

const (
	StorageEMMC Storage = "emmc"
	StorageUFS  Storage = "ufs"
)

// ParseStorage validates a storage medium name.
func ParseStorage(s string) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "emmc":
		return StorageEMMC, nil
	case "ufs":
		return StorageUFS, nil
	}
	return "", fmt.Errorf("unsupported storage medium %q (want emmc or ufs)", s)
}

// Bundle is a validated firmware directory ready to hand to the flash tool.
// File fields hold base names relative to Dir.
type Bundle struct {
	Dir         string
	Programmer  string
	RawPrograms []string
	Patches     []string
	Storage     Storage
}

// Files returns the programmer followed by rawprogram then patch files, in
// the order they are passed on the flash tool command line.
func (b Bundle) Files() []string {
	files := make([]string, 0, 1+len(b.RawPrograms)+len(b.Patches))
	files = append(files, b.Programmer)
	files = append(files, b.RawPrograms...)
	files = append(files, b.Patches...)
	return files
}

// ValidationError describes why a directory is not a flashable bundle.
type ValidationError struct {
	Dir    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("firmware bundle %s: %s", e.Dir, e.Reason)
}

func invalid(dir, format string, args ...any) error {
	return &ValidationError{Dir: dir, Reason: fmt.Sprintf(format, args...)}
}

// Resolve validates dir as a firmware bundle for the given storage medium.
// It requires exactly one *.elf programmer and at least one rawprogram*.xml;
// patch*.xml files are optional. File lists come back sorted.
func Resolve(dir string, storage Storage) (*Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve firmware dir: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, invalid(abs, "not accessible: %v", err)
	}
	if !info.IsDir() {
		return nil, invalid(abs, "not a directory")
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, invalid(abs, "unreadable: %v", err)
	}

	var programmers, rawprograms, patches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, ".elf"):
			programmers = append(programmers, name)
		case strings.HasPrefix(lower, "rawprogram") && strings.HasSuffix(lower, ".xml"):
			rawprograms = append(rawprograms, name)
		case strings.HasPrefix(lower, "patch") && strings.HasSuffix(lower, ".xml"):
			patches = append(patches, name)
		}
	}

	switch len(programmers) {
	case 0:
		return nil, invalid(abs, "no firehose programmer (*.elf) found")
	case 1:
	default:
		sort.Strings(programmers)
		return nil, invalid(abs, "ambiguous programmer, found %d *.elf files: %s",
			len(programmers), strings.Join(programmers, ", "))
	}

	if len(rawprograms) == 0 {
		return nil, invalid(abs, "no rawprogram*.xml files found")
	}

	sort.Strings(rawprograms)
	sort.Strings(patches)

	bundle := &Bundle{
		Dir:         abs,
		Programmer:  programmers[0],
		RawPrograms: rawprograms,
		Patches:     patches,
		Storage:     storage,
	}

	for _, name := range bundle.Files() {
		if err := checkReadable(filepath.Join(abs, name)); err != nil {
			return nil, invalid(abs, "%s: %v", name, err)
		}
	}

	return bundle, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
