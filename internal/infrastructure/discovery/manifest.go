package discovery

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
)

// Manifest file names, in lookup order.
const (
	manifestFile     = "addin.xml"
	manifestInfoFile = "addin.info"
	manifestSuffix   = ".addin.xml"
)

type addinElement struct {
	XMLName   xml.Name `xml:"Addin"`
	ID        string   `xml:"id,attr"`
	Namespace string   `xml:"namespace,attr"`
	Name      string   `xml:"name,attr"`
	Version   string   `xml:"version,attr"`
}

// FindManifest returns the manifest file in dir, or "" when there is none.
func FindManifest(dir string) (string, error) {
	for _, name := range []string{manifestFile, manifestInfoFile} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), manifestSuffix) {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

// ParseManifest reads an addin manifest.
// The id is qualified with the namespace when one is declared.
func ParseManifest(path string) (*ports.AddinManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var el addinElement
	if err := xml.Unmarshal(data, &el); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if el.ID == "" {
		return nil, errors.New("manifest " + path + " has no addin id")
	}

	id := el.ID
	if el.Namespace != "" {
		id = el.Namespace + "." + el.ID
	}
	name := el.Name
	if name == "" {
		name = el.ID
	}
	return &ports.AddinManifest{ID: id, Name: name, Version: el.Version}, nil
}
