// Package layout resolves the channel semantics of a RLE-LAYER or
// PACKED-DENSITY file from its scene descriptor (an i3d-style XML
// document listing InfoLayer/DetailLayer/FoliageMultiLayer elements
// alongside the File table that maps a fileId to a filename).
//
// This is a bounded lookup, not a general i3d parser: it reads only
// the elements and attributes named here and ignores everything else,
// grounded on the element shapes in the original pixel-guide generator
// (original_source/src/bin/pixel_guide.rs).
package layout

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
)

// Format identifies which codec a resolved layer belongs to.
type Format int

const (
	FormatRLELayer Format = iota
	FormatPackedDensity
)

func (f Format) String() string {
	switch f {
	case FormatRLELayer:
		return "RLE-LAYER"
	case FormatPackedDensity:
		return "PACKED-DENSITY"
	default:
		return "unknown"
	}
}

// Layout describes the per-file channel semantics a target filename
// resolves to.
type Layout struct {
	Format      Format
	NumChannels int
	RangeSplit  []int // inner boundaries; nil means a single range
}

// Resolve maps targetFilename to its Layout by scanning the scene
// descriptor at descriptorPath. If the descriptor can't be read, or no
// layer references targetFilename, fallback is returned when non-nil;
// otherwise resolution fails with codecerr.MissingLayout.
func Resolve(descriptorPath, targetFilename string, fallback *Layout) (Layout, error) {
	doc, err := scanDescriptor(descriptorPath)
	if err != nil {
		if fallback != nil {
			return *fallback, nil
		}
		return Layout{}, err
	}

	target := strings.ToLower(filepath.Base(targetFilename))

	var fileID string
	matched := false
	for _, f := range doc.files {
		if strings.ToLower(filepath.Base(f.filename)) == target {
			fileID = f.fileID
			matched = true
			break
		}
	}

	if matched {
		for _, l := range doc.layers {
			if l.fileID == fileID {
				return Layout{Format: l.format, NumChannels: l.numChannels, RangeSplit: l.rangeSplit}, nil
			}
		}
	}

	if fallback != nil {
		return *fallback, nil
	}
	return Layout{}, codecerr.New(codecerr.MissingLayout, descriptorPath,
		"no layer in scene descriptor references "+targetFilename)
}

type fileEntry struct {
	fileID   string
	filename string
}

type layerEntry struct {
	format      Format
	fileID      string
	numChannels int
	rangeSplit  []int
}

type sceneDoc struct {
	files  []fileEntry
	layers []layerEntry
}

func scanDescriptor(path string) (sceneDoc, error) {
	if path == "" {
		return sceneDoc{}, codecerr.New(codecerr.MissingLayout, "", "no scene descriptor provided")
	}
	f, err := os.Open(path)
	if err != nil {
		return sceneDoc{}, codecerr.Wrap(codecerr.MissingLayout, path, "opening scene descriptor", err)
	}
	defer f.Close()
	return decodeScene(f, path)
}

// decodeScene streams the document token by token rather than
// unmarshaling a fixed struct tree, since InfoLayer/DetailLayer/
// FoliageMultiLayer/File elements can appear at any nesting depth in a
// real i3d file and the full schema is out of scope.
func decodeScene(r io.Reader, path string) (sceneDoc, error) {
	var doc sceneDoc
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sceneDoc{}, codecerr.Wrap(codecerr.MissingLayout, path, "malformed scene descriptor", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "File":
			doc.files = append(doc.files, fileEntry{
				fileID:   attrValue(se, "fileId"),
				filename: attrValue(se, "filename"),
			})

		case "InfoLayer":
			doc.layers = append(doc.layers, layerEntry{
				format:      FormatRLELayer,
				fileID:      attrValue(se, "fileId"),
				numChannels: attrInt(se, "numChannels", 1),
			})

		case "DetailLayer":
			n := attrInt(se, "numChannels", 0)
			if n == 0 {
				n = attrInt(se, "numDensityMapChannels", 1)
			}
			doc.layers = append(doc.layers, layerEntry{
				format:      FormatPackedDensity,
				fileID:      attrValue(se, "densityMapId"),
				numChannels: n,
				rangeSplit:  compressionSplit(se),
			})

		case "FoliageMultiLayer":
			n := attrInt(se, "numChannels", 0)
			if n == 0 {
				n = attrInt(se, "numDensityMapChannels", 1)
			}
			doc.layers = append(doc.layers, layerEntry{
				format:      FormatPackedDensity,
				fileID:      attrValue(se, "densityMapId"),
				numChannels: n,
				rangeSplit:  compressionSplit(se),
			})
		}
	}

	return doc, nil
}

func compressionSplit(se xml.StartElement) []int {
	v := attrValue(se, "compressionChannels")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return []int{n}
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrInt(se xml.StartElement, name string, def int) int {
	v := attrValue(se, name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
