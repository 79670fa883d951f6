package ocr

import (
	"errors"
	"fmt"
)

// PageSegMode is a Tesseract page segmentation mode. It controls how the
// engine analyzes the page layout.
type PageSegMode int

// Page segmentation modes.
const (
	PSMAutoOSD       PageSegMode = 1  // Automatic with orientation and script detection
	PSMAuto          PageSegMode = 3  // Fully automatic
	PSMSingleColumn  PageSegMode = 4  // Single column of variable sizes
	PSMSingleBlock   PageSegMode = 6  // Single uniform block of text
	PSMSingleLine    PageSegMode = 7  // Single text line
	PSMSingleWord    PageSegMode = 8  // Single word
	PSMSparseText    PageSegMode = 11 // Find as much text as possible in no particular order
	PSMSparseTextOSD PageSegMode = 12 // Sparse text with OSD
	PSMRawLine       PageSegMode = 13 // Treat the image as a single text line
)

const maxPageSegMode = PSMRawLine

// EngineMode is a Tesseract OCR engine mode.
type EngineMode int

// Engine modes.
const (
	OEMLegacy   EngineMode = 0 // Legacy character-pattern engine
	OEMNeural   EngineMode = 1 // Neural (LSTM) engine
	OEMCombined EngineMode = 2 // Legacy and neural combined
	OEMDefault  EngineMode = 3 // Whatever is available
)

func (m EngineMode) String() string {
	switch m {
	case OEMLegacy:
		return "legacy"
	case OEMNeural:
		return "neural"
	case OEMCombined:
		return "combined"
	case OEMDefault:
		return "default"
	default:
		return fmt.Sprintf("EngineMode(%d)", int(m))
	}
}

// Profile is one named recognition configuration.
type Profile struct {
	Name        string
	PageSegMode PageSegMode
	EngineMode  EngineMode
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (psm %d, oem %d)", p.Name, p.PageSegMode, p.EngineMode)
}

// Validate checks that the profile's modes are in range.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile has no name")
	}
	if p.PageSegMode < 0 || p.PageSegMode > maxPageSegMode {
		return fmt.Errorf("profile %s: page segmentation mode %d out of range", p.Name, p.PageSegMode)
	}
	if p.EngineMode < OEMLegacy || p.EngineMode > OEMDefault {
		return fmt.Errorf("profile %s: engine mode %d out of range", p.Name, p.EngineMode)
	}
	return nil
}

// DefaultProfiles returns the fixed recognition profiles in declaration
// order. The order breaks ties when candidates score equally, so the first
// profile wins a tie.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "single-block", PageSegMode: PSMSingleBlock, EngineMode: OEMNeural},
		{Name: "auto", PageSegMode: PSMAuto, EngineMode: OEMNeural},
		{Name: "sparse", PageSegMode: PSMSparseText, EngineMode: OEMNeural},
		{Name: "single-block-legacy", PageSegMode: PSMSingleBlock, EngineMode: OEMLegacy},
	}
}
