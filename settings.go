package epsonconnect

import (
	"strings"

	"github.com/google/uuid"
)

// Print modes.
const (
	PrintModeDocument = "document"
	PrintModePhoto    = "photo"
)

// PrintSettings represents the job parameters sent when creating a print job.
type PrintSettings struct {
	JobName      string        `json:"job_name"`
	PrintMode    string        `json:"print_mode"`
	PrintSetting *PrintSetting `json:"print_setting,omitempty"`
}

// PrintSetting represents the optional media and layout settings of a job.
// Zero values are replaced by the service defaults before submission.
type PrintSetting struct {
	MediaSize    string `json:"media_size"`    // e.g. "ms_a4", "ms_letter"
	MediaType    string `json:"media_type"`    // e.g. "mt_plainpaper", "mt_photopaper"
	Borderless   bool   `json:"borderless"`
	PrintQuality string `json:"print_quality"` // "high", "normal", "draft"
	Source       string `json:"source"`        // "auto", "rear", "front1".."front4"
	ColorMode    string `json:"color_mode"`    // "color", "mono"
	TwoSided     string `json:"2_sided"`       // "none", "long", "short"
	ReverseOrder bool   `json:"reverse_order"`
	Copies       int    `json:"copies"`
	Collate      *bool  `json:"collate"`
}

// withDefaults returns a copy of s with empty fields filled in. A nil receiver
// yields a document job with a generated name.
func (s *PrintSettings) withDefaults() *PrintSettings {
	out := &PrintSettings{}
	if s != nil {
		*out = *s
	}

	if strings.TrimSpace(out.JobName) == "" {
		out.JobName = generateJobName()
	}
	if out.PrintMode == "" {
		out.PrintMode = PrintModeDocument
	}

	if out.PrintSetting == nil {
		return out
	}

	ps := *out.PrintSetting
	if ps.MediaSize == "" {
		ps.MediaSize = "ms_a4"
	}
	if ps.MediaType == "" {
		ps.MediaType = "mt_plainpaper"
	}
	if ps.PrintQuality == "" {
		ps.PrintQuality = "normal"
	}
	if ps.Source == "" {
		ps.Source = "auto"
	}
	if ps.ColorMode == "" {
		ps.ColorMode = "color"
	}
	if ps.TwoSided == "" {
		ps.TwoSided = "none"
	}
	if ps.Copies == 0 {
		ps.Copies = 1
	}
	if ps.Collate == nil {
		collate := true
		ps.Collate = &collate
	}
	out.PrintSetting = &ps

	return out
}

// generateJobName returns a name of the form "job-xxxxxxxx".
func generateJobName() string {
	return "job-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
