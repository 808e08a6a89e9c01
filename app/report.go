package app

import (
	"fmt"
	"strings"

	"magfit/analysis/anisotropy"
	"magfit/analysis/metrics"
	"magfit/analysis/paramag"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// Report is the outcome of a batch analysis run.
type Report struct {
	ID        core.ReportID   `json:"id"`
	CreatedAt core.Timestamp  `json:"created_at"`
	Datasets  []DatasetReport `json:"datasets"`
}

// DatasetReport holds every extracted metric for one dataset. Nil values mean
// the metric failed; the reason is in Notes.
type DatasetReport struct {
	ID    core.DatasetID `json:"id"`
	Label string         `json:"label"`

	Chi       *float64              `json:"chi,omitempty"`
	Detection *paramag.DetectResult `json:"detection,omitempty"`
	Ms        *float64              `json:"ms,omitempty"`
	MsDetail  *metrics.MsDetail     `json:"ms_detail,omitempty"`
	Hc        *float64              `json:"hc,omitempty"`
	HcDetail  *metrics.HcDetail     `json:"hc_detail,omitempty"`
	Mr        *float64              `json:"mr,omitempty"`
	MrDetail  *metrics.MrDetail     `json:"mr_detail,omitempty"`
	Ku        *float64              `json:"ku,omitempty"`
	KuDetail  *anisotropy.KuDetail  `json:"ku_detail,omitempty"`

	Notes []string `json:"notes,omitempty"`

	// Corrected is the background-subtracted dataset when requested; it is
	// not serialized with the report.
	Corrected *loop.Dataset `json:"-"`
}

func (r *DatasetReport) addNote(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Markdown renders the report as a human-readable summary table with
// per-dataset notes, suitable for terminal output or HTML conversion.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Loop analysis report\n\n")
	fmt.Fprintf(&b, "Report %s, created %s.\n\n", r.ID, r.CreatedAt.Time().Format("2006-01-02 15:04:05"))
	b.WriteString("| Dataset | χ | Ms | Hc | Mr | Ku |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, d := range r.Datasets {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			d.Label, num(d.Chi), num(d.Ms), num(d.Hc), num(d.Mr), num(d.Ku))
	}
	for _, d := range r.Datasets {
		if len(d.Notes) == 0 && d.Detection == nil {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", d.Label)
		if d.Detection != nil {
			for _, br := range []loop.BranchResult{d.Detection.Neg, d.Detection.Pos} {
				if br.Fit == nil {
					fmt.Fprintf(&b, "- %s branch: no valid window\n", br.Branch)
					continue
				}
				fmt.Fprintf(&b, "- %s branch: χ=%.6g over [%.4g, %.4g], R²=%.4f, n=%d\n",
					br.Branch, br.Fit.Chi, br.Fit.Window.HMin, br.Fit.Window.HMax, br.Fit.R2, br.Fit.N)
			}
			for _, n := range d.Detection.Notes {
				fmt.Fprintf(&b, "- %s branch: %s\n", n.Branch, n.Code)
			}
		}
		for _, note := range d.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}
	return b.String()
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.6g", *v)
}
