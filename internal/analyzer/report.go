package analyzer

import "math"

// Parameter is one scored dimension of the match between a resume and a job description.
type Parameter struct {
	Name  string  `json:"name" mapstructure:"name"`
	Score float64 `json:"score" mapstructure:"score"`
}

// RoleFit is the analyzer's best guess at the role the resume targets.
type RoleFit struct {
	PrimaryRole string  `json:"primary_role" mapstructure:"primary_role"`
	Confidence  float64 `json:"confidence" mapstructure:"confidence"`
}

// Gap describes something the job asks for that the resume lacks.
type Gap struct {
	Type        string `json:"type" mapstructure:"type"`
	Description string `json:"description" mapstructure:"description"`
}

// Report is the normalised analyzer response.
type Report struct {
	Parameters      []Parameter `json:"parameters" mapstructure:"parameters"`
	Suggestions     []string    `json:"suggestions" mapstructure:"suggestions"`
	RoleFit         *RoleFit    `json:"role_fit,omitempty" mapstructure:"role_fit"`
	MissingKeywords []string    `json:"missing_keywords" mapstructure:"missing_keywords"`
	GapAnalysis     []Gap       `json:"gap_analysis" mapstructure:"gap_analysis"`
	CoverLetter     string      `json:"cover_letter,omitempty" mapstructure:"cover_letter"`
	URL             string      `json:"url,omitempty" mapstructure:"url"`
}

// Empty reports whether the response carried nothing recognisable.
func (r Report) Empty() bool {
	return len(r.Parameters) == 0 &&
		len(r.Suggestions) == 0 &&
		r.RoleFit == nil &&
		len(r.MissingKeywords) == 0 &&
		len(r.GapAnalysis) == 0 &&
		r.CoverLetter == "" &&
		r.URL == ""
}

// OverallScore is the rounded mean of the parameter scores clamped to [0,100];
// 0 when there are no parameters. Halves round up.
func (r Report) OverallScore() int {
	if len(r.Parameters) == 0 {
		return 0
	}

	var sum float64
	for _, p := range r.Parameters {
		if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
			continue
		}
		sum += p.Score
	}

	score := int(math.Floor(sum/float64(len(r.Parameters)) + 0.5))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// normalise replaces nil slices so the report always encodes as arrays.
func (r Report) normalise() Report {
	if r.Parameters == nil {
		r.Parameters = []Parameter{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.MissingKeywords == nil {
		r.MissingKeywords = []string{}
	}
	if r.GapAnalysis == nil {
		r.GapAnalysis = []Gap{}
	}
	return r
}
