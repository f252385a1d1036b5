package schema

import (
	"encoding/json"
	"fmt"
)

// EncodedReport pairs a report payload with its analyzer kind so it can be decoded later.
type EncodedReport struct {
	Kind    AnalyzerKind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewReport returns an empty report value for the given analyzer.
func NewReport(kind AnalyzerKind) (Report, error) {
	switch kind {
	case ChurnAnalyzer:
		return &ChurnReport{}, nil
	case CommitFrequencyAnalyzer:
		return &CommitFrequencyReport{}, nil
	case CommitSizeAnalyzer:
		return &CommitSizeReport{}, nil
	case FrecencyAnalyzer:
		return &FrecencyReport{}, nil
	case OwnershipAnalyzer:
		return &OwnershipReport{}, nil
	case StreaksAnalyzer:
		return &StreaksReport{}, nil
	case TimeOfDayAnalyzer:
		return &TimeOfDayReport{}, nil
	case HoursAnalyzer:
		return &HoursReport{}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", kind)
	}
}

// EncodeReports serializes reports together with their kinds.
func EncodeReports(reports []Report) ([]byte, error) {
	encoded := make([]EncodedReport, 0, len(reports))
	for _, r := range reports {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s report: %w", r.Kind(), err)
		}
		encoded = append(encoded, EncodedReport{Kind: r.Kind(), Payload: payload})
	}
	return json.Marshal(encoded)
}

// DecodeReports is the inverse of EncodeReports.
func DecodeReports(data []byte) ([]Report, error) {
	var encoded []EncodedReport
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	reports := make([]Report, 0, len(encoded))
	for _, e := range encoded {
		r, err := NewReport(e.Kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(e.Payload, r); err != nil {
			return nil, fmt.Errorf("failed to decode %s report: %w", e.Kind, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
