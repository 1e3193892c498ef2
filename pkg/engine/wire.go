package engine

import (
	"encoding/json"
	"fmt"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/privacy"
)

// Response statuses.
const (
	StatusOK         = "ok"
	StatusInfeasible = "infeasible"
	StatusError      = "error"
)

type wireRequest struct {
	JobID      string          `json:"job_id"`
	Columns    []string        `json:"columns"`
	Rows       [][]string      `json:"rows"`
	Attributes []wireAttribute `json:"attributes"`
	Privacy    wirePrivacy     `json:"privacy"`
	Algorithm  wireAlgorithm   `json:"algorithm"`
}

type wireAttribute struct {
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	DataType  string     `json:"data_type,omitempty"`
	Hierarchy [][]string `json:"hierarchy,omitempty"`
}

type wirePrivacy struct {
	Models           []wireModel `json:"models"`
	SuppressionLimit float64     `json:"suppression_limit"`
}

type wireModel struct {
	Type      string     `json:"type"`
	K         int        `json:"k,omitempty"`
	Column    string     `json:"column,omitempty"`
	L         int        `json:"l,omitempty"`
	Variant   string     `json:"variant,omitempty"`
	C         *float64   `json:"c,omitempty"`
	T         *int       `json:"t,omitempty"`
	Distance  string     `json:"distance,omitempty"`
	Hierarchy [][]string `json:"hierarchy,omitempty"`
}

type wireAlgorithm struct {
	Search string `json:"search,omitempty"`
	Metric string `json:"metric,omitempty"`
}

type wireResponse struct {
	Status  string     `json:"status"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Message string     `json:"message,omitempty"`
}

type wireCapabilities struct {
	Variants []string `json:"variants"`
}

func encodeRequest(req *Request) ([]byte, error) {
	if req == nil || req.Table == nil || req.Privacy == nil {
		return nil, fmt.Errorf("incomplete engine request")
	}

	w := wireRequest{
		JobID:   req.JobID,
		Columns: req.Table.Columns,
		Rows:    req.Table.Rows,
		Privacy: wirePrivacy{
			Models:           make([]wireModel, 0, len(req.Privacy.Models)),
			SuppressionLimit: req.Privacy.SuppressionLimit,
		},
		Algorithm: wireAlgorithm{
			Search: req.Algorithm.Search,
			Metric: req.Algorithm.Metric,
		},
	}
	if w.Rows == nil {
		w.Rows = [][]string{}
	}

	if def := req.Definition; def != nil {
		for _, name := range def.Attributes() {
			a := wireAttribute{
				Name:      name,
				Role:      def.AttributeType(name).String(),
				Hierarchy: def.HierarchyMatrix(name),
			}
			if dt, ok := def.DataType(name); ok {
				a.DataType = dt.String()
			}
			w.Attributes = append(w.Attributes, a)
		}
	}

	for _, m := range req.Privacy.Models {
		w.Privacy.Models = append(w.Privacy.Models, encodeModel(m))
	}

	return json.Marshal(w)
}

func encodeModel(m privacy.Model) wireModel {
	switch m := m.(type) {
	case privacy.KAnonymity:
		return wireModel{Type: string(m.Kind()), K: m.K}
	case privacy.LDiversity:
		return wireModel{Type: string(m.Kind()), Column: m.Column, L: m.L, Variant: string(m.Variant), C: m.C}
	case privacy.TCloseness:
		t := m.T
		w := wireModel{Type: string(m.Kind()), Column: m.Column, T: &t, Distance: string(m.Distance)}
		if m.Hierarchy != nil {
			w.Hierarchy = m.Hierarchy.Matrix()
		}
		return w
	default:
		return wireModel{Type: string(m.Kind())}
	}
}

// decodeResponse turns an engine response body into the output table. It
// returns nil for an infeasible job.
func decodeResponse(data []byte) (*dataset.Table, error) {
	var resp wireResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, failure.Engine("malformed engine response", err)
	}

	switch resp.Status {
	case StatusInfeasible:
		return nil, nil
	case StatusOK:
	case StatusError:
		return nil, failure.Engine(fmt.Sprintf("engine reported failure: %s", resp.Message), nil)
	default:
		return nil, failure.Engine(fmt.Sprintf("unknown engine response status %q", resp.Status), nil)
	}

	if len(resp.Columns) == 0 {
		return nil, failure.Engine("engine response has no columns", nil)
	}
	for i, row := range resp.Rows {
		if len(row) != len(resp.Columns) {
			return nil, failure.Engine(fmt.Sprintf("engine response row %d has %d fields, want %d", i, len(row), len(resp.Columns)), nil)
		}
	}
	return &dataset.Table{Columns: resp.Columns, Rows: resp.Rows}, nil
}
