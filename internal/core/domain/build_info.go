package domain

import "time"

// BuildInfo records the inputs and output of the last successful merge.
type BuildInfo struct {
	OutputPath string    `json:"output_path,omitzero"`
	InputHash  string    `json:"input_hash,omitzero"`
	OutputHash string    `json:"output_hash,omitzero"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}
