package model

// GlobalConfig holds the admin-calibrated emission multipliers plus the
// display project number. It is process-wide mutable state: only OWNER
// actors may change it, writes are last-write-wins and it is not versioned.
// The estimator consumes S2Factor; S1Factor and S3Factor are calibration
// values surfaced on the dashboard.
type GlobalConfig struct {
	S1Factor      float64 `json:"s1_factor"`
	S2Factor      float64 `json:"s2_factor"`
	S3Factor      float64 `json:"s3_factor"`
	ProjectNumber string  `json:"project_number"`
}

// DefaultGlobalConfig returns the factory calibration the terminal boots
// with before any OWNER adjustment.
func DefaultGlobalConfig(projectNumber string) GlobalConfig {
	return GlobalConfig{
		S1Factor:      2.31,
		S2Factor:      0.82,
		S3Factor:      0.15,
		ProjectNumber: projectNumber,
	}
}
