// Package models defines the data structures used across the application.
// Field names mirror the JSON the dashboard consumes.
package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the lifecycle state of an ingested media record.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusFlagged  VerificationStatus = "flagged"
)

// RiskLevel is the coarse authenticity classification produced by the analyzer.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	// RiskUnknown marks degraded analyzer output, never a normal verdict.
	RiskUnknown RiskLevel = "unknown"
)

// Valid reports whether r is one of the levels the analyzer may emit.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown:
		return true
	}
	return false
}

// DeepfakeAnalysis is the analyzer verdict embedded in a media record.
// Set once at ingestion and immutable thereafter.
type DeepfakeAnalysis struct {
	IsDeepfake        bool      `json:"is_deepfake"`
	ConfidenceScore   float64   `json:"confidence_score"`
	DetectedArtifacts []string  `json:"detected_artifacts"`
	RiskLevel         RiskLevel `json:"risk_level"`
	AnalysisSummary   string    `json:"analysis_summary"`
}

// MediaRecord represents one ingested media item and its anchoring state.
type MediaRecord struct {
	ID                 uuid.UUID          `json:"id"`
	Filename           string             `json:"filename"`
	FileHash           string             `json:"file_hash"`
	FileSize           int64              `json:"file_size"`
	FileType           string             `json:"file_type"`
	UploadTimestamp    time.Time          `json:"upload_timestamp"`
	BlockchainTx       string             `json:"blockchain_tx,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	DeepfakeAnalysis   *DeepfakeAnalysis  `json:"deepfake_analysis,omitempty"`
}

// AnalysisDetails is the snapshot attached to a verification record.
// For hashes never ingested, Error carries the "unknown media" marker;
// for tamper detection it carries the integrity-violation detail.
type AnalysisDetails struct {
	RiskLevel         RiskLevel `json:"risk_level,omitempty"`
	AnalysisSummary   string    `json:"analysis_summary,omitempty"`
	DetectedArtifacts []string  `json:"detected_artifacts,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// VerificationRecord is the audit record produced by every verify call.
type VerificationRecord struct {
	ID                    uuid.UUID       `json:"id"`
	FileHash              string          `json:"file_hash"`
	IsAuthentic           bool            `json:"is_authentic"`
	VerificationTimestamp time.Time       `json:"verification_timestamp"`
	ConfidenceScore       float64         `json:"confidence_score"`
	AnalysisDetails       AnalysisDetails `json:"analysis_details"`
	BlockchainVerified    bool            `json:"blockchain_verified"`
}

// StatusCheck is the legacy client ping record kept for dashboard compatibility.
type StatusCheck struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Database    string `json:"database,omitempty"`
	ChainHeight int64  `json:"chain_height"`
	ChainHead   string `json:"chain_head,omitempty"`
}
