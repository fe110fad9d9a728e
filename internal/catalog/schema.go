// Package catalog provides typed accessors over the control-plane tables:
// ctl_* (declarative configuration, read-mostly) and log_* (append-only run
// records). Column inventory transcribed from
// original_source/src/datacraft_framework/Models/schema.py.
package catalog

import "time"

// Status is the tri-state every log_* row carries.
type Status string

const (
	StatusInProgress Status = "IN-PROGRESS"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// DatasetMaster is dataset_master: per-layer location, file pattern, and
// partition columns for one dataset within one process.
type DatasetMaster struct {
	ProcessID                         int
	DatasetID                        int
	DatasetName                      string
	DatasetType                      string // RAW | BRONZE | SILVER | GOLD
	OutboundSourcePlatform            string
	OutboundSourceSystem              string
	OutboundSourceFilePattern         string
	OutboundSourceFilePatternStatic   bool
	InboundLocation                   string
	InboundFilePattern                string
	FileDelimiter                     string
	DataLandingLocation               string
	LandingPartitionColumns           string
	DataStandardisationLocation       string
	DataStandardisationPartitionCols  string
	StagingLocation                   string
	StagingPartitionColumns           string
	TransformationLocation            string
	TransformationPartitionColumns    string
}

// ColumnMetadata is column_metadata: one declared output column.
type ColumnMetadata struct {
	DatasetID        int
	ColumnName       string
	SourceColumnName string
	ColumnDataType   string
	DateFormat       string
	ColumnJSONPath   string
	ColumnOrder      int
	DashboardTag     string
}

// AcquisitionConnectionMaster is acquisition_connection_master: credential
// + endpoint bundle keyed by (platform, system).
type AcquisitionConnectionMaster struct {
	Platform       string
	System         string
	ConnectionJSON string // opaque JSON blob
	PrivateKey     string // optional, API service-account JWT-bearer only
}

// APIConnectionDtl is api_connection_dtl: one ordered step of an API
// workflow.
type APIConnectionDtl struct {
	SeqNo       int
	ProcessID   int
	DatasetID   int
	StepType    string // TOKEN | RESPONSE
	Method      string
	URL         string
	TokenURL    string
	AuthType    string
	TokenType   string
	TokenPath   string
	ClientID    string
	ClientSecret string
	Username    string
	Password    string
	Issuer      string
	Scope       string
	PrivateKey  string
	HeadersJSON string
	ParamsJSON  string
	DataJSON    string
	JSONBody    string
	BodyValues  string // JSON array of single-key {placeholder: [values]} maps
}

// AcquisitionDetail is acquisition_detail: per-dataset acquisition
// instruction.
type AcquisitionDetail struct {
	ProcessID            int
	PreIngestionDatasetID int
	SourceLocation       string
	SourceFilePattern    string
	Delimiter            string
	Query                string
	Columns              string
}

// StandardizationDtl is standardization_dtl: one ordered column-level
// transform declaration.
type StandardizationDtl struct {
	DatasetID    int
	ColumnName   string
	SeqNo        int
	FunctionName string
	ParamsJSON   string
}

// DQMMasterDtl is dqm_master_dtl: one quality rule over one column.
type DQMMasterDtl struct {
	QCID         int
	ProcessID    int
	DatasetID    int
	ColumnName   string
	QCType       string
	ParamsJSON   string
	Criticality  string // C | NC
	Threshold    float64
}

// TransformationDependencyMaster is transformation_dependency_master: one
// row of a gold dataset's dependency DAG.
type TransformationDependencyMaster struct {
	ProcessID                 int
	DatasetID                 int
	DependentDatasetID        int
	TransformationStep        int
	TransformationType        string // direct | union | join | custom
	StagingTable              string
	JoinHow                   string
	LeftTableColumns          string
	RightTableColumns         string
	ExtraValues               string
	PrimaryKeys               string
	CustomTransformationQuery string
}

// LogAcquisition is log_acquisition: one row per extractor attempt.
type LogAcquisition struct {
	SeqNo                 int
	RunID                 string
	ProcessID             int
	PreIngestionDatasetID int
	InboundFileLocation   string
	Status                Status
	ErrorText             string
	CreatedAt             time.Time
}

// LogRawProcess is log_raw_process: one row per bronze object promoted to
// landing.
type LogRawProcess struct {
	FileID    int
	RunID     string
	ProcessID int
	DatasetID int
	BatchID   int64
	SourceFile string
	Status    Status
	ErrorText string
	CreatedAt time.Time
}

// LogStandardization is log_standardization: one row per silver
// standardize attempt.
type LogStandardization struct {
	SeqNo     int
	RunID     string
	ProcessID int
	DatasetID int
	BatchID   int64
	Status    Status
	ErrorText string
	CreatedAt time.Time
}

// LogDQM is log_dqm: one row per quality check executed.
type LogDQM struct {
	SeqNo       int
	RunID       string
	ProcessID   int
	DatasetID   int
	QCID        int
	BatchID     int64
	TotalCount  int64
	ErrorCount  int64
	Status      Status
	ErrorText   string
	CreatedAt   time.Time
}

// LogTransformation is log_transformation: one row per gold transform
// attempt.
type LogTransformation struct {
	SeqNo     int
	RunID     string
	ProcessID int
	DatasetID int
	BatchID   int64
	Status    Status
	ErrorText string
	CreatedAt time.Time
}
