package domain

import "time"

// JobStatus represents the lifecycle status of a processing job.
// Values are JobStatusPending, JobStatusProcessing, JobStatusCompleted,
// and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is one of the two end states.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProcessingJob represents one batch classification request and its
// progress metadata. A job is created pending by the intake API, claimed
// and driven to a terminal state by exactly one worker, and never
// mutated again once terminal. All transitions go through the job
// repository; nothing else writes this table.
type ProcessingJob struct {
	JobID         string     `gorm:"type:uuid;primaryKey" json:"job_id"`
	Status        JobStatus  `gorm:"type:varchar(20);default:pending;index" json:"status"`
	CSVFilePath   string     `gorm:"type:varchar(500)" json:"csv_file_path"`
	RulesData     RuleTree   `gorm:"type:json" json:"rules_data"`
	TotalRows     int        `gorm:"default:0" json:"total_rows"`
	ProcessedRows int        `gorm:"default:0" json:"processed_rows"`
	ErrorMessage  *string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DeletedAt     *time.Time `gorm:"index" json:"-"`
}

// TableName returns the database table name for ProcessingJob.
func (ProcessingJob) TableName() string {
	return "processing_jobs"
}
