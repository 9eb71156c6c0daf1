package domain

import "time"

// TrialPhase is the development phase of a clinical trial.
type TrialPhase string

const (
	PhasePreclinical TrialPhase = "Preclinical"
	PhaseI           TrialPhase = "Phase I"
	PhaseII          TrialPhase = "Phase II"
	PhaseIII         TrialPhase = "Phase III"
	PhaseIV          TrialPhase = "Phase IV"
)

// TrialPhases lists every valid phase in display order.
var TrialPhases = []TrialPhase{PhasePreclinical, PhaseI, PhaseII, PhaseIII, PhaseIV}

// Valid reports whether p is a member of the phase enumeration.
func (p TrialPhase) Valid() bool {
	for _, v := range TrialPhases {
		if p == v {
			return true
		}
	}
	return false
}

// TrialStatus is the lifecycle state of a clinical trial.
type TrialStatus string

const (
	StatusPlanning   TrialStatus = "Planning"
	StatusActive     TrialStatus = "Active"
	StatusRecruiting TrialStatus = "Recruiting"
	StatusSuspended  TrialStatus = "Suspended"
	StatusCompleted  TrialStatus = "Completed"
	StatusTerminated TrialStatus = "Terminated"
)

// TrialStatuses lists every valid status in display order.
var TrialStatuses = []TrialStatus{
	StatusPlanning, StatusActive, StatusRecruiting,
	StatusSuspended, StatusCompleted, StatusTerminated,
}

// Valid reports whether s is a member of the status enumeration.
func (s TrialStatus) Valid() bool {
	for _, v := range TrialStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EnrollmentMax is the upper bound for estimated enrollment.
const EnrollmentMax = 100000

// Note is a free-form annotation on a trial, stamped with its author.
type Note struct {
	Content   string    `json:"content" bson:"content"`
	CreatedBy string    `json:"createdBy" bson:"created_by"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ClinicalTrial is the core aggregate root. TrialID is the business
// identity (unique, uppercase letters/digits/hyphens); ID is the store
// document id.
type ClinicalTrial struct {
	ID                    string      `json:"id"`
	TrialID               string      `json:"trialId"`
	Name                  string      `json:"name"`
	Description           string      `json:"description"`
	PrincipalInvestigator string      `json:"principalInvestigator"`
	Sponsor               string      `json:"sponsor"`
	TherapeuticArea       string      `json:"therapeuticArea"`
	DrugName              string      `json:"drugName,omitempty"`
	Phase                 TrialPhase  `json:"phase"`
	Status                TrialStatus `json:"status"`
	StartDate             time.Time   `json:"startDate"`
	EndDate               time.Time   `json:"endDate"`
	EstimatedEnrollment   int         `json:"estimatedEnrollment"`
	ActualEnrollment      int         `json:"actualEnrollment"`
	SecondaryEndpoints    []string    `json:"secondaryEndpoints,omitempty"`
	InclusionCriteria     []string    `json:"inclusionCriteria,omitempty"`
	ExclusionCriteria     []string    `json:"exclusionCriteria,omitempty"`
	StudyLocations        []string    `json:"studyLocations,omitempty"`
	Notes                 []Note      `json:"notes,omitempty"`
	CreatedBy             string      `json:"createdBy"`
	LastModifiedBy        string      `json:"lastModifiedBy"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// AuditAction identifies the kind of trial mutation recorded in the audit trail.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntry records a single trial mutation for the audit collection.
type AuditEntry struct {
	Action    AuditAction `json:"action"`
	RecordID  string      `json:"recordId"`
	TrialID   string      `json:"trialId"`
	ActorID   string      `json:"actorId"`
	Timestamp time.Time   `json:"timestamp"`
}
