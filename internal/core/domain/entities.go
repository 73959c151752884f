package domain

// Role represents a portal role
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleClient   Role = "CLIENT"
)

// IsStaff reports whether the role can operate the lab-side views
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee || r == RoleClient
}

// TestStatus represents the lifecycle state of a lab test / visit request
type TestStatus string

const (
	// StatusClientRequest marks client-submitted requests from earlier
	// data; new intake requests are filed as pending so they land in
	// the staff work queue directly
	StatusClientRequest TestStatus = "client-request"
	// StatusPending is a request awaiting processing, whether registered
	// by staff or filed through the public intake form
	StatusPending TestStatus = "pending"
	// StatusSent means staff contacted the patient / dispatched the home visit
	StatusSent TestStatus = "sent"
	// StatusCompleted is terminal: a result value or result files exist
	StatusCompleted TestStatus = "completed"
)

// Valid reports whether the status is a known lifecycle state
func (s TestStatus) Valid() bool {
	switch s {
	case StatusClientRequest, StatusPending, StatusSent, StatusCompleted:
		return true
	}
	return false
}

// AwaitingContact reports whether staff still need to reach the patient.
// client-request and pending are treated the same in queue views.
func (s TestStatus) AwaitingContact() bool {
	return s == StatusClientRequest || s == StatusPending
}

// Gender values stored on patient records
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender is a known value
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// FileType classifies an uploaded result file
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// ResultFlag classifies a recorded value against its reference range
type ResultFlag string

const (
	FlagLow    ResultFlag = "low"
	FlagNormal ResultFlag = "normal"
	FlagHigh   ResultFlag = "high"
	// FlagIndeterminate marks results that cannot be assessed
	// automatically, such as free-text values or an unparseable range
	FlagIndeterminate ResultFlag = "indeterminate"
)

// OutreachStatus is the state of a staff outreach queue entry
type OutreachStatus string

const (
	OutreachNew       OutreachStatus = "new"
	OutreachContacted OutreachStatus = "contacted"
)

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// Valid reports whether the entry type is known
func (t EntryType) Valid() bool {
	return t == EntryIncome || t == EntryExpense
}

// Location is a GPS point attached to home-visit requests
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
