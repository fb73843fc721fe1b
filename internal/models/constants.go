package models

const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldService = "service"
	FieldDate    = "date"
	FieldTime    = "time"
	FieldNotes   = "notes"
)

// RequiredFields are the fields that must be non-blank before a draft can
// be submitted. Date, time and notes stay optional.
var RequiredFields = []string{FieldName, FieldPhone, FieldEmail, FieldService}

const (
	// Placeholder rendered in outgoing messages for blank optional fields.
	EmptyFieldPlaceholder = "—"

	DefaultDraftTTLHours = 72
	DefaultStatusRefresh = 60 // seconds between wall-clock samples
)
