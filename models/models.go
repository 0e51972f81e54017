package models

// MigrationModels lists every model owned by the application schema in dependency order
func MigrationModels() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Clinic{},
		&ClinicStaff{},
		&Patient{},
		&Visit{},
		&Prescription{},
		&Appointment{},
		&FollowUp{},
		&Notification{},
	}
}
