// Package joblistings holds job-listing vocabularies shared by the REST models.
package joblistings

// EmploymentType is one entry of the employment-type enumeration.
type EmploymentType struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var employmentTypes = []EmploymentType{
	{Key: "FULL_TIME", Label: "Full Time"},
	{Key: "PART_TIME", Label: "Part Time"},
	{Key: "CONTRACTOR", Label: "Contractor"},
	{Key: "TEMPORARY", Label: "Temporary"},
	{Key: "INTERN", Label: "Intern"},
	{Key: "VOLUNTEER", Label: "Volunteer"},
	{Key: "PER_DIEM", Label: "Per Diem"},
	{Key: "OTHER", Label: "Other"},
}

// EmploymentTypeKeys returns the employment-type keys in display order.
func EmploymentTypeKeys() []string {
	keys := make([]string, len(employmentTypes))
	for i, t := range employmentTypes {
		keys[i] = t.Key
	}
	return keys
}
