package rest

import "github.com/jobmanager/helper/internal/joblistings"

// JobTypesCustomFields adds the employment type to the job-types resource.
type JobTypesCustomFields struct{}

// DeclareFields returns the employment_type meta field.
func (JobTypesCustomFields) DeclareFields(env *Environment) []*FieldDeclaration {
	return []*FieldDeclaration{
		env.Field("employment_type", "Employment Type").
			WithKind(KindMeta).
			WithType(env.Type("string")).
			WithChoices(joblistings.EmploymentTypeKeys()),
	}
}
