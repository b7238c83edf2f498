package joblistings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmploymentTypeKeysOrder(t *testing.T) {
	assert.Equal(t, []string{
		"FULL_TIME", "PART_TIME", "CONTRACTOR", "TEMPORARY",
		"INTERN", "VOLUNTEER", "PER_DIEM", "OTHER",
	}, EmploymentTypeKeys())
}
