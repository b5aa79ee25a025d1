package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountByStatus(t *testing.T) {
	jobs := []*Job{
		{Name: "a", Status: StatusComplete},
		{Name: "b", Status: StatusComplete},
		{Name: "c", Status: StatusIncomplete},
	}

	counts := CountByStatus(jobs)
	assert.Equal(t, 2, counts[StatusComplete])
	assert.Equal(t, 1, counts[StatusIncomplete])
	assert.Equal(t, 0, counts[StatusError])
}

func TestByID_SkipsJobsWithoutID(t *testing.T) {
	jobs := []*Job{
		{Name: "a", ID: "1"},
		{Name: "b"},
		{Name: "c", ID: "3"},
	}

	indexed := ByID(jobs)
	assert.Len(t, indexed, 2)
	assert.Equal(t, "a", indexed["1"].Name)
	assert.Equal(t, "c", indexed["3"].Name)
}
