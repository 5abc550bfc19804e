package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"peacock/internal/types"
)

func TestProjectMatchesTitleOrContentIgnoringCase(t *testing.T) {
	notes := []*types.Note{
		{ID: "1", Title: "Shopping", Content: "milk"},
		{ID: "2", Title: "Work", Content: "deploy SHOPPING bug"},
		{ID: "3", Title: "Ideas", Content: "garden"},
	}

	got := Project(notes, "shop")
	assert.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	assert.Empty(t, Project(notes, "xyz"))
}

func TestProjectBlankTermReturnsInput(t *testing.T) {
	notes := []*types.Note{{ID: "2"}, {ID: "1"}}
	assert.Equal(t, notes, Project(notes, ""))
	assert.Equal(t, notes, Project(notes, "   "))
}
