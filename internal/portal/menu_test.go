package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarksCurrentPage(t *testing.T) {
	rendered := StudentMenu().Render("/portal/Student_Attendance.html")

	assert.Equal(t, "Student Menu", rendered.Title)
	require.Len(t, rendered.Items, 8)

	var active []string
	for _, item := range rendered.Items {
		if item.Active {
			active = append(active, item.Href)
		}
	}
	assert.Equal(t, []string{"student_attendance.html"}, active)
}

func TestRenderWithoutCurrentPage(t *testing.T) {
	for _, current := range []string{"", "unknown.html"} {
		for _, item := range TeacherMenu().Render(current).Items {
			assert.False(t, item.Active, item.Href)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(map[string]Menu{
		"Teacher": {Title: "Staff"},
		"parent":  {Title: "Parent Menu", Items: []MenuItem{{Href: "parent.html", Label: "Home"}}},
	})

	teacher, err := registry.Menu("teacher")
	require.NoError(t, err)
	assert.Equal(t, "Staff", teacher.Title)
	assert.Equal(t, TeacherMenu().Items, teacher.Items)

	parent, err := registry.Menu("PARENT")
	require.NoError(t, err)
	assert.Len(t, parent.Items, 1)

	student, err := registry.Menu(RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, StudentMenu(), student)

	_, err = registry.Menu("admin")
	assert.Error(t, err)
}

func TestMenuController(t *testing.T) {
	var c MenuController
	assert.False(t, c.IsOpen())

	c.Open()
	assert.True(t, c.IsOpen())
	c.Close()
	assert.False(t, c.IsOpen())

	assert.True(t, c.Toggle())
	assert.False(t, c.Toggle())

	c.Open()
	assert.Equal(t, "teacher_leave.html", c.Navigate("teacher_leave.html"))
	assert.False(t, c.IsOpen())
}
