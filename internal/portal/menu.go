package portal

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// MenuItem is one sidebar link
type MenuItem struct {
	Href  string `json:"href" yaml:"href"`
	Label string `json:"label" yaml:"label"`
}

// Menu is the sidebar for one portal role
type Menu struct {
	Title string     `json:"title" yaml:"title"`
	Items []MenuItem `json:"items" yaml:"items"`
}

// RenderedItem is a MenuItem with its active flag resolved
type RenderedItem struct {
	Href   string `json:"href"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// RenderedMenu is what a page draws
type RenderedMenu struct {
	Title string         `json:"title"`
	Items []RenderedItem `json:"items"`
}

// StudentMenu returns the stock student sidebar
func StudentMenu() Menu {
	return Menu{
		Title: "Student Menu",
		Items: []MenuItem{
			{Href: "student_portal.html", Label: "Dashboard"},
			{Href: "student_results.html", Label: "Results"},
			{Href: "student_timetable.html", Label: "Timetable"},
			{Href: "student_exams.html", Label: "Exams"},
			{Href: "student_hall_ticket.html", Label: "Hall Ticket"},
			{Href: "student_attendance.html", Label: "Attendance"},
			{Href: "student_notices.html", Label: "Notices"},
			{Href: "student_academic_calendar.html", Label: "Academic Calendar"},
		},
	}
}

// TeacherMenu returns the stock teacher sidebar
func TeacherMenu() Menu {
	return Menu{
		Title: "Teacher Menu",
		Items: []MenuItem{
			{Href: "teacher_dashboard.html", Label: "Dashboard"},
			{Href: "view_notices.html", Label: "Notices and Circular"},
			{Href: "teacher_my_classes.html", Label: "My Time Table"},
			{Href: "teacher_attendance.html", Label: "Upload Attendance"},
			{Href: "teacher_view_datesheet.html", Label: "View Datesheet"},
			{Href: "teacher_papers.html", Label: "Question Papers"},
			{Href: "teacher_internal_marks_upload.html", Label: "Upload Internal Marks"},
			{Href: "teacher_marks_upload.html", Label: "Upload External Marks"},
			{Href: "teacher_leave.html", Label: "Leave Permission"},
		},
	}
}

// Render marks the item whose href equals the last segment of current, ignoring case.
func (m Menu) Render(current string) RenderedMenu {
	page := strings.ToLower(path.Base(strings.TrimSpace(current)))

	items := make([]RenderedItem, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, RenderedItem{
			Href:   item.Href,
			Label:  item.Label,
			Active: page != "" && strings.ToLower(item.Href) == page,
		})
	}
	return RenderedMenu{Title: m.Title, Items: items}
}

// Registry holds the menu of every role
type Registry struct {
	menus map[string]Menu
}

// NewRegistry starts from the stock menus and applies overrides by role. An override with no
// items replaces only the title.
func NewRegistry(overrides map[string]Menu) *Registry {
	menus := map[string]Menu{
		RoleStudent: StudentMenu(),
		RoleTeacher: TeacherMenu(),
	}
	for role, override := range overrides {
		role = strings.ToLower(strings.TrimSpace(role))
		base := menus[role]
		if override.Title != "" {
			base.Title = override.Title
		}
		if len(override.Items) > 0 {
			base.Items = override.Items
		}
		menus[role] = base
	}
	return &Registry{menus: menus}
}

// Menu looks up a role's sidebar
func (r *Registry) Menu(role string) (Menu, error) {
	menu, ok := r.menus[strings.ToLower(role)]
	if !ok {
		return Menu{}, fmt.Errorf("unknown portal role: %s", role)
	}
	return menu, nil
}

// MenuController tracks whether a sidebar is open. It is for callers that render the sidebar
// themselves; the HTTP menu route is stateless and does not hold one.
type MenuController struct {
	mu   sync.Mutex
	open bool
}

func (c *MenuController) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
}

func (c *MenuController) Close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// Toggle flips the state and reports the new one
func (c *MenuController) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
	return c.open
}

func (c *MenuController) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Navigate closes the menu and returns the page to open
func (c *MenuController) Navigate(href string) string {
	c.Close()
	return href
}
