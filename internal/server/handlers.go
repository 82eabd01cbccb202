package server

import (
	"sort"
	"strconv"
	"strings"

	"school_portal/internal/attendance"
	"school_portal/pkg"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type attendanceQuery struct {
	StudentID  string `query:"student_id" validate:"required"`
	Session    string `query:"session" validate:"required"`
	ClassName  string `query:"class_name" validate:"required"`
	IDKeys     string `query:"id_keys"`
	RollKeys   string `query:"roll_keys"`
	MaxCacheMs string `query:"max_cache_ms" validate:"omitempty,number"`
}

func (q attendanceQuery) input(mode string) attendance.LookupInput {
	return attendance.LookupInput{
		StudentID:  strings.TrimSpace(q.StudentID),
		Session:    strings.TrimSpace(q.Session),
		ClassName:  strings.TrimSpace(q.ClassName),
		IDKeys:     splitList(q.IDKeys),
		RollKeys:   splitList(q.RollKeys),
		Mode:       mode,
		MaxCacheMs: q.maxCacheMs(),
	}
}

// maxCacheMs keeps an explicit 0 apart from an absent parameter
func (q attendanceQuery) maxCacheMs() *int64 {
	if q.MaxCacheMs == "" {
		return nil
	}
	ms, err := strconv.ParseInt(q.MaxCacheMs, 10, 64)
	if err != nil {
		return nil
	}
	return &ms
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAttendance reports false once it has already written an error response
func (s *Server) parseAttendance(c *fiber.Ctx) (attendanceQuery, bool, error) {
	var q attendanceQuery
	if err := c.QueryParser(&q); err != nil {
		return q, false, Error(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := s.validate.Struct(q); err != nil {
		return q, false, ValidationError(c, err)
	}
	return q, true, nil
}

// lookup serves GET /api/attendance{,/quick,/cached}
func (s *Server) lookup(mode string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, ok, err := s.parseAttendance(c)
		if !ok {
			return err
		}

		result, err := s.service.Lookup(c.UserContext(), q.input(mode))
		if err != nil {
			return Error(c, fiber.StatusBadRequest, err.Error())
		}
		return Success(c, "attendance retrieved", result)
	}
}

// summary serves GET /api/attendance/summary
func (s *Server) summary(c *fiber.Ctx) error {
	q, ok, err := s.parseAttendance(c)
	if !ok {
		return err
	}

	result := s.service.GetAttendanceData(c.UserContext(), q.input(attendance.FlowFull).Request())
	return Success(c, "attendance summarised", fiber.Map{
		"source": result.Source,
		"days":   pkg.AggregateByDate(result.Records),
	})
}

type normalizeBody struct {
	ID pkg.RawID `json:"id"`
}

// normalizeID serves POST /api/ids/normalize
func (s *Server) normalizeID(c *fiber.Ctx) error {
	var body normalizeBody
	if err := c.BodyParser(&body); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid body")
	}
	return Success(c, "id normalized", fiber.Map{"id": pkg.NormalizedID(body.ID)})
}

// menu serves GET /api/menu/:role?page=
func (s *Server) menu(c *fiber.Ctx) error {
	menu, err := s.menus.Menu(c.Params("role"))
	if err != nil {
		return Error(c, fiber.StatusNotFound, err.Error())
	}
	return Success(c, "menu rendered", menu.Render(c.Query("page")))
}

type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// listTools serves GET /api/tools
func (s *Server) listTools(c *fiber.Ctx) error {
	out := make([]toolSummary, 0, len(s.tools))
	for _, t := range s.tools {
		info, err := t.Info(c.UserContext())
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, err.Error())
		}
		out = append(out, toolSummary{Name: info.Name, Description: info.Desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return Success(c, "tools listed", out)
}

// runTool serves POST /api/tools/:name with the tool arguments as body
func (s *Server) runTool(c *fiber.Ctx) error {
	t, ok := s.tools[c.Params("name")]
	if !ok {
		return Error(c, fiber.StatusNotFound, "unknown tool: "+c.Params("name"))
	}

	out, err := t.InvokableRun(c.UserContext(), string(c.Body()))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	var data any
	if err := sonic.UnmarshalString(out, &data); err != nil {
		data = out
	}
	return Success(c, "tool executed", data)
}
