package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/attendance"
	"github.com/kampala/campushub/core/auth"
	"github.com/kampala/campushub/core/results"
	"github.com/kampala/campushub/core/schedule"
)

type campusApi struct {
	deps ServerDeps
}

func registerCampusAPI(g *echo.Group, jwt, guard echo.MiddlewareFunc, deps ServerDeps) {
	api := campusApi{deps: deps}

	cg := g.Group("", jwt, guard)

	cg.GET("/dashboard", api.dashboard)

	cg.GET("/announcements", api.queryAnnouncements)
	cg.POST("/announcements", api.postAnnouncement, facultyMiddleware())

	cg.GET("/calendar", api.queryCalendar)
	cg.GET("/timetable", api.queryTimetable)

	cg.GET("/attendance", api.attendanceSummary, studentMiddleware())
	cg.GET("/attendance/sheets", api.courseSheet, facultyMiddleware())
	cg.POST("/attendance/sheets", api.submitSheet, facultyMiddleware())

	cg.GET("/results", api.queryResults)
	cg.POST("/results", api.postResult, facultyMiddleware())
}

// Handlers

// dashboard aggregates the landing view for the resolved profile: the latest
// feed items, today's timetable and, for students, the attendance summary.
func (api *campusApi) dashboard(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	rctx := ctx.Request().Context()

	anns, err := api.deps.AnnounceSvc.QueryFor(rctx, prof, announce.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if len(anns) > 5 {
		anns = anns[:5]
	}

	slots, err := api.deps.ScheduleSvc.SlotsFor(rctx, prof, ctx.QueryParam("section"))
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	today := strings.ToLower(time.Now().UTC().Weekday().String())
	todaySlots := schedule.SlotsForDay(slots, today)

	resp := DashboardResponse{
		Profile:       prof,
		Announcements: anns,
		TodaySlots:    todaySlots,
	}

	if prof.IsStudent() {
		summaries, err := api.deps.AttendanceSvc.SummaryFor(rctx, prof)
		if err != nil {
			return errors.Wrap(err, "querying attendance summary")
		}
		resp.Attendance = summaries
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (api *campusApi) queryAnnouncements(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var filter announce.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []announce.Announcement{})
	}

	anns, err := api.deps.AnnounceSvc.QueryFor(ctx.Request().Context(), prof, filter)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announce.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *campusApi) postAnnouncement(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data announce.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ann, err := api.deps.AnnounceSvc.Post(ctx.Request().Context(), prof, data)
	if err != nil {
		return errors.Wrap(err, "posting announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *campusApi) queryCalendar(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var filter schedule.EventFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.CalendarEvent{})
	}

	events, err := api.deps.ScheduleSvc.EventsFor(ctx.Request().Context(), prof, filter)
	if err != nil {
		return errors.Wrap(err, "querying calendar")
	}
	if events == nil {
		events = []schedule.CalendarEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *campusApi) queryTimetable(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	slots, err := api.deps.ScheduleSvc.SlotsFor(ctx.Request().Context(), prof, ctx.QueryParam("section"))
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	if slots == nil {
		slots = []schedule.TimetableSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *campusApi) attendanceSummary(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	summaries, err := api.deps.AttendanceSvc.SummaryFor(ctx.Request().Context(), prof)
	if err != nil {
		return errors.Wrap(err, "querying attendance summary")
	}
	if summaries == nil {
		summaries = []attendance.CourseSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *campusApi) courseSheet(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	courseID := ctx.QueryParam("course_id")
	if courseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}
	date := time.Now().UTC()
	if raw := ctx.QueryParam("date"); raw != "" {
		date, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be YYYY-MM-DD"})
		}
	}

	records, err := api.deps.AttendanceSvc.CourseSheet(ctx.Request().Context(), prof, courseID, date)
	if err != nil {
		return errors.Wrap(err, "querying course sheet")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *campusApi) submitSheet(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var sheet attendance.Sheet
	if err := ctx.Bind(&sheet); err != nil {
		return errors.Wrap(err, "binding to Sheet")
	}
	if err := sheet.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.AttendanceSvc.SubmitSheet(ctx.Request().Context(), prof, sheet); err != nil {
		return errors.Wrap(err, "submitting sheet")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryResults returns the caller's own results for students and a course/term
// listing for faculty.
func (api *campusApi) queryResults(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	rctx := ctx.Request().Context()

	var res []results.Result
	if prof.IsFaculty() {
		courseID := ctx.QueryParam("course_id")
		if courseID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
		}
		res, err = api.deps.ResultsSvc.ForCourse(rctx, prof, courseID, ctx.QueryParam("term"))
	} else {
		res, err = api.deps.ResultsSvc.ForStudent(rctx, prof)
	}
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if res == nil {
		res = []results.Result{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *campusApi) postResult(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data results.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	res, err := api.deps.ResultsSvc.Record(ctx.Request().Context(), prof, data)
	if err != nil {
		return errors.Wrap(err, "recording result")
	}
	return ctx.JSON(http.StatusCreated, res)
}

type DashboardResponse struct {
	Profile       auth.Profile               `json:"profile"`
	Announcements []announce.Announcement    `json:"announcements"`
	TodaySlots    []schedule.TimetableSlot   `json:"today_slots"`
	Attendance    []attendance.CourseSummary `json:"attendance,omitempty"`
}
