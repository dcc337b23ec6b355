package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/services/metrics"
)

type (
	pointsApi struct {
		svc      *points.Service
		logger   core.Logger
		validate *validator.Validate
	}

	NewEventRequest struct {
		DueDate null.Time `json:"dueDate"`
	}

	ClosedEvent struct {
		ID       core.ID   `json:"id"`
		Status   string    `json:"status"`
		ClosedAt null.Time `json:"closedAt"`
	}

	SubmissionReceipt struct {
		ID          core.ID   `json:"id"`
		EventID     core.ID   `json:"eventId"`
		TotalPoints int       `json:"totalPoints"`
		SubmittedAt time.Time `json:"submittedAt"`
	}
)

func registerPointsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *points.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := pointsApi{
		svc:      svc,
		logger:   logger,
		validate: validate,
	}

	pg := g.Group("/course/:courseNumber/project/:projectId/points", jwt)
	instructor := roleMiddleware(core.RoleInstructor)
	student := roleMiddleware(core.RoleStudent)

	pg.POST("/events", api.createEvent, instructor)
	pg.GET("/events", api.listEvents, instructor)
	pg.GET("/events/open", api.getOpenEvent, student)
	pg.POST("/events/:eventId/close", api.closeEvent, instructor)
	pg.POST("/submissions", api.submit, student)
	pg.GET("/scaling-factors", api.getScalingFactors, instructor)
	pg.GET("/scaling-factors/students/:studentId", api.getStudentScalingFactors, instructor)
}

// Handlers

func (api *pointsApi) createEvent(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	var data NewEventRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEventRequest")
	}

	ev, err := api.svc.CreateEvent(ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"), data.DueDate)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	metrics.EventsCreatedTotal.WithLabelValues(ev.CourseID).Inc()
	api.logger.Info(fmt.Sprintf("event %s opened for project %s", ev.ID, ev.ProjectID), caller)

	return ctx.JSON(http.StatusCreated, echo.Map{"event": points.NewEventView(ev, points.Now())})
}

func (api *pointsApi) listEvents(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	events, err := api.svc.ListEvents(ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"events": events})
}

func (api *pointsApi) getOpenEvent(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	res, err := api.svc.GetOpenEvent(ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "getting open event")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *pointsApi) closeEvent(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}

	start := time.Now()
	ev, factors, err := api.svc.CloseEvent(
		ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"), ctx.Param("eventId"),
	)
	if err != nil {
		return errors.Wrap(err, "closing event")
	}
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	metrics.EventsClosedTotal.WithLabelValues(ev.CourseID).Inc()

	views := make([]points.ScalingFactorView, 0, len(factors))
	for _, sf := range factors {
		metrics.ScalingFactors.WithLabelValues(ev.CourseID).Observe(sf.ScalingFactor)
		views = append(views, points.NewScalingFactorView(ev, sf))
	}
	api.logger.Info(fmt.Sprintf("event %s closed with %d scaling factors", ev.ID, len(factors)), caller)

	return ctx.JSON(http.StatusOK, echo.Map{
		"event":          ClosedEvent{ID: ev.ID, Status: string(ev.Status), ClosedAt: ev.ClosedAt},
		"scalingFactors": views,
	})
}

func (api *pointsApi) submit(ctx echo.Context) (err error) {
	defer func() {
		metrics.SubmissionsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}()

	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	// an unknown rater is reported before anything about the body
	if _, err = api.svc.Rater(ctx.Request().Context(), caller); err != nil {
		return errors.Wrap(err, "resolving rater")
	}
	var data points.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"), data)
	if err != nil {
		return errors.Wrap(err, "submitting points")
	}

	return ctx.JSON(http.StatusCreated, echo.Map{"submission": SubmissionReceipt{
		ID:          sub.ID,
		EventID:     sub.EventID,
		TotalPoints: sub.TotalPoints,
		SubmittedAt: sub.SubmittedAt,
	}})
}

func (api *pointsApi) getScalingFactors(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	res, err := api.svc.GetScalingFactors(ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "getting scaling factors")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"scalingFactorsByEvent": res})
}

func (api *pointsApi) getStudentScalingFactors(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	res, err := api.svc.GetStudentScalingFactors(
		ctx.Request().Context(), caller, ctx.Param("courseNumber"), ctx.Param("projectId"), ctx.Param("studentId"),
	)
	if err != nil {
		return errors.Wrap(err, "getting student scaling factors")
	}
	return ctx.JSON(http.StatusOK, res)
}
