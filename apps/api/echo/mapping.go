package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/curriculum/core/mapping"
)

type mappingApi struct {
	svc      *mapping.Service
	validate *validator.Validate
}

func registerMappingAPI(g *echo.Group, svc *mapping.Service, validate *validator.Validate) {
	api := mappingApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("/courses", api.listCourses)

	cg := g.Group("/course/:courseId")
	cg.DELETE("", api.deleteCourse)
	cg.GET("/outcomes", api.getOutcomes)
	cg.PUT("/outcomes", api.setOutcomes)
	cg.GET("/mapping", api.getMapping)
	cg.POST("/mapping", api.replaceMapping)
}

// Handlers

func (api *mappingApi) listCourses(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	courses, err := api.svc.ListCourses(ctx.Request().Context(), ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *mappingApi) deleteCourse(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("courseId")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *mappingApi) getOutcomes(ctx echo.Context) error {
	course, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *mappingApi) setOutcomes(ctx echo.Context) error {
	var data mapping.SetOutcomes
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetOutcomes")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.svc.SetOutcomes(ctx.Request().Context(), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "setting course outcomes")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *mappingApi) getMapping(ctx echo.Context) error {
	m, err := api.svc.GetMapping(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting mapping")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *mappingApi) replaceMapping(ctx echo.Context) error {
	var data mapping.Payload
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Payload")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.ReplaceMapping(ctx.Request().Context(), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "replacing mapping")
	}
	return ctx.JSON(http.StatusOK, m)
}
