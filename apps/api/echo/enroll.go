package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/enroll"
	"github.com/kusoma/backend/core/user"
)

type enrollApi struct {
	svc      enroll.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := enrollApi{
		svc:      opts.EnrollSvc,
		usrSvc:   opts.UserSvc,
		validate: opts.Validate,
	}

	eg := g.Group("/enrollments", jwt)
	eg.POST("/reconcile", api.reconcile)

	// ops-only comp grants, same path as the CLI
	eg.POST("/grant", api.grant, adminMiddleware(user.AdminRoles...))
}

type ReconcileResponse struct {
	Ok      bool     `json:"ok"`
	Applied bool     `json:"applied"`
	Modules []string `json:"modules,omitempty"`
}

// reconcile lets an authenticated client settle its own pending purchases
// on demand, e.g. right after the payment provider's redirect back to the
// app.
func (api *enrollApi) reconcile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if usr.Email == "" {
		return core.NewValidationError(errors.New("account has no email address"))
	}

	res, err := api.svc.Reconcile(ctx.Request().Context(), usr.ID, usr.Email)
	if err != nil {
		return errors.Wrap(err, "reconciling")
	}
	return ctx.JSON(http.StatusOK, ReconcileResponse{Ok: true, Applied: res.Applied, Modules: res.Modules})
}

type GrantRequest struct {
	Email   string   `json:"email" validate:"required,email"`
	Modules []string `json:"modules" validate:"required,min=1"`
}

func (gr *GrantRequest) Validate(validate *validator.Validate) error {
	gr.Email = core.CleanString(gr.Email, true /* lower */)
	for i, id := range gr.Modules {
		gr.Modules[i] = core.CleanString(id, true /* lower */)
	}
	return validate.Struct(gr)
}

func (api *enrollApi) grant(ctx echo.Context) error {
	var data GrantRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrantRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	outcome, err := api.svc.GrantModules(ctx.Request().Context(), data.Email, data.Modules...)
	if err != nil {
		return errors.Wrap(err, "granting modules")
	}
	return ctx.JSON(http.StatusOK, outcome)
}

type courseApi struct {
	svc    course.Service
	usrSvc user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		svc:    opts.CourseSvc,
		usrSvc: opts.UserSvc,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("/progress", api.progress)
}

func (api *courseApi) progress(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	doc, err := api.svc.GetProgress(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == course.ErrProgressNotFound {
			// account predates progress documents; create on first read
			doc, err = api.svc.InitProgress(ctx.Request().Context(), usr.ID, usr.Email)
		}
		if err != nil {
			return errors.Wrap(err, "reading progress")
		}
	}
	return ctx.JSON(http.StatusOK, doc)
}
