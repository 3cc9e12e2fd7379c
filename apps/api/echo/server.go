package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/report"
	"github.com/trezcool/admissions/core/staff"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Catalog    *catalog.Service
		Applicants *applicant.Service
		Staff      *staff.Service
		Groups     *group.Service
		Membership *membership.Service
		Reports    *report.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "deps.Conf"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
		vala.IsNotNil(deps.Catalog, "deps.Catalog"),
		vala.IsNotNil(deps.Applicants, "deps.Applicants"),
		vala.IsNotNil(deps.Staff, "deps.Staff"),
		vala.IsNotNil(deps.Groups, "deps.Groups"),
		vala.IsNotNil(deps.Membership, "deps.Membership"),
		vala.IsNotNil(deps.Reports, "deps.Reports"),
	).CheckAndPanic()

	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.Translator == nil {
		deps.Translator = core.NewTranslator()
		core.InitValidators(deps.Validate, deps.Translator)
		applicant.InitValidators(deps.Validate, deps.Translator)
		staff.InitValidators(deps.Validate, deps.Translator)
	}

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	authed := []echo.MiddlewareFunc{jwt, s.principalMiddleware}

	registerAuthAPI(g.Group("/auth"), s, authed)
	registerSecretaryAPI(g.Group("/secretary", append(authed, secretaryMiddleware)...), s)
	registerTeacherAPI(g.Group("/teacher", append(authed, teacherMiddleware)...), s)
	registerApplicantAPI(g.Group("/applicant", append(authed, applicantMiddleware)...), s)
}

func (s *server) Start() {
	s.deps.Logger.Info("API listening on " + s.deps.Conf.Server.Address)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
