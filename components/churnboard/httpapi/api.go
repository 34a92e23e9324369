package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	"github.com/goliatone/go-churnboard/components/churnboard/commands"
	"github.com/goliatone/go-churnboard/components/churnboard/queries"
	gocommand "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	// DefaultViewerCookie holds the anonymous viewer id that keys page state.
	DefaultViewerCookie = "churnboard_viewer"
	defaultHealthTTL    = 30 * time.Second
	localsViewer        = "churnboard.viewer"
)

// HealthChecker reports backend health.
type HealthChecker interface {
	Health(ctx context.Context) (churnboard.Health, error)
}

// Config wires the dashboard pages, commands and streams onto a Fiber app.
type Config struct {
	Sessions   *churnboard.SessionStore
	Controller *churnboard.Controller
	Health     HealthChecker
	Broadcast  *churnboard.BroadcastHook
	Telemetry  churnboard.Telemetry
	// ViewerCookie overrides DefaultViewerCookie.
	ViewerCookie string
	// HealthTTL caches backend health for the header badge.
	HealthTTL time.Duration
	// StreamContext bounds SSE streams; cancel it on shutdown.
	StreamContext context.Context
}

// NewApp builds a Fiber app with the dashboard's error handler and
// middleware, and registers every route.
func NewApp(cfg Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "churnboard",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if err := Register(app, cfg); err != nil {
		return nil, err
	}
	return app, nil
}

type server struct {
	cfg       Config
	state     gocommand.Querier[queries.PageStateInput, churnboard.ViewData]
	telemetry churnboard.Telemetry

	healthMu   sync.Mutex
	health     *churnboard.Health
	healthSeen time.Time
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

// Register mounts the dashboard routes on router.
func Register(router fiber.Router, cfg Config) error {
	if router == nil {
		return errors.New("httpapi: router is required")
	}
	if cfg.Sessions == nil {
		return errors.New("httpapi: sessions are required")
	}
	if cfg.Controller == nil {
		return errors.New("httpapi: controller is required")
	}
	if cfg.ViewerCookie == "" {
		cfg.ViewerCookie = DefaultViewerCookie
	}
	if cfg.HealthTTL <= 0 {
		cfg.HealthTTL = defaultHealthTTL
	}
	if cfg.StreamContext == nil {
		cfg.StreamContext = context.Background()
	}
	s := &server{
		cfg:       cfg,
		state:     queries.NewPageStateQuery(cfg.Sessions),
		telemetry: cfg.Telemetry,
	}
	if s.telemetry == nil {
		s.telemetry = noopTelemetry{}
	}

	router.Use(s.withViewer)

	router.Get("/", s.handleDashboard)
	router.Get("/customers", s.handleCustomers)
	router.Get("/customers/:id", s.handleCustomer)
	router.Get("/predictions", s.handlePredictions)
	router.Post("/predictions", s.handlePredict)
	router.Post("/predictions/reset", s.handlePredictionsReset)
	router.Get("/campaigns", s.handleCampaigns)
	router.Get("/campaigns/events", s.handleCampaignEvents)
	router.Post("/campaigns", s.handleSaveCampaign)
	router.Post("/campaigns/:id", s.handleSaveCampaign)
	router.Put("/campaigns/:id", s.handleSaveCampaign)
	router.Post("/campaigns/:id/delete", s.handleDeleteCampaign)
	router.Delete("/campaigns/:id", s.handleDeleteCampaign)
	router.Get("/analytics", s.handleAnalytics)
	router.Post("/dismiss/:page", s.handleDismiss)
	router.Get("/_state/:page", s.handleState)
	router.Get("/healthz", s.handleHealthz)
	return nil
}

// withViewer assigns every browser a viewer id cookie and threads the
// request id into the request context.
func (s *server) withViewer(c *fiber.Ctx) error {
	viewer := strings.TrimSpace(c.Cookies(s.cfg.ViewerCookie))
	if _, err := uuid.Parse(viewer); err != nil {
		viewer = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     s.cfg.ViewerCookie,
			Value:    viewer,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(localsViewer, viewer)
	ctx := c.UserContext()
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		ctx = churnboard.WithRequestID(ctx, rid)
	}
	c.SetUserContext(ctx)
	return c.Next()
}

func (s *server) session(c *fiber.Ctx) *churnboard.Session {
	viewer, _ := c.Locals(localsViewer).(string)
	return s.cfg.Sessions.Get(viewer)
}

func (s *server) handleDashboard(c *fiber.Ctx) error {
	session := s.session(c)
	_, _ = session.Dashboard.Load(c.UserContext())
	return s.respond(c, session, churnboard.PageDashboard)
}

func (s *server) handleCustomers(c *fiber.Ctx) error {
	session := s.session(c)
	query := churnboard.CustomerQuery{
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", churnboard.DefaultPerPage),
		Search:    strings.TrimSpace(c.Query("search")),
		RiskLevel: strings.TrimSpace(c.Query("risk_level")),
	}
	_, _ = session.Customers.Load(c.UserContext(), query)
	return s.respond(c, session, churnboard.PageCustomers)
}

func (s *server) handleCustomer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return goerrors.New("customer id must be a positive integer", goerrors.CategoryBadInput)
	}
	session := s.session(c)
	_, _ = session.Customers.LoadCustomer(c.UserContext(), id)
	return s.respond(c, session, churnboard.PageCustomer)
}

func (s *server) handlePredictions(c *fiber.Ctx) error {
	return s.respond(c, s.session(c), churnboard.PagePredictions)
}

func (s *server) handlePredict(c *fiber.Ctx) error {
	session := s.session(c)
	raw, err := predictionValues(c)
	if err != nil {
		return err
	}
	input := churnboard.PredictionInputFromForm(func(name string) string { return raw[name] })
	cmd := commands.NewSubmitPredictionCommand(session.Predictions, s.telemetry)
	err = cmd.Execute(c.UserContext(), commands.SubmitPredictionInput{Input: input, Raw: raw})
	if wantsJSON(c) {
		return s.respondState(c, session, churnboard.PagePredictions, err)
	}
	return s.respond(c, session, churnboard.PagePredictions)
}

func (s *server) handlePredictionsReset(c *fiber.Ctx) error {
	s.session(c).Predictions.Reset()
	return c.Redirect("/predictions", fiber.StatusSeeOther)
}

func (s *server) handleCampaigns(c *fiber.Ctx) error {
	session := s.session(c)
	page := session.Campaigns
	_, _ = page.Load(c.UserContext())
	switch {
	case c.Query("close") != "":
		page.CloseForm()
	case c.Query("new") != "":
		page.OpenCreate()
	case c.Query("edit") != "":
		id, err := strconv.Atoi(c.Query("edit"))
		if err != nil || !page.OpenEdit(id) {
			return goerrors.New("campaign "+c.Query("edit")+" not found", goerrors.CategoryNotFound)
		}
	}
	return s.respond(c, session, churnboard.PageCampaigns)
}

func (s *server) handleSaveCampaign(c *fiber.Ctx) error {
	session := s.session(c)
	id := 0
	if raw := c.Params("id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return goerrors.New("campaign id must be a positive integer", goerrors.CategoryBadInput)
		}
		id = parsed
	}
	input, err := campaignInput(c)
	if err != nil {
		if !goerrors.IsValidation(err) {
			return err
		}
		session.Campaigns.RejectForm(c.UserContext(), id, input, err)
		if wantsJSON(c) {
			return s.respondState(c, session, churnboard.PageCampaigns, err)
		}
		return s.respond(c, session, churnboard.PageCampaigns)
	}
	cmd := commands.NewSaveCampaignCommand(session.Campaigns, s.telemetry)
	err = cmd.Execute(c.UserContext(), commands.SaveCampaignInput{ID: id, Campaign: input})
	if wantsJSON(c) {
		if err != nil {
			return err
		}
		status := fiber.StatusOK
		if id == 0 {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(session.Campaigns.View())
	}
	if err != nil {
		return s.respond(c, session, churnboard.PageCampaigns)
	}
	return c.Redirect("/campaigns", fiber.StatusSeeOther)
}

func (s *server) handleDeleteCampaign(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return goerrors.New("campaign id must be a positive integer", goerrors.CategoryBadInput)
	}
	session := s.session(c)
	cmd := commands.NewDeleteCampaignCommand(session.Campaigns, s.telemetry)
	err = cmd.Execute(c.UserContext(), commands.DeleteCampaignInput{ID: id})
	if wantsJSON(c) || c.Method() == fiber.MethodDelete {
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect("/campaigns", fiber.StatusSeeOther)
}

func (s *server) handleCampaignEvents(c *fiber.Ctx) error {
	if s.cfg.Broadcast == nil {
		return fiber.NewError(fiber.StatusNotFound, "campaign events are disabled")
	}
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	hook := s.cfg.Broadcast
	ctx := s.cfg.StreamContext
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		_ = hook.StreamSSE(ctx, w)
	}))
	return nil
}

func (s *server) handleAnalytics(c *fiber.Ctx) error {
	session := s.session(c)
	page := session.Analytics
	if raw := c.Query("chart"); raw != "" {
		page.Select(churnboard.ParseChartKind(raw))
		if !page.Result().HasData {
			_, _ = page.Load(c.UserContext())
		}
	} else {
		_, _ = page.Load(c.UserContext())
	}
	return s.respond(c, session, churnboard.PageAnalytics)
}

var dismissTargets = map[string]string{
	churnboard.PageDashboard:   "/",
	churnboard.PageCustomers:   "/customers",
	churnboard.PageCustomer:    "/customers",
	churnboard.PagePredictions: "/predictions",
	churnboard.PageCampaigns:   "/campaigns",
	churnboard.PageAnalytics:   "/analytics",
}

func (s *server) handleDismiss(c *fiber.Ctx) error {
	page := c.Params("page")
	target, ok := dismissTargets[page]
	if !ok {
		return goerrors.New("unknown page "+page, goerrors.CategoryNotFound)
	}
	session := s.session(c)
	switch page {
	case churnboard.PageDashboard:
		session.Dashboard.Dismiss()
	case churnboard.PageCustomers, churnboard.PageCustomer:
		session.Customers.Dismiss()
	case churnboard.PagePredictions:
		session.Predictions.Dismiss()
	case churnboard.PageCampaigns:
		session.Campaigns.Dismiss()
	case churnboard.PageAnalytics:
		session.Analytics.Dismiss()
	}
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

func (s *server) handleState(c *fiber.Ctx) error {
	viewer, _ := c.Locals(localsViewer).(string)
	view, err := s.state.Query(c.UserContext(), queries.PageStateInput{Viewer: viewer, Page: c.Params("page")})
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *server) handleHealthz(c *fiber.Ctx) error {
	payload := fiber.Map{"status": "ok"}
	if s.cfg.Health == nil {
		return c.JSON(payload)
	}
	health, err := s.cfg.Health.Health(c.UserContext())
	if err != nil {
		payload["status"] = "degraded"
		payload["backend"] = fiber.Map{"error": err.Error()}
		return c.Status(fiber.StatusServiceUnavailable).JSON(payload)
	}
	s.rememberHealth(health)
	payload["backend"] = health
	if !health.Healthy() {
		payload["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(payload)
	}
	return c.JSON(payload)
}

// respond renders page as HTML, or as its JSON view model when the client
// asks for JSON.
func (s *server) respond(c *fiber.Ctx, session *churnboard.Session, page string) error {
	if wantsJSON(c) {
		return s.respondState(c, session, page, nil)
	}
	view, _ := session.View(c.UserContext(), page)
	var buf bytes.Buffer
	if err := s.cfg.Controller.Render(page, view, s.chrome(c, session), &buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *server) respondState(c *fiber.Ctx, session *churnboard.Session, page string, err error) error {
	view, _ := session.View(c.UserContext(), page)
	status := fiber.StatusOK
	if err != nil {
		status = StatusFor(err)
	}
	return c.Status(status).JSON(view)
}

func (s *server) chrome(c *fiber.Ctx, session *churnboard.Session) churnboard.Chrome {
	chrome := churnboard.Chrome{Path: c.Path(), Health: s.cachedHealth(c.UserContext())}
	if dash := session.Dashboard.Result(); dash.HasData {
		chrome.Notifications = len(dash.Data.Summary.RecentPredictions)
	}
	return chrome
}

func (s *server) cachedHealth(ctx context.Context) *churnboard.Health {
	if s.cfg.Health == nil {
		return nil
	}
	s.healthMu.Lock()
	if s.health != nil && time.Since(s.healthSeen) < s.cfg.HealthTTL {
		h := *s.health
		s.healthMu.Unlock()
		return &h
	}
	s.healthMu.Unlock()

	health, err := s.cfg.Health.Health(ctx)
	if err != nil {
		s.telemetry.Record(ctx, "churnboard.health.error", map[string]any{"error": err.Error()})
		health = churnboard.Health{Status: "unreachable"}
	}
	s.rememberHealth(health)
	return &health
}

func (s *server) rememberHealth(health churnboard.Health) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.health = &health
	s.healthSeen = time.Now()
}

func wantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return true
	}
	accept := c.Get(fiber.HeaderAccept)
	return strings.Contains(accept, fiber.MIMEApplicationJSON) && !strings.Contains(accept, fiber.MIMETextHTML)
}

func predictionValues(c *fiber.Ctx) (map[string]string, error) {
	raw := make(map[string]string, len(churnboard.PredictionFields()))
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body map[string]json.Number
		decoder := json.NewDecoder(bytes.NewReader(c.Body()))
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid prediction payload")
		}
		for name, v := range body {
			raw[name] = v.String()
		}
		return raw, nil
	}
	for _, field := range churnboard.PredictionFields() {
		raw[field.Name] = strings.TrimSpace(c.FormValue(field.Name))
	}
	return raw, nil
}

func campaignInput(c *fiber.Ctx) (churnboard.CampaignInput, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var input churnboard.CampaignInput
		if err := json.Unmarshal(c.Body(), &input); err != nil {
			return churnboard.CampaignInput{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid campaign payload")
		}
		return input, nil
	}
	return churnboard.CampaignInputFromForm(func(name string) string { return c.FormValue(name) })
}

// StatusFor maps an error to an HTTP status through its go-errors category.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}
	switch richErr.Category {
	case goerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors as JSON with a status derived from StatusFor.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	body := fiber.Map{"error": err.Error()}
	var richErr *goerrors.Error
	if errors.As(err, &richErr) {
		body["error"] = richErr.Message
		body["category"] = richErr.Category
		if richErr.TextCode != "" {
			body["text_code"] = richErr.TextCode
		}
		if fields := churnboard.FieldErrors(err); len(fields) > 0 {
			body["fields"] = fields
		}
	}
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		body["request_id"] = rid
	}
	return c.Status(status).JSON(body)
}
