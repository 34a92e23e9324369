package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	"github.com/goliatone/go-churnboard/pkg/churnapi"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct{}

func (stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	view, _ := data.(map[string]any)
	rendered := fmt.Sprintf("<%s>", name)
	if name == "layout" {
		rendered = fmt.Sprintf("<layout heading=%q>%v</layout>", view["heading"], view["content"])
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

type fixture struct {
	app    *fiber.App
	client *churnapi.MockClient
	store  *churnboard.SessionStore
	hook   *churnboard.BroadcastHook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := churnapi.NewMockClient(churnapi.DemoData())
	hook := churnboard.NewBroadcastHook()
	t.Cleanup(hook.Close)
	store := churnboard.NewSessionStore(churnboard.SessionOptions{Backend: client, Hook: hook})
	app, err := NewApp(Config{
		Sessions:   store,
		Controller: churnboard.NewController(churnboard.ControllerOptions{Renderer: stubRenderer{}}),
		Health:     client,
		Broadcast:  hook,
	})
	require.NoError(t, err)
	return &fixture{app: app, client: client, store: store, hook: hook}
}

func (f *fixture) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func viewerCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == DefaultViewerCookie {
			return c
		}
	}
	return nil
}

func TestRegisterRequiresDependencies(t *testing.T) {
	app := fiber.New()
	assert.Error(t, Register(app, Config{}))
	assert.Error(t, Register(app, Config{Sessions: churnboard.NewSessionStore(churnboard.SessionOptions{})}))
}

func TestDashboardRendersInsideLayoutAndSetsViewer(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `heading="Dashboard"`)
	assert.Contains(t, string(body), "<dashboard>")
	require.NotNil(t, viewerCookie(resp))
	assert.Equal(t, 1, f.store.Len())
}

func TestDashboardJSONState(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	body := decode(t, f.do(t, req))

	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["ready"])
	assert.NotEmpty(t, body["cards"])
}

func TestDashboardFailureIsScopedToPage(t *testing.T) {
	f := newFixture(t)
	f.client.FailWith("FetchSummary", goerrors.New("down", goerrors.CategoryExternal))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	resp := f.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	result := body["result"].(map[string]any)
	assert.Equal(t, false, result["loading"])
	assert.Equal(t, "Failed to load dashboard data", result["error"])
}

func TestCustomerDetailRejectsBadID(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/customers/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, string(goerrors.CategoryBadInput), body["category"])
}

func TestCreateCampaignJSON(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.hook.Subscribe()
	defer cancel()

	payload := `{"name":"Spring","target_risk_level":"High Risk","campaign_type":"Email","discount_percentage":15,"message":"Hi","target_customers":20}`
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)

	rows := body["rows"].([]any)
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, f.client.Calls("ListCampaigns"))

	select {
	case event := <-events:
		assert.Equal(t, churnboard.CampaignCreated, event.Action)
		assert.Equal(t, "Spring", event.Name)
	default:
		t.Fatal("expected campaign event")
	}
}

func TestCreateCampaignValidationFailure(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(`{"name":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode(t, resp)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Zero(t, f.client.Calls("CreateCampaign"))
}

func TestCampaignFormPostRedirects(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"name":                {"Autumn"},
		"target_risk_level":   {"Medium Risk"},
		"campaign_type":       {"SMS"},
		"discount_percentage": {"10"},
		"message":             {"See you"},
		"target_customers":    {"5"},
		"status":              {"Active"},
	}
	req := httptest.NewRequest(http.MethodPost, "/campaigns/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := f.do(t, req)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/campaigns", resp.Header.Get("Location"))
	campaigns, err := f.client.ListCampaigns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Autumn", campaigns[0].Name)
}

func TestCampaignFormUnparsableNumberKeepsFormOpen(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"name":                {"Autumn"},
		"target_risk_level":   {"Medium Risk"},
		"campaign_type":       {"SMS"},
		"discount_percentage": {"10"},
		"message":             {"See you"},
		"target_customers":    {"abc"},
	}
	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := f.do(t, req)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<campaigns>")
	assert.Zero(t, f.client.Calls("CreateCampaign"))

	cookie := viewerCookie(resp)
	require.NotNil(t, cookie)
	state := f.store.Get(cookie.Value).Campaigns.Form()
	assert.True(t, state.Open)
	assert.Zero(t, state.EditingID)
	assert.Equal(t, "Autumn", state.Input.Name)
	assert.Equal(t, 10.0, state.Input.DiscountPercentage)
	assert.Contains(t, state.Errors, "target_customers")
	assert.Equal(t, "Please correct the highlighted fields", state.Message)
}

func TestDeleteCampaign(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodDelete, "/campaigns/2", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, httptest.NewRequest(http.MethodDelete, "/campaigns/2", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPredictJSON(t *testing.T) {
	f := newFixture(t)
	values := map[string]float64{}
	for _, field := range churnboard.PredictionFields() {
		values[field.Name] = field.Min
	}
	values["frequency"] = 2
	payload, err := json.Marshal(values)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/predictions", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	prediction := body["prediction"].(map[string]any)
	assert.Equal(t, "82.0%", prediction["confidence"])
	assert.Equal(t, 1, f.client.Calls("Predict"))
}

func TestPredictValidationSendsNoRequest(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/predictions", strings.NewReader(`{"frequency": 0}`))
	req.Header.Set("Content-Type", "application/json")
	resp := f.do(t, req)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, f.client.Calls("Predict"))
}

func TestAnalyticsChartSelectionReusesData(t *testing.T) {
	f := newFixture(t)
	cookie := viewerCookie(f.do(t, httptest.NewRequest(http.MethodGet, "/analytics", nil)))
	require.NotNil(t, cookie)
	calls := f.client.Calls("FetchChart")

	req := httptest.NewRequest(http.MethodGet, "/analytics?chart=revenue_analysis", nil)
	req.AddCookie(cookie)
	req.Header.Set("Accept", "application/json")
	body := decode(t, f.do(t, req))

	assert.Equal(t, "revenue_analysis", body["selected"])
	assert.Equal(t, calls, f.client.Calls("FetchChart"))
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/_state/predictions", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, churnboard.PagePredictions, body["page"])

	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/_state/billing", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDismissRedirectsBack(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodPost, "/dismiss/analytics", nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/analytics", resp.Header.Get("Location"))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	f.client.FailWith("Health", goerrors.New("down", goerrors.CategoryExternal))
	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := map[goerrors.Category]int{
		goerrors.CategoryValidation: http.StatusUnprocessableEntity,
		goerrors.CategoryBadInput:   http.StatusBadRequest,
		goerrors.CategoryNotFound:   http.StatusNotFound,
		goerrors.CategoryConflict:   http.StatusConflict,
		goerrors.CategoryRateLimit:  http.StatusTooManyRequests,
		goerrors.CategoryExternal:   http.StatusBadGateway,
		goerrors.CategoryInternal:   http.StatusInternalServerError,
	}
	for category, want := range cases {
		assert.Equal(t, want, StatusFor(goerrors.New("x", category)), string(category))
	}
	assert.Equal(t, http.StatusTeapot, StatusFor(fiber.NewError(http.StatusTeapot)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("plain")))
}
