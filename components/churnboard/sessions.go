package churnboard

import (
	"context"
	"sync"
	"time"
)

// Backend is everything the pages need from the churn API.
type Backend interface {
	dashboardSource
	customerSource
	predictionSource
	campaignSource
}

// AnonymousViewer keys the session of requests without a viewer id.
const AnonymousViewer = "anonymous"

// Session owns one viewer's page controllers. Pages never share state
// with each other or with other sessions.
type Session struct {
	Viewer      string
	Dashboard   *DashboardPage
	Customers   *CustomersPage
	Predictions *PredictionsPage
	Campaigns   *CampaignsPage
	Analytics   *AnalyticsPage

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time of the last access.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// SessionOptions configures how sessions are built.
type SessionOptions struct {
	Backend   Backend
	Charts    *ChartRenderer
	Telemetry Telemetry
	Manifest  *Manifest
	Hook      CampaignHook
	Now       func() time.Time
}

// SessionStore is a concurrency-safe registry of viewer sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     SessionOptions
}

// NewSessionStore applies safe defaults to opts and returns an empty store.
func NewSessionStore(opts SessionOptions) *SessionStore {
	if opts.Charts == nil {
		opts.Charts = NewChartRenderer()
	}
	if opts.Manifest == nil {
		opts.Manifest = DefaultManifest()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &SessionStore{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Get returns the viewer's session, creating it on first use.
func (s *SessionStore) Get(viewer string) *Session {
	if viewer == "" {
		viewer = AnonymousViewer
	}
	now := s.opts.Now()
	s.mu.Lock()
	session, ok := s.sessions[viewer]
	if !ok {
		session = s.newSession(viewer)
		s.sessions[viewer] = session
	}
	s.mu.Unlock()
	session.touch(now)
	return session
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Drop discards a viewer's session.
func (s *SessionStore) Drop(viewer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, viewer)
}

// Prune removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := s.opts.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for viewer, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			delete(s.sessions, viewer)
			removed++
		}
	}
	return removed
}

// Manifest returns the chrome manifest shared by all sessions.
func (s *SessionStore) Manifest() *Manifest {
	return s.opts.Manifest
}

func (s *SessionStore) newSession(viewer string) *Session {
	o := s.opts
	return &Session{
		Viewer:      viewer,
		Dashboard:   NewDashboardPage(o.Backend, o.Charts, o.Telemetry),
		Customers:   NewCustomersPage(o.Backend, o.Telemetry),
		Predictions: NewPredictionsPage(o.Backend, o.Manifest.Recommendations, o.Telemetry),
		Campaigns:   NewCampaignsPage(o.Backend, o.Hook, o.Telemetry, viewer),
		Analytics:   NewAnalyticsPage(o.Backend, o.Charts, o.Telemetry),
	}
}

// View returns the view model of one of the session's pages.
func (s *Session) View(ctx context.Context, page string) (ViewData, bool) {
	switch page {
	case PageDashboard:
		return s.Dashboard.View(ctx), true
	case PageCustomers:
		return s.Customers.View(), true
	case PageCustomer:
		return s.Customers.DetailView(), true
	case PagePredictions:
		return s.Predictions.View(), true
	case PageCampaigns:
		return s.Campaigns.View(), true
	case PageAnalytics:
		return s.Analytics.View(ctx), true
	default:
		return nil, false
	}
}
