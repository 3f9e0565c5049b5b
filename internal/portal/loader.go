package portal

import (
	"context"
	"sync"

	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/models"
	"github.com/laimu/erptracker/internal/repository"
	"github.com/laimu/erptracker/internal/tenant"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources are the stores a Loader reads from.
type Sources struct {
	Modules            repository.ModuleRepository
	Timeline           repository.TimelineRepository
	Tickets            repository.TicketRepository
	Actions            repository.ActionItemRepository
	Faqs               repository.FaqRepository
	Tutorials          repository.TutorialRepository
	CustomDevelopments repository.CustomDevelopmentRepository
	Profiles           repository.ProfileRepository
	Users              repository.UserDirectoryRepository
	Notifications      repository.NotificationRepository
}

// Snapshot is everything a session needs to render, fetched in one go.
// A collection that failed to load is empty and named in Failures.
type Snapshot struct {
	Modules            []models.Module            `json:"modules"`
	Timeline           []models.TimelineEvent     `json:"timeline"`
	Tickets            []models.Ticket            `json:"tickets"`
	Actions            []models.ActionItem        `json:"actions"`
	Faqs               []models.FaqItem           `json:"faqs"`
	Tutorials          []models.TutorialItem      `json:"tutorials"`
	CustomDevelopments []models.CustomDevelopment `json:"custom_developments"`
	Profiles           []models.Profile           `json:"profiles"`
	Users              []models.DirectoryUser     `json:"users"`
	Notifications      []models.Notification      `json:"notifications"`
	Failures           map[string]string          `json:"failures,omitempty"`

	errs map[string]error
}

// Err returns the load error of collection, or nil.
func (s *Snapshot) Err(collection string) error {
	return s.errs[collection]
}

// Partial reports whether any critical collection failed.
func (s *Snapshot) Partial() bool {
	return len(s.errs) > 0
}

type Loader struct {
	src    Sources
	logger *zap.Logger
}

func NewLoader(src Sources, logger *zap.Logger) *Loader {
	return &Loader{src: src, logger: logger}
}

// Load fetches every collection for the scope concurrently. It only fails
// as a whole when a fetch reports that the session is no longer accepted;
// any other failure leaves that one collection empty.
func (l *Loader) Load(ctx context.Context, scope tenant.Scope) (*Snapshot, error) {
	snap := &Snapshot{
		Modules:            []models.Module{},
		Timeline:           []models.TimelineEvent{},
		Tickets:            []models.Ticket{},
		Actions:            []models.ActionItem{},
		Faqs:               []models.FaqItem{},
		Tutorials:          []models.TutorialItem{},
		CustomDevelopments: []models.CustomDevelopment{},
		Profiles:           []models.Profile{},
		Users:              []models.DirectoryUser{},
		Notifications:      []models.Notification{},
		errs:               make(map[string]error),
	}

	var mu sync.Mutex
	fail := func(collection string, err error) {
		mu.Lock()
		defer mu.Unlock()
		snap.errs[collection] = err
	}

	var g errgroup.Group
	g.SetLimit(4)

	fetch(&g, "modules", fail, func() ([]models.Module, error) {
		return l.src.Modules.ListByScope(ctx, scope)
	}, &snap.Modules)
	fetch(&g, "timeline", fail, func() ([]models.TimelineEvent, error) {
		return l.src.Timeline.ListByScope(ctx, scope)
	}, &snap.Timeline)
	fetch(&g, "tickets", fail, func() ([]models.Ticket, error) {
		return l.src.Tickets.ListByScope(ctx, scope)
	}, &snap.Tickets)
	fetch(&g, "actions", fail, func() ([]models.ActionItem, error) {
		return l.src.Actions.ListByScope(ctx, scope)
	}, &snap.Actions)
	fetch(&g, "faqs", fail, func() ([]models.FaqItem, error) {
		return l.src.Faqs.ListByScope(ctx, scope)
	}, &snap.Faqs)
	fetch(&g, "tutorials", fail, func() ([]models.TutorialItem, error) {
		return l.src.Tutorials.ListByScope(ctx, scope)
	}, &snap.Tutorials)
	fetch(&g, "custom_developments", fail, func() ([]models.CustomDevelopment, error) {
		return l.src.CustomDevelopments.ListByScope(ctx, scope)
	}, &snap.CustomDevelopments)
	if scope.CanAdminister() {
		fetch(&g, "profiles", fail, func() ([]models.Profile, error) {
			return l.src.Profiles.ListByScope(ctx, scope)
		}, &snap.Profiles)
		fetch(&g, "users", fail, func() ([]models.DirectoryUser, error) {
			return l.src.Users.ListByScope(ctx, scope)
		}, &snap.Users)
	}

	// Notifications are not needed to render the portal.
	g.Go(func() error {
		items, err := l.src.Notifications.ListForUser(ctx, scope.Principal())
		if err != nil {
			l.logger.Warn("failed to load notifications",
				zap.String("user_id", scope.Principal()),
				zap.Error(err),
			)
			return nil
		}
		snap.Notifications = items
		return nil
	})

	_ = g.Wait()

	if len(snap.errs) > 0 {
		snap.Failures = make(map[string]string, len(snap.errs))
	}
	for collection, err := range snap.errs {
		if apperr.IsAuthExpired(err) {
			return nil, apperr.AuthExpired("session rejected while loading %s", collection)
		}
		l.logger.Error("failed to load collection",
			zap.String("collection", collection),
			zap.Error(err),
		)
		wrapped := apperr.RemoteRead("load "+collection, err)
		snap.errs[collection] = wrapped
		snap.Failures[collection] = wrapped.Error()
	}
	return snap, nil
}

// fetch runs list on g and stores its result in dst. Each dst is written by
// exactly one goroutine.
func fetch[T any](g *errgroup.Group, collection string, fail func(string, error), list func() ([]T, error), dst *[]T) {
	g.Go(func() error {
		items, err := list()
		if err != nil {
			fail(collection, err)
			return nil
		}
		*dst = items
		return nil
	})
}
