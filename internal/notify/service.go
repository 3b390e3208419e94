package notify

import (
	"context"
	"math/rand"
	"time"

	"freelance/notifier/internal/client"
	"freelance/notifier/internal/config"
	"freelance/notifier/internal/diff"
	"freelance/notifier/internal/domain"

	log "github.com/sirupsen/logrus"
)

// UserStore is the slice of the repository the dispatcher reads.
type UserStore interface {
	Users(ctx context.Context) ([]domain.User, error)
}

// FilterStore reads saved filters and advances their watermarks.
type FilterStore interface {
	Filter(ctx context.Context, userID int64, host domain.Host, kind domain.FilterKind) (*domain.Filter, error)
	SaveFilter(ctx context.Context, f domain.Filter) error
}

// Service is the notification dispatcher: a single sequential sweep
// over users, hosts and filter shapes, repeated on a timer. There is no
// parallel fan-out across network calls, to keep the outbound request
// rate inconspicuous.
type Service struct {
	users     UserStore
	filters   FilterStore
	sources   client.Registry
	messenger Messenger
	mailer    Mailer

	period        time.Duration
	shutdownAfter time.Duration
	delayMin      time.Duration
	delayMax      time.Duration
	maxJobs       int
}

// Deps wires the dispatcher's collaborators.
type Deps struct {
	Users     UserStore
	Filters   FilterStore
	Sources   client.Registry
	Messenger Messenger
	Mailer    Mailer
}

func NewService(deps Deps, cfg config.NotifyConfig) *Service {
	maxJobs := cfg.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 10
	}
	return &Service{
		users:         deps.Users,
		filters:       deps.Filters,
		sources:       deps.Sources,
		messenger:     deps.Messenger,
		mailer:        deps.Mailer,
		period:        time.Duration(cfg.Period) * time.Second,
		shutdownAfter: time.Duration(cfg.ShutdownPeriod) * time.Second,
		delayMin:      time.Duration(cfg.DelayMin) * time.Second,
		delayMax:      time.Duration(cfg.DelayMax) * time.Second,
		maxJobs:       maxJobs,
	}
}

// Run drives the periodic sweep until the context is cancelled or the
// optional shutdown period elapses. A failed sweep never stops the
// loop.
func (s *Service) Run(ctx context.Context) error {
	start := time.Now()
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if s.runSweep(ctx) {
			log.Info("Notifications sent")
		} else {
			log.Info("Nothing to send")
		}

		if s.shutdownAfter > 0 && time.Since(start) > s.shutdownAfter {
			log.Info("Scheduled shutdown")
			return nil
		}
	}
}

// runSweep shields the loop from a panicking sweep.
func (s *Service) runSweep(ctx context.Context) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Sweep panicked: %v", r)
		}
	}()
	return s.Sweep(ctx)
}

// Sweep processes every user with an active channel against every host
// and reports whether any channel actually delivered content. Failures
// are isolated per user, host and channel: one bad actor never starves
// the rest of the queue.
func (s *Service) Sweep(ctx context.Context) bool {
	users, err := s.users.Users(ctx)
	if err != nil {
		log.Errorf("Failed to load users: %v", err)
		return false
	}

	sent := false
	for _, user := range users {
		if !user.Notifiable() {
			continue
		}

		for _, host := range domain.Hosts {
			source, ok := s.sources.Lookup(host)
			if !ok {
				continue
			}

			digest := s.collectDigest(ctx, user, source)
			if len(digest) == 0 {
				continue
			}

			if user.Active {
				if err := s.messenger.Send(ctx, user.ID, digestMessage(host, digest)); err != nil {
					log.Errorf("Failed to message user %d: %v", user.ID, err)
				} else {
					sent = true
				}
			}

			if user.EmailActive {
				err := s.mailer.Send(Email{
					To:      user.Email,
					Subject: emailSubject(host, digest),
					Text:    emailText(digest),
					HTML:    emailHTML(digest),
				})
				if err != nil {
					log.Errorf("Failed to email user %d: %v", user.ID, err)
				} else {
					sent = true
				}
			}
		}
	}
	return sent
}

// collectDigest merges the new listings of both filter shapes for one
// (user, host) into a capped, url-deduplicated set. The keyword filter
// runs first, so it wins ties. The watermark advances as soon as the
// diff is non-empty, before the cap or any send outcome applies: a
// crash between here and delivery drops that batch (at-most-once by
// design).
func (s *Service) collectDigest(ctx context.Context, user domain.User, source client.JobSource) []domain.Job {
	var merged []domain.Job

	for _, kind := range domain.FilterKinds {
		filter, err := s.filters.Filter(ctx, user.ID, source.Host(), kind)
		if err != nil {
			log.Errorf("Failed to load %s filter of user %d: %v", kind, user.ID, err)
			continue
		}
		if filter == nil {
			continue
		}

		jobs := source.Jobs(ctx, client.Query{
			CategoryIDs:    append([]string(nil), filter.CategoryIDs...),
			SubcategoryIDs: append([]string(nil), filter.SubcategoryIDs...),
			Keywords:       filter.Keywords,
		})

		fresh := diff.Recent(jobs, filter.LastJobURL)
		if len(fresh) == 0 {
			continue
		}

		filter.LastJobURL = fresh[0].URL
		if err := s.filters.SaveFilter(ctx, *filter); err != nil {
			log.Errorf("Failed to save watermark for user %d: %v", user.ID, err)
		}

		for _, job := range fresh {
			if len(merged) >= s.maxJobs {
				break
			}
			if !containsURL(merged, job.URL) {
				merged = append(merged, job)
			}
		}

		s.pause(ctx)
	}
	return merged
}

func containsURL(jobs []domain.Job, url string) bool {
	for _, job := range jobs {
		if job.URL == url {
			return true
		}
	}
	return false
}

// pause sleeps a randomized interval between adapter calls so that
// successive fetches do not look machine-timed to the target sites.
func (s *Service) pause(ctx context.Context) {
	delay := s.delayMin
	if s.delayMax > s.delayMin {
		delay += time.Duration(rand.Int63n(int64(s.delayMax-s.delayMin) + 1))
	}
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
