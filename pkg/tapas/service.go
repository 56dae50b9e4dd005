package tapas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/email"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
	"github.com/tapas-app/tapas-backend/pkg/localized"
	"github.com/tapas-app/tapas-backend/pkg/locking"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// LockTTL is how long a write lock on a single Tapas is held at most
const LockTTL = 30 * time.Second

// now is replaced in tests
var now = time.Now

// Service runs all workflows that modify Tapas. Every modification happens under a lock on the Tapas.
type Service struct {
	Repository      TapasRepositoryInterface
	Locker          locking.LockerInterface
	Logger          logger.Interface
	Mailer          email.Mailer
	ShareTemplate   string
	FrontendBaseURL string
}

// Invitation asks the given addresses to view a shared Tapas
type Invitation struct {
	SharerName string
	Addresses  []string
}

func (s *Service) modify(ctx context.Context, tapasID string, userID string, today time.Time, fn func(t *Tapas) error) (*Tapas, error) {
	lock, err := s.Locker.Acquire(ctx, locking.TapasKey(tapasID), LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		err := lock.Release(ctx)
		if err != nil {
			s.Logger.Warning(fmt.Sprintf("Could not release lock %s", lock.Key()), err)
		}
	}()

	t, err := s.Repository.FindByID(ctx, tapasID, userID, false)
	if err != nil {
		return nil, err
	}

	t.Refresh(today)

	err = fn(t)
	if err != nil {
		return nil, err
	}

	t.Refresh(today)

	err = s.Repository.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func sanitizeDefinition(t *Tapas) {
	t.StartDate = date.StartOfDayUTC(t.StartDate)
	t.Name = strings.TrimSpace(t.Name)

	if t.ScheduleType != date.ScheduleEveryNthDays {
		t.ScheduleInterval = 0
	}

	if t.Goals == nil {
		t.Goals = []string{}
	}

	if t.Parts == nil {
		t.Parts = []localized.Text{}
	}
}

// Create validates and stores a new Tapas for a user
func (s *Service) Create(ctx context.Context, userID string, t *Tapas, today time.Time) (*Tapas, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	created := &Tapas{
		UserID:              userObjectID,
		Name:                t.Name,
		Description:         t.Description,
		Goals:               t.Goals,
		Parts:               t.Parts,
		Color:               t.Color,
		StartDate:           t.StartDate,
		Duration:            t.Duration,
		ScheduleType:        t.ScheduleType,
		ScheduleInterval:    t.ScheduleInterval,
		CrystallizationTime: t.CrystallizationTime,
		AllowRecuperation:   t.AllowRecuperation,
		CheckedDays:         []time.Time{},
		RecuperatedDays:     []time.Time{},
		AdvancedDays:        []time.Time{},
		Results:             []Result{},
		Status:              StatusActive,
	}

	if created.StartDate.IsZero() {
		created.StartDate = today
	}

	sanitizeDefinition(created)

	err = Validate(created)
	if err != nil {
		return nil, err
	}

	created.Refresh(today)

	err = s.Repository.Add(ctx, created)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Replace overwrites the definition of a Tapas, its check-ins and state are kept
func (s *Service) Replace(ctx context.Context, tapasID string, userID string, input *Tapas, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if t.Status.IsTerminal() {
			return ErrNotActive
		}

		t.Name = input.Name
		t.Description = input.Description
		t.Goals = input.Goals
		t.Parts = input.Parts
		t.Color = input.Color
		t.StartDate = input.StartDate
		t.Duration = input.Duration
		t.ScheduleType = input.ScheduleType
		t.ScheduleInterval = input.ScheduleInterval
		t.CrystallizationTime = input.CrystallizationTime
		t.AllowRecuperation = input.AllowRecuperation

		sanitizeDefinition(t)

		return Validate(t)
	})
}

// Get finds a Tapas and persists its status if it changed since the last write
func (s *Service) Get(ctx context.Context, tapasID string, userID string, today time.Time) (*Tapas, error) {
	t, err := s.Repository.FindByID(ctx, tapasID, userID, false)
	if err != nil {
		return nil, err
	}

	if t.Refresh(today) {
		s.persistStatus(ctx, t, today)
	}

	return t, nil
}

// GetShared finds a shared Tapas of any user
func (s *Service) GetShared(ctx context.Context, tapasID string, today time.Time) (*Tapas, error) {
	t, err := s.Repository.FindSharedByID(ctx, tapasID)
	if err != nil {
		return nil, err
	}

	t.Status = Evaluate(t, today)

	return t, nil
}

// List finds the Tapas of a user paginated
func (s *Service) List(ctx context.Context, userID string, page int, pageSize int, filters []Filter, today time.Time) ([]Tapas, int, error) {
	list, count, err := s.Repository.FindAll(ctx, userID, page, pageSize, filters)
	if err != nil {
		return nil, 0, err
	}

	for index := range list {
		if list[index].Refresh(today) {
			s.persistStatus(ctx, &list[index], today)
		}
	}

	return list, count, nil
}

func (s *Service) persistStatus(ctx context.Context, t *Tapas, today time.Time) {
	_, err := s.modify(ctx, t.ID.Hex(), t.UserID.Hex(), today, func(*Tapas) error {
		return nil
	})
	if err != nil {
		s.Logger.Warning(fmt.Sprintf("Could not persist status of tapas %s", t.ID.Hex()), err)
	}
}

// Delete marks a Tapas as deleted
func (s *Service) Delete(ctx context.Context, tapasID string, userID string) error {
	lock, err := s.Locker.Acquire(ctx, locking.TapasKey(tapasID), LockTTL)
	if err != nil {
		return err
	}
	defer func() {
		err := lock.Release(ctx)
		if err != nil {
			s.Logger.Warning(fmt.Sprintf("Could not release lock %s", lock.Key()), err)
		}
	}()

	return s.Repository.Delete(ctx, tapasID, userID)
}

func requireActive(t *Tapas) error {
	if t.Status != StatusActive {
		return ErrNotActive
	}

	return nil
}

func mark(t *Tapas, day time.Time, tag ledger.Tag) error {
	schedule := t.Schedule()
	if !date.WithinDuration(day, schedule) {
		return ErrOutOfRange
	}

	t.SetLedger(t.Ledger().Mark(date.BucketDate(day, schedule), tag))

	return nil
}

// CheckToday checks the unit of today
func (s *Service) CheckToday(ctx context.Context, tapasID string, userID string, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if err := requireActive(t); err != nil {
			return err
		}

		return mark(t, today, ledger.TagNone)
	})
}

// CheckYesterday checks the unit of yesterday
func (s *Service) CheckYesterday(ctx context.Context, tapasID string, userID string, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if err := requireActive(t); err != nil {
			return err
		}

		return mark(t, date.AddDays(today, -1), ledger.TagNone)
	})
}

// Acknowledge checks every unit touched by the days between from and to, days outside the duration are skipped
func (s *Service) Acknowledge(ctx context.Context, tapasID string, userID string, from time.Time, to time.Time, today time.Time) (*Tapas, error) {
	span := date.Timespan{Start: date.StartOfDayUTC(from), End: date.StartOfDayUTC(to)}

	if span.End.Before(span.Start) {
		return nil, fmt.Errorf("%w: %s is not a valid range", ErrInvalidCheckin, span.String())
	}

	if span.End.After(date.StartOfDayUTC(today)) {
		return nil, fmt.Errorf("%w: cannot acknowledge future days", ErrOutOfRange)
	}

	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if err := requireActive(t); err != nil {
			return err
		}

		schedule := t.Schedule()

		// Buckets grow with the day, so each unit is marked once
		var previous time.Time
		marked := 0
		for i := 0; i < span.Days(); i++ {
			day := date.AddDays(span.Start, i)
			bucket := date.BucketDate(day, schedule)
			if bucket.Equal(previous) {
				continue
			}

			if mark(t, day, ledger.TagNone) == nil {
				previous = bucket
				marked++
			}
		}

		if marked == 0 {
			return ErrOutOfRange
		}

		return nil
	})
}

// Recuperate makes up a missed unit before the current one
func (s *Service) Recuperate(ctx context.Context, tapasID string, userID string, day time.Time, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if err := requireActive(t); err != nil {
			return err
		}

		if !t.AllowRecuperation {
			return fmt.Errorf("%w: recuperation is not allowed", ErrInvalidCheckin)
		}

		schedule := t.Schedule()
		bucket := date.BucketDate(day, schedule)

		if !bucket.Before(date.BucketDate(today, schedule)) {
			return fmt.Errorf("%w: only past units can be recuperated", ErrInvalidCheckin)
		}

		if t.Ledger().Contains(bucket) {
			return fmt.Errorf("%w: unit is already checked", ErrInvalidCheckin)
		}

		return mark(t, day, ledger.TagRecuperated)
	})
}

// Advance completes a future unit ahead of schedule
func (s *Service) Advance(ctx context.Context, tapasID string, userID string, day time.Time, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if err := requireActive(t); err != nil {
			return err
		}

		schedule := t.Schedule()
		bucket := date.BucketDate(day, schedule)

		if !bucket.After(date.BucketDate(today, schedule)) {
			return fmt.Errorf("%w: only future units can be advanced", ErrInvalidCheckin)
		}

		if t.Ledger().Contains(bucket) {
			return fmt.Errorf("%w: unit is already checked", ErrInvalidCheckin)
		}

		return mark(t, day, ledger.TagAdvanced)
	})
}

// ClearLast removes the most recent check-in
func (s *Service) ClearLast(ctx context.Context, tapasID string, userID string, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		if t.Status.IsTerminal() {
			return ErrNotActive
		}

		l, _, ok := t.Ledger().ClearLast()
		if !ok {
			return fmt.Errorf("%w: there is no check-in", ErrInvalidCheckin)
		}

		t.SetLedger(l)

		return nil
	})
}

// AddResult inserts or replaces the diary entry of a day
func (s *Service) AddResult(ctx context.Context, tapasID string, userID string, day time.Time, content string, today time.Time) (*Tapas, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidResult)
	}

	if date.StartOfDayUTC(day).After(date.StartOfDayUTC(today)) {
		return nil, fmt.Errorf("%w: day is in the future", ErrInvalidResult)
	}

	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		t.SetResult(day, content)
		return nil
	})
}

// RemoveResult removes the diary entry of a day
func (s *Service) RemoveResult(ctx context.Context, tapasID string, userID string, day time.Time, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		index, found := t.FindResult(day)
		if !found {
			return fmt.Errorf("%w: no result on %s", ErrNotFound, day.Format("2006-01-02"))
		}

		t.Results = append(t.Results[:index], t.Results[index+1:]...)
		return nil
	})
}

// Fail gives up a Tapas, optionally starting a repetition today
func (s *Service) Fail(ctx context.Context, tapasID string, userID string, cause string, repeat bool, today time.Time) (*Tapas, *Tapas, error) {
	var repeated *Tapas

	failed, err := s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		var err error
		repeated, err = t.Fail(strings.TrimSpace(cause), repeat, today)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if repeated != nil {
		err = s.Repository.Add(ctx, repeated)
		if err != nil {
			return nil, nil, err
		}
	}

	return failed, repeated, nil
}

// Finish ends a Tapas without schedule
func (s *Service) Finish(ctx context.Context, tapasID string, userID string, today time.Time) (*Tapas, error) {
	return s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		return t.Finish(today)
	})
}

// Share publishes or hides a Tapas and invites the given addresses to view it
func (s *Service) Share(ctx context.Context, tapasID string, userID string, shared bool, invitation Invitation, today time.Time) (*Tapas, error) {
	if len(invitation.Addresses) > 0 && !shared {
		return nil, fmt.Errorf("%w: only shared tapas can be sent", ErrInvalidShare)
	}

	v := validator.New()
	for _, address := range invitation.Addresses {
		if err := v.Var(address, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: %s is not an email address", ErrInvalidShare, address)
		}
	}

	t, err := s.modify(ctx, tapasID, userID, today, func(t *Tapas) error {
		t.Shared = shared
		if shared && t.SharedAt.IsZero() {
			t.SharedAt = now()
		}

		if !shared {
			t.SharedAt = time.Time{}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(invitation.Addresses) == 0 {
		return t, nil
	}

	if s.Mailer == nil {
		return nil, fmt.Errorf("%w: sending mails is not configured", ErrInvalidShare)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, address := range invitation.Addresses {
		address := address

		group.Go(func() error {
			return s.Mailer.SendEmail(groupCtx, &email.Email{
				ReceiverAddress: address,
				Template:        s.ShareTemplate,
				Parameters: map[string]interface{}{
					"sharer": invitation.SharerName,
					"tapas":  t.Name,
					"link":   fmt.Sprintf("%s/shared/%s", strings.TrimSuffix(s.FrontendBaseURL, "/"), t.ID.Hex()),
				},
			})
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, fmt.Errorf("could not send invitations: %w", err)
	}

	return t, nil
}

// Statistics aggregates all Tapas of a user
func (s *Service) Statistics(ctx context.Context, userID string, today time.Time) (Statistics, error) {
	list, err := s.Repository.FindAllByUserID(ctx, userID)
	if err != nil {
		return Statistics{}, err
	}

	return ComputeStatistics(list, today), nil
}
