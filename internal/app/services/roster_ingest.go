package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/attachtrack/attachtrack/internal/pkg/email"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/attachtrack/attachtrack/internal/pkg/metrics"
	"github.com/attachtrack/attachtrack/internal/pkg/validation"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Soft error reasons reported per record
const (
	ReasonAlreadyExists = "Already exists in the database."
	reasonUsedByFmt     = "Already used by another %s."
)

// RosterRecord is one candidate row of a bulk upload. Key is the
// registration number for students and the staff number for supervisors.
type RosterRecord struct {
	Key        string
	Firstname  string
	Lastname   string
	Othernames string
	Phone      string
	Email      string
}

// RecordError is a per-record rejection that does not abort the batch
type RecordError struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// IngestResult summarises a committed batch
type IngestResult struct {
	Created int           `json:"created"`
	Errors  []RecordError `json:"errors"`
}

// OK reports whether every record was created
func (r *IngestResult) OK() bool {
	return len(r.Errors) == 0
}

// rosterTarget adapts the pipeline to one roster table
type rosterTarget interface {
	entity() string
	keyLabel() string
	memberLabel() string
	keyExists(ctx context.Context, store repositories.Store, key string) (bool, error)
	phoneExists(ctx context.Context, store repositories.Store, phone string) (bool, error)
	emailExists(ctx context.Context, store repositories.Store, email string) (bool, error)
	// secrets lists the plaintexts hashed for rec's credential, in the order
	// create expects their hashes
	secrets(rec RosterRecord) []string
	// create inserts the row and its credential and returns the notice to
	// send once the batch commits
	create(ctx context.Context, store repositories.Store, rec RosterRecord, hashes []string, now time.Time) (email.CredentialNotice, error)
}

type studentTarget struct {
	approved bool
}

func (t studentTarget) entity() string      { return "student" }
func (t studentTarget) keyLabel() string    { return "Registration No." }
func (t studentTarget) memberLabel() string { return "student" }

func (t studentTarget) keyExists(ctx context.Context, store repositories.Store, key string) (bool, error) {
	return store.Students().RegistrationNoExists(ctx, key)
}

func (t studentTarget) phoneExists(ctx context.Context, store repositories.Store, phone string) (bool, error) {
	return store.Students().PhoneExists(ctx, phone)
}

func (t studentTarget) emailExists(ctx context.Context, store repositories.Store, address string) (bool, error) {
	return store.Students().EmailExists(ctx, address)
}

// Password and temporary password are both the phone number
func (t studentTarget) secrets(rec RosterRecord) []string {
	return []string{rec.Phone}
}

func (t studentTarget) create(ctx context.Context, store repositories.Store, rec RosterRecord, hashes []string, now time.Time) (email.CredentialNotice, error) {
	student := &models.Student{
		RegistrationNo: rec.Key,
		Firstname:      rec.Firstname,
		Lastname:       rec.Lastname,
		Othernames:     helpers.NullableString(rec.Othernames),
		Phone:          rec.Phone,
		Email:          rec.Email,
		Active:         true,
		Approved:       t.approved,
		DateCreated:    now,
	}
	if err := store.Students().Create(ctx, student); err != nil {
		return email.CredentialNotice{}, err
	}

	hash := hashes[0]
	user := &models.User{
		Type:         models.CredentialStudent,
		TypeID:       student.ID,
		Username:     rec.Key,
		Password:     hash,
		TempPassword: &hash,
		Reset:        true,
		DateCreated:  now,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		return email.CredentialNotice{}, err
	}

	return email.CredentialNotice{
		ToEmail:  rec.Email,
		ToName:   student.FullName(),
		Username: user.Username,
		Hint:     "Your initial password is the phone number you registered with, in the form +2547XXXXXXXX.",
	}, nil
}

type supervisorTarget struct{}

func (t supervisorTarget) entity() string      { return "supervisor" }
func (t supervisorTarget) keyLabel() string    { return "Staff No." }
func (t supervisorTarget) memberLabel() string { return "staff member" }

func (t supervisorTarget) keyExists(ctx context.Context, store repositories.Store, key string) (bool, error) {
	return store.Supervisors().StaffNoExists(ctx, key)
}

func (t supervisorTarget) phoneExists(ctx context.Context, store repositories.Store, phone string) (bool, error) {
	return store.Supervisors().PhoneExists(ctx, phone)
}

func (t supervisorTarget) emailExists(ctx context.Context, store repositories.Store, address string) (bool, error) {
	return store.Supervisors().EmailExists(ctx, address)
}

// The password is the staff number, the temporary password the phone number
func (t supervisorTarget) secrets(rec RosterRecord) []string {
	return []string{rec.Key, rec.Phone}
}

func (t supervisorTarget) create(ctx context.Context, store repositories.Store, rec RosterRecord, hashes []string, now time.Time) (email.CredentialNotice, error) {
	supervisor := &models.Supervisor{
		StaffNo:     rec.Key,
		Firstname:   rec.Firstname,
		Lastname:    rec.Lastname,
		Othernames:  helpers.NullableString(rec.Othernames),
		Phone:       rec.Phone,
		Email:       rec.Email,
		Active:      true,
		DateCreated: now,
	}
	if err := store.Supervisors().Create(ctx, supervisor); err != nil {
		return email.CredentialNotice{}, err
	}

	password, temp := hashes[0], hashes[1]
	user := &models.User{
		Type:         models.CredentialSupervisor,
		TypeID:       supervisor.ID,
		Username:     rec.Email,
		Password:     password,
		TempPassword: &temp,
		Reset:        true,
		DateCreated:  now,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		return email.CredentialNotice{}, err
	}

	return email.CredentialNotice{
		ToEmail:  rec.Email,
		ToName:   supervisor.FullName(),
		Username: user.Username,
		Hint:     "Your initial password is the phone number on your staff record, in the form +2547XXXXXXXX.",
	}, nil
}

// RosterIngestService validates, deduplicates and persists bulk uploads of
// students and supervisors
type RosterIngestService struct {
	store    repositories.Store
	hasher   auth.PasswordHasher
	notifier email.Notifier
	maxBatch int
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRosterIngestService creates a new RosterIngestService. maxBatch is
// clamped to config.MaxIngestBatch.
func NewRosterIngestService(
	store repositories.Store,
	hasher auth.PasswordHasher,
	notifier email.Notifier,
	maxBatch int,
	logger zerolog.Logger,
) *RosterIngestService {
	if maxBatch <= 0 || maxBatch > config.MaxIngestBatch {
		maxBatch = config.MaxIngestBatch
	}
	return &RosterIngestService{
		store:    store,
		hasher:   hasher,
		notifier: notifier,
		maxBatch: maxBatch,
		logger:   logger,
		now:      time.Now,
	}
}

// IngestStudents adds a batch of students. approved is applied to every
// created record.
func (s *RosterIngestService) IngestStudents(ctx context.Context, records []RosterRecord, approved bool) (*IngestResult, error) {
	return s.ingest(ctx, studentTarget{approved: approved}, records)
}

// IngestSupervisors adds a batch of supervisors
func (s *RosterIngestService) IngestSupervisors(ctx context.Context, records []RosterRecord) (*IngestResult, error) {
	return s.ingest(ctx, supervisorTarget{}, records)
}

func (s *RosterIngestService) ingest(ctx context.Context, target rosterTarget, records []RosterRecord) (*IngestResult, error) {
	log := s.logger.With().Str("entity", target.entity()).Int("records", len(records)).Logger()

	batch, err := s.prepare(target, records)
	if err != nil {
		log.Warn().Err(err).Msg("Bulk upload rejected")
		metrics.RecordBatch(target.entity(), metrics.BatchRejected)
		return nil, err
	}

	// Hashing stays outside the transaction so a full batch does not hold
	// it open for the duration of several hundred bcrypt rounds
	hashes, err := s.hashSecrets(ctx, target, batch)
	if err != nil {
		log.Error().Err(err).Msg("Bulk upload failed while hashing credentials")
		metrics.RecordBatch(target.entity(), metrics.BatchFailed)
		return nil, err
	}

	result := &IngestResult{Errors: []RecordError{}}
	var notices []email.CredentialNotice
	now := s.now()

	err = s.store.InTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		for i, rec := range batch {
			softErr, err := s.checkStored(ctx, tx, target, rec)
			if err != nil {
				return err
			}
			if softErr != nil {
				result.Errors = append(result.Errors, *softErr)
				continue
			}

			var notice email.CredentialNotice
			err = tx.Savepoint(ctx, func(ctx context.Context, sp repositories.Store) error {
				var createErr error
				notice, createErr = target.create(ctx, sp, rec, hashes[i], now)
				return createErr
			})
			if errors.Is(err, repositories.ErrDuplicate) {
				// Lost a race with a concurrent upload
				log.Warn().Err(err).Str("key", rec.Key).Msg("Record collided at insert time")
				result.Errors = append(result.Errors, RecordError{Key: rec.Key, Reason: ReasonAlreadyExists})
				continue
			}
			if err != nil {
				return fmt.Errorf("error creating %s %s: %w", target.entity(), rec.Key, err)
			}
			result.Created++
			notices = append(notices, notice)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Bulk upload failed, nothing was saved")
		metrics.RecordBatch(target.entity(), metrics.BatchFailed)
		return nil, err
	}

	metrics.RecordBatch(target.entity(), metrics.BatchCommitted)
	metrics.RecordIngest(target.entity(), result.Created, len(result.Errors))
	log.Info().Int("created", result.Created).Int("skipped", len(result.Errors)).Msg("Bulk upload committed")

	for _, notice := range notices {
		if err := s.notifier.SendCredentialNotice(notice); err != nil {
			log.Warn().Err(err).Str("username", notice.Username).Msg("Failed to send credential notice")
		}
	}
	return result, nil
}

// prepare normalizes the batch and applies every check that aborts the
// whole request
func (s *RosterIngestService) prepare(target rosterTarget, records []RosterRecord) ([]RosterRecord, error) {
	if len(records) == 0 {
		return nil, apperrors.NewBadRequestError("No data provided")
	}
	if len(records) > s.maxBatch {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("You cannot upload more than %d records at once.", s.maxBatch))
	}

	batch := make([]RosterRecord, len(records))
	for i, rec := range records {
		batch[i] = RosterRecord{
			Key:        models.NormalizeNaturalKey(rec.Key),
			Firstname:  strings.TrimSpace(rec.Firstname),
			Lastname:   strings.TrimSpace(rec.Lastname),
			Othernames: strings.TrimSpace(rec.Othernames),
			Phone:      strings.TrimSpace(rec.Phone),
			Email:      models.NormalizeEmail(rec.Email),
		}
	}

	for i := range batch {
		phone, ok := validation.NormalizeKePhone(batch[i].Phone)
		if !ok {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid phone number %s", batch[i].Phone))
		}
		batch[i].Phone = phone
	}

	for i, rec := range batch {
		switch {
		case rec.Key == "":
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Record %d has no %s", i+1, target.keyLabel()))
		case !validation.IsName(rec.Firstname) || !validation.IsName(rec.Lastname):
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid first or last name for %s", rec.Key))
		case !validation.IsEmail(rec.Email):
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid email address %s", rec.Email))
		}
	}

	if v, dup := firstRepeat(batch, func(r RosterRecord) string { return r.Key }); dup {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("%s %s appears more than once in the data.", target.keyLabel(), v))
	}
	if v, dup := firstRepeat(batch, func(r RosterRecord) string { return r.Phone }); dup {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Phone No. %s appears more than once in the data", v))
	}
	if v, dup := firstRepeat(batch, func(r RosterRecord) string { return r.Email }); dup {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Email address %s appears more than once in the data", v))
	}
	return batch, nil
}

// hashSecrets hashes the credential secrets of every record in parallel,
// bounded by GOMAXPROCS since bcrypt is CPU bound
func (s *RosterIngestService) hashSecrets(ctx context.Context, target rosterTarget, batch []RosterRecord) ([][]string, error) {
	hashes := make([][]string, len(batch))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range batch {
		secrets := target.secrets(rec)
		hashes[i] = make([]string, len(secrets))
		for j, secret := range secrets {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				hash, err := s.hasher.Hash(secret)
				if err != nil {
					return fmt.Errorf("error hashing credential for %s: %w", rec.Key, err)
				}
				hashes[i][j] = hash
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

// firstRepeat returns the first value of field seen twice, in batch order
func firstRepeat(batch []RosterRecord, field func(RosterRecord) string) (string, bool) {
	seen := make(map[string]struct{}, len(batch))
	for _, rec := range batch {
		v := field(rec)
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return "", false
}

// checkStored looks for an existing row sharing the key, phone or email of
// rec, in that order
func (s *RosterIngestService) checkStored(ctx context.Context, store repositories.Store, target rosterTarget, rec RosterRecord) (*RecordError, error) {
	usedBy := fmt.Sprintf(reasonUsedByFmt, target.memberLabel())
	checks := []struct {
		value  string
		exists func(context.Context, repositories.Store, string) (bool, error)
		reason string
	}{
		{rec.Key, target.keyExists, ReasonAlreadyExists},
		{rec.Phone, target.phoneExists, usedBy},
		{rec.Email, target.emailExists, usedBy},
	}
	for _, c := range checks {
		found, err := c.exists(ctx, store, c.value)
		if err != nil {
			return nil, err
		}
		if found {
			return &RecordError{Key: c.value, Reason: c.reason}, nil
		}
	}
	return nil, nil
}
