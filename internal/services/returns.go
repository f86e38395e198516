package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/obotesoftech/prisonreturns/internal/catalog"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/internal/stations"
	"github.com/obotesoftech/prisonreturns/internal/storage"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
)

// EventReturnSubmitted is published on mq.ChannelReturns for every new return.
const EventReturnSubmitted = "return.submitted"

// ReturnRepository defines persistence operations for returns.
type ReturnRepository interface {
	Get(ctx context.Context, id int64) (types.ReturnRecord, error)
	List(ctx context.Context) ([]types.ReturnRecord, error)
	ListBySubmitter(ctx context.Context, identifier string) ([]types.ReturnRecord, error)
	Create(ctx context.Context, record types.ReturnRecord) (types.ReturnRecord, error)
}

// GuardRepository stores the duplicate-submission state per scope.
type GuardRepository interface {
	Update(ctx context.Context, scope string, fn func(types.GuardState) types.GuardState) (types.GuardState, error)
}

// AccountLookup loads an account by identifier.
type AccountLookup interface {
	Get(ctx context.Context, identifier string) (types.Account, error)
}

// Publisher sends an event to a bus channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Upload is an attachment received with a submission.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// SubmitInput is a return submission.
type SubmitInput struct {
	Frequency  types.Frequency `json:"frequency"`
	ReturnType string          `json:"returnType"`
	Station    string          `json:"station"`
	Data       string          `json:"data"`
	Comment    string          `json:"comment"`

	// File is optional when Data is set.
	File *Upload `json:"-"`

	// Scope is the client profile the duplicate-submission guard is kept
	// for, within the submitter's own state.
	Scope string `json:"-"`
}

// SubmitResult is the stored record plus the guard's verdict.
type SubmitResult struct {
	Return types.ReturnRecord `json:"return"`
	Guard  GuardVerdict       `json:"guard"`
}

// ReturnService encapsulates return use-cases.
type ReturnService struct {
	repo     ReturnRepository
	guard    GuardRepository
	accounts AccountLookup
	objects  storage.ObjectStorage
	bus      Publisher
	log      logging.Logger
	now      func() time.Time
}

func NewReturnService(
	repo ReturnRepository,
	guard GuardRepository,
	accounts AccountLookup,
	objects storage.ObjectStorage,
	bus Publisher,
	log logging.Logger,
) *ReturnService {
	return &ReturnService{
		repo:     repo,
		guard:    guard,
		accounts: accounts,
		objects:  objects,
		bus:      bus,
		log:      log.With("component", "returns"),
		now:      time.Now,
	}
}

// Submit validates and stores a return for the caller.
func (s *ReturnService) Submit(ctx context.Context, caller types.Session, in SubmitInput) (SubmitResult, error) {
	if !caller.Role.Valid() {
		return SubmitResult{}, ErrForbidden
	}

	in.Station = strings.TrimSpace(in.Station)
	in.ReturnType = strings.TrimSpace(in.ReturnType)
	if !in.Frequency.Valid() {
		return SubmitResult{}, invalid("frequency", "please select a frequency")
	}
	if !catalog.Contains(in.Frequency, in.ReturnType) {
		return SubmitResult{}, invalid("returnType", "please select a return type for the chosen frequency")
	}
	if in.Station == "" {
		return SubmitResult{}, invalid("station", "please select a station")
	}
	if err := s.authorizeStation(ctx, caller, in.Station); err != nil {
		return SubmitResult{}, err
	}
	if in.Data == "" && in.File == nil {
		return SubmitResult{}, invalid("data", "please provide either return data or upload a file")
	}

	var fileName string
	if in.File != nil {
		in.File.Name = path.Base(strings.ReplaceAll(strings.TrimSpace(in.File.Name), `\`, "/"))
		if in.File.Name == "" || in.File.Name == "." || in.File.Name == "/" {
			return SubmitResult{}, invalid("file", "file name is required")
		}
		fileName = in.File.Name
	}

	scope := StateKey(caller, in.Scope)
	fingerprint := types.Fingerprint{
		Frequency:  in.Frequency,
		ReturnType: in.ReturnType,
		Station:    in.Station,
		Data:       in.Data,
		FileName:   fileName,
	}
	state, err := s.guard.Update(ctx, scope, func(current types.GuardState) types.GuardState {
		return NextGuardState(current, fingerprint)
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("update submission guard: %w", err)
	}
	verdict := Verdict(state)
	if verdict.Warning {
		s.log.Warn(ctx, "repeated submission", "scope", scope, "attempts", verdict.Attempts, "station", in.Station)
	}

	now := s.now().UTC()
	record := types.ReturnRecord{
		Frequency:   in.Frequency,
		ReturnType:  in.ReturnType,
		Station:     in.Station,
		Data:        in.Data,
		Comment:     in.Comment,
		SubmittedBy: caller.Identifier,
		SubmittedAt: now,
		Status:      types.StatusPending,
	}

	if in.File != nil {
		key := attachmentKey(now, in.File.Name)
		if err := s.objects.Put(ctx, key, in.File.Content, in.File.Size, in.File.MimeType); err != nil {
			return SubmitResult{}, fmt.Errorf("store attachment: %w", err)
		}
		record.File = &types.FileAttachment{
			Name:      in.File.Name,
			MimeType:  in.File.MimeType,
			SizeBytes: in.File.Size,
			ObjectKey: key,
		}
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if record.File != nil {
			if delErr := s.objects.Delete(ctx, record.File.ObjectKey); delErr != nil {
				s.log.Warn(ctx, "orphaned attachment", "key", record.File.ObjectKey, "error", delErr)
			}
		}
		return SubmitResult{}, fmt.Errorf("create return: %w", err)
	}

	s.publish(ctx, created)
	s.log.Info(ctx, "return submitted", "id", created.ID, "station", created.Station, "submitted_by", created.SubmittedBy)
	return SubmitResult{Return: created, Guard: verdict}, nil
}

// List returns the records visible to caller in insertion order:
// everything for unrestricted roles, own submissions for restricted roles
// and nothing for anyone else.
func (s *ReturnService) List(ctx context.Context, caller types.Session) ([]types.ReturnRecord, error) {
	switch {
	case caller.Role.Unrestricted():
		return s.repo.List(ctx)
	case caller.Role.Restricted():
		return s.repo.ListBySubmitter(ctx, caller.Identifier)
	default:
		return []types.ReturnRecord{}, nil
	}
}

// Query lists, filters and sorts the caller's visible records.
func (s *ReturnService) Query(ctx context.Context, caller types.Session, term, field string) ([]types.ReturnRecord, error) {
	records, err := s.List(ctx, caller)
	if err != nil {
		return nil, err
	}
	return SortBy(Search(records, term), field), nil
}

// Get returns a single record if the caller can see it.
func (s *ReturnService) Get(ctx context.Context, caller types.Session, id int64) (types.ReturnRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ReturnRecord{}, err
	}
	if !canSee(caller, record) {
		return types.ReturnRecord{}, store.ErrNotFound
	}
	return record, nil
}

// OpenAttachment streams the file attached to a visible record.
func (s *ReturnService) OpenAttachment(ctx context.Context, caller types.Session, id int64) (types.FileAttachment, io.ReadCloser, error) {
	record, err := s.Get(ctx, caller, id)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	if record.File == nil {
		return types.FileAttachment{}, nil, store.ErrNotFound
	}

	body, err := s.objects.Get(ctx, record.File.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return types.FileAttachment{}, nil, store.ErrNotFound
		}
		return types.FileAttachment{}, nil, err
	}
	return *record.File, body, nil
}

// ExportFileName names an export file for the current day.
func (s *ReturnService) ExportFileName(ext string) string {
	return fmt.Sprintf("prison-returns-export-%s.%s", s.now().UTC().Format("2006-01-02"), ext)
}

func (s *ReturnService) authorizeStation(ctx context.Context, caller types.Session, station string) error {
	if assigned := stations.Lookup(caller.Identifier); assigned != stations.DefaultStation {
		if station != assigned {
			return ErrStationMismatch
		}
		return nil
	}
	if !caller.Role.Restricted() {
		return nil
	}

	account, err := s.accounts.Get(ctx, caller.Identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorizedStation
		}
		return err
	}
	assigned := AssignedStation(account)
	if assigned == "" {
		return ErrUnauthorizedStation
	}
	if station != assigned {
		return ErrStationMismatch
	}
	return nil
}

func (s *ReturnService) publish(ctx context.Context, record types.ReturnRecord) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		s.log.Error(ctx, "encode return event", "id", record.ID, "error", err)
		return
	}
	if _, err := s.bus.Publish(ctx, mq.ChannelReturns, payload, map[string]string{mq.AttrEvent: EventReturnSubmitted}); err != nil {
		s.log.Warn(ctx, "publish return event", "id", record.ID, "error", err)
	}
}

func canSee(caller types.Session, record types.ReturnRecord) bool {
	switch {
	case caller.Role.Unrestricted():
		return true
	case caller.Role.Restricted():
		return record.SubmittedBy == caller.Identifier
	default:
		return false
	}
}

func attachmentKey(at time.Time, name string) string {
	return fmt.Sprintf("returns/%d/%02d/%s/%s", at.Year(), at.Month(), uuid.NewString(), name)
}

// Search keeps records whose return type, frequency, station or submitter
// contains term, ignoring case. An empty term returns records unchanged.
func Search(records []types.ReturnRecord, term string) []types.ReturnRecord {
	term = strings.ToLower(term)
	if term == "" {
		return records
	}

	out := make([]types.ReturnRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ReturnType), term) ||
			strings.Contains(strings.ToLower(string(r.Frequency)), term) ||
			strings.Contains(strings.ToLower(r.Station), term) ||
			strings.Contains(strings.ToLower(r.SubmittedBy), term) {
			out = append(out, r)
		}
	}
	return out
}

// SortBy returns a sorted copy of records. submittedAt sorts newest first;
// submittedBy, returnType, frequency and station sort ascending ignoring
// case. Any other field keeps the input order.
func SortBy(records []types.ReturnRecord, field string) []types.ReturnRecord {
	out := make([]types.ReturnRecord, len(records))
	copy(out, records)

	var less func(a, b types.ReturnRecord) bool
	switch field {
	case "submittedAt":
		less = func(a, b types.ReturnRecord) bool { return a.SubmittedAt.After(b.SubmittedAt) }
	case "submittedBy":
		less = byFold(func(r types.ReturnRecord) string { return r.SubmittedBy })
	case "returnType":
		less = byFold(func(r types.ReturnRecord) string { return r.ReturnType })
	case "frequency":
		less = byFold(func(r types.ReturnRecord) string { return string(r.Frequency) })
	case "station":
		less = byFold(func(r types.ReturnRecord) string { return r.Station })
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byFold(key func(types.ReturnRecord) string) func(a, b types.ReturnRecord) bool {
	return func(a, b types.ReturnRecord) bool {
		return strings.ToLower(key(a)) < strings.ToLower(key(b))
	}
}
