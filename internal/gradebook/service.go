// Package gradebook is the application core: it loads workbooks into the
// snapshot store and answers student lookups against whatever snapshot is
// current.
package gradebook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"markbook/internal/gate"
	"markbook/internal/logger"
	"markbook/internal/report"
	"markbook/internal/schema"
	"markbook/internal/source"
	"markbook/internal/store"
	"markbook/internal/workbook"
)

const defaultMemoTTL = 10 * time.Minute

// Outcome distinguishes the two successful login shapes.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeNoRows Outcome = "no_rows"
)

// LoginResult is a successful login. Summary and Details are empty when the
// outcome is OutcomeNoRows.
type LoginResult struct {
	Outcome Outcome                `json:"outcome"`
	Message string                 `json:"message,omitempty"`
	Summary []report.CourseSummary `json:"summary,omitempty"`
	Details []report.DetailRow     `json:"details,omitempty"`
}

// Meta describes the current snapshot without exposing any grade data.
type Meta struct {
	SnapshotID       string    `json:"snapshot_id"`
	Source           string    `json:"source"`
	LoadedAt         time.Time `json:"loaded_at"`
	ContentHash      string    `json:"content_hash"`
	VocabVersion     int64     `json:"vocab_version"`
	RowsLoaded       int       `json:"rows_loaded"`
	GradeSheets      []string  `json:"grade_sheets"`
	CredentialsSheet string    `json:"credentials_sheet"`
	CredentialRows   int       `json:"credential_rows"`
}

// Options wires a Service. Registry may be nil when no vocabulary file is
// configured; Fetcher may be nil when remote loading is unused.
type Options struct {
	Store    *store.SnapshotStore
	Registry *schema.Registry
	Fetcher  *source.Fetcher
	Gate     gate.Gate
	MemoTTL  time.Duration
}

// Service serializes workbook loads and serves lock-free reads. Loads are
// all-or-nothing: any decode or fetch failure leaves the previous snapshot
// in place.
type Service struct {
	store    *store.SnapshotStore
	registry *schema.Registry
	fetcher  *source.Fetcher
	gate     gate.Gate

	loadMu sync.Mutex
	memo   *cache.Cache
}

func New(opts Options) *Service {
	ttl := opts.MemoTTL
	if ttl <= 0 {
		ttl = defaultMemoTTL
	}
	st := opts.Store
	if st == nil {
		st = store.NewSnapshotStore()
	}
	return &Service{
		store:    st,
		registry: opts.Registry,
		fetcher:  opts.Fetcher,
		gate:     opts.Gate,
		memo:     cache.New(ttl, 2*ttl),
	}
}

// Gate returns the configured gate, mostly for surfaces that need to know
// the active mode.
func (s *Service) Gate() gate.Gate {
	return s.gate
}

// LoadBytes normalizes workbook bytes and publishes the result. Identical
// bytes under the same vocabulary version skip straight to the memoized
// tables; the published snapshot is fresh either way.
func (s *Service) LoadBytes(data []byte, src string) (*store.Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	canon := s.canonicalizer()
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	memoKey := fmt.Sprintf("%s:%d", hash, canon.Version())

	var res *workbook.Result
	if hit, ok := s.memo.Get(memoKey); ok {
		res = hit.(*workbook.Result)
		logger.Debugf("[load] normalize memo hit (%s)", hash[:12])
	} else {
		sheets, err := workbook.Decode(data)
		if err != nil {
			return nil, err
		}
		res = workbook.Normalize(sheets, canon)
		s.memo.Set(memoKey, res, cache.DefaultExpiration)
	}

	snap := &store.Snapshot{
		ID:               uuid.New(),
		LoadedAt:         time.Now(),
		Source:           src,
		ContentHash:      hash,
		VocabVersion:     canon.Version(),
		Grades:           res.Grades,
		Credentials:      res.Credentials,
		GradeSheets:      res.GradeSheets,
		CredentialsSheet: res.CredentialsSheet,
	}
	s.store.Publish(snap)
	logger.Infof("[load] %d grade rows from %d sheet(s), credentials sheet: %s (source=%s)",
		len(res.Grades), len(res.GradeSheets), res.CredentialsSheet, src)
	return snap, nil
}

// LoadURL fetches a workbook and publishes it. Fetch failures surface as
// *source.FetchError with the previous snapshot untouched.
func (s *Service) LoadURL(ctx context.Context, rawURL string) (*store.Snapshot, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("workbook url is empty")
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("remote loading is not configured")
	}
	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.LoadBytes(data, "url")
}

// LoadFile reads a workbook from disk and publishes it.
func (s *Service) LoadFile(path string) (*store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return s.LoadBytes(data, "file:"+filepath.Base(path))
}

// Login authorizes the identity and assembles its summary and details.
// Authorization failures come back as gate errors; an authorized identity
// with no matching rows is a success with OutcomeNoRows.
func (s *Service) Login(id gate.Identity) (*LoginResult, error) {
	snap, ok := s.store.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	if strings.TrimSpace(id.StudentID) == "" {
		return nil, ErrMissingStudentID
	}
	if err := s.gate.Authorize(id, snap.Credentials); err != nil {
		return nil, err
	}
	rows := s.gate.Rows(id, snap.Grades)
	if len(rows) == 0 {
		return &LoginResult{Outcome: OutcomeNoRows, Message: MsgNoRows}, nil
	}
	return &LoginResult{
		Outcome: OutcomeOK,
		Summary: report.Summarize(rows),
		Details: report.Details(rows),
	}, nil
}

// Courses lists the distinct course labels visible to the identity, sorted.
// Any course filter on the identity is ignored here.
func (s *Service) Courses(id gate.Identity) ([]string, error) {
	snap, ok := s.store.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	if strings.TrimSpace(id.StudentID) == "" {
		return nil, ErrMissingStudentID
	}
	if err := s.gate.Authorize(id, snap.Credentials); err != nil {
		return nil, err
	}
	scoped := id
	scoped.Course = ""
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.gate.Rows(scoped, snap.Grades) {
		label := report.CourseLabel(r.Course)
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Overview computes the instructor overview across the whole table.
func (s *Service) Overview() ([]report.CourseOverview, error) {
	snap, ok := s.store.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	return report.Overview(snap.Grades), nil
}

// Meta reports on the current snapshot.
func (s *Service) Meta() (*Meta, error) {
	snap, ok := s.store.Current()
	if !ok {
		return nil, ErrNoWorkbook
	}
	return &Meta{
		SnapshotID:       snap.ID.String(),
		Source:           snap.Source,
		LoadedAt:         snap.LoadedAt,
		ContentHash:      snap.ContentHash,
		VocabVersion:     snap.VocabVersion,
		RowsLoaded:       len(snap.Grades),
		GradeSheets:      snap.GradeSheets,
		CredentialsSheet: snap.CredentialsSheet,
		CredentialRows:   len(snap.Credentials),
	}, nil
}

func (s *Service) canonicalizer() *schema.Canonicalizer {
	if s.registry != nil {
		return s.registry.Canonicalizer()
	}
	return schema.NewCanonicalizer(nil, 0)
}
