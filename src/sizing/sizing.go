// Package sizing estimates cloud resources for a user count and records the estimate in a
// key-value store. The store and the clock are injected so the handler has no global state.
package sizing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iafilius/HPAScaleGraphs/src/logging"
)

const (
	usersPerVM    = 10
	storagePerGB  = 0.5
	timestampForm = "Mon, 02 Jan 2006 15:04:05 +0000"
)

// ErrInvalidUsers is returned when the request carries no usable user count.
var ErrInvalidUsers = errors.New("invalid users value")

// Record is the item persisted per estimate, keyed by ID (the decimal user count).
type Record struct {
	ID        string  `json:"ID"`
	VMCount   int     `json:"VMCount"`
	StorageGB float64 `json:"StorageGB"`
	Timestamp string  `json:"Timestamp"`
}

// Store persists records; Put replaces an existing record with the same ID.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
}

// Clock is the time source for record timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Request is the handler input. Users accepts both a JSON number and a numeric string.
type Request struct {
	Users json.Number `json:"users"`
}

// Response mirrors an API gateway style reply: a status code and a JSON body string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type resourcesBody struct {
	Resources string `json:"resources,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Estimate is the pure sizing rule.
type Estimate struct {
	Users     int
	VMCount   int
	StorageGB float64
}

// Compute applies the sizing rule: one VM per ten users (floor), half a GB per user.
func Compute(users int) Estimate {
	return Estimate{Users: users, VMCount: users / usersPerVM, StorageGB: float64(users) * storagePerGB}
}

// Summary is the human readable form returned to callers, e.g. "2 VMs, 12.5 GB Storage".
func (e Estimate) Summary() string {
	return fmt.Sprintf("%d VMs, %s GB Storage", e.VMCount, strconv.FormatFloat(e.StorageGB, 'f', -1, 64))
}

// Handler computes estimates and records them.
type Handler struct {
	Store Store
	Clock Clock
}

// NewHandler wires a handler; a nil clock selects SystemClock.
func NewHandler(store Store, clock Clock) *Handler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Handler{Store: store, Clock: clock}
}

// ParseUsers validates the user count of a request.
func ParseUsers(req Request) (int, error) {
	s := strings.TrimSpace(req.Users.String())
	if s == "" {
		return 0, fmt.Errorf("%w: missing", ErrInvalidUsers)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUsers, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative (%d)", ErrInvalidUsers, n)
	}
	return n, nil
}

// Handle validates the request, stores the estimate and returns the response. Invalid input
// yields a 400 response together with an ErrInvalidUsers error; store failures are returned
// as errors with a 500 response.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	users, err := ParseUsers(req)
	if err != nil {
		return reply(http.StatusBadRequest, resourcesBody{Error: err.Error()}), err
	}
	est := Compute(users)
	rec := Record{
		ID:        strconv.Itoa(users),
		VMCount:   est.VMCount,
		StorageGB: est.StorageGB,
		Timestamp: h.Clock.Now().UTC().Format(timestampForm),
	}
	if err := h.Store.Put(ctx, rec); err != nil {
		logging.Errorf("[sizing] put %s: %v", rec.ID, err)
		return reply(http.StatusInternalServerError, resourcesBody{Error: "store unavailable"}), fmt.Errorf("store record %s: %w", rec.ID, err)
	}
	logging.Infof("[sizing] users=%d vm_count=%d storage_gb=%v", users, est.VMCount, est.StorageGB)
	return reply(http.StatusOK, resourcesBody{Resources: est.Summary()}), nil
}

func reply(code int, body resourcesBody) Response {
	b, _ := json.Marshal(body)
	return Response{StatusCode: code, Body: string(b)}
}
