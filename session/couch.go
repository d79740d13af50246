package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultCouchDB is the database that holds session documents.
const DefaultCouchDB = "jwt_sessions"

// CouchStore keeps one document per session, keyed by session id.
type CouchStore struct {
	client *resty.Client
	db     string
	now    func() time.Time
}

type couchDoc struct {
	ID      string    `json:"_id,omitempty"`
	Created time.Time `json:"created"`
}

type couchError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// NewCouch ensures db exists and returns a store backed by it. client must
// carry the base URL and credentials of the CouchDB server.
func NewCouch(ctx context.Context, client *resty.Client, db string) (*CouchStore, error) {
	if db == "" {
		db = DefaultCouchDB
	}
	s := &CouchStore{client: client, db: db, now: time.Now}
	if err := s.ensureDB(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CouchStore) ensureDB(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("db", s.db).
		SetError(&couchError{}).
		Put("/{db}")
	if err != nil {
		return unavailable("couch create db", err)
	}
	switch resp.StatusCode() {
	case http.StatusCreated, http.StatusAccepted, http.StatusPreconditionFailed:
		return nil
	default:
		return unavailable("couch create db", statusError(resp))
	}
}

// Create writes the session document. A 409 means the id already exists,
// which is not an error.
func (s *CouchStore) Create(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	resp, err := s.doc(ctx, id).
		SetBody(couchDoc{Created: s.now().UTC()}).
		SetError(&couchError{}).
		Put("/{db}/{id}")
	if err != nil {
		return unavailable("couch create", err)
	}
	switch resp.StatusCode() {
	case http.StatusCreated, http.StatusAccepted, http.StatusConflict:
		return nil
	default:
		return unavailable("couch create", statusError(resp))
	}
}

func (s *CouchStore) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id) {
		return false, nil
	}
	_, found, err := s.revision(ctx, id)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Revoke reads the current revision and deletes that revision. A document
// that disappears between the two calls is treated as revoked. A concurrent
// update of the same document yields ErrRevokeConflict.
func (s *CouchStore) Revoke(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	rev, found, err := s.revision(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	resp, err := s.doc(ctx, id).
		SetQueryParam("rev", rev).
		SetError(&couchError{}).
		Delete("/{db}/{id}")
	if err != nil {
		return unavailable("couch revoke", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusAccepted, http.StatusNotFound:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: %s rev %s", ErrRevokeConflict, id, rev)
	default:
		return unavailable("couch revoke", statusError(resp))
	}
}

func (s *CouchStore) revision(ctx context.Context, id string) (string, bool, error) {
	resp, err := s.doc(ctx, id).Head("/{db}/{id}")
	if err != nil {
		return "", false, unavailable("couch lookup", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		if rev := strings.Trim(resp.Header().Get("ETag"), `"`); rev != "" {
			return rev, true, nil
		}
		return s.revisionFromBody(ctx, id)
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, unavailable("couch lookup", statusError(resp))
	}
}

// revisionFromBody covers proxies that strip the ETag header.
func (s *CouchStore) revisionFromBody(ctx context.Context, id string) (string, bool, error) {
	var doc struct {
		Rev string `json:"_rev"`
	}
	resp, err := s.doc(ctx, id).
		SetResult(&doc).
		SetError(&couchError{}).
		Get("/{db}/{id}")
	if err != nil {
		return "", false, unavailable("couch lookup", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return doc.Rev, true, nil
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, unavailable("couch lookup", statusError(resp))
	}
}

func (s *CouchStore) doc(ctx context.Context, id string) *resty.Request {
	return s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"db": s.db, "id": id})
}

func statusError(resp *resty.Response) error {
	if e, ok := resp.Error().(*couchError); ok && e != nil && e.Error != "" {
		return fmt.Errorf("couchdb status %d: %s: %s", resp.StatusCode(), e.Error, e.Reason)
	}
	return fmt.Errorf("couchdb status %d", resp.StatusCode())
}
