package rulesets_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/routes"
)

type memStore struct {
	docs        map[string]string
	invalidated []string
}

func (m *memStore) Get(_ context.Context, tenantID string) (*rulesets.Ruleset, error) {
	doc, err := rulesets.Parse(m.docs[tenantID])
	if err != nil {
		return nil, err
	}
	return rulesets.Compile(tenantID, doc, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), nil
}

func (m *memStore) Put(ctx context.Context, tenantID, document string) (*rulesets.Ruleset, error) {
	if _, err := rulesets.Parse(document); err != nil {
		return nil, err
	}
	m.docs[tenantID] = document
	return m.Get(ctx, tenantID)
}

func (m *memStore) Invalidate(_ context.Context, tenantID string) error {
	m.invalidated = append(m.invalidated, tenantID)
	return nil
}

func newMux(store rulesets.System) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, rulesets.NewHandler(store, slog.New(slog.DiscardHandler)).Routes())
	return mux
}

func TestHandlerFindAndPut(t *testing.T) {
	store := &memStore{docs: map[string]string{}}
	mux := newMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/rulesets/acme", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var empty rulesets.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Equal(t, "acme", empty.TenantID)
	assert.Empty(t, empty.RejectionRules)

	doc := `rejectionRules:
  - Reject if duplication overlap exceeds 80%
  - Reject when the moon is full
qualityGates:
  - Flag proposals without consensus
`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/rulesets/acme", strings.NewReader(doc)))
	require.Equal(t, http.StatusOK, rec.Code)

	var view rulesets.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []string{"Reject if duplication overlap exceeds 80%"}, view.RejectionRules)
	assert.Len(t, view.QualityGates, 1)
	assert.Len(t, view.Skipped, 1)
	assert.Equal(t, "2025-03-01T00:00:00Z", view.Version)
}

func TestHandlerPutInvalid(t *testing.T) {
	mux := newMux(&memStore{docs: map[string]string{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/rulesets/acme", strings.NewReader("rejectionRules: [unclosed")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid ruleset document")
}

func TestHandlerInvalidate(t *testing.T) {
	store := &memStore{docs: map[string]string{}}
	mux := newMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/rulesets/acme/invalidate", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"acme"}, store.invalidated)
}
