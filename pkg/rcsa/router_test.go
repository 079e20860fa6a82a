package rcsa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartbank/rcsa/pkg/identity"
)

// asPrincipal injects a principal the way the authenticator would.
func asPrincipal(p *identity.Principal, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			r = r.WithContext(identity.WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

func adminPrincipal() *identity.Principal {
	return &identity.Principal{
		ID:     1,
		UnitID: 0,
		Capabilities: map[identity.Capability]bool{
			identity.CanCreate:    true,
			identity.CanRead:      true,
			identity.CanUpdate:    true,
			identity.CanApprove:   true,
			identity.CanDelete:    true,
			identity.CanProvision: true,
		},
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func routerWithDB(db *gorm.DB, p *identity.Principal) http.Handler {
	return asPrincipal(p, NewRouter(NewStores(db)))
}

func TestRouterCapabilityEnforcement(t *testing.T) {
	db := newTestDB(t)
	seedUnits(t, db, "Retail Banking")

	// No principal at all: 401 from the capability middleware.
	rec := doJSON(t, routerWithDB(db, nil), http.MethodGet, "/masters", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Read-only principal cannot create.
	reader := &identity.Principal{ID: 5, Capabilities: map[identity.Capability]bool{identity.CanRead: true}}
	rec = doJSON(t, routerWithDB(db, reader), http.MethodPost, "/masters",
		CreateMasterRequest{Name: "X", UnitIDs: []int64{1}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, routerWithDB(db, reader), http.MethodGet, "/masters", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMasterWorkflow(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	handler := routerWithDB(db, adminPrincipal())

	// Create.
	rec := doJSON(t, handler, http.MethodPost, "/masters",
		CreateMasterRequest{Name: "Operational Risk 2026", UnitIDs: unitIDs})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Master
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, StatusDraft, created.Status)

	base := fmt.Sprintf("/masters/%d", created.ID)

	// Publish before approval: 409 with the transition payload.
	rec = doJSON(t, handler, http.MethodPost, base+"/publish", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var e Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, KindInvalidTransition, e.Kind)
	assert.Equal(t, StatusDraft, e.CurrentState)
	assert.Equal(t, "publish", e.Action)

	// Submit, decide, publish.
	rec = doJSON(t, handler, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, base+"/decision",
		DecisionRequest{Decision: DecisionApproved, Note: "approved via api"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, base+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var published Master
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	assert.Equal(t, StatusPublished, published.Status)

	// Detail shows the activated target.
	rec = doJSON(t, handler, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail MasterDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.TargetUnits, 1)
	assert.True(t, detail.TargetUnits[0].IsActive)
}

func TestRouterAssessmentValidationPayload(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)

	author := &identity.Principal{
		ID:     3,
		UnitID: unitIDs[0],
		Capabilities: map[identity.Capability]bool{
			identity.CanRead:   true,
			identity.CanUpdate: true,
		},
	}
	handler := routerWithDB(db, author)

	// Create a bare draft, then submit it: 400 listing every missing field.
	rec := doJSON(t, handler, http.MethodPost, "/assessments",
		CreateDraftRequest{MasterID: master.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/assessments/%d/submit", created.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, []string{
		"riskType", "cause", "inherentImpact", "inherentLikelihood",
		"mitigation", "residualImpact", "residualLikelihood", "actionPlan", "owner",
	}, e.Fields)
}
