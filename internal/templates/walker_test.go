package templates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"template-resolver/internal/common/logger"
	"template-resolver/internal/templates"
	"template-resolver/internal/templates/templatestest"
)

// ==========================
// Test Helper Functions
// ==========================

// chainOrgs builds a mock directory for tenant "t3" whose chain is
// o3 (depth 3) -> o2 (2) -> o1 (1) -> o0 (0). Depth and domain lookups are
// registered only for the ids listed in reachable, so visiting any other
// ancestor fails the test.
func chainOrgs(t *testing.T, reachable ...string) *templatestest.MockOrgDirectory {
	t.Helper()
	depths := map[string]int{"o3": 3, "o2": 2, "o1": 1, "o0": 0}
	domains := map[string]string{"o3": "t3", "o2": "t2", "o1": "t1", "o0": "t0"}

	orgs := &templatestest.MockOrgDirectory{}
	orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("o3", nil)
	orgs.On("AncestorOrganizationIDs", mock.Anything, "o3").Return([]string{"o3", "o2", "o1", "o0"}, nil)
	for _, id := range reachable {
		orgs.On("OrganizationDepth", mock.Anything, id).Return(depths[id], nil)
		orgs.On("ResolveTenantDomain", mock.Anything, id).Return(domains[id], nil).Maybe()
	}
	t.Cleanup(func() { orgs.AssertExpectations(t) })
	return orgs
}

// recorder is a probe that records visited ancestors and reports a hit for
// the tenants in hits.
type recorder struct {
	visited []templates.Ancestor
	hits    map[string]string
	fail    map[string]error
}

func (r *recorder) Probe(_ context.Context, a templates.Ancestor) (string, bool, error) {
	r.visited = append(r.visited, a)
	if err, ok := r.fail[a.TenantDomain]; ok {
		return "", false, err
	}
	v, ok := r.hits[a.TenantDomain]
	return v, ok, nil
}

func (r *recorder) tenants() []string {
	out := make([]string, 0, len(r.visited))
	for _, a := range r.visited {
		out = append(out, a.TenantDomain)
	}
	return out
}

// ==========================
// Traversal Tests
// ==========================

func TestWalk_NoAncestorsMakesNoProbeCalls(t *testing.T) {
	orgs := &templatestest.MockOrgDirectory{}
	apps := &templatestest.MockAppDirectory{}
	orgs.On("ResolveOrganizationID", mock.Anything, "solo").Return("o-solo", nil).Once()
	orgs.On("AncestorOrganizationIDs", mock.Anything, "o-solo").Return([]string{"o-solo"}, nil).Once()

	w := templates.NewWalker(orgs, apps, 1, logger.NewTestLogger(t))
	probe := &recorder{}

	_, found, err := templates.Walk[string](context.Background(), w, "solo", "app-1", templates.FirstMatch, probe)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, probe.visited)
	orgs.AssertExpectations(t)
	apps.AssertNotCalled(t, "AncestorApplicationIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestWalk_StopsAtFirstAncestorBelowCutoff(t *testing.T) {
	tests := []struct {
		name      string
		minDepth  int
		reachable []string
		want      []string
	}{
		{name: "cutoff 0 visits root", minDepth: 0, reachable: []string{"o2", "o1", "o0"}, want: []string{"t2", "t1", "t0"}},
		{name: "cutoff 1 excludes root", minDepth: 1, reachable: []string{"o2", "o1", "o0"}, want: []string{"t2", "t1"}},
		{name: "cutoff 2", minDepth: 2, reachable: []string{"o2", "o1"}, want: []string{"t2"}},
		{name: "cutoff above every ancestor", minDepth: 3, reachable: []string{"o2"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orgs := chainOrgs(t, tt.reachable...)
			w := templates.NewWalker(orgs, nil, tt.minDepth, logger.NewTestLogger(t))
			probe := &recorder{}

			_, found, err := templates.Walk[string](context.Background(), w, "t3", "", templates.MergeAll, probe)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Equal(t, tt.want, probe.tenants())
		})
	}
}

func TestWalk_FirstMatchStopsAtNearestHit(t *testing.T) {
	orgs := chainOrgs(t, "o2", "o1")
	w := templates.NewWalker(orgs, nil, 0, logger.NewTestLogger(t))
	probe := &recorder{hits: map[string]string{"t1": "from t1", "t0": "from t0"}}

	got, found, err := templates.Walk[string](context.Background(), w, "t3", "", templates.FirstMatch, probe)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "from t1", got)
	assert.Equal(t, []string{"t2", "t1"}, probe.tenants())
}

func TestWalk_MergeAllReturnsLastHit(t *testing.T) {
	orgs := chainOrgs(t, "o2", "o1", "o0")
	w := templates.NewWalker(orgs, nil, 0, logger.NewTestLogger(t))
	probe := &recorder{hits: map[string]string{"t2": "from t2", "t1": "from t1"}}

	got, found, err := templates.Walk[string](context.Background(), w, "t3", "", templates.MergeAll, probe)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "from t1", got)
	assert.Equal(t, []string{"t2", "t1", "t0"}, probe.tenants())
}

func TestWalk_ResolvesApplicationIDsOnce(t *testing.T) {
	orgs := chainOrgs(t, "o2", "o1", "o0")
	apps := &templatestest.MockAppDirectory{}
	apps.On("AncestorApplicationIDs", mock.Anything, "app-3", "o3").
		Return(map[string]string{"o2": "app-2", "o0": "app-0"}, nil).Once()

	w := templates.NewWalker(orgs, apps, 0, logger.NewTestLogger(t))
	probe := &recorder{}

	_, _, err := templates.Walk[string](context.Background(), w, "t3", "app-3", templates.MergeAll, probe)
	require.NoError(t, err)
	apps.AssertExpectations(t)

	require.Len(t, probe.visited, 3)
	assert.Equal(t, templates.Ancestor{OrganizationID: "o2", TenantDomain: "t2", ApplicationID: "app-2", Depth: 2}, probe.visited[0])
	assert.Equal(t, templates.Ancestor{OrganizationID: "o1", TenantDomain: "t1", ApplicationID: "", Depth: 1}, probe.visited[1])
	assert.Equal(t, templates.Ancestor{OrganizationID: "o0", TenantDomain: "t0", ApplicationID: "app-0", Depth: 0}, probe.visited[2])
}

func TestWalk_ProbeFuncAdapter(t *testing.T) {
	orgs := chainOrgs(t, "o2")
	w := templates.NewWalker(orgs, nil, 2, logger.NewTestLogger(t))

	calls := 0
	probe := templates.ProbeFunc[int](func(_ context.Context, a templates.Ancestor) (int, bool, error) {
		calls++
		return a.Depth, true, nil
	})

	got, found, err := templates.Walk[int](context.Background(), w, "t3", "", templates.FirstMatch, probe)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, calls)
}

// ==========================
// Error Tests
// ==========================

func TestWalk_TopologyFailuresAreResolutionErrors(t *testing.T) {
	cause := errors.New("directory unavailable")

	tests := []struct {
		name   string
		setup  func(orgs *templatestest.MockOrgDirectory, apps *templatestest.MockAppDirectory)
		wantOp string
	}{
		{
			name: "organization id",
			setup: func(orgs *templatestest.MockOrgDirectory, _ *templatestest.MockAppDirectory) {
				orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("", cause)
			},
			wantOp: "resolve organization id",
		},
		{
			name: "ancestor chain",
			setup: func(orgs *templatestest.MockOrgDirectory, _ *templatestest.MockAppDirectory) {
				orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("o3", nil)
				orgs.On("AncestorOrganizationIDs", mock.Anything, "o3").Return(nil, cause)
			},
			wantOp: "list ancestor organizations",
		},
		{
			name: "application mapping",
			setup: func(orgs *templatestest.MockOrgDirectory, apps *templatestest.MockAppDirectory) {
				orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("o3", nil)
				orgs.On("AncestorOrganizationIDs", mock.Anything, "o3").Return([]string{"o3", "o2"}, nil)
				apps.On("AncestorApplicationIDs", mock.Anything, "app-3", "o3").Return(nil, cause)
			},
			wantOp: "list ancestor applications",
		},
		{
			name: "ancestor depth",
			setup: func(orgs *templatestest.MockOrgDirectory, apps *templatestest.MockAppDirectory) {
				orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("o3", nil)
				orgs.On("AncestorOrganizationIDs", mock.Anything, "o3").Return([]string{"o3", "o2"}, nil)
				apps.On("AncestorApplicationIDs", mock.Anything, "app-3", "o3").Return(map[string]string{}, nil)
				orgs.On("OrganizationDepth", mock.Anything, "o2").Return(0, cause)
			},
			wantOp: "resolve organization depth",
		},
		{
			name: "ancestor tenant domain",
			setup: func(orgs *templatestest.MockOrgDirectory, apps *templatestest.MockAppDirectory) {
				orgs.On("ResolveOrganizationID", mock.Anything, "t3").Return("o3", nil)
				orgs.On("AncestorOrganizationIDs", mock.Anything, "o3").Return([]string{"o3", "o2"}, nil)
				apps.On("AncestorApplicationIDs", mock.Anything, "app-3", "o3").Return(map[string]string{}, nil)
				orgs.On("OrganizationDepth", mock.Anything, "o2").Return(2, nil)
				orgs.On("ResolveTenantDomain", mock.Anything, "o2").Return("", cause)
			},
			wantOp: "resolve ancestor tenant domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orgs := &templatestest.MockOrgDirectory{}
			apps := &templatestest.MockAppDirectory{}
			tt.setup(orgs, apps)

			w := templates.NewWalker(orgs, apps, 0, logger.NewTestLogger(t))
			probe := &recorder{}

			_, found, err := templates.Walk[string](context.Background(), w, "t3", "app-3", templates.FirstMatch, probe)
			require.Error(t, err)
			assert.False(t, found)
			assert.Empty(t, probe.visited)
			assert.ErrorIs(t, err, cause)

			var rerr *templates.ResolutionError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.wantOp, rerr.Op)
			assert.Equal(t, "t3", rerr.TenantDomain)
			assert.Equal(t, "app-3", rerr.ApplicationID)
		})
	}
}

func TestWalk_ProbeErrorAbortsTraversal(t *testing.T) {
	orgs := chainOrgs(t, "o2", "o1")
	w := templates.NewWalker(orgs, nil, 0, logger.NewTestLogger(t))
	cause := errors.New("store timeout")
	probe := &recorder{fail: map[string]error{"t1": cause}, hits: map[string]string{"t0": "unreachable"}}

	_, found, err := templates.Walk[string](context.Background(), w, "t3", "", templates.MergeAll, probe)
	assert.False(t, found)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"t2", "t1"}, probe.tenants())

	var rerr *templates.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "probe ancestor t1", rerr.Op)
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "first_match", templates.FirstMatch.String())
	assert.Equal(t, "merge_all", templates.MergeAll.String())
	assert.Equal(t, "unknown", templates.Strategy(9).String())
}
