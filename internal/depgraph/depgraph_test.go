package depgraph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetgov/kernel/internal/depgraph"
	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

func wbsFixture() *domain.WBSDefinition {
	return &domain.WBSDefinition{
		Packets: []domain.PacketDefinition{
			{ID: "A", Tags: []string{"core"}},
			{ID: "B", Tags: []string{"core"}},
			{ID: "C", Tags: []string{"extra"}},
			{ID: "D"},
		},
		Dependencies: map[string][]string{
			"D": {"tag:core", "C"},
		},
	}
}

func TestExpand_TagAndExplicit(t *testing.T) {
	t.Parallel()
	idx := depgraph.BuildIndex(wbsFixture())
	expanded, err := idx.Expand(wbsFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, expanded["D"])
}

func TestExpand_Idempotent(t *testing.T) {
	t.Parallel()
	idx := depgraph.BuildIndex(wbsFixture())
	first, err := idx.Expand(wbsFixture())
	require.NoError(t, err)

	// Re-expanding an already-expanded map (ids only, no tag refs left)
	// must return the same set in the same order.
	second, err := idx.Expand(&domain.WBSDefinition{
		Packets:      wbsFixture().Packets,
		Dependencies: first,
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpand_UnknownPacket(t *testing.T) {
	t.Parallel()
	idx := depgraph.BuildIndex(wbsFixture())
	_, err := idx.Expand(&domain.WBSDefinition{
		Dependencies: map[string][]string{"D": {"ghost"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrUnknownDependency)
}

func TestExpand_UnknownTag(t *testing.T) {
	t.Parallel()
	idx := depgraph.BuildIndex(wbsFixture())
	_, err := idx.Expand(&domain.WBSDefinition{
		Dependencies: map[string][]string{"D": {"tag:nonexistent"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrTagNotFound)
}

func TestExpand_InvalidTagSyntax(t *testing.T) {
	t.Parallel()
	idx := depgraph.BuildIndex(wbsFixture())
	_, err := idx.Expand(&domain.WBSDefinition{
		Dependencies: map[string][]string{"D": {"tag:Bad_Name"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrInvalidTagReference)
}

func TestDetectCycle_Acyclic(t *testing.T) {
	t.Parallel()
	err := depgraph.DetectCycle(map[string][]string{
		"A": {},
		"B": {"A"},
		"C": {"B"},
	})
	assert.NoError(t, err)
}

func TestDetectCycle_FindsCycle(t *testing.T) {
	t.Parallel()
	err := depgraph.DetectCycle(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	})
	require.Error(t, err)

	var cycleErr *depgraph.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.ErrorIs(t, err, kernelerrors.ErrCycleDetected)
	assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
	for _, node := range cycleErr.Path {
		_, ok := map[string][]string{"A": nil, "B": nil, "C": nil}[node]
		assert.True(t, ok, "path node %q must be in the input graph", node)
	}
}

func TestValidateWBS_DuplicatePacketID(t *testing.T) {
	t.Parallel()
	_, err := depgraph.ValidateWBS(&domain.WBSDefinition{
		Packets: []domain.PacketDefinition{{ID: "A"}, {ID: "A"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrDuplicatePacketID)
}

func TestValidateWBS_DuplicateAreaID(t *testing.T) {
	t.Parallel()
	_, err := depgraph.ValidateWBS(&domain.WBSDefinition{
		WorkAreas: []domain.WorkArea{{ID: "a1"}, {ID: "a1"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerrors.ErrDuplicateAreaID)
}

func TestValidateWBS_MergesDependsOnAndDependencies(t *testing.T) {
	t.Parallel()
	wbs := &domain.WBSDefinition{
		Packets: []domain.PacketDefinition{
			{ID: "A"},
			{ID: "B", DependsOn: []string{"A"}},
		},
	}
	expanded, err := depgraph.ValidateWBS(wbs)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, expanded["B"])
}
