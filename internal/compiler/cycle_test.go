package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callgen/internal/ir"
)

func TestAnalyzeParents_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeParents(declSet("nt", map[string]ir.OpDecl{})))
}

func TestAnalyzeParents_Tree(t *testing.T) {
	set := declSet("nt", map[string]ir.OpDecl{
		"Root": {},
		"A":    {Parent: "Root"},
		"B":    {Parent: "Root"},
		"C":    {Parent: "A"},
	})
	assert.Empty(t, AnalyzeParents(set))
}

func TestAnalyzeParents_SelfParent(t *testing.T) {
	set := declSet("nt", map[string]ir.OpDecl{
		"Loop": {Parent: "Loop"},
	})

	errs := AnalyzeParents(set)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrParentCycle, errs[0].Code)
	assert.Equal(t, "Loop", errs[0].Operation)
	assert.Contains(t, errs[0].Message, "Loop -> Loop")
}

func TestAnalyzeParents_ThreeNodeCycle(t *testing.T) {
	set := declSet("nt", map[string]ir.OpDecl{
		"A":     {Parent: "C"},
		"B":     {Parent: "A"},
		"C":     {Parent: "B"},
		"Child": {Parent: "A"},
	})

	errs := AnalyzeParents(set)
	require.Len(t, errs, 1, "the child hanging off the cycle is not itself a cycle")
	assert.Equal(t, "A", errs[0].Operation)
	assert.Equal(t, "parent cycle: A -> C -> B -> A", errs[0].Message)
}

func TestAnalyzeParents_TwoCycles(t *testing.T) {
	set := declSet("nt", map[string]ir.OpDecl{
		"X1": {Parent: "X2"},
		"X2": {Parent: "X1"},
		"Y":  {Parent: "Y"},
	})

	errs := AnalyzeParents(set)
	require.Len(t, errs, 2)
	assert.Equal(t, "X1", errs[0].Operation)
	assert.Equal(t, "Y", errs[1].Operation)
}

func TestAnalyzeParents_UnknownParentIgnored(t *testing.T) {
	set := declSet("nt", map[string]ir.OpDecl{
		"A": {Parent: "Missing"},
	})
	assert.Empty(t, AnalyzeParents(set))
}

func TestReconstructCyclePath(t *testing.T) {
	graph := parentGraph{"A": {"B"}, "B": {"A"}}
	assert.Equal(t, []string{"A", "B", "A"}, reconstructCyclePath([]string{"A", "B"}, graph))
	assert.Equal(t, []string{}, reconstructCyclePath(nil, graph))
}
