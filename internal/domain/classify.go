package domain

import (
	"fmt"
	"sort"
)

// Classification partitions the graph's nodes into mixer inputs, the single
// mixer output, and everything else. Warnings carry the per-node issues
// encountered while classifying (ambiguous matches, surplus output
// candidates); they are reported, never fatal.
type Classification struct {
	Inputs   []*Node
	Output   *Node
	Ignored  []*Node
	Warnings []string
}

// Classify evaluates the match rules against every node.
//
// A node matching both the input and the output rule sets is ambiguous and
// excluded. When more than one node matches the output rules, the one with
// the lowest identifier wins so that the choice is deterministic across
// passes; the mixer deliberately feeds a single output rather than silently
// duplicating the mix. Zero output candidates leaves Output nil, which makes
// downstream planning a no-op until a later pass finds one.
func Classify(nodes []*Node, rules []MatchRule) Classification {
	var c Classification
	var outputs []*Node

	sorted := make([]*Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, n := range sorted {
		isInput := MatchesRole(rules, RuleRoleInput, n)
		isOutput := MatchesRole(rules, RuleRoleOutput, n)

		switch {
		case isInput && isOutput:
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("node %d (%s) matches both input and output rules, excluding", n.ID, n.Description))
			c.Ignored = append(c.Ignored, n)
		case isInput:
			c.Inputs = append(c.Inputs, n)
		case isOutput:
			outputs = append(outputs, n)
		default:
			c.Ignored = append(c.Ignored, n)
		}
	}

	if len(outputs) > 0 {
		// sorted input means outputs[0] has the lowest ID
		c.Output = outputs[0]
		for _, extra := range outputs[1:] {
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("node %d (%s) also matches output rules, ignoring in favor of node %d",
					extra.ID, extra.Description, c.Output.ID))
			c.Ignored = append(c.Ignored, extra)
		}
	}

	return c
}
