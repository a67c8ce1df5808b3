package domain

import "fmt"

// PortPairing pairs one source port of an input node with the destination
// port of the output node carrying the same channel label.
type PortPairing struct {
	Source Port
	Dest   Port
}

// ChannelMatch is the result of pairing one input node against the output
// node. Skipped lists the input channels that had no counterpart; a match
// with zero pairings means the node pair is unlinkable.
type ChannelMatch struct {
	Pairings []PortPairing
	Skipped  []string
}

// Unlinkable reports whether no channel of the input node could be paired
func (m ChannelMatch) Unlinkable() bool {
	return len(m.Pairings) == 0
}

// MatchChannels pairs the out-direction ports of the input node with the
// in-direction ports of the output node by exact channel label (FL to FL,
// FR to FR, and so on). There is no fuzzy mapping and no inference from
// port order; a channel without an identically labelled counterpart is
// skipped, and the pair remains linkable for the channels that do match.
func MatchChannels(input, output *Node) ChannelMatch {
	var m ChannelMatch
	dests := output.PortsByDirection(DirectionIn)

	for _, src := range input.PortsByDirection(DirectionOut) {
		paired := false
		for _, dst := range dests {
			if dst.Channel == src.Channel {
				m.Pairings = append(m.Pairings, PortPairing{Source: src, Dest: dst})
				paired = true
				break
			}
		}
		if !paired {
			m.Skipped = append(m.Skipped, src.Channel)
		}
	}

	return m
}

// Plan is the desired link set together with the warnings produced while
// computing it. Plans are pure functions of the classification: planning
// twice over an unchanged graph yields equal link sets, which is what makes
// reconciliation idempotent.
type Plan struct {
	Links    LinkSet
	Warnings []string
}

// BuildPlan computes the fan-in link plan mapping every input node's matched
// channels onto the single output node. With no output (or no inputs) the
// plan is empty, never an error.
func BuildPlan(inputs []*Node, output *Node) Plan {
	plan := Plan{Links: NewLinkSet()}
	if output == nil {
		return plan
	}

	for _, input := range inputs {
		match := MatchChannels(input, output)
		if match.Unlinkable() {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("node %d (%s) shares no channel labels with output %d (%s), skipping",
					input.ID, input.Description, output.ID, output.Description))
			continue
		}
		for _, ch := range match.Skipped {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("node %d channel %s has no matching port on output %d", input.ID, ch, output.ID))
		}
		for _, pairing := range match.Pairings {
			plan.Links.Add(LinkKey{SourcePort: pairing.Source.ID, DestPort: pairing.Dest.ID})
		}
	}

	return plan
}
