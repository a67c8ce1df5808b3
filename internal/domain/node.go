package domain

import "sort"

// Direction indicates which way a port carries signal relative to its node
type Direction string

const (
	DirectionIn  Direction = "in"  // port accepts signal
	DirectionOut Direction = "out" // port produces signal
)

// MediaRole is the coarse role a node plays in the media graph,
// derived from the media class string reported by the graph service
type MediaRole string

const (
	MediaRoleAudioInput   MediaRole = "audio_input"
	MediaRoleAudioOutput  MediaRole = "audio_output"
	MediaRoleVideoInput   MediaRole = "video_input"
	MediaRoleVideoOutput  MediaRole = "video_output"
	MediaRoleOtherVirtual MediaRole = "other_virtual"
)

// Node represents one audio device or stream endpoint in the external graph.
// The mixer only observes nodes; it never creates or destroys them.
type Node struct {
	ID          uint32 `json:"id"`
	Description string `json:"description"`
	MediaClass  string `json:"media_class"`
	Ports       []Port `json:"ports,omitempty"`
}

// Port is one channel endpoint belonging to a node. A port identifier is
// only meaningful while its owning node exists in the graph.
type Port struct {
	ID        uint32    `json:"id"`
	NodeID    uint32    `json:"node_id"`
	Channel   string    `json:"channel"`
	Direction Direction `json:"direction"`
}

// Role maps the reported media class onto a MediaRole.
// A capture device (Audio/Source) feeds the mixer, so it is an audio input;
// a playback device (Audio/Sink) receives the mix, so it is an audio output.
func (n *Node) Role() MediaRole {
	switch n.MediaClass {
	case "Audio/Source", "Stream/Output/Audio":
		return MediaRoleAudioInput
	case "Audio/Sink", "Stream/Input/Audio":
		return MediaRoleAudioOutput
	case "Video/Source", "Stream/Output/Video":
		return MediaRoleVideoInput
	case "Video/Sink", "Stream/Input/Video":
		return MediaRoleVideoOutput
	default:
		return MediaRoleOtherVirtual
	}
}

// PortsByDirection returns the node's ports with the given direction,
// sorted by port ID for deterministic pairing.
func (n *Node) PortsByDirection(dir Direction) []Port {
	var ports []Port
	for _, p := range n.Ports {
		if p.Direction == dir {
			ports = append(ports, p)
		}
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].ID < ports[j].ID })
	return ports
}
