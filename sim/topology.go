package sim

import "strings"

// Star topology: one origin node with a dedicated point-to-point link
// to each class's receiver, mirroring the reference setup of one
// sender fanned out over per-receiver links.
const (
	OriginNode = "origin"

	// receiverPort is the well-known port every receiver listens on.
	receiverPort uint16 = 8081

	// originBasePort is the first source port handed to a flow.
	originBasePort uint16 = 49152
)

// ReceiverNode names the receiver node for a class.
func ReceiverNode(class Class) string {
	return "receiver-" + strings.ToLower(class.String())
}

// BuildStarTopology connects the origin to one receiver per class and
// returns the class-to-destination table. Destinations are static for
// the simulation's lifetime.
func BuildStarTopology(network *Network, cfg Config) (map[Class]Endpoint, error) {
	destinations := make(map[Class]Endpoint, len(Classes))
	for _, class := range Classes {
		node := ReceiverNode(class)
		if err := network.Connect(OriginNode, node, cfg.LinkRateBps, cfg.LinkDelay); err != nil {
			return nil, err
		}
		destinations[class] = Endpoint{Node: node, Port: receiverPort}
	}
	return destinations, nil
}
