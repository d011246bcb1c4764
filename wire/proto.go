package wire

// IPProto represents an IP protocol/next-header number as assigned by IANA.
// Only the subset relevant to a TCP/IPv6 stack is enumerated; unknown values
// still round-trip through the type.
type IPProto uint8

const (
	IPProtoHopByHop  IPProto = 0  // IPv6 Hop-by-Hop Option
	IPProtoICMP      IPProto = 1  // Internet Control Message
	IPProtoTCP       IPProto = 6  // Transmission Control
	IPProtoUDP       IPProto = 17 // User Datagram
	IPProtoIPv6Route IPProto = 43 // Routing Header for IPv6
	IPProtoIPv6Frag  IPProto = 44 // Fragment Header for IPv6
	IPProtoIPv6ICMP  IPProto = 58 // ICMP for IPv6
	IPProtoIPv6NoNxt IPProto = 59 // No Next Header for IPv6
	IPProtoIPv6Opts  IPProto = 60 // Destination Options for IPv6
)

func (p IPProto) String() string {
	switch p {
	case IPProtoHopByHop:
		return "hopbyhop"
	case IPProtoICMP:
		return "icmp"
	case IPProtoTCP:
		return "tcp"
	case IPProtoUDP:
		return "udp"
	case IPProtoIPv6Route:
		return "ipv6-route"
	case IPProtoIPv6Frag:
		return "ipv6-frag"
	case IPProtoIPv6ICMP:
		return "ipv6-icmp"
	case IPProtoIPv6NoNxt:
		return "ipv6-nonxt"
	case IPProtoIPv6Opts:
		return "ipv6-opts"
	default:
		return "proto(?)"
	}
}
