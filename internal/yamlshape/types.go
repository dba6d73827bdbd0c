package yamlshape

// FlagKind distinguishes the two shapes a challenge's flag value can take.
type FlagKind int

const (
	FlagString FlagKind = iota
	FlagFile
)

// Flag is either a literal flag string or a relative path to a file
// containing it. Exactly one of Literal/Path is meaningful, selected by
// Kind — a tagged union rather than two optional fields.
type Flag struct {
	Kind    FlagKind
	Literal string
	Path    string
}

// ContainerType classifies a file entry's role in the deployed challenge.
type ContainerType int

const (
	ContainerStatic ContainerType = iota
	ContainerNc
	ContainerWeb
	ContainerAdmin
)

func (c ContainerType) String() string {
	switch c {
	case ContainerStatic:
		return "static"
	case ContainerNc:
		return "nc"
	case ContainerWeb:
		return "web"
	case ContainerAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func parseContainerType(s string) (ContainerType, bool) {
	switch s {
	case "Static", "static":
		return ContainerStatic, true
	case "Nc", "nc", "NC":
		return ContainerNc, true
	case "Web", "web":
		return ContainerWeb, true
	case "Admin", "admin":
		return ContainerAdmin, true
	default:
		return 0, false
	}
}

// FileEntry is one member of the optional top-level `files` sequence.
type FileEntry struct {
	SrcPath       string
	ContainerType *ContainerType // nil when the entry omits container_type
}

// Protocol is the transport a deploy target's exposed port is reachable
// over.
type Protocol int

const (
	ProtocolTcp Protocol = iota
	ProtocolUdp
)

func (p Protocol) String() string {
	if p == ProtocolUdp {
		return "udp"
	}
	return "tcp"
}

// Expose is a parsed `<port>/<tcp|udp>` value.
type Expose struct {
	Port     uint32
	Protocol Protocol
}

// DeployTargetType is one of the three places a challenge workload can be
// exposed.
type DeployTargetType int

const (
	TargetWeb DeployTargetType = iota
	TargetAdmin
	TargetNc
)

func (t DeployTargetType) String() string {
	switch t {
	case TargetWeb:
		return "web"
	case TargetAdmin:
		return "admin"
	case TargetNc:
		return "nc"
	default:
		return "unknown"
	}
}

// OrderedDeployTargets is the iteration order spec.md's pipeline engine
// requires: Web, then Admin, then Nc, skipping any target absent from the
// document.
var OrderedDeployTargets = []DeployTargetType{TargetWeb, TargetAdmin, TargetNc}

// DeployTarget is one entry of the optional top-level `deploy` mapping.
type DeployTarget struct {
	Expose   Expose
	Replicas uint8
	Build    string // relative path, default "."
}
