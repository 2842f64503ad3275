package model

// Kind identifies the level of a node in the resource tree.
type Kind uint8

const (
	// KindSession is the tree root.
	KindSession Kind = iota

	// KindChassis is one chassis connection.
	KindChassis

	// KindModule is a module slot in a chassis.
	KindModule

	// KindPort is a test port on a module.
	KindPort
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindChassis:
		return "chassis"
	case KindModule:
		return "module"
	case KindPort:
		return "port"
	default:
		return "unknown"
	}
}
