package descriptor

// Record is a decoded descriptor. Each standard package defines its own
// concrete record types; callers recover them with a type switch.
type Record interface {
	DescriptorTag() uint8
}

// Unknown holds a descriptor whose tag has no decoder in any context of the
// lookup chain. Payload is a copy and does not alias the section buffer.
type Unknown struct {
	Tag     uint8
	Payload []byte
}

func (u *Unknown) DescriptorTag() uint8 { return u.Tag }
