package descriptor

// Context names the tag space a descriptor tag is interpreted in. The same
// numeric tag means different things under different broadcast standards,
// so decoders are registered per (tag, Context). The set is open: extension
// packages may declare their own values.
type Context string

// Well-known contexts.
const (
	ContextMPEG   Context = "mpeg"   // ISO/IEC 13818-1, tags 0x00-0x3F
	ContextDVB    Context = "dvb"    // ETSI EN 300 468
	ContextATSC   Context = "atsc"   // ATSC A/65, A/52
	ContextISDB   Context = "isdb"   // ARIB STD-B10
	ContextSCTE35 Context = "scte35" // splice_descriptor() loop of a splice_info_section
)
