// Package descriptor decodes the tag-length-value descriptor loops carried
// in MPEG-TS sections.
//
// A Registry maps a (tag, Context) pair to a Decoder. Standard packages
// (mpeg, dvb, atsc, isdb, scte35) populate a Registry at start-up; after
// Freeze it is read concurrently without locks. A Walker splits a loop
// region into triples, resolves each tag along an ordered chain of
// contexts and yields one Outcome per descriptor:
//
//	w := descriptor.NewWalker(reg, descriptor.WalkerOptContexts(descriptor.ContextISDB, descriptor.ContextMPEG))
//	for o := range w.Walk(region) {
//		switch r := o.Record.(type) {
//		case *isdb.EventSeries:
//			...
//		case *descriptor.Unknown:
//			...
//		}
//	}
//
// Unregistered tags are skipped using their declared length and surface as
// *Unknown records. A decoder failure is reported on its own Outcome and
// the walk continues; only a header or length that runs past the region
// ends it.
package descriptor
