package scte35

import "fmt"

// SegmentationType is a segmentation_type_id (SCTE-35 Table 22).
type SegmentationType uint8

const (
	SegmentationTypeNotIndicated              SegmentationType = 0x00
	SegmentationTypeContentIdentification     SegmentationType = 0x01
	SegmentationTypeProgramStart              SegmentationType = 0x10
	SegmentationTypeProgramEnd                SegmentationType = 0x11
	SegmentationTypeProgramEarlyTermination   SegmentationType = 0x12
	SegmentationTypeProgramBreakaway          SegmentationType = 0x13
	SegmentationTypeProgramResumption         SegmentationType = 0x14
	SegmentationTypeProgramRunoverPlanned     SegmentationType = 0x15
	SegmentationTypeProgramRunoverUnplanned   SegmentationType = 0x16
	SegmentationTypeProgramOverlapStart       SegmentationType = 0x17
	SegmentationTypeProgramBlackoutOverride   SegmentationType = 0x18
	SegmentationTypeProgramStartInProgress    SegmentationType = 0x19
	SegmentationTypeChapterStart              SegmentationType = 0x20
	SegmentationTypeChapterEnd                SegmentationType = 0x21
	SegmentationTypeBreakStart                SegmentationType = 0x22
	SegmentationTypeBreakEnd                  SegmentationType = 0x23
	SegmentationTypeOpeningCreditStart        SegmentationType = 0x24
	SegmentationTypeOpeningCreditEnd          SegmentationType = 0x25
	SegmentationTypeClosingCreditStart        SegmentationType = 0x26
	SegmentationTypeClosingCreditEnd          SegmentationType = 0x27
	SegmentationTypeProviderAdStart           SegmentationType = 0x30
	SegmentationTypeProviderAdEnd             SegmentationType = 0x31
	SegmentationTypeDistributorAdStart        SegmentationType = 0x32
	SegmentationTypeDistributorAdEnd          SegmentationType = 0x33
	SegmentationTypeProviderPOStart           SegmentationType = 0x34
	SegmentationTypeProviderPOEnd             SegmentationType = 0x35
	SegmentationTypeDistributorPOStart        SegmentationType = 0x36
	SegmentationTypeDistributorPOEnd          SegmentationType = 0x37
	SegmentationTypeProviderOverlayPOStart    SegmentationType = 0x38
	SegmentationTypeProviderOverlayPOEnd      SegmentationType = 0x39
	SegmentationTypeDistributorOverlayPOStart SegmentationType = 0x3a
	SegmentationTypeDistributorOverlayPOEnd   SegmentationType = 0x3b
	SegmentationTypeProviderPromoStart        SegmentationType = 0x3c
	SegmentationTypeProviderPromoEnd          SegmentationType = 0x3d
	SegmentationTypeDistributorPromoStart     SegmentationType = 0x3e
	SegmentationTypeDistributorPromoEnd       SegmentationType = 0x3f
	SegmentationTypeUnscheduledEventStart     SegmentationType = 0x40
	SegmentationTypeUnscheduledEventEnd       SegmentationType = 0x41
	SegmentationTypeAltConOppStart            SegmentationType = 0x42
	SegmentationTypeAltConOppEnd              SegmentationType = 0x43
	SegmentationTypeProviderAdBlockStart      SegmentationType = 0x44
	SegmentationTypeProviderAdBlockEnd        SegmentationType = 0x45
	SegmentationTypeDistributorAdBlockStart   SegmentationType = 0x46
	SegmentationTypeDistributorAdBlockEnd     SegmentationType = 0x47
	SegmentationTypeNetworkStart              SegmentationType = 0x50
	SegmentationTypeNetworkEnd                SegmentationType = 0x51
)

var segmentationTypeNames = map[SegmentationType]string{
	SegmentationTypeNotIndicated:              "Not Indicated",
	SegmentationTypeContentIdentification:     "Content Identification",
	SegmentationTypeProgramStart:              "Program Start",
	SegmentationTypeProgramEnd:                "Program End",
	SegmentationTypeProgramEarlyTermination:   "Program Early Termination",
	SegmentationTypeProgramBreakaway:          "Program Breakaway",
	SegmentationTypeProgramResumption:         "Program Resumption",
	SegmentationTypeProgramRunoverPlanned:     "Program Runover Planned",
	SegmentationTypeProgramRunoverUnplanned:   "Program Runover Unplanned",
	SegmentationTypeProgramOverlapStart:       "Program Overlap Start",
	SegmentationTypeProgramBlackoutOverride:   "Program Blackout Override",
	SegmentationTypeProgramStartInProgress:    "Program Start - In Progress",
	SegmentationTypeChapterStart:              "Chapter Start",
	SegmentationTypeChapterEnd:                "Chapter End",
	SegmentationTypeBreakStart:                "Break Start",
	SegmentationTypeBreakEnd:                  "Break End",
	SegmentationTypeOpeningCreditStart:        "Opening Credit Start",
	SegmentationTypeOpeningCreditEnd:          "Opening Credit End",
	SegmentationTypeClosingCreditStart:        "Closing Credit Start",
	SegmentationTypeClosingCreditEnd:          "Closing Credit End",
	SegmentationTypeProviderAdStart:           "Provider Advertisement Start",
	SegmentationTypeProviderAdEnd:             "Provider Advertisement End",
	SegmentationTypeDistributorAdStart:        "Distributor Advertisement Start",
	SegmentationTypeDistributorAdEnd:          "Distributor Advertisement End",
	SegmentationTypeProviderPOStart:           "Provider Placement Opportunity Start",
	SegmentationTypeProviderPOEnd:             "Provider Placement Opportunity End",
	SegmentationTypeDistributorPOStart:        "Distributor Placement Opportunity Start",
	SegmentationTypeDistributorPOEnd:          "Distributor Placement Opportunity End",
	SegmentationTypeProviderOverlayPOStart:    "Provider Overlay Placement Opportunity Start",
	SegmentationTypeProviderOverlayPOEnd:      "Provider Overlay Placement Opportunity End",
	SegmentationTypeDistributorOverlayPOStart: "Distributor Overlay Placement Opportunity Start",
	SegmentationTypeDistributorOverlayPOEnd:   "Distributor Overlay Placement Opportunity End",
	SegmentationTypeProviderPromoStart:        "Provider Promo Start",
	SegmentationTypeProviderPromoEnd:          "Provider Promo End",
	SegmentationTypeDistributorPromoStart:     "Distributor Promo Start",
	SegmentationTypeDistributorPromoEnd:       "Distributor Promo End",
	SegmentationTypeUnscheduledEventStart:     "Unscheduled Event Start",
	SegmentationTypeUnscheduledEventEnd:       "Unscheduled Event End",
	SegmentationTypeAltConOppStart:            "Alternate Content Opportunity Start",
	SegmentationTypeAltConOppEnd:              "Alternate Content Opportunity End",
	SegmentationTypeProviderAdBlockStart:      "Provider Ad Block Start",
	SegmentationTypeProviderAdBlockEnd:        "Provider Ad Block End",
	SegmentationTypeDistributorAdBlockStart:   "Distributor Ad Block Start",
	SegmentationTypeDistributorAdBlockEnd:     "Distributor Ad Block End",
	SegmentationTypeNetworkStart:              "Network Start",
	SegmentationTypeNetworkEnd:                "Network End",
}

func (t SegmentationType) String() string {
	if name, ok := segmentationTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
}

// HasSubSegments reports whether descriptors of this type may carry
// sub_segment_num and sub_segments_expected.
func (t SegmentationType) HasSubSegments() bool {
	switch t {
	case SegmentationTypeProviderPOStart, SegmentationTypeDistributorPOStart,
		SegmentationTypeProviderOverlayPOStart, SegmentationTypeDistributorOverlayPOStart:
		return true
	}
	return false
}
