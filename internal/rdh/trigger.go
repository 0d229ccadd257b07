package rdh

import "strings"

// Trigger-type bit positions as emitted by the central trigger processor.
const (
	TriggerORBIT = 1 << iota // orbit marker
	TriggerHB                // heartbeat
	TriggerHBr               // heartbeat reject
	TriggerHC                // health check
	TriggerPhT               // physics trigger
	TriggerPP                // pre-pulse
	TriggerCal               // calibration
	TriggerSOT               // start of triggered data
	TriggerEOT               // end of triggered data
	TriggerSOC               // start of continuous data
	TriggerEOC               // end of continuous data
	TriggerTF                // time frame delimiter
	TriggerFErst             // front-end reset
	TriggerRT                // run type
	TriggerRS                // running state
)

// triggerNames lists the flag names in bit order.
var triggerNames = []string{
	"ORBIT", "HB", "HBr", "HC", "PhT", "PP", "Cal",
	"SOT", "EOT", "SOC", "EOC", "TF", "FErst", "RT", "RS",
}

// TriggerBits renders a trigger-type mask as its set flag names, e.g.
// "ORBIT HB SOC TF RT RS" for 0x6A03. Unknown high bits are ignored; an
// empty mask renders as "none".
func TriggerBits(mask uint32) string {
	var names []string
	for i, name := range triggerNames {
		if mask&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, " ")
}
